package launcher

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"

	"github.com/pkg/browser"
)

// Launcher opens release pages and note files in an external application
type Launcher struct {
	command string   // configured opener, empty for system default
	args    []string // additional arguments for the opener
	goos    string
	start   func(*exec.Cmd) error
	openURL func(string) error // system default handler
	logger  *slog.Logger
}

// New creates a Launcher. An empty command selects the system default
// handler.
func New(command string, args []string, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{
		command: command,
		args:    args,
		goos:    runtime.GOOS,
		start:   (*exec.Cmd).Start,
		openURL: browser.OpenURL,
		logger:  logger,
	}
}

// Open opens target, a URL or file path. A configured opener is started
// asynchronously; Open does not wait for it to exit.
func (l *Launcher) Open(target string) error {
	if l.command == "" {
		l.logger.Info("launching with system default", "os", l.goos, "target", target)
		if err := l.openURL(target); err != nil {
			return fmt.Errorf("failed to open %s: %w", target, err)
		}
		return nil
	}

	cmd := l.buildCmd(target)
	l.logger.Info("launching opener", "command", cmd.Args[0], "args", cmd.Args[1:])
	if err := l.start(cmd); err != nil {
		return fmt.Errorf("failed to open %s: %w", target, err)
	}
	return nil
}

func (l *Launcher) buildCmd(target string) *exec.Cmd {
	// On macOS, launch GUI apps with 'open -a' if the command is not in PATH
	if l.goos == "darwin" {
		if _, err := exec.LookPath(l.command); err != nil {
			args := []string{"-a", l.command}
			if len(l.args) > 0 {
				args = append(args, "--args")
				args = append(args, l.args...)
			}
			return exec.Command("open", append(args, target)...)
		}
	}
	args := append(append([]string{}, l.args...), target)
	return exec.Command(l.command, args...)
}
