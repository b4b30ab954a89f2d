package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/crate/internal/domain"
	"github.com/mmcdole/crate/internal/tui/styles"
)

const maxBarWidth = 60

// SyncModel renders a running sync: spinner, page counter and a progress
// bar. ctrl+c, q or esc request cancellation; the model quits once the
// stream reports a terminal event.
type SyncModel struct {
	username string
	events   <-chan domain.SyncEvent
	cancel   func() bool

	spinner  spinner.Model
	bar      progress.Model
	current  domain.SyncProgress
	started  bool
	stopping bool

	done   bool
	result domain.SyncResult
	err    error
}

// NewSyncModel creates a model reading from events. cancel is invoked on
// the first cancellation key press.
func NewSyncModel(username string, events <-chan domain.SyncEvent, cancel func() bool) SyncModel {
	return SyncModel{
		username: username,
		events:   events,
		cancel:   cancel,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.SpinnerStyle)),
		bar:      progress.New(progress.WithGradient(styles.ProgressStart, styles.ProgressEnd), progress.WithWidth(40)),
	}
}

func (m SyncModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, listenToSyncCmd(m.events))
}

func (m SyncModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if m.done {
				return m, tea.Quit
			}
			if !m.stopping && m.cancel != nil {
				m.cancel()
			}
			m.stopping = true
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-10, 10), maxBarWidth)
		return m, nil

	case SyncEventMsg:
		if msg.Event.Done {
			m.done = true
			m.result = msg.Event.Result
			m.err = msg.Event.Err
			return m, tea.Quit
		}
		m.started = true
		m.current = msg.Event.Progress
		return m, msg.NextCmd

	case syncStreamClosedMsg:
		m.done = true
		if m.err == nil && m.result.RunID == "" {
			m.err = errors.New("sync stream closed unexpectedly")
		}
		return m, tea.Quit

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m SyncModel) View() string {
	if m.done {
		return m.summary() + "\n"
	}

	var b strings.Builder
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	switch {
	case m.stopping:
		b.WriteString(styles.AccentStyle.Render("Cancelling sync..."))
	case !m.started:
		b.WriteString(fmt.Sprintf("Syncing collection of %s", styles.TitleStyle.Render(m.username)))
	default:
		b.WriteString(fmt.Sprintf("Syncing %s: page %d of %d, %d items",
			styles.TitleStyle.Render(m.username), m.current.Page, m.current.TotalPages, m.current.ItemsLoaded))
	}
	b.WriteString("\n\n  ")
	b.WriteString(m.bar.ViewAs(m.percent()))
	b.WriteString("\n\n")
	b.WriteString(styles.DimStyle.Render("  q/ctrl+c: cancel"))
	b.WriteString("\n")
	return b.String()
}

// Outcome returns the terminal result once the stream has finished.
func (m SyncModel) Outcome() (domain.SyncResult, error) {
	return m.result, m.err
}

// Done reports whether the sync reached a terminal state.
func (m SyncModel) Done() bool {
	return m.done
}

func (m SyncModel) percent() float64 {
	if m.current.TotalPages <= 0 {
		return 0
	}
	return float64(m.current.Page) / float64(m.current.TotalPages)
}

func (m SyncModel) summary() string {
	return FormatOutcome(m.result, m.err)
}

// FormatOutcome renders a one-line, styled summary of a finished sync.
func FormatOutcome(result domain.SyncResult, err error) string {
	switch {
	case err == nil:
		return styles.SuccessStyle.Render("✓ Sync complete") +
			fmt.Sprintf(": %d added, %d removed, %d total (%s)",
				result.Added, result.Removed, result.Total, result.Duration.Round(time.Millisecond))
	case errors.Is(err, domain.ErrCancelled):
		return styles.AccentStyle.Render("Sync cancelled") + styles.DimStyle.Render(": cached collection unchanged")
	default:
		return styles.ErrorStyle.Render("✗ Sync failed") + ": " + err.Error()
	}
}
