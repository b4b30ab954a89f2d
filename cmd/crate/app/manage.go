package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmcdole/crate/internal/config"
	"github.com/mmcdole/crate/internal/domain"
	"github.com/mmcdole/crate/internal/tui/styles"
)

// noteAnnotator derives a note path for an entry inside the notes folder.
// Creating the document itself is left to the host application.
type noteAnnotator struct {
	folder string
}

func (n noteAnnotator) Annotate(_ context.Context, e domain.CacheEntry) (string, error) {
	name := sanitizeFileName(e.Artist + " - " + e.Title)
	if name == "" {
		return "", fmt.Errorf("cannot derive a note name for instance %d", e.InstanceID)
	}
	if e.Year > 0 {
		name += fmt.Sprintf(" (%d)", e.Year)
	}
	return resolveRef(n.folder, name+".md")
}

// sanitizeFileName drops characters most file systems reject.
func sanitizeFileName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\\', '/', ':', '*', '?', '"', '<', '>', '|':
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// resolveRef places a relative reference inside folder. Absolute
// references and references already under folder are returned cleaned.
// Relative references may not climb out of folder.
func resolveRef(folder, ref string) (string, error) {
	ref = path.Clean(strings.ReplaceAll(ref, "\\", "/"))
	if path.IsAbs(ref) {
		return ref, nil
	}
	if ref == ".." || strings.HasPrefix(ref, "../") {
		return "", fmt.Errorf("note %q is outside the notes folder", ref)
	}
	if folder == "" {
		return ref, nil
	}
	folder = path.Clean(folder)
	if ref == folder || strings.HasPrefix(ref, folder+"/") {
		return ref, nil
	}
	return path.Join(folder, ref), nil
}

func newAnnotateCmd(opts *options) *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "annotate <instance-id> [note]",
		Short: "Mark a cached release as having a note",
		Long: `Record that a release has a note. With no note argument a path is derived
from the artist and title inside the configured notes folder. Relative paths
are placed inside that folder. --remove clears the annotation.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			instanceID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid instance id %q", args[0])
			}
			if remove && len(args) > 1 {
				return errors.New("--remove takes no note argument")
			}

			a, err := newApplication(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			username, err := a.username()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case remove:
				if err := a.service.RecordAnnotation(cmd.Context(), username, instanceID, ""); err != nil {
					return err
				}
				fmt.Fprintf(out, "Removed note from %d\n", instanceID)
			case len(args) == 2:
				ref, err := resolveRef(a.cfg.Notes.Folder, args[1])
				if err != nil {
					return err
				}
				if err := a.service.RecordAnnotation(cmd.Context(), username, instanceID, ref); err != nil {
					return err
				}
				fmt.Fprintf(out, "Annotated %d: %s\n", instanceID, styles.AccentStyle.Render(ref))
			default:
				ref, err := a.service.Annotate(cmd.Context(), username, instanceID, noteAnnotator{folder: a.cfg.Notes.Folder})
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Annotated %d: %s\n", instanceID, styles.AccentStyle.Render(ref))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&remove, "remove", false, "remove the annotation")
	return cmd
}

func newClearCmd(opts *options) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the cached collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApplication(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			username, err := a.username()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !yes {
				fmt.Fprintf(out, "Clear the cached collection of %s? Notes are kept but their links are lost. [y/N]: ", username)
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				answer = strings.ToLower(strings.TrimSpace(answer))
				if answer != "y" && answer != "yes" {
					fmt.Fprintln(out, "Aborted.")
					return nil
				}
			}
			if err := a.service.ClearCache(cmd.Context(), username); err != nil {
				return err
			}
			fmt.Fprintln(out, styles.SuccessStyle.Render("✓ Cache cleared"))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}

func newValidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that the configured user exists and report collection size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApplication(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			username, err := a.username()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			ok, err := a.client.ValidateUser(cmd.Context(), username)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("discogs user %q not found", username)
			}
			size, err := a.client.CollectionSize(cmd.Context(), username)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s %s has %d releases in their collection\n",
				styles.SuccessStyle.Render("✓"), styles.TitleStyle.Render(username), size)
			return nil
		},
	}
}

func newConfigCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set-username <name>",
		Short: "Set the Discogs user whose collection is synced",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := strings.TrimSpace(args[0])
			if username == "" {
				return errors.New("username must not be empty")
			}

			loader := config.NewLoader(opts.configDir)
			cfg, err := loader.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg.Discogs.Username = username
			if err := loader.Save(cfg); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Username set to %s\n", styles.TitleStyle.Render(username))
			return nil
		},
	})
	return cmd
}
