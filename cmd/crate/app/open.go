package app

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mmcdole/crate/internal/discogs"
	"github.com/mmcdole/crate/internal/domain"
)

// notePath maps a note reference onto the file system. Relative
// references are resolved against vault.
func notePath(vault, ref string) (string, error) {
	p := filepath.FromSlash(ref)
	if filepath.IsAbs(p) {
		return p, nil
	}
	if vault == "" {
		return "", errors.New("notes.vault is not configured; cannot locate relative note " + ref)
	}
	return filepath.Join(vault, p), nil
}

func newOpenCmd(opts *options) *cobra.Command {
	var note bool

	cmd := &cobra.Command{
		Use:   "open <instance-id>",
		Short: "Open a cached release on discogs.com, or its note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			instanceID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid instance id %q", args[0])
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
			snap, err := a.queries.Snapshot(cmd.Context(), username)
			if err != nil {
				return err
			}
			i := snap.Find(instanceID)
			if i < 0 {
				return fmt.Errorf("%w: instance %d", domain.ErrNotFound, instanceID)
			}
			entry := snap.Entries[i]

			target := discogs.ReleasePageURL(entry.ID)
			if note {
				if !entry.HasAnnotation {
					return fmt.Errorf("instance %d has no note; run `crate annotate %d` first", instanceID, instanceID)
				}
				if target, err = notePath(a.cfg.Notes.Vault, entry.AnnotationRef); err != nil {
					return err
				}
			}
			if err := a.launcher.Open(target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Opened %s\n", target)
			return nil
		},
	}
	cmd.Flags().BoolVar(&note, "note", false, "open the release's note instead of its Discogs page")
	return cmd
}
