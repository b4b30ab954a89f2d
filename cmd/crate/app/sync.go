package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/mmcdole/crate/internal/domain"
	"github.com/mmcdole/crate/internal/library"
	"github.com/mmcdole/crate/internal/tui"
)

var errSyncFailed = errors.New("sync did not complete")

func newSyncCmd(opts *options) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch the collection from Discogs and reconcile the local cache",
		Long: `Fetch every page of the user's collection and replace the cached snapshot.
Annotations are carried over by instance id. A cancelled or failed sync leaves
the previous cache untouched.`,
		Args: cobra.NoArgs,
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

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if plain || !term.IsTerminal(int(os.Stdout.Fd())) {
				return runPlainSync(ctx, a.service, username, cmd.OutOrStdout())
			}
			return runInteractiveSync(ctx, a.service, username)
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print line-oriented progress instead of the interactive view")
	return cmd
}

// watchSignals requests cancellation of the running sync when ctx is
// cancelled before finished is closed.
func watchSignals(ctx context.Context, svc *library.Service, finished <-chan struct{}) error {
	select {
	case <-ctx.Done():
		svc.RequestCancel()
	case <-finished:
	}
	return nil
}

func runInteractiveSync(ctx context.Context, svc *library.Service, username string) error {
	// The sync itself is not bound to ctx; signals go through RequestCancel
	// so the stream always ends with a terminal event.
	events, err := svc.StartSync(context.WithoutCancel(ctx), username)
	if err != nil {
		return err
	}

	var final tea.Model
	finished := make(chan struct{})
	g := new(errgroup.Group)
	g.Go(func() error {
		defer close(finished)
		p := tea.NewProgram(tui.NewSyncModel(username, events, svc.RequestCancel))
		m, err := p.Run()
		final = m
		if err != nil {
			// Keep the service consistent if the terminal goes away.
			svc.RequestCancel()
			for range events {
			}
			return fmt.Errorf("failed to run sync view: %w", err)
		}
		return nil
	})
	g.Go(func() error { return watchSignals(ctx, svc, finished) })
	if err := g.Wait(); err != nil {
		return err
	}

	model, ok := final.(tui.SyncModel)
	if !ok || !model.Done() {
		return errSyncFailed
	}
	if _, err := model.Outcome(); err != nil && !errors.Is(err, domain.ErrCancelled) {
		return errSyncFailed
	}
	return nil
}

func runPlainSync(ctx context.Context, svc *library.Service, username string, out io.Writer) error {
	finished := make(chan struct{})

	var (
		result  domain.SyncResult
		syncErr error
	)

	fmt.Fprintf(out, "Syncing collection of %s\n", username)

	g := new(errgroup.Group)
	g.Go(func() error {
		defer close(finished)
		result, syncErr = svc.Sync(context.WithoutCancel(ctx), username, tui.NewProgressPrinter(out))
		return nil
	})
	g.Go(func() error { return watchSignals(ctx, svc, finished) })
	_ = g.Wait()

	fmt.Fprintln(out, tui.FormatOutcome(result, syncErr))
	switch {
	case syncErr == nil, errors.Is(syncErr, domain.ErrCancelled):
		return nil
	case errors.Is(syncErr, domain.ErrSyncInProgress):
		return syncErr
	default:
		return errSyncFailed
	}
}
