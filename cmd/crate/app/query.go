package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmcdole/crate/internal/library"
	"github.com/mmcdole/crate/internal/tui/styles"
)

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show cache totals and the outcome of the last sync",
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
			stats, err := a.queries.Stats(cmd.Context(), username)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			row := func(label, value string) {
				fmt.Fprintf(out, "%s %s\n", styles.SubtitleStyle.Render(fmt.Sprintf("%-12s", label)), value)
			}
			fmt.Fprintln(out, styles.TitleStyle.Render("Collection of "+username))
			row("Releases", fmt.Sprint(stats.Metadata.TotalCount))
			row("Annotated", fmt.Sprint(stats.Metadata.CountWithAnnotation))
			row("New", fmt.Sprint(stats.NewCount))
			if stats.Metadata.LastSyncAt != nil {
				row("Last sync", fmt.Sprintf("%s (%s)",
					stats.Metadata.LastSyncAt.Local().Format(time.DateTime),
					time.Duration(stats.Metadata.LastSyncDurationMs)*time.Millisecond))
			} else {
				row("Last sync", styles.DimStyle.Render("never"))
			}
			if s := stats.Status; s != nil {
				outcome := string(s.Phase)
				if s.Message != "" {
					outcome += ": " + s.Message
				}
				row("Last run", fmt.Sprintf("%s [%s]", outcome, s.RunID))
			}
			if path := a.store.Path(); path != "" {
				row("Cache", styles.DimStyle.Render(path))
			}
			return nil
		},
	}
}

func newListCmd(opts *options) *cobra.Command {
	var (
		sortFlag    string
		annotated   bool
		unannotated bool
		listOpts    library.ListOptions
	)

	orders := make([]string, 0, len(library.SortOrders))
	for _, o := range library.SortOrders {
		orders = append(orders, string(o))
	}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached releases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			order, err := library.ParseSortOrder(sortFlag)
			if err != nil {
				return err
			}
			listOpts.Sort = order

			switch {
			case annotated && unannotated:
				return errors.New("--annotated and --unannotated are mutually exclusive")
			case annotated:
				listOpts.Annotation = library.AnnotationOnly
			case unannotated:
				listOpts.Annotation = library.AnnotationNone
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
			entries, err := a.queries.List(cmd.Context(), username, listOpts)
			if err != nil {
				return err
			}
			renderEntries(cmd.OutOrStdout(), entries, "No releases cached. Run `crate sync` first.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&sortFlag, "sort", "s", string(library.SortAddedNewest),
		"sort order: "+strings.Join(orders, ", "))
	cmd.Flags().BoolVar(&annotated, "annotated", false, "only releases with a note")
	cmd.Flags().BoolVar(&unannotated, "unannotated", false, "only releases without a note")
	cmd.Flags().StringVar(&listOpts.Genre, "genre", "", "filter by genre or style")
	cmd.Flags().StringVar(&listOpts.Format, "format", "", "filter by format, e.g. Vinyl")
	cmd.Flags().IntVarP(&listOpts.Limit, "limit", "n", 0, "maximum number of releases to show")
	return cmd
}

func newNewCmd(opts *options) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "new",
		Short: "List releases added recently",
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
			entries, err := a.queries.NewItems(cmd.Context(), username, days)
			if err != nil {
				return err
			}
			renderEntries(cmd.OutOrStdout(), entries, fmt.Sprintf("Nothing added in the last %d days.", days))
			return nil
		},
	}
	cmd.Flags().IntVarP(&days, "days", "d", library.DefaultNewItemsDays, "window in days")
	return cmd
}

func newSearchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Fuzzy search cached releases by artist, title, genre or style",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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
			results := a.searcher.Search(snap.Entries, strings.Join(args, " "))
			renderResults(cmd.OutOrStdout(), results)
			return nil
		},
	}
}
