package app

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/mmcdole/crate/internal/domain"
	"github.com/mmcdole/crate/internal/search"
	"github.com/mmcdole/crate/internal/tui/styles"
)

const (
	maxArtistWidth = 28
	maxTitleWidth  = 36
	maxLabelWidth  = 20
)

var entryHeaders = []string{"Instance", "Artist", "Title", "Year", "Format", "Label", "Cat#", ""}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.TableBorderStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.TableHeaderStyle
			}
			return styles.TableCellStyle
		}).
		Headers(headers...)
}

func entryRow(e domain.CacheEntry, title string) []string {
	return []string{
		strconv.FormatInt(e.InstanceID, 10),
		styles.Truncate(e.Artist, maxArtistWidth),
		title,
		formatYear(e.Year),
		e.Format,
		styles.Truncate(e.Label, maxLabelWidth),
		e.CatalogNumber,
		badges(e),
	}
}

func badges(e domain.CacheEntry) string {
	var parts []string
	if e.IsNew {
		parts = append(parts, styles.NewBadgeStyle.Render("NEW"))
	}
	if e.HasAnnotation {
		parts = append(parts, styles.NoteBadgeStyle.Render("NOTE"))
	}
	return strings.Join(parts, " ")
}

func formatYear(year int) string {
	if year <= 0 {
		return "-"
	}
	return strconv.Itoa(year)
}

// renderEntries writes entries as a table, or a dim placeholder when empty.
func renderEntries(w io.Writer, entries []domain.CacheEntry, empty string) {
	if len(entries) == 0 {
		fmt.Fprintln(w, styles.DimStyle.Render(empty))
		return
	}
	t := newTable(entryHeaders...)
	for _, e := range entries {
		t.Row(entryRow(e, styles.Truncate(e.Title, maxTitleWidth))...)
	}
	fmt.Fprintln(w, t.String())
}

// renderResults writes search results with matched characters highlighted.
func renderResults(w io.Writer, results []search.Result) {
	if len(results) == 0 {
		fmt.Fprintln(w, styles.DimStyle.Render("No matches."))
		return
	}
	t := newTable("Instance", "Match", "Year", "Format", "")
	for _, r := range results {
		match := search.DisplayName(r.Entry)
		if r.Field == search.FieldArtistTitle {
			match = styles.Highlight(match, r.MatchedIndexes)
		} else {
			match += styles.DimStyle.Render("  [" + strings.Join(slices.Concat(r.Entry.Genres, r.Entry.Styles), ", ") + "]")
		}
		t.Row(
			strconv.FormatInt(r.Entry.InstanceID, 10),
			match,
			formatYear(r.Entry.Year),
			r.Entry.Format,
			badges(r.Entry),
		)
	}
	fmt.Fprintln(w, t.String())
}
