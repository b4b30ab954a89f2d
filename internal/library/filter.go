package library

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/mmcdole/crate/internal/domain"
)

// SortOrder selects the ordering of listed entries.
type SortOrder string

const (
	SortAddedNewest SortOrder = "added-new-old"
	SortAddedOldest SortOrder = "added-old-new"
	SortTitleAZ     SortOrder = "title-az"
	SortTitleZA     SortOrder = "title-za"
	SortArtistAZ    SortOrder = "artist-az"
	SortYearNewest  SortOrder = "year-new-old"
)

// SortOrders lists every supported order, default first.
var SortOrders = []SortOrder{
	SortAddedNewest, SortAddedOldest, SortTitleAZ, SortTitleZA, SortArtistAZ, SortYearNewest,
}

func ParseSortOrder(s string) (SortOrder, error) {
	if s == "" {
		return SortAddedNewest, nil
	}
	for _, o := range SortOrders {
		if string(o) == s {
			return o, nil
		}
	}
	return "", fmt.Errorf("unknown sort order %q", s)
}

// AnnotationFilter restricts entries by annotation state.
type AnnotationFilter int

const (
	AnnotationAny AnnotationFilter = iota
	AnnotationOnly
	AnnotationNone
)

// ListOptions controls Apply. Zero value lists everything newest first.
type ListOptions struct {
	Sort       SortOrder
	Annotation AnnotationFilter
	Genre      string // matches a genre or style, case-insensitive
	Format     string // case-insensitive
	Limit      int    // 0 means no limit
}

// Apply filters and sorts a copy of entries.
func Apply(entries []domain.CacheEntry, opts ListOptions) []domain.CacheEntry {
	out := make([]domain.CacheEntry, 0, len(entries))
	for _, e := range entries {
		if matches(e, opts) {
			out = append(out, e)
		}
	}
	SortEntries(out, opts.Sort)
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

func matches(e domain.CacheEntry, opts ListOptions) bool {
	switch opts.Annotation {
	case AnnotationOnly:
		if !e.HasAnnotation {
			return false
		}
	case AnnotationNone:
		if e.HasAnnotation {
			return false
		}
	}
	if opts.Format != "" && !strings.EqualFold(e.Format, opts.Format) {
		return false
	}
	if opts.Genre != "" {
		found := slices.ContainsFunc(e.Genres, func(g string) bool { return strings.EqualFold(g, opts.Genre) }) ||
			slices.ContainsFunc(e.Styles, func(g string) bool { return strings.EqualFold(g, opts.Genre) })
		if !found {
			return false
		}
	}
	return true
}

// SortEntries sorts in place. Ties keep their existing order.
func SortEntries(entries []domain.CacheEntry, order SortOrder) {
	var less func(a, b domain.CacheEntry) int
	switch order {
	case SortAddedOldest:
		less = func(a, b domain.CacheEntry) int { return a.AddedAt().Compare(b.AddedAt()) }
	case SortTitleAZ:
		less = func(a, b domain.CacheEntry) int { return compareFold(a.Title, b.Title) }
	case SortTitleZA:
		less = func(a, b domain.CacheEntry) int { return compareFold(b.Title, a.Title) }
	case SortArtistAZ:
		less = func(a, b domain.CacheEntry) int { return compareFold(a.Artist, b.Artist) }
	case SortYearNewest:
		less = func(a, b domain.CacheEntry) int { return cmp.Compare(b.Year, a.Year) }
	default:
		less = func(a, b domain.CacheEntry) int { return b.AddedAt().Compare(a.AddedAt()) }
	}
	slices.SortStableFunc(entries, less)
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}
