package search

import (
	"log/slog"
	"strings"

	lfuzzy "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sahilm/fuzzy"

	"github.com/mmcdole/crate/internal/domain"
)

// Field names which part of an entry matched.
type Field string

const (
	FieldArtistTitle Field = "artist-title"
	FieldTag         Field = "tag" // genre or style
)

// Result represents a search result with match metadata
type Result struct {
	Entry          domain.CacheEntry
	Field          Field
	MatchedIndexes []int // into DisplayName(Entry) for FieldArtistTitle
	Score          int
}

// DisplayName is the string artist-title matches are computed against.
func DisplayName(e domain.CacheEntry) string {
	return e.Artist + " - " + e.Title
}

// entryIndex implements sahilm/fuzzy.Source over display names. Matching
// folds case itself, so match indexes are byte offsets into DisplayName.
type entryIndex []domain.CacheEntry

func (idx entryIndex) String(i int) string { return DisplayName(idx[i]) }

func (idx entryIndex) Len() int { return len(idx) }

// Service handles fuzzy search over cached entries
type Service struct {
	logger *slog.Logger
}

// NewService creates a new search service
func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// Search ranks entries against query. Artist/title matches come first,
// best score first; entries matching only on a genre or style follow in
// collection order.
func (s *Service) Search(entries []domain.CacheEntry, query string) []Result {
	query = strings.TrimSpace(query)
	if query == "" || len(entries) == 0 {
		return nil
	}

	matches := fuzzy.FindFrom(query, entryIndex(entries))

	results := make([]Result, 0, len(matches))
	seen := make(map[int]bool, len(matches))
	for _, m := range matches {
		seen[m.Index] = true
		results = append(results, Result{
			Entry:          entries[m.Index],
			Field:          FieldArtistTitle,
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		})
	}

	for i, e := range entries {
		if seen[i] || !matchesTag(query, e) {
			continue
		}
		results = append(results, Result{Entry: e, Field: FieldTag})
	}

	s.logger.Debug("search", "query", query, "titleMatches", len(matches), "total", len(results))
	return results
}

// matchesTag reports whether query fuzzily matches a genre or style,
// ignoring case and diacritics.
func matchesTag(query string, e domain.CacheEntry) bool {
	for _, tags := range [][]string{e.Genres, e.Styles} {
		for _, tag := range tags {
			if lfuzzy.MatchNormalizedFold(query, tag) {
				return true
			}
		}
	}
	return false
}
