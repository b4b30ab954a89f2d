package library

import (
	"fmt"
	"strings"

	"github.com/mmcdole/crate/internal/domain"
)

const (
	unknownPlaceholder  = "Unknown"
	untitledPlaceholder = "Untitled"
)

// Reconciliation is the outcome of merging fresh records into a cache.
type Reconciliation struct {
	Entries []domain.CacheEntry

	NewCount     int
	RemovedCount int

	// DuplicatesDropped counts fresh records that shared an instance ID
	// with an earlier record and overwrote it.
	DuplicatesDropped int

	previousIDs map[int64]struct{}
}

// Reconcile merges freshly fetched records into the previous cache.
// Entries follow the order of fresh. Annotation fields of entries already
// present in old are carried forward; everything else comes from fresh.
// When fresh repeats an instance ID, the last occurrence wins and takes
// the position of the first. Neither input is modified.
func Reconcile(old []domain.CacheEntry, fresh []domain.RemoteRecord) Reconciliation {
	previous := make(map[int64]domain.CacheEntry, len(old))
	for _, e := range old {
		previous[e.InstanceID] = e
	}

	entries := make([]domain.CacheEntry, 0, len(fresh))
	position := make(map[int64]int, len(fresh))
	dropped := 0

	for _, rec := range fresh {
		entry := project(rec)
		if prev, ok := previous[rec.InstanceID]; ok {
			entry.IsNew = false
			entry.HasAnnotation = prev.HasAnnotation
			entry.AnnotationRef = prev.AnnotationRef
		} else {
			entry.IsNew = true
		}

		if i, dup := position[rec.InstanceID]; dup {
			entries[i] = entry
			dropped++
			continue
		}
		position[rec.InstanceID] = len(entries)
		entries = append(entries, entry)
	}

	newCount := 0
	for _, e := range entries {
		if e.IsNew {
			newCount++
		}
	}

	ids := make(map[int64]struct{}, len(previous))
	for id := range previous {
		ids[id] = struct{}{}
	}

	return Reconciliation{
		Entries:           entries,
		NewCount:          newCount,
		RemovedCount:      len(previous) - (len(entries) - newCount),
		DuplicatesDropped: dropped,
		previousIDs:       ids,
	}
}

// Metadata summarizes the reconciled entries.
func (r Reconciliation) Metadata() domain.Metadata {
	return domain.Metadata{
		TotalCount:          len(r.Entries),
		CountWithAnnotation: domain.CountAnnotated(r.Entries),
	}
}

// Validate checks instance ID uniqueness and recomputes the removed count
// as an explicit set difference.
func (r Reconciliation) Validate() error {
	seen := make(map[int64]struct{}, len(r.Entries))
	for _, e := range r.Entries {
		if _, dup := seen[e.InstanceID]; dup {
			return fmt.Errorf("%w: duplicate instance id %d", domain.ErrInvariant, e.InstanceID)
		}
		seen[e.InstanceID] = struct{}{}
	}

	removed := 0
	for id := range r.previousIDs {
		if _, ok := seen[id]; !ok {
			removed++
		}
	}
	if removed != r.RemovedCount {
		return fmt.Errorf("%w: removed count %d, set difference %d", domain.ErrInvariant, r.RemovedCount, removed)
	}
	return nil
}

// project flattens a remote record, substituting placeholders for
// missing nested data.
func project(rec domain.RemoteRecord) domain.CacheEntry {
	info := rec.BasicInformation

	entry := domain.CacheEntry{
		ID:            rec.ID,
		InstanceID:    rec.InstanceID,
		Title:         info.Title,
		Artist:        joinArtists(info.Artists),
		Year:          info.Year,
		CoverURL:      info.CoverImage,
		ThumbURL:      info.Thumb,
		DateAdded:     rec.DateAdded,
		Genres:        cloneStrings(info.Genres),
		Styles:        cloneStrings(info.Styles),
		Format:        unknownPlaceholder,
		Label:         unknownPlaceholder,
		CatalogNumber: "",
	}
	if entry.Title == "" {
		entry.Title = untitledPlaceholder
	}
	if len(info.Formats) > 0 && info.Formats[0].Name != "" {
		entry.Format = info.Formats[0].Name
	}
	if len(info.Labels) > 0 {
		if info.Labels[0].Name != "" {
			entry.Label = info.Labels[0].Name
		}
		entry.CatalogNumber = info.Labels[0].Catno
	}
	return entry
}

func joinArtists(artists []domain.Artist) string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	if len(names) == 0 {
		return unknownPlaceholder
	}
	return strings.Join(names, ", ")
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
