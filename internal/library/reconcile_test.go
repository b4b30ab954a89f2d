package library

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/crate/internal/domain"
)

func instanceIDs(entries []domain.CacheEntry) []int64 {
	ids := make([]int64, len(entries))
	for i, e := range entries {
		ids[i] = e.InstanceID
	}
	return ids
}

func TestReconcile_NewRecordKeepsExistingAnnotation(t *testing.T) {
	t.Parallel()

	old := []domain.CacheEntry{annotated(entry(101, "A"), "Discogs/Albums/a.md")}
	fresh := []domain.RemoteRecord{record(101, "A"), record(102, "B")}

	r := Reconcile(old, fresh)
	require.NoError(t, r.Validate())

	assert.Equal(t, 1, r.NewCount)
	assert.Equal(t, 0, r.RemovedCount)
	require.Len(t, r.Entries, 2)

	assert.Equal(t, int64(101), r.Entries[0].InstanceID)
	assert.True(t, r.Entries[0].HasAnnotation)
	assert.Equal(t, "Discogs/Albums/a.md", r.Entries[0].AnnotationRef)
	assert.False(t, r.Entries[0].IsNew)

	assert.Equal(t, int64(102), r.Entries[1].InstanceID)
	assert.True(t, r.Entries[1].IsNew)
	assert.False(t, r.Entries[1].HasAnnotation)

	meta := r.Metadata()
	assert.Equal(t, 2, meta.TotalCount)
	assert.Equal(t, 1, meta.CountWithAnnotation)
}

func TestReconcile_RemovedRecord(t *testing.T) {
	t.Parallel()

	old := []domain.CacheEntry{entry(101, "A"), entry(102, "B")}
	r := Reconcile(old, []domain.RemoteRecord{record(102, "B")})
	require.NoError(t, r.Validate())

	assert.Equal(t, 0, r.NewCount)
	assert.Equal(t, 1, r.RemovedCount)
	assert.Equal(t, []int64{102}, instanceIDs(r.Entries))
}

func TestReconcile_Idempotent(t *testing.T) {
	t.Parallel()

	old := []domain.CacheEntry{annotated(entry(7, "G"), "g.md")}
	fresh := []domain.RemoteRecord{record(5, "E"), record(7, "G"), record(9, "I")}

	first := Reconcile(old, fresh)
	second := Reconcile(first.Entries, fresh)
	require.NoError(t, second.Validate())

	assert.Equal(t, 0, second.NewCount)
	assert.Equal(t, 0, second.RemovedCount)
	require.Len(t, second.Entries, len(first.Entries))
	for i := range first.Entries {
		want := first.Entries[i]
		want.IsNew = false
		assert.Equal(t, want, second.Entries[i])
	}
}

func TestReconcile_AnnotationSurvivesFieldChanges(t *testing.T) {
	t.Parallel()

	old := []domain.CacheEntry{annotated(entry(1, "Old Title"), "note.md")}
	changed := record(1, "New Title")
	changed.BasicInformation.Year = 2001
	changed.BasicInformation.Formats = []domain.Format{{Name: "CD"}}

	r := Reconcile(old, []domain.RemoteRecord{changed})
	require.Len(t, r.Entries, 1)
	got := r.Entries[0]
	assert.Equal(t, "New Title", got.Title)
	assert.Equal(t, 2001, got.Year)
	assert.Equal(t, "CD", got.Format)
	assert.True(t, got.HasAnnotation)
	assert.Equal(t, "note.md", got.AnnotationRef)
}

func TestReconcile_CountInvariant(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		old   []int64
		fresh []int64
	}{
		{name: "both empty"},
		{name: "first sync", fresh: []int64{1, 2, 3}},
		{name: "everything removed", old: []int64{1, 2, 3}},
		{name: "disjoint", old: []int64{1, 2}, fresh: []int64{3, 4, 5}},
		{name: "overlap", old: []int64{1, 2, 3, 4}, fresh: []int64{3, 4, 5}},
		{name: "reordered", old: []int64{1, 2, 3}, fresh: []int64{3, 1, 2}},
		{name: "fresh duplicates", old: []int64{1}, fresh: []int64{2, 1, 2, 2}},
		{name: "old duplicates", old: []int64{1, 1, 2}, fresh: []int64{2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var old []domain.CacheEntry
			for _, id := range tt.old {
				old = append(old, entry(id, "x"))
			}
			var fresh []domain.RemoteRecord
			for _, id := range tt.fresh {
				fresh = append(fresh, record(id, "x"))
			}

			r := Reconcile(old, fresh)
			require.NoError(t, r.Validate())

			uniqueOld := map[int64]bool{}
			for _, id := range tt.old {
				uniqueOld[id] = true
			}
			assert.Equal(t, len(r.Entries), r.NewCount+(len(uniqueOld)-r.RemovedCount))

			ids := instanceIDs(r.Entries)
			sorted := slices.Clone(ids)
			slices.Sort(sorted)
			assert.Equal(t, len(sorted), len(slices.Compact(sorted)), "instance ids must be unique")
		})
	}
}

func TestReconcile_DuplicateFreshLastWins(t *testing.T) {
	t.Parallel()

	first := record(1, "First")
	other := record(2, "Other")
	last := record(1, "Last")

	r := Reconcile(nil, []domain.RemoteRecord{first, other, last})
	require.NoError(t, r.Validate())

	assert.Equal(t, []int64{1, 2}, instanceIDs(r.Entries))
	assert.Equal(t, "Last", r.Entries[0].Title)
	assert.Equal(t, 2, r.NewCount)
	assert.Equal(t, 1, r.DuplicatesDropped)
	assert.Equal(t, 2, r.Metadata().TotalCount)
}

func TestReconcile_Placeholders(t *testing.T) {
	t.Parallel()

	bare := domain.RemoteRecord{ID: 9, InstanceID: 900}
	r := Reconcile(nil, []domain.RemoteRecord{bare})
	require.Len(t, r.Entries, 1)

	got := r.Entries[0]
	assert.Equal(t, "Untitled", got.Title)
	assert.Equal(t, "Unknown", got.Artist)
	assert.Equal(t, "Unknown", got.Format)
	assert.Equal(t, "Unknown", got.Label)
	assert.Equal(t, "", got.CatalogNumber)
	assert.NotNil(t, got.Genres)
	assert.NotNil(t, got.Styles)
	assert.True(t, got.IsNew)
}

func TestReconcile_Projection(t *testing.T) {
	t.Parallel()

	rec := domain.RemoteRecord{
		ID:         2464521,
		InstanceID: 101,
		DateAdded:  "2024-03-01T10:00:00-08:00",
		BasicInformation: domain.BasicInformation{
			Title:      "Endtroducing.....",
			Year:       1996,
			Thumb:      "t.jpg",
			CoverImage: "c.jpg",
			Artists:    []domain.Artist{{Name: "DJ Shadow"}, {Name: "Cut Chemist"}},
			Formats:    []domain.Format{{Name: "Vinyl"}, {Name: "CD"}},
			Labels:     []domain.Label{{Name: "Mo' Wax", Catno: "MW059"}, {Name: "FFRR"}},
			Genres:     []string{"Hip Hop", "Electronic"},
			Styles:     []string{"Instrumental"},
		},
	}

	got := Reconcile(nil, []domain.RemoteRecord{rec}).Entries[0]
	assert.Equal(t, domain.CacheEntry{
		ID:            2464521,
		InstanceID:    101,
		Title:         "Endtroducing.....",
		Artist:        "DJ Shadow, Cut Chemist",
		Year:          1996,
		CoverURL:      "c.jpg",
		ThumbURL:      "t.jpg",
		DateAdded:     "2024-03-01T10:00:00-08:00",
		Genres:        []string{"Hip Hop", "Electronic"},
		Styles:        []string{"Instrumental"},
		Format:        "Vinyl",
		Label:         "Mo' Wax",
		CatalogNumber: "MW059",
		IsNew:         true,
	}, got)
}

func TestReconcile_DoesNotMutateInputs(t *testing.T) {
	t.Parallel()

	old := []domain.CacheEntry{annotated(entry(1, "A"), "a.md"), entry(2, "B")}
	fresh := []domain.RemoteRecord{record(2, "B"), record(3, "C")}
	oldCopy := slices.Clone(old)
	freshCopy := slices.Clone(fresh)

	r := Reconcile(old, fresh)
	r.Entries[0].Genres[0] = "changed"

	assert.Equal(t, oldCopy, old)
	assert.Equal(t, freshCopy[0].BasicInformation.Genres, fresh[0].BasicInformation.Genres)
	assert.Equal(t, "Electronic", fresh[0].BasicInformation.Genres[0])
}

func TestReconciliationValidate_DetectsDuplicates(t *testing.T) {
	t.Parallel()

	r := Reconciliation{Entries: []domain.CacheEntry{entry(1, "A"), entry(1, "A")}}
	assert.ErrorIs(t, r.Validate(), domain.ErrInvariant)
}

func TestReconciliationValidate_DetectsBadRemovedCount(t *testing.T) {
	t.Parallel()

	r := Reconcile([]domain.CacheEntry{entry(1, "A")}, nil)
	r.RemovedCount = 0
	assert.ErrorIs(t, r.Validate(), domain.ErrInvariant)
}
