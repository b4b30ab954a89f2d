package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/crate/internal/domain"
)

func sampleSnapshot() *domain.CollectionSnapshot {
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return &domain.CollectionSnapshot{
		Entries: []domain.CacheEntry{
			{ID: 10, InstanceID: 101, Title: "A", Artist: "X", Format: "Vinyl", Label: "L",
				Genres: []string{"Jazz"}, Styles: []string{}, HasAnnotation: true, AnnotationRef: "a.md"},
			{ID: 20, InstanceID: 102, Title: "B", Artist: "Y", Format: "CD", Label: "Unknown",
				Genres: []string{}, Styles: []string{}, IsNew: true},
		},
		Metadata: domain.Metadata{TotalCount: 2, CountWithAnnotation: 1, LastSyncDurationMs: 1500, LastSyncAt: &at},
	}
}

func newDiskStore(t *testing.T) (*CollectionStore, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewCollectionStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, dir
}

func TestCollectionStore_SnapshotRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		store func(t *testing.T) *CollectionStore
	}{
		{name: "disk", store: func(t *testing.T) *CollectionStore { s, _ := newDiskStore(t); return s }},
		{name: "memory", store: func(t *testing.T) *CollectionStore {
			s, err := NewCollectionStore("")
			require.NoError(t, err)
			return s
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			s := tt.store(t)

			empty, err := s.LoadSnapshot(ctx, "alice")
			require.NoError(t, err)
			assert.Empty(t, empty.Entries)
			assert.NotNil(t, empty.Entries)

			want := sampleSnapshot()
			require.NoError(t, s.SaveSnapshot(ctx, "alice", want))

			got, err := s.LoadSnapshot(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, want, got)

			other, err := s.LoadSnapshot(ctx, "bob")
			require.NoError(t, err)
			assert.Empty(t, other.Entries)
		})
	}
}

func TestCollectionStore_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dir := t.TempDir()
	s, err := NewCollectionStore(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, dbFileName), s.Path())

	require.NoError(t, s.SaveSnapshot(ctx, "alice", sampleSnapshot()))
	require.NoError(t, s.Close())

	reopened, err := NewCollectionStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.LoadSnapshot(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, sampleSnapshot(), got)
}

func TestCollectionStore_KeyIsCaseInsensitive(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newDiskStore(t)

	require.NoError(t, s.SaveSnapshot(ctx, "Alice", sampleSnapshot()))
	got, err := s.LoadSnapshot(ctx, " alice ")
	require.NoError(t, err)
	assert.Len(t, got.Entries, 2)
}

func TestCollectionStore_SaveReplacesWholesale(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newDiskStore(t)

	require.NoError(t, s.SaveSnapshot(ctx, "alice", sampleSnapshot()))
	smaller := &domain.CollectionSnapshot{
		Entries:  []domain.CacheEntry{{InstanceID: 103, Title: "C", Genres: []string{}, Styles: []string{}}},
		Metadata: domain.Metadata{TotalCount: 1},
	}
	require.NoError(t, s.SaveSnapshot(ctx, "alice", smaller))

	got, err := s.LoadSnapshot(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, smaller, got)
}

func TestCollectionStore_Clear(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newDiskStore(t)

	require.NoError(t, s.SaveSnapshot(ctx, "alice", sampleSnapshot()))
	require.NoError(t, s.ClearSnapshot(ctx, "alice"))

	got, err := s.LoadSnapshot(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, got.Entries)
	assert.Zero(t, got.Metadata.TotalCount)
	assert.Nil(t, got.Metadata.LastSyncAt)

	require.NoError(t, s.ClearSnapshot(ctx, "never-stored"))
}

func TestCollectionStore_CancelledContextWritesNothing(t *testing.T) {
	t.Parallel()
	s, _ := newDiskStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.SaveSnapshot(ctx, "alice", sampleSnapshot()), context.Canceled)

	got, err := s.LoadSnapshot(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, got.Entries)
}

func TestCollectionStore_Status(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newDiskStore(t)

	status, err := s.LoadStatus(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, status)

	finished := time.Date(2024, 6, 1, 12, 0, 5, 0, time.UTC)
	want := &domain.SyncStatus{
		Phase:      domain.SyncPhaseCompleted,
		RunID:      "run-1",
		StartedAt:  time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		FinishedAt: &finished,
		Added:      3,
		Total:      10,
	}
	require.NoError(t, s.SaveStatus(ctx, "alice", want))

	got, err := s.LoadStatus(ctx, "ALICE")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
