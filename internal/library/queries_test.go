package library

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/crate/internal/domain"
)

func dated(e domain.CacheEntry, added string) domain.CacheEntry {
	e.DateAdded = added
	return e
}

func TestQueriesNewItems(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.seed(testRef,
		dated(entry(1, "Old"), "2024-01-01T00:00:00Z"),
		dated(entry(2, "Recent"), "2024-05-20T00:00:00Z"),
		dated(entry(3, "Newest"), "2024-05-30T08:00:00-07:00"),
		dated(entry(4, "Broken"), "not a date"),
	)

	q := NewQueries(store, nil)
	q.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }

	items, err := q.NewItems(context.Background(), testRef, 30)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 2}, instanceIDs(items))

	items, err = q.NewItems(context.Background(), testRef, 5)
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, instanceIDs(items))

	items, err = q.NewItems(context.Background(), testRef, 0)
	require.NoError(t, err)
	assert.Len(t, items, 2, "non-positive days falls back to the default window")
}

func TestQueriesStats(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	svc := NewService(staticFetcher(record(1, "A"), record(2, "B")), store, store, testLogger())
	_, err := svc.Sync(context.Background(), testRef, nil)
	require.NoError(t, err)
	require.NoError(t, svc.RecordAnnotation(context.Background(), testRef, 1, "a.md"))

	stats, err := NewQueries(store, store).Stats(context.Background(), testRef)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Metadata.TotalCount)
	assert.Equal(t, 1, stats.Metadata.CountWithAnnotation)
	assert.Equal(t, 2, stats.NewCount)
	require.NotNil(t, stats.Status)
	assert.Equal(t, domain.SyncPhaseCompleted, stats.Status.Phase)
}

func TestQueriesStats_NeverSynced(t *testing.T) {
	t.Parallel()

	stats, err := NewQueries(newMemStore(), newMemStore()).Stats(context.Background(), testRef)
	require.NoError(t, err)
	assert.Zero(t, stats.Metadata.TotalCount)
	assert.Nil(t, stats.Status)
}

func TestQueriesList(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.seed(testRef, entry(1, "b"), annotated(entry(2, "a"), "x"))

	got, err := NewQueries(store, nil).List(context.Background(), testRef, ListOptions{Sort: SortTitleAZ})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1}, instanceIDs(got))
}
