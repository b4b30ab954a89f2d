package library

import (
	"context"
	"time"

	"github.com/mmcdole/crate/internal/domain"
)

const DefaultNewItemsDays = 30

// Queries provides cache-only reads.
type Queries struct {
	snapshots domain.SnapshotStore
	statuses  domain.StatusStore
	now       func() time.Time
}

// NewQueries creates a new Queries instance. statuses may be nil.
func NewQueries(snapshots domain.SnapshotStore, statuses domain.StatusStore) *Queries {
	return &Queries{snapshots: snapshots, statuses: statuses, now: time.Now}
}

// Stats summarizes a cached collection.
type Stats struct {
	Metadata domain.Metadata
	NewCount int                // entries flagged new by the last sync
	Status   *domain.SyncStatus // nil if no sync has been recorded
}

func (q *Queries) Snapshot(ctx context.Context, collectionRef string) (*domain.CollectionSnapshot, error) {
	return q.snapshots.LoadSnapshot(ctx, collectionRef)
}

// NewItems returns entries added within the last days days, newest first.
// Entries with an unparsable date are skipped.
func (q *Queries) NewItems(ctx context.Context, collectionRef string, days int) ([]domain.CacheEntry, error) {
	if days <= 0 {
		days = DefaultNewItemsDays
	}
	snap, err := q.snapshots.LoadSnapshot(ctx, collectionRef)
	if err != nil {
		return nil, err
	}

	threshold := q.now().AddDate(0, 0, -days)
	var recent []domain.CacheEntry
	for _, e := range snap.Entries {
		added := e.AddedAt()
		if added.IsZero() || added.Before(threshold) {
			continue
		}
		recent = append(recent, e)
	}
	SortEntries(recent, SortAddedNewest)
	return recent, nil
}

// List returns cached entries filtered and sorted per opts.
func (q *Queries) List(ctx context.Context, collectionRef string, opts ListOptions) ([]domain.CacheEntry, error) {
	snap, err := q.snapshots.LoadSnapshot(ctx, collectionRef)
	if err != nil {
		return nil, err
	}
	return Apply(snap.Entries, opts), nil
}

func (q *Queries) Stats(ctx context.Context, collectionRef string) (Stats, error) {
	snap, err := q.snapshots.LoadSnapshot(ctx, collectionRef)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Metadata: snap.Metadata}
	for _, e := range snap.Entries {
		if e.IsNew {
			stats.NewCount++
		}
	}
	if q.statuses != nil {
		status, err := q.statuses.LoadStatus(ctx, collectionRef)
		if err != nil {
			return Stats{}, err
		}
		stats.Status = status
	}
	return stats, nil
}
