package library

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/mmcdole/crate/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func record(instanceID int64, title string) domain.RemoteRecord {
	return domain.RemoteRecord{
		ID:         instanceID * 10,
		InstanceID: instanceID,
		DateAdded:  "2024-01-01T00:00:00Z",
		BasicInformation: domain.BasicInformation{
			Title:   title,
			Year:    1990,
			Artists: []domain.Artist{{Name: "Artist " + title}},
			Formats: []domain.Format{{Name: "Vinyl"}},
			Labels:  []domain.Label{{Name: "Label", Catno: "CAT-" + title}},
			Genres:  []string{"Electronic"},
		},
	}
}

func entry(instanceID int64, title string) domain.CacheEntry {
	return domain.CacheEntry{
		ID:         instanceID * 10,
		InstanceID: instanceID,
		Title:      title,
		Artist:     "Artist " + title,
		DateAdded:  "2024-01-01T00:00:00Z",
		Format:     "Vinyl",
		Label:      "Label",
	}
}

func annotated(e domain.CacheEntry, ref string) domain.CacheEntry {
	e.HasAnnotation = true
	e.AnnotationRef = ref
	return e
}

// memStore is an in-memory SnapshotStore and StatusStore that counts writes.
type memStore struct {
	mu        sync.Mutex
	snapshots map[string]*domain.CollectionSnapshot
	statuses  map[string]*domain.SyncStatus
	saves     int
	clears    int
	saveErr   error
}

func newMemStore() *memStore {
	return &memStore{
		snapshots: make(map[string]*domain.CollectionSnapshot),
		statuses:  make(map[string]*domain.SyncStatus),
	}
}

func (m *memStore) seed(ref string, entries ...domain.CacheEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[ref] = &domain.CollectionSnapshot{
		Entries:  slices.Clone(entries),
		Metadata: domain.Metadata{TotalCount: len(entries), CountWithAnnotation: domain.CountAnnotated(entries)},
	}
}

func (m *memStore) LoadSnapshot(_ context.Context, ref string) (*domain.CollectionSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.snapshots[ref]
	if !ok {
		return domain.EmptySnapshot(), nil
	}
	return &domain.CollectionSnapshot{Entries: slices.Clone(snap.Entries), Metadata: snap.Metadata}, nil
}

func (m *memStore) SaveSnapshot(_ context.Context, ref string, snap *domain.CollectionSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.snapshots[ref] = &domain.CollectionSnapshot{Entries: slices.Clone(snap.Entries), Metadata: snap.Metadata}
	return nil
}

func (m *memStore) ClearSnapshot(_ context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clears++
	delete(m.snapshots, ref)
	return nil
}

func (m *memStore) LoadStatus(_ context.Context, ref string) (*domain.SyncStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statuses[ref], nil
}

func (m *memStore) SaveStatus(_ context.Context, ref string, status *domain.SyncStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := *status
	m.statuses[ref] = &s
	return nil
}

func (m *memStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *memStore) entries(ref string) []domain.CacheEntry {
	snap, _ := m.LoadSnapshot(context.Background(), ref)
	return snap.Entries
}

// pagedClient serves records split into pages of pageSize.
type pagedClient struct {
	mu       sync.Mutex
	records  []domain.RemoteRecord
	errs     map[int]error
	requests []int
	perPage  []int
}

func newPagedClient(records ...domain.RemoteRecord) *pagedClient {
	return &pagedClient{records: records, errs: map[int]error{}}
}

func (c *pagedClient) FetchCollectionPage(_ context.Context, _ string, page, perPage int) (*domain.CollectionPage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, page)
	c.perPage = append(c.perPage, perPage)
	if err, ok := c.errs[page]; ok {
		return nil, err
	}

	pages := max((len(c.records)+perPage-1)/perPage, 1)
	start := min((page-1)*perPage, len(c.records))
	end := min(start+perPage, len(c.records))
	return &domain.CollectionPage{
		Pagination: domain.Pagination{Page: page, Pages: pages, PerPage: perPage, Items: len(c.records)},
		Releases:   slices.Clone(c.records[start:end]),
	}, nil
}

func (c *pagedClient) requested() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.requests)
}

// fetcherFunc adapts a function to Fetcher.
type fetcherFunc func(ctx context.Context, ref string, onProgress domain.ProgressFunc) ([]domain.RemoteRecord, error)

func (f fetcherFunc) FetchAll(ctx context.Context, ref string, onProgress domain.ProgressFunc) ([]domain.RemoteRecord, error) {
	return f(ctx, ref, onProgress)
}

func staticFetcher(records ...domain.RemoteRecord) Fetcher {
	return fetcherFunc(func(_ context.Context, _ string, onProgress domain.ProgressFunc) ([]domain.RemoteRecord, error) {
		if onProgress != nil {
			onProgress(1, 1, len(records))
		}
		return slices.Clone(records), nil
	})
}
