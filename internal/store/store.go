package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/mmcdole/crate/internal/domain"
)

const dbFileName = "crate.db"

// Bucket names
var (
	bucketSnapshots = []byte("snapshots")
	bucketStatus    = []byte("sync_status")
)

var errNotFound = errors.New("key not found")

// CollectionStore implements domain.SnapshotStore and domain.StatusStore
// using BoltDB. Each collection is stored as a single JSON document so a
// save replaces the snapshot in one transaction.
type CollectionStore struct {
	db   *bolt.DB
	path string
	mu   sync.RWMutex // Protects memory cache

	// In-memory copy of stored documents. In memory-only mode it is the
	// only copy.
	cache map[string][]byte
}

// NewCollectionStore opens (creating if needed) the database in
// baseCacheDir. An empty baseCacheDir selects memory-only mode.
func NewCollectionStore(baseCacheDir string) (*CollectionStore, error) {
	if baseCacheDir == "" {
		return &CollectionStore{cache: make(map[string][]byte)}, nil
	}

	if err := os.MkdirAll(baseCacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	dbPath := filepath.Join(baseCacheDir, dbFileName)
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketSnapshots, bucketStatus} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &CollectionStore{db: db, path: dbPath, cache: make(map[string][]byte)}, nil
}

// Path returns the database file, or "" in memory-only mode.
func (s *CollectionStore) Path() string {
	return s.path
}

func (s *CollectionStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// collectionKey normalizes a collection reference. Discogs usernames are
// case-insensitive.
func collectionKey(ref string) string {
	return strings.ToLower(strings.TrimSpace(ref))
}

// === Generic helpers ===

func (s *CollectionStore) get(bucket []byte, key string, dest any) error {
	cacheKey := string(bucket) + ":" + key

	s.mu.RLock()
	data, ok := s.cache[cacheKey]
	s.mu.RUnlock()

	if !ok {
		if s.db == nil {
			return errNotFound
		}
		err := s.db.View(func(tx *bolt.Tx) error {
			b := tx.Bucket(bucket)
			if b == nil {
				return nil
			}
			if v := b.Get([]byte(key)); v != nil {
				data = make([]byte, len(v))
				copy(data, v)
			}
			return nil
		})
		if err != nil {
			return err
		}
		if data == nil {
			return errNotFound
		}

		s.mu.Lock()
		s.cache[cacheKey] = data
		s.mu.Unlock()
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to decode %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (s *CollectionStore) set(bucket []byte, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", bucket, key, err)
	}

	if s.db != nil {
		err = s.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(bucket).Put([]byte(key), data)
		})
		if err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.cache[string(bucket)+":"+key] = data
	s.mu.Unlock()
	return nil
}

func (s *CollectionStore) delete(bucket []byte, key string) error {
	if s.db != nil {
		err := s.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(bucket).Delete([]byte(key))
		})
		if err != nil {
			return err
		}
	}

	s.mu.Lock()
	delete(s.cache, string(bucket)+":"+key)
	s.mu.Unlock()
	return nil
}

// === Snapshots ===

func (s *CollectionStore) LoadSnapshot(_ context.Context, collectionRef string) (*domain.CollectionSnapshot, error) {
	var snap domain.CollectionSnapshot
	err := s.get(bucketSnapshots, collectionKey(collectionRef), &snap)
	if errors.Is(err, errNotFound) {
		return domain.EmptySnapshot(), nil
	}
	if err != nil {
		return nil, err
	}
	if snap.Entries == nil {
		snap.Entries = []domain.CacheEntry{}
	}
	return &snap, nil
}

// SaveSnapshot replaces the stored snapshot. Nothing is written if ctx is
// already done.
func (s *CollectionStore) SaveSnapshot(ctx context.Context, collectionRef string, snap *domain.CollectionSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.set(bucketSnapshots, collectionKey(collectionRef), snap)
}

func (s *CollectionStore) ClearSnapshot(ctx context.Context, collectionRef string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.delete(bucketSnapshots, collectionKey(collectionRef))
}

// === Sync status ===

// LoadStatus returns the last recorded sync status, or nil if none.
func (s *CollectionStore) LoadStatus(_ context.Context, collectionRef string) (*domain.SyncStatus, error) {
	var status domain.SyncStatus
	err := s.get(bucketStatus, collectionKey(collectionRef), &status)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func (s *CollectionStore) SaveStatus(_ context.Context, collectionRef string, status *domain.SyncStatus) error {
	return s.set(bucketStatus, collectionKey(collectionRef), status)
}
