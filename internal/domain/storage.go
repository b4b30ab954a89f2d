package domain

import (
	"context"
	"time"
)

// SnapshotStore persists one CollectionSnapshot per collection reference.
type SnapshotStore interface {
	// LoadSnapshot returns the stored snapshot, or an empty one if none exists.
	LoadSnapshot(ctx context.Context, collectionRef string) (*CollectionSnapshot, error)
	// SaveSnapshot replaces the stored snapshot atomically.
	SaveSnapshot(ctx context.Context, collectionRef string, snap *CollectionSnapshot) error
	ClearSnapshot(ctx context.Context, collectionRef string) error
}

// StatusStore persists the outcome of the most recent sync.
type StatusStore interface {
	LoadStatus(ctx context.Context, collectionRef string) (*SyncStatus, error)
	SaveStatus(ctx context.Context, collectionRef string, status *SyncStatus) error
}

// SyncPhase is a state of the sync state machine.
type SyncPhase string

const (
	SyncPhaseIdle      SyncPhase = "Idle"
	SyncPhaseSyncing   SyncPhase = "Syncing"
	SyncPhaseCompleted SyncPhase = "Completed"
	SyncPhaseFailed    SyncPhase = "Failed"
	SyncPhaseCancelled SyncPhase = "Cancelled"
)

// Terminal reports whether p ends a sync run.
func (p SyncPhase) Terminal() bool {
	return p == SyncPhaseCompleted || p == SyncPhaseFailed || p == SyncPhaseCancelled
}

// SyncStatus records the latest sync attempt for a collection.
type SyncStatus struct {
	Phase      SyncPhase  `json:"phase"`
	Message    string     `json:"message,omitempty"`
	RunID      string     `json:"run_id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Added      int        `json:"added"`
	Removed    int        `json:"removed"`
	Total      int        `json:"total"`
}

// SyncProgress reports progress of a running sync.
type SyncProgress struct {
	Page        int
	TotalPages  int
	ItemsLoaded int
}

// SyncObserver receives progress updates during sync operations.
type SyncObserver interface {
	OnProgress(progress SyncProgress)
}

// NoOpObserver discards progress updates (for testing/batch operations).
type NoOpObserver struct{}

func (NoOpObserver) OnProgress(SyncProgress) {}

// ObserverFunc adapts a function to SyncObserver.
type ObserverFunc func(SyncProgress)

func (f ObserverFunc) OnProgress(p SyncProgress) { f(p) }
