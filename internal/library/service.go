package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmcdole/crate/internal/domain"
)

// Fetcher retrieves every record of a collection.
type Fetcher interface {
	FetchAll(ctx context.Context, collectionRef string, onProgress domain.ProgressFunc) ([]domain.RemoteRecord, error)
}

// SyncError wraps the cause of a sync that did not complete.
type SyncError struct {
	Phase domain.SyncPhase
	RunID string
	Err   error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s: %v", strings.ToLower(string(e.Phase)), e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// Service orchestrates fetch, reconcile and commit of a collection.
// At most one sync runs at a time.
type Service struct {
	fetcher   Fetcher
	snapshots domain.SnapshotStore
	statuses  domain.StatusStore
	logger    *slog.Logger
	now       func() time.Time

	mu    sync.Mutex // guards state
	state syncState

	// commitMu serializes snapshot read-modify-write cycles.
	commitMu sync.Mutex
}

// NewService creates a new sync service. statuses may be nil.
func NewService(fetcher Fetcher, snapshots domain.SnapshotStore, statuses domain.StatusStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		fetcher:   fetcher,
		snapshots: snapshots,
		statuses:  statuses,
		logger:    logger,
		now:       time.Now,
		state:     newSyncState(),
	}
}

// State returns the current state of the sync state machine.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.view()
}

// Sync runs a full sync and blocks until it reaches a terminal phase.
// It returns domain.ErrSyncInProgress immediately if another sync is running.
// On failure or cancellation the stored snapshot is left untouched and the
// returned error is a *SyncError.
func (s *Service) Sync(ctx context.Context, collectionRef string, observer domain.SyncObserver) (domain.SyncResult, error) {
	runCtx, runID, err := s.begin(ctx)
	if err != nil {
		return domain.SyncResult{}, err
	}
	return s.run(runCtx, runID, collectionRef, observer)
}

// StartSync starts a sync in the background. The returned channel carries
// one progress event per page followed by exactly one Done event, then
// closes. A slow reader stalls the sync until it catches up or the sync is
// cancelled, after which further progress is skipped. Callers must drain
// the channel until it closes.
func (s *Service) StartSync(ctx context.Context, collectionRef string) (<-chan domain.SyncEvent, error) {
	runCtx, runID, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}

	events := make(chan domain.SyncEvent, 16)
	go func() {
		defer close(events)

		observer := domain.ObserverFunc(func(p domain.SyncProgress) {
			select {
			case events <- domain.SyncEvent{Progress: p}:
			case <-runCtx.Done():
			}
		})

		result, err := s.run(runCtx, runID, collectionRef, observer)
		events <- domain.SyncEvent{Done: true, Result: result, Err: err}
	}()
	return events, nil
}

// RequestCancel asks the running sync to stop. It is safe to call at any
// time and any number of times; it returns false when no sync is running.
func (s *Service) RequestCancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok := s.state.requestCancel()
	if ok {
		s.logger.Info("sync cancellation requested", "runID", s.state.runID)
	}
	return ok
}

// ClearCache resets the stored snapshot to empty.
func (s *Service) ClearCache(ctx context.Context, collectionRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.phase == domain.SyncPhaseSyncing {
		return domain.ErrSyncInProgress
	}

	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	if err := s.snapshots.ClearSnapshot(ctx, collectionRef); err != nil {
		s.logger.Error("failed to clear snapshot", "error", err, "collection", collectionRef)
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	s.logger.Info("cleared collection cache", "collection", collectionRef)
	return nil
}

// Annotate asks annotator to create an annotation for the entry and records
// the returned reference on it.
func (s *Service) Annotate(ctx context.Context, collectionRef string, instanceID int64, annotator domain.Annotator) (string, error) {
	var ref string
	err := s.updateEntry(ctx, collectionRef, instanceID, func(e *domain.CacheEntry) error {
		r, err := annotator.Annotate(ctx, *e)
		if err != nil {
			return fmt.Errorf("failed to create annotation: %w", err)
		}
		ref = r
		e.HasAnnotation = true
		e.AnnotationRef = r
		return nil
	})
	return ref, err
}

// RecordAnnotation marks an entry as annotated with an existing reference.
// An empty annotationRef removes the annotation.
func (s *Service) RecordAnnotation(ctx context.Context, collectionRef string, instanceID int64, annotationRef string) error {
	return s.updateEntry(ctx, collectionRef, instanceID, func(e *domain.CacheEntry) error {
		e.HasAnnotation = annotationRef != ""
		e.AnnotationRef = annotationRef
		return nil
	})
}

func (s *Service) updateEntry(ctx context.Context, collectionRef string, instanceID int64, update func(*domain.CacheEntry) error) error {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	snap, err := s.snapshots.LoadSnapshot(ctx, collectionRef)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	i := snap.Find(instanceID)
	if i < 0 {
		return fmt.Errorf("%w: instance %d", domain.ErrNotFound, instanceID)
	}
	if err := update(&snap.Entries[i]); err != nil {
		return err
	}
	snap.Metadata.CountWithAnnotation = domain.CountAnnotated(snap.Entries)

	if err := s.snapshots.SaveSnapshot(ctx, collectionRef, snap); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	s.logger.Info("updated annotation", "collection", collectionRef, "instanceID", instanceID,
		"annotated", snap.Entries[i].HasAnnotation)
	return nil
}

// --- Private helpers ---

func (s *Service) begin(ctx context.Context) (context.Context, string, error) {
	runCtx, cancel := context.WithCancel(ctx)
	runID := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.state.begin(runID, cancel, s.now()); err != nil {
		cancel()
		s.logger.Warn("sync rejected", "reason", err)
		return nil, "", err
	}
	return runCtx, runID, nil
}

func (s *Service) run(ctx context.Context, runID, collectionRef string, observer domain.SyncObserver) (result domain.SyncResult, err error) {
	if observer == nil {
		observer = domain.NoOpObserver{}
	}
	logger := s.logger.With("runID", runID, "collection", collectionRef)

	s.mu.Lock()
	start := s.state.startedAt
	s.mu.Unlock()

	logger.Info("sync started")
	s.saveStatus(ctx, collectionRef, &domain.SyncStatus{
		Phase:     domain.SyncPhaseSyncing,
		RunID:     runID,
		StartedAt: start,
	})

	outcome := domain.SyncPhaseFailed
	defer func() {
		finished := s.now()
		status := &domain.SyncStatus{
			Phase:      outcome,
			RunID:      runID,
			StartedAt:  start,
			FinishedAt: &finished,
			Added:      result.Added,
			Removed:    result.Removed,
			Total:      result.Total,
		}
		if err != nil {
			status.Message = err.Error()
		}
		s.saveStatus(context.WithoutCancel(ctx), collectionRef, status)

		s.mu.Lock()
		s.state.finish(outcome)
		s.mu.Unlock()
	}()

	result, err = s.syncOnce(ctx, collectionRef, observer, start)
	result.RunID = runID

	switch {
	case err == nil:
		outcome = domain.SyncPhaseCompleted
		logger.Info("sync completed", "added", result.Added, "removed", result.Removed,
			"total", result.Total, "duration", result.Duration)
		return result, nil
	case errors.Is(err, domain.ErrCancelled):
		outcome = domain.SyncPhaseCancelled
		logger.Info("sync cancelled")
	default:
		logger.Error("sync failed", "error", err)
	}
	return domain.SyncResult{RunID: runID}, &SyncError{Phase: outcome, RunID: runID, Err: err}
}

func (s *Service) syncOnce(
	ctx context.Context,
	collectionRef string,
	observer domain.SyncObserver,
	start time.Time,
) (domain.SyncResult, error) {
	records, err := s.fetcher.FetchAll(ctx, collectionRef, func(page, totalPages, loaded int) {
		observer.OnProgress(domain.SyncProgress{Page: page, TotalPages: totalPages, ItemsLoaded: loaded})
	})
	if err != nil {
		return domain.SyncResult{}, err
	}
	if ctx.Err() != nil {
		return domain.SyncResult{}, domain.ErrCancelled
	}

	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	old, err := s.snapshots.LoadSnapshot(ctx, collectionRef)
	if err != nil {
		return domain.SyncResult{}, fmt.Errorf("failed to load snapshot: %w", err)
	}

	rec := Reconcile(old.Entries, records)
	if err := rec.Validate(); err != nil {
		return domain.SyncResult{}, err
	}
	if rec.DuplicatesDropped > 0 {
		s.logger.Warn("duplicate instance ids in remote collection", "collection", collectionRef,
			"dropped", rec.DuplicatesDropped)
	}

	finished := s.now()
	duration := finished.Sub(start)
	meta := rec.Metadata()
	meta.LastSyncDurationMs = duration.Milliseconds()
	meta.LastSyncAt = &finished

	if ctx.Err() != nil {
		return domain.SyncResult{}, domain.ErrCancelled
	}
	snap := &domain.CollectionSnapshot{Entries: rec.Entries, Metadata: meta}
	if err := s.snapshots.SaveSnapshot(ctx, collectionRef, snap); err != nil {
		if ctx.Err() != nil {
			return domain.SyncResult{}, domain.ErrCancelled
		}
		return domain.SyncResult{}, fmt.Errorf("failed to save snapshot: %w", err)
	}

	return domain.SyncResult{
		Added:    rec.NewCount,
		Removed:  rec.RemovedCount,
		Total:    len(rec.Entries),
		Duration: duration,
	}, nil
}

func (s *Service) saveStatus(ctx context.Context, collectionRef string, status *domain.SyncStatus) {
	if s.statuses == nil {
		return
	}
	if err := s.statuses.SaveStatus(ctx, collectionRef, status); err != nil {
		s.logger.Warn("failed to save sync status", "error", err, "collection", collectionRef)
	}
}
