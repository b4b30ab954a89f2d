package library

import (
	"context"
	"time"

	"github.com/mmcdole/crate/internal/domain"
)

// State is a point-in-time view of the sync state machine.
type State struct {
	Phase       domain.SyncPhase
	LastOutcome domain.SyncPhase // terminal phase of the previous run, empty if none
	RunID       string
	StartedAt   time.Time
	Cancelling  bool
}

// syncState holds the in-flight flag and the cancel handle of the current
// run. Transitions: Idle -> Syncing -> {Completed, Failed, Cancelled} -> Idle.
// Callers serialize access.
type syncState struct {
	phase      domain.SyncPhase
	last       domain.SyncPhase
	runID      string
	startedAt  time.Time
	cancel     context.CancelFunc
	cancelling bool
}

func newSyncState() syncState {
	return syncState{phase: domain.SyncPhaseIdle}
}

// begin moves Idle to Syncing.
func (s *syncState) begin(runID string, cancel context.CancelFunc, now time.Time) error {
	if s.phase == domain.SyncPhaseSyncing {
		return domain.ErrSyncInProgress
	}
	s.phase = domain.SyncPhaseSyncing
	s.runID = runID
	s.startedAt = now
	s.cancel = cancel
	s.cancelling = false
	return nil
}

// finish records the terminal outcome and returns to Idle.
func (s *syncState) finish(outcome domain.SyncPhase) {
	if s.phase != domain.SyncPhaseSyncing || !outcome.Terminal() {
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.last = outcome
	s.phase = domain.SyncPhaseIdle
	s.cancel = nil
	s.cancelling = false
}

// requestCancel signals the running sync. It returns false when idle.
func (s *syncState) requestCancel() bool {
	if s.phase != domain.SyncPhaseSyncing {
		return false
	}
	s.cancelling = true
	if s.cancel != nil {
		s.cancel()
	}
	return true
}

func (s *syncState) view() State {
	return State{
		Phase:       s.phase,
		LastOutcome: s.last,
		RunID:       s.runID,
		StartedAt:   s.startedAt,
		Cancelling:  s.cancelling,
	}
}
