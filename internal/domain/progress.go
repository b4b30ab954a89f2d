package domain

import "time"

// ProgressFunc reports pagination progress.
// Called once per page: (1, 4, 50), (2, 4, 100), ...
type ProgressFunc func(page, totalPages, itemsLoaded int)

// SyncResult summarizes a completed sync.
type SyncResult struct {
	RunID    string
	Added    int // entries absent from the previous snapshot
	Removed  int // previous entries no longer present remotely
	Total    int // entries after sync
	Duration time.Duration
}

// SyncEvent is one element of a StartSync stream. Exactly one event with
// Done set terminates the stream; it carries either Result or Err.
type SyncEvent struct {
	Progress SyncProgress
	Done     bool
	Result   SyncResult
	Err      error
}
