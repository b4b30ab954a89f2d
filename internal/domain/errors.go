package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrNetwork indicates the remote API could not be reached after all retries
	ErrNetwork = errors.New("network error")

	// ErrRateLimited indicates the API kept answering 429 until the retry budget ran out
	ErrRateLimited = errors.New("rate limited by remote API")

	// ErrServer indicates the API kept answering 5xx until the retry budget ran out
	ErrServer = errors.New("remote server error")

	// ErrClient indicates a non-retryable 4xx response
	ErrClient = errors.New("request rejected by remote API")

	// ErrCancelled indicates the operation was cancelled by the caller
	ErrCancelled = errors.New("operation cancelled")

	// ErrSyncInProgress indicates a sync was requested while another is running
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrInvariant indicates a reconciliation result failed its consistency checks
	ErrInvariant = errors.New("reconciliation invariant violated")

	// ErrNotFound indicates the requested collection entry does not exist
	ErrNotFound = errors.New("collection entry not found")
)
