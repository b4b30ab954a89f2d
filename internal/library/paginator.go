package library

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmcdole/crate/internal/domain"
)

const (
	DefaultPageSize  = 50
	DefaultPageDelay = 2500 * time.Millisecond
)

// Paginator walks every page of a collection, newest additions first.
type Paginator struct {
	client   domain.CollectionClient
	pageSize int
	delay    time.Duration
	logger   *slog.Logger
}

// NewPaginator creates a Paginator. delay is the pause between page
// requests; a non-positive pageSize selects DefaultPageSize.
func NewPaginator(client domain.CollectionClient, pageSize int, delay time.Duration, logger *slog.Logger) *Paginator {
	if logger == nil {
		logger = slog.Default()
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if delay < 0 {
		delay = 0
	}
	return &Paginator{client: client, pageSize: pageSize, delay: delay, logger: logger}
}

// FetchAll returns every record in page order. onProgress, if non-nil, is
// called after each page. Transport errors are returned unchanged; a
// cancelled ctx yields domain.ErrCancelled.
func (p *Paginator) FetchAll(
	ctx context.Context,
	username string,
	onProgress domain.ProgressFunc,
) ([]domain.RemoteRecord, error) {
	all := []domain.RemoteRecord{}
	totalPages := 1

	for page := 1; page <= totalPages; page++ {
		if ctx.Err() != nil {
			return nil, domain.ErrCancelled
		}

		resp, err := p.client.FetchCollectionPage(ctx, username, page, p.pageSize)
		if err != nil {
			return nil, err
		}

		if page == 1 {
			totalPages = max(resp.Pagination.Pages, 1)
		}
		all = append(all, resp.Releases...)

		p.logger.Debug("fetched collection page", "page", page, "totalPages", totalPages, "loaded", len(all))
		if onProgress != nil {
			onProgress(page, totalPages, len(all))
		}

		if page < totalPages {
			if err := sleepCtx(ctx, p.delay); err != nil {
				return nil, err
			}
		}
	}

	return all, nil
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return domain.ErrCancelled
	case <-timer.C:
		return nil
	}
}
