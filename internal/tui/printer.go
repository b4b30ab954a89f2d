package tui

import (
	"fmt"
	"io"
	"sync"

	"github.com/mmcdole/crate/internal/domain"
	"github.com/mmcdole/crate/internal/tui/styles"
)

// ProgressPrinter is a domain.SyncObserver for non-interactive output. It
// writes one line per page and skips repeated reports of the same page.
type ProgressPrinter struct {
	mu   sync.Mutex
	w    io.Writer
	last domain.SyncProgress
}

func NewProgressPrinter(w io.Writer) *ProgressPrinter {
	return &ProgressPrinter{w: w}
}

func (p *ProgressPrinter) OnProgress(progress domain.SyncProgress) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if progress == p.last {
		return
	}
	p.last = progress

	pct := 0
	if progress.TotalPages > 0 {
		pct = progress.Page * 100 / progress.TotalPages
	}
	fmt.Fprintf(p.w, "  page %d of %d, %d items %s\n",
		progress.Page, progress.TotalPages, progress.ItemsLoaded,
		styles.DimStyle.Render(fmt.Sprintf("(%d%%)", pct)))
}
