package snapshot

import (
	"time"

	"github.com/idelchi/refer/internal/dirstat"
)

// SetClock replaces the time source used to stamp refreshed snapshots.
func (h *Holder) SetClock(now func() time.Time) {
	h.now = now
}

// SetScanner replaces the directory scan run by Refresh.
func (h *Holder) SetScanner(scan func(root, ext string) dirstat.Result) {
	h.scan = scan
}
