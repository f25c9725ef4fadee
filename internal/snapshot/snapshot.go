// Package snapshot holds the most recent statistics of the reference
// directory for read-only consumption by a presentation layer.
package snapshot

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/idelchi/refer/internal/dirstat"
)

// DefaultExtension is the extension of reference database files.
const DefaultExtension = "refer"

// Snapshot is a point-in-time capture of a directory scan.
type Snapshot struct {
	// Path is the scanned directory.
	Path string `json:"path"`
	// Extension is the match extension used for the scan.
	Extension string `json:"extension"`
	// TotalSizeBytes is the size of every file under Path.
	TotalSizeBytes uint64 `json:"total_size_bytes"`
	// MatchedEntries lists the matching files relative to Path.
	MatchedEntries []string `json:"matched_entries"`
	// Count is len(MatchedEntries).
	Count int `json:"count"`
	// LogDir is where the application writes its log.
	LogDir string `json:"log_dir,omitempty"`
	// ErrorCodes is the sorted set of failure codes seen during the scan.
	ErrorCodes []dirstat.ErrorCode `json:"error_codes"`
	// Failures details every skipped entry.
	Failures []dirstat.Failure `json:"failures,omitempty"`
	// RefreshedAt is when the scan finished. Zero until the first Refresh.
	RefreshedAt time.Time `json:"refreshed_at"`
}

// clone returns a deep copy of s.
func (s Snapshot) clone() Snapshot {
	s.MatchedEntries = slices.Clone(s.MatchedEntries)
	s.ErrorCodes = slices.Clone(s.ErrorCodes)
	s.Failures = slices.Clone(s.Failures)

	return s
}

// Holder owns the current Snapshot. It is safe for concurrent use.
type Holder struct {
	root      string
	extension string
	log       *zap.Logger
	now       func() time.Time
	scan      func(root, ext string) dirstat.Result

	mu      sync.RWMutex
	current Snapshot
	// started and applied number refreshes by start order; a refresh only
	// replaces current when nothing started after it has been applied.
	started uint64
	applied uint64
}

// New creates a Holder scanning root for files with extension ext.
// The snapshot is empty until Refresh is called.
func New(root, ext, logDir string, log *zap.Logger) *Holder {
	if log == nil {
		log = zap.NewNop()
	}

	if ext == "" {
		ext = DefaultExtension
	}

	return &Holder{
		root:      root,
		extension: ext,
		log:       log,
		now:       time.Now,
		scan:      dirstat.Scan,
		current: Snapshot{
			Path:           root,
			Extension:      ext,
			MatchedEntries: []string{},
			ErrorCodes:     []dirstat.ErrorCode{},
			LogDir:         logDir,
		},
	}
}

// Refresh rescans the directory and replaces the held snapshot.
//
// The scan runs without holding the lock; only the swap is serialized.
// When concurrent refreshes finish out of order, the one started last wins:
// an older result is discarded and the newer snapshot is returned instead.
func (h *Holder) Refresh(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	h.mu.Lock()
	h.started++
	gen := h.started
	h.mu.Unlock()

	result := h.scan(h.root, h.extension)

	for _, failure := range result.Failures {
		h.log.Warn("skipped unreadable entry",
			zap.String("path", failure.Path),
			zap.String("op", failure.Op),
			zap.String("code", string(failure.Code)),
			zap.String("reason", failure.Reason),
		)
	}

	h.mu.Lock()
	if gen < h.applied {
		snap, applied := h.current.clone(), h.applied
		h.mu.Unlock()

		h.log.Debug("discarded stale refresh", zap.Uint64("generation", gen), zap.Uint64("applied", applied))

		return snap, nil
	}

	h.applied = gen
	h.current = Snapshot{
		Path:           h.root,
		Extension:      h.extension,
		TotalSizeBytes: result.TotalSizeBytes,
		MatchedEntries: result.MatchedEntries,
		Count:          result.Count(),
		LogDir:         h.current.LogDir,
		ErrorCodes:     errorCodes(result.Failures),
		Failures:       result.Failures,
		RefreshedAt:    h.now(),
	}
	snap := h.current.clone()
	h.mu.Unlock()

	h.log.Info("statistics refreshed",
		zap.String("path", snap.Path),
		zap.Uint64("total_size_bytes", snap.TotalSizeBytes),
		zap.Int("count", snap.Count),
		zap.Int("failures", len(snap.Failures)),
	)

	return snap, nil
}

// Snapshot returns a copy of the current snapshot.
func (h *Holder) Snapshot() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.current.clone()
}

// errorCodes returns the distinct failure codes in sorted order.
func errorCodes(failures []dirstat.Failure) []dirstat.ErrorCode {
	codes := make([]dirstat.ErrorCode, 0, len(failures))

	for _, failure := range failures {
		codes = append(codes, failure.Code)
	}

	slices.Sort(codes)

	return slices.Compact(codes)
}
