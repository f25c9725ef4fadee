package dirstat

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/charlievieth/fastwalk"
	"go.uber.org/zap"
)

const (
	// DefaultProgressInterval is the default interval for progress updates.
	DefaultProgressInterval = 500 * time.Millisecond

	// DefaultTopN is the number of largest files tracked when Options.TopN is unset.
	DefaultTopN = 20
)

// Options configures a Run.
type Options struct {
	// Path is the directory to analyze.
	Path string
	// Extensions to include (empty = all). A '!' prefix excludes instead.
	Extensions []string
	// Excludes contains regex patterns matched against slash-separated paths.
	Excludes []string
	// MinSize is the minimum file size in bytes.
	MinSize int64
	// TopN is the number of largest files to keep.
	TopN int
	// Depth is the maximum traversal depth (0=unlimited).
	Depth int
	// ProgressInterval controls progress callback cadence.
	ProgressInterval time.Duration
	// Logger receives debug output; nil disables it.
	Logger *zap.Logger
}

// calculateDepth returns the depth of a path relative to the root.
func calculateDepth(path, root string) int {
	relPath := strings.TrimPrefix(path, root)

	relPath = strings.TrimPrefix(relPath, string(filepath.Separator))
	if relPath == "" {
		return 0
	}

	return strings.Count(relPath, string(filepath.Separator)) + 1
}

// matchingPattern returns the first pattern matching path, if any.
func matchingPattern(path string, patterns []*regexp.Regexp) *regexp.Regexp {
	slashed := filepath.ToSlash(path)

	for _, re := range patterns {
		if re.MatchString(slashed) {
			return re
		}
	}

	return nil
}

// extensionFilter selects files by case-insensitive suffix.
type extensionFilter struct {
	include []string
	exclude []string
}

func newExtensionFilter(extensions []string) extensionFilter {
	var filter extensionFilter

	for _, ext := range extensions {
		ext = strings.ToLower(strings.Trim(ext, `'"`))

		if excluded, ok := strings.CutPrefix(ext, "!"); ok {
			filter.exclude = append(filter.exclude, excluded)
		} else if ext != "" {
			filter.include = append(filter.include, ext)
		}
	}

	return filter
}

// allows reports whether path passes the filter. Excludes take precedence.
func (f extensionFilter) allows(path string) bool {
	lower := strings.ToLower(path)

	for _, ext := range f.exclude {
		if strings.HasSuffix(lower, ext) {
			return false
		}
	}

	if len(f.include) == 0 {
		return true
	}

	for _, ext := range f.include {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}

	return false
}

// startProgressReporter invokes hook(files, bytes) on each tick until ctx is done.
func startProgressReporter(ctx context.Context, c *collector, hook func(int64, int64), interval time.Duration) {
	if hook == nil {
		return
	}

	if interval <= 0 {
		interval = DefaultProgressInterval
	}

	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				hook(c.progress())
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Run walks opt.Path in parallel and returns a breakdown of file sizes by
// extension together with the largest files.
//
// Unlike Scan, Run fails when opt.Path is missing or not a directory, when an
// exclusion pattern does not compile, or when ctx is cancelled mid-walk.
// Progress updates are sent to progressHook if provided.
func Run(ctx context.Context, opt Options, progressHook func(int64, int64)) (*Stats, error) {
	log := opt.Logger
	if log == nil {
		log = zap.NewNop()
	}

	if opt.Path == "" {
		opt.Path = "."
	}

	opt.Path = filepath.Clean(opt.Path)

	if info, err := os.Stat(opt.Path); err != nil {
		return nil, fmt.Errorf("accessing path %q: %w", opt.Path, err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("path %q is not a directory", opt.Path)
	}

	if opt.TopN <= 0 {
		opt.TopN = DefaultTopN
	}

	excludes := make([]*regexp.Regexp, 0, len(opt.Excludes))

	for _, p := range opt.Excludes {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compiling exclusion pattern %q: %w", p, err)
		}

		excludes = append(excludes, re)
	}

	filter := newExtensionFilter(opt.Extensions)

	log.Debug("starting report",
		zap.String("path", opt.Path),
		zap.Strings("include", filter.include),
		zap.Strings("exclude", filter.exclude),
		zap.Strings("patterns", opt.Excludes),
	)

	collector := newCollector(opt.TopN)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	startProgressReporter(ctx, collector, progressHook, opt.ProgressInterval)

	start := time.Now()

	conf := &fastwalk.Config{
		Follow: false,
	}

	walkErr := fastwalk.Walk(conf, opt.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Debug("error accessing path", zap.String("path", path), zap.Error(err))
			collector.addError()

			return nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if opt.Depth > 0 && calculateDepth(path, opt.Path) > opt.Depth {
			if d.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		if re := matchingPattern(path, excludes); re != nil {
			log.Debug("excluding path", zap.String("path", path), zap.Stringer("pattern", re))

			if d.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			collector.addError()

			return nil //nolint:nilerr // Unreadable files are counted, not fatal
		}

		if info.Size() < opt.MinSize || !filter.allows(path) {
			return nil
		}

		display, err := filepath.Rel(opt.Path, path)
		if err != nil {
			display = path
		}

		collector.add(display, info.Size(), strings.ToLower(filepath.Ext(path)))

		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walking %q: %w", opt.Path, walkErr)
	}

	stats := collector.finalize()
	stats.Path = filepath.ToSlash(opt.Path)
	stats.Elapsed = time.Since(start)

	return stats, nil
}
