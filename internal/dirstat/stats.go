package dirstat

import (
	"cmp"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

// ExtStat represents statistics for a file extension.
type ExtStat struct {
	// Count is the number of files with this extension.
	Count int `json:"count"`
	// Size is the cumulative size in bytes.
	Size int64 `json:"size"`
}

// FileStat represents a single file path and size.
type FileStat struct {
	// Path is the file path relative to the analyzed directory.
	Path string `json:"path"`
	// Size is the size in bytes.
	Size int64 `json:"size"`
}

// Stats holds the breakdown produced by Run.
type Stats struct {
	// Path is the analyzed directory.
	Path string `json:"path"`
	// FileCount is the number of files analyzed.
	FileCount int64 `json:"file_count"`
	// TotalBytes is the cumulative size of all analyzed files.
	TotalBytes int64 `json:"total_bytes"`
	// ExtStats maps lowercase extensions (with leading dot) to their statistics.
	ExtStats map[string]ExtStat `json:"ext_stats"`
	// TopFiles contains the N largest files, smallest first.
	TopFiles []FileStat `json:"top_files"`
	// ErrorCount is the number of entries that could not be read.
	ErrorCount int64 `json:"error_count"`
	// Elapsed is the total time taken for analysis.
	Elapsed time.Duration `json:"elapsed"`
	// TopN is the number of top results tracked.
	TopN int `json:"top_n"`
}

// collector aggregates statistics from concurrent fastwalk callbacks.
type collector struct {
	mu         sync.Mutex
	topN       int
	extStats   map[string]ExtStat
	files      []FileStat
	fileCount  int64
	totalBytes int64
	errorCount int64
}

func newCollector(topN int) *collector {
	return &collector{
		topN:     topN,
		extStats: make(map[string]ExtStat),
	}
}

func (c *collector) addError() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.errorCount++
}

// add records a file under its extension.
func (c *collector) add(path string, size int64, ext string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.fileCount++
	c.totalBytes += size

	stat := c.extStats[ext]
	stat.Count++
	stat.Size += size
	c.extStats[ext] = stat

	c.files = append(c.files, FileStat{Path: path, Size: size})
}

// progress returns the running file count and byte total.
func (c *collector) progress() (int64, int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.fileCount, c.totalBytes
}

// finalize keeps the N largest files, ordered smallest first so the largest
// ends up next to the prompt, and normalizes their paths to slash form.
func (c *collector) finalize() *Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	files := slices.Clone(c.files)

	slices.SortFunc(files, func(a, b FileStat) int {
		if n := cmp.Compare(b.Size, a.Size); n != 0 {
			return n
		}

		return strings.Compare(a.Path, b.Path)
	})

	if len(files) > c.topN {
		files = files[:c.topN]
	}

	slices.Reverse(files)

	for i := range files {
		files[i].Path = strings.TrimPrefix(filepath.ToSlash(files[i].Path), "./")
	}

	return &Stats{
		FileCount:  c.fileCount,
		TotalBytes: c.totalBytes,
		ExtStats:   c.extStats,
		TopFiles:   files,
		ErrorCount: c.errorCount,
		TopN:       c.topN,
	}
}
