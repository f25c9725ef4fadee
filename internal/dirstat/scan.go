package dirstat

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Failure records a subtree or entry that could not be read during Scan.
type Failure struct {
	// Path is the directory or file that failed.
	Path string `json:"path"`
	// Op is the operation that failed ("readdir" or "stat").
	Op string `json:"op"`
	// Code classifies the failure.
	Code ErrorCode `json:"code"`
	// Reason is the underlying error text.
	Reason string `json:"reason"`
}

// Result holds the outcome of a Scan.
type Result struct {
	// TotalSizeBytes is the cumulative size of every file under the root,
	// regardless of extension.
	TotalSizeBytes uint64 `json:"total_size_bytes"`
	// MatchedEntries lists the slash-separated paths, relative to the root,
	// of files whose extension matched.
	MatchedEntries []string `json:"matched_entries"`
	// Failures lists entries that were skipped because they could not be read.
	Failures []Failure `json:"failures,omitempty"`
}

// Count returns the number of matched entries.
func (r Result) Count() int {
	return len(r.MatchedEntries)
}

// Scan walks the tree under root and returns the total size of all files
// together with the files whose extension equals matchExtension, ignoring case.
//
// A root that does not exist or is not a directory yields an empty Result.
// Unreadable entries never abort the scan; they are recorded in Result.Failures
// and contribute nothing else. Scan holds no state and is safe for concurrent use.
func Scan(root, matchExtension string) Result {
	result := Result{MatchedEntries: []string{}}

	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return result
	}

	base := canonical(root)
	want := strings.TrimPrefix(matchExtension, ".")

	// Explicit stack bounds memory on deep trees instead of the call stack.
	stack := []string{base}

	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(dir)
		if err != nil {
			result.Failures = append(result.Failures, newFailure(dir, "readdir", err))

			// ReadDir may still return the entries read before the error.
			if len(entries) == 0 {
				continue
			}
		}

		for _, entry := range entries {
			path := filepath.Join(dir, entry.Name())

			if entry.IsDir() {
				stack = append(stack, path)

				continue
			}

			if info, err := entry.Info(); err != nil {
				result.Failures = append(result.Failures, newFailure(path, "stat", err))
			} else if size := info.Size(); size > 0 {
				result.TotalSizeBytes += uint64(size)
			}

			if !matchesExtension(entry.Name(), want) {
				continue
			}

			result.MatchedEntries = append(result.MatchedEntries, relativeTo(base, path))
		}
	}

	slices.Sort(result.MatchedEntries)

	return result
}

// canonical resolves root to an absolute, symlink-free path, falling back to
// root unchanged when resolution fails.
func canonical(root string) string {
	abs, err := filepath.Abs(root)
	if err != nil {
		return root
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return abs
	}

	return resolved
}

// relativeTo returns path relative to base in slash form, or the bare
// filename when no relative path exists.
func relativeTo(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return filepath.Base(path)
	}

	return filepath.ToSlash(rel)
}

// extension returns the part of name after the last dot. Names without a dot
// and dotfiles such as ".refer" have no extension.
func extension(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx <= 0 {
		return ""
	}

	return name[idx+1:]
}

// matchesExtension reports whether name carries the extension want, ignoring case.
func matchesExtension(name, want string) bool {
	if want == "" {
		return false
	}

	return strings.EqualFold(extension(name), want)
}

func newFailure(path, op string, err error) Failure {
	return Failure{
		Path:   filepath.ToSlash(path),
		Op:     op,
		Code:   ClassifyError(err),
		Reason: err.Error(),
	}
}
