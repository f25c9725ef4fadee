package dirstat_test

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idelchi/refer/internal/dirstat"
)

// writeFile creates name under root with size bytes of content.
func writeFile(t *testing.T, root, name string, size int) {
	t.Helper()

	path := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

func TestScanMissingRoot(t *testing.T) {
	t.Parallel()

	result := dirstat.Scan(filepath.Join(t.TempDir(), "does", "not", "exist"), "refer")

	assert.Zero(t, result.TotalSizeBytes)
	assert.Empty(t, result.MatchedEntries)
	assert.NotNil(t, result.MatchedEntries)
	assert.Empty(t, result.Failures)
}

func TestScanRootIsFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.refer", 10)

	result := dirstat.Scan(filepath.Join(root, "a.refer"), "refer")

	assert.Zero(t, result.TotalSizeBytes)
	assert.Empty(t, result.MatchedEntries)
}

func TestScanSizeIndependentOfFilter(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.refer", 10)
	writeFile(t, root, "b.txt", 20)

	result := dirstat.Scan(root, "refer")

	assert.Equal(t, uint64(30), result.TotalSizeBytes)
	assert.Equal(t, []string{"a.refer"}, result.MatchedEntries)
	assert.Equal(t, 1, result.Count())
}

func TestScanExtensionMatching(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "c.REFER", 1)
	writeFile(t, root, "d.Refer", 1)
	writeFile(t, root, "e.refer.bak", 1)
	writeFile(t, root, ".refer", 1)
	writeFile(t, root, "refer", 1)

	tests := []struct {
		name   string
		filter string
		want   []string
	}{
		{name: "lowercase filter", filter: "refer", want: []string{"c.REFER", "d.Refer"}},
		{name: "uppercase filter", filter: "REFER", want: []string{"c.REFER", "d.Refer"}},
		{name: "leading dot", filter: ".refer", want: []string{"c.REFER", "d.Refer"}},
		{name: "last extension only", filter: "bak", want: []string{"e.refer.bak"}},
		{name: "no hits", filter: "xyz", want: []string{}},
		{name: "empty filter", filter: "", want: []string{}},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := dirstat.Scan(root, tt.filter)

			assert.Equal(t, tt.want, result.MatchedEntries)
			assert.Equal(t, uint64(5), result.TotalSizeBytes)
		})
	}
}

func TestScanNestedDirectories(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "top.refer", 3)
	writeFile(t, root, "sub/dir/a.refer", 5)
	writeFile(t, root, "sub/dir/notes.md", 7)
	writeFile(t, root, "sub/other/deeper/still/b.refer", 11)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty", "dir"), 0o755))

	result := dirstat.Scan(root, "refer")

	assert.Equal(t, uint64(26), result.TotalSizeBytes)
	assert.ElementsMatch(t,
		[]string{"top.refer", "sub/dir/a.refer", "sub/other/deeper/still/b.refer"},
		result.MatchedEntries,
	)
}

func TestScanDeepTree(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	dir := root
	for i := 0; i < 200; i++ {
		dir = filepath.Join(dir, "d")
	}

	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "leaf.refer"), []byte("x"), 0o644))

	result := dirstat.Scan(root, "refer")

	require.Len(t, result.MatchedEntries, 1)
	assert.Equal(t, uint64(1), result.TotalSizeBytes)
}

func TestScanRelativeRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "lib/x.refer", 4)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(root))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	result := dirstat.Scan("lib", "refer")

	assert.Equal(t, []string{"x.refer"}, result.MatchedEntries)
	assert.Equal(t, uint64(4), result.TotalSizeBytes)
}

func TestScanSymlinkedRoot(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require privileges on windows")
	}

	t.Parallel()

	target := t.TempDir()
	writeFile(t, target, "sub/a.refer", 2)

	link := filepath.Join(t.TempDir(), "link")
	require.NoError(t, os.Symlink(target, link))

	result := dirstat.Scan(link, "refer")

	assert.Equal(t, []string{"sub/a.refer"}, result.MatchedEntries)
}

func TestScanDoesNotFollowSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require privileges on windows")
	}

	t.Parallel()

	target := t.TempDir()
	writeFile(t, target, "inner.refer", 1000)

	root := t.TempDir()
	writeFile(t, root, "plain.txt", 7)
	require.NoError(t, os.Symlink(target, filepath.Join(root, "linked.refer")))
	require.NoError(t, os.Symlink(filepath.Join(root, "missing"), filepath.Join(root, "dangling.refer")))

	var linkBytes uint64

	for _, name := range []string{"linked.refer", "dangling.refer"} {
		info, err := os.Lstat(filepath.Join(root, name))
		require.NoError(t, err)

		linkBytes += uint64(info.Size())
	}

	result := dirstat.Scan(root, "refer")

	assert.Equal(t, []string{"dangling.refer", "linked.refer"}, result.MatchedEntries)
	assert.NotContains(t, result.MatchedEntries, "linked.refer/inner.refer")
	assert.Equal(t, 7+linkBytes, result.TotalSizeBytes)
	assert.Empty(t, result.Failures)
}

// The "stat" failure branch is not covered: making DirEntry.Info fail after a
// successful ReadDir needs a race with removal, which cannot be forced portably.

func TestScanRecordsUnreadableSubtree(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}

	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "ok.refer", 4)
	writeFile(t, root, "locked/hidden.refer", 8)

	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	result := dirstat.Scan(root, "refer")

	assert.Equal(t, []string{"ok.refer"}, result.MatchedEntries)
	assert.Equal(t, uint64(4), result.TotalSizeBytes)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "readdir", result.Failures[0].Op)
	assert.Equal(t, dirstat.CodePermissionDenied, result.Failures[0].Code)
}

func TestScanIdempotent(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.refer", 10)
	writeFile(t, root, "x/b.refer", 20)
	writeFile(t, root, "x/y/c.txt", 30)

	first := dirstat.Scan(root, "refer")
	second := dirstat.Scan(root, "refer")

	assert.Equal(t, first.TotalSizeBytes, second.TotalSizeBytes)
	assert.ElementsMatch(t, first.MatchedEntries, second.MatchedEntries)
}

func TestScanConcurrent(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.refer", 10)
	writeFile(t, root, "b/c.refer", 20)

	var wg sync.WaitGroup

	results := make([]dirstat.Result, 8)

	for i := range results {
		i := i

		wg.Add(1)

		go func() {
			defer wg.Done()

			results[i] = dirstat.Scan(root, "refer")
		}()
	}

	wg.Wait()

	for _, result := range results {
		assert.Equal(t, uint64(30), result.TotalSizeBytes)
		assert.ElementsMatch(t, []string{"a.refer", "b/c.refer"}, result.MatchedEntries)
	}
}
