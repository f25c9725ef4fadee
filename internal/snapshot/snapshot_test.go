package snapshot_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idelchi/refer/internal/dirstat"
	"github.com/idelchi/refer/internal/snapshot"
)

func writeFile(t *testing.T, root, name string, size int) {
	t.Helper()

	path := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

func TestHolderEmptyUntilRefresh(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "library.refer", 10)

	holder := snapshot.New(root, "", "/var/log/refer", nil)
	snap := holder.Snapshot()

	assert.Equal(t, root, snap.Path)
	assert.Equal(t, snapshot.DefaultExtension, snap.Extension)
	assert.Equal(t, "/var/log/refer", snap.LogDir)
	assert.Empty(t, snap.MatchedEntries)
	assert.Zero(t, snap.TotalSizeBytes)
	assert.True(t, snap.RefreshedAt.IsZero())
}

func TestHolderRefresh(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "library.refer", 10)
	writeFile(t, root, "archive/old.REFER", 5)
	writeFile(t, root, "readme.txt", 7)

	stamp := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	holder := snapshot.New(root, "refer", "", nil)
	holder.SetClock(func() time.Time { return stamp })

	snap, err := holder.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(22), snap.TotalSizeBytes)
	assert.ElementsMatch(t, []string{"library.refer", "archive/old.REFER"}, snap.MatchedEntries)
	assert.Equal(t, 2, snap.Count)
	assert.Empty(t, snap.ErrorCodes)
	assert.Equal(t, stamp, snap.RefreshedAt)
	assert.Equal(t, snap, holder.Snapshot())

	require.NoError(t, os.Remove(filepath.Join(root, "library.refer")))

	assert.Equal(t, 2, holder.Snapshot().Count, "held snapshot changes only on refresh")

	snap, err = holder.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"archive/old.REFER"}, snap.MatchedEntries)
}

func TestHolderMissingRoot(t *testing.T) {
	t.Parallel()

	holder := snapshot.New(filepath.Join(t.TempDir(), "missing"), "refer", "", nil)

	snap, err := holder.Refresh(context.Background())
	require.NoError(t, err)

	assert.Zero(t, snap.TotalSizeBytes)
	assert.Empty(t, snap.MatchedEntries)
	assert.Zero(t, snap.Count)
}

func TestHolderErrorCodes(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}

	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a/x.refer", 1)
	writeFile(t, root, "b/y.refer", 1)

	for _, dir := range []string{"a", "b"} {
		locked := filepath.Join(root, dir)
		require.NoError(t, os.Chmod(locked, 0o000))
		t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })
	}

	snap, err := snapshot.New(root, "refer", "", nil).Refresh(context.Background())
	require.NoError(t, err)

	assert.Len(t, snap.Failures, 2)
	assert.Equal(t, []dirstat.ErrorCode{dirstat.CodePermissionDenied}, snap.ErrorCodes)
}

func TestSnapshotIsACopy(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.refer", 1)

	holder := snapshot.New(root, "refer", "", nil)
	_, err := holder.Refresh(context.Background())
	require.NoError(t, err)

	snap := holder.Snapshot()
	snap.MatchedEntries[0] = "tampered"

	assert.Equal(t, []string{"a.refer"}, holder.Snapshot().MatchedEntries)
}

func TestHolderRefreshCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := snapshot.New(t.TempDir(), "refer", "", nil).Refresh(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestHolderConcurrentAccess(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.refer", 3)

	holder := snapshot.New(root, "refer", "", nil)

	var wg sync.WaitGroup

	for i := 0; i < 4; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()

			_, err := holder.Refresh(context.Background())
			assert.NoError(t, err)
		}()

		go func() {
			defer wg.Done()

			snap := holder.Snapshot()
			assert.Equal(t, len(snap.MatchedEntries), snap.Count)
		}()
	}

	wg.Wait()

	assert.Equal(t, 1, holder.Snapshot().Count)
}

func TestHolderStaleRefreshDiscarded(t *testing.T) {
	t.Parallel()

	holder := snapshot.New(t.TempDir(), "refer", "", nil)

	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})

	var calls int

	var mu sync.Mutex

	holder.SetScanner(func(string, string) dirstat.Result {
		mu.Lock()
		calls++
		call := calls
		mu.Unlock()

		if call == 1 {
			close(firstStarted)
			<-releaseFirst

			return dirstat.Result{TotalSizeBytes: 1, MatchedEntries: []string{"old.refer"}}
		}

		return dirstat.Result{TotalSizeBytes: 2, MatchedEntries: []string{"new.refer"}}
	})

	type outcome struct {
		snap snapshot.Snapshot
		err  error
	}

	firstDone := make(chan outcome, 1)

	go func() {
		snap, err := holder.Refresh(context.Background())
		firstDone <- outcome{snap: snap, err: err}
	}()

	<-firstStarted

	newer, err := holder.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"new.refer"}, newer.MatchedEntries)

	close(releaseFirst)

	first := <-firstDone
	require.NoError(t, first.err)

	assert.Equal(t, []string{"new.refer"}, first.snap.MatchedEntries, "older scan returns the newer snapshot")
	assert.Equal(t, uint64(2), holder.Snapshot().TotalSizeBytes)
	assert.Equal(t, []string{"new.refer"}, holder.Snapshot().MatchedEntries)
}
