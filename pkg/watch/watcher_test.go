package watch_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/arthur-debert/configsync/pkg/testutil"
	"github.com/arthur-debert/configsync/pkg/watch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	batches []watch.Batch
	err     error
}

func (r *recorder) handle(_ context.Context, b watch.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, b)
	return r.err
}

func (r *recorder) snapshot() []watch.Batch {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]watch.Batch(nil), r.batches...)
}

func startWatcher(t *testing.T, root string, rec *recorder) (context.CancelFunc, <-chan error) {
	t.Helper()
	w, err := watch.New(root, watch.Options{Debounce: 100 * time.Millisecond, Ignore: []string{".git"}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, rec.handle)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return cancel, done
}

func TestWatcher_CoalescesBurst(t *testing.T) {
	root := t.TempDir()
	rec := &recorder{}
	startWatcher(t, root, rec)

	for i := 0; i < 5; i++ {
		testutil.CreateFile(t, root, "a.conf", "v"+string(rune('0'+i)))
	}
	testutil.CreateFile(t, root, "b.conf", "b")

	require.Eventually(t, func() bool { return len(rec.snapshot()) >= 1 }, 5*time.Second, 20*time.Millisecond)
	time.Sleep(300 * time.Millisecond)

	batches := rec.snapshot()
	require.Len(t, batches, 1)
	assert.NotEmpty(t, batches[0].ID)
	assert.Contains(t, batches[0].Paths, filepath.Join(root, "a.conf"))
	assert.Contains(t, batches[0].Paths, filepath.Join(root, "b.conf"))
}

func TestWatcher_IgnoresGitDirectory(t *testing.T) {
	root := t.TempDir()
	testutil.CreateDir(t, root, ".git/objects")
	rec := &recorder{}
	startWatcher(t, root, rec)

	testutil.CreateFile(t, root, ".git/index", "x")
	testutil.CreateFile(t, root, ".git/objects/ab", "x")
	time.Sleep(400 * time.Millisecond)
	assert.Empty(t, rec.snapshot())

	testutil.CreateFile(t, root, "tracked", "x")
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, 5*time.Second, 20*time.Millisecond)
	for _, p := range rec.snapshot()[0].Paths {
		assert.NotContains(t, p, ".git")
	}
}

func TestWatcher_WatchesNewDirectories(t *testing.T) {
	root := t.TempDir()
	rec := &recorder{}
	startWatcher(t, root, rec)

	testutil.CreateDir(t, root, "nvim")
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, 5*time.Second, 20*time.Millisecond)

	testutil.CreateFile(t, root, "nvim/init.lua", "-- lua")
	require.Eventually(t, func() bool {
		batches := rec.snapshot()
		if len(batches) < 2 {
			return false
		}
		for _, p := range batches[len(batches)-1].Paths {
			if p == filepath.Join(root, "nvim", "init.lua") {
				return true
			}
		}
		return false
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatcher_HandlerErrorsDoNotStopLoop(t *testing.T) {
	root := t.TempDir()
	rec := &recorder{err: assert.AnError}
	startWatcher(t, root, rec)

	testutil.CreateFile(t, root, "one", "1")
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, 5*time.Second, 20*time.Millisecond)

	testutil.CreateFile(t, root, "two", "2")
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 2 }, 5*time.Second, 20*time.Millisecond)
}

func TestWatcher_StopsOnCancel(t *testing.T) {
	root := t.TempDir()
	cancel, done := startWatcher(t, root, &recorder{})

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestNew_MissingRoot(t *testing.T) {
	_, err := watch.New(filepath.Join(t.TempDir(), "missing"), watch.Options{})
	assert.Error(t, err)
}
