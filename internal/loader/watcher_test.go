package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherLoadsExistingAndNewFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "initial.nt", goodDoc)
	writeFile(t, dir, "ignored.txt", "not statements")

	tripleStore := newTestStore(t)
	l := New(tripleStore, Options{Mode: "lenient"}, discardLogger(), nil)
	w := NewWatcher(l, dir, []string{"**/*.nt"}, 20*time.Millisecond, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	count := func() int64 {
		n, err := tripleStore.Count()
		if err != nil {
			return -1
		}
		return n
	}

	require.Eventually(t, func() bool { return count() == 3 }, 5*time.Second, 20*time.Millisecond)

	// Write outside the watched tree and move in, so the file appears complete
	staging := filepath.Join(t.TempDir(), "new.nt")
	require.NoError(t, os.WriteFile(staging, []byte("_:n <http://example.org/p> \"new\" .\n"), 0644))
	require.NoError(t, os.Rename(staging, filepath.Join(dir, "new.nt")))

	require.Eventually(t, func() bool { return count() == 4 }, 5*time.Second, 20*time.Millisecond)

	// Files in new subdirectories are picked up too
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0755))
	time.Sleep(100 * time.Millisecond)
	staging = filepath.Join(t.TempDir(), "deep.nt")
	require.NoError(t, os.WriteFile(staging, []byte("_:d <http://example.org/p> \"deep\" .\n"), 0644))
	require.NoError(t, os.Rename(staging, filepath.Join(sub, "deep.nt")))

	require.Eventually(t, func() bool { return count() == 5 }, 5*time.Second, 20*time.Millisecond)

	records, err := tripleStore.Loads()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(records), 3)
}

func TestWatcherStopsOnCancel(t *testing.T) {
	l := New(newTestStore(t), Options{}, discardLogger(), nil)
	w := NewWatcher(l, t.TempDir(), []string{"*.nt"}, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcherMissingDir(t *testing.T) {
	l := New(newTestStore(t), Options{}, discardLogger(), nil)
	w := NewWatcher(l, filepath.Join(t.TempDir(), "missing"), []string{"*.nt"}, 0, nil)
	assert.Error(t, w.Run(context.Background()))
}
