package watcher_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/textcore/internal/pubsub"
	"github.com/zjrosen/textcore/internal/watcher"
)

func start(t *testing.T, path string) <-chan pubsub.Event[watcher.Document] {
	t.Helper()
	w, err := watcher.New(watcher.Config{
		Path:        path,
		DebounceDur: 50 * time.Millisecond,
	})
	require.NoError(t, err, "failed to create watcher")
	t.Cleanup(func() { _ = w.Stop() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	events := w.Subscribe(ctx)
	require.NoError(t, w.Start(), "failed to start watcher")
	return events
}

func TestWatcher_DebounceMultipleWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.py")
	require.NoError(t, os.WriteFile(path, []byte("x = 0\n"), 0644))

	events := start(t, path)

	// rapid writes should coalesce into a single reload
	for i := 1; i <= 10; i++ {
		require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("x = %d\n", i)), 0644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case ev := <-events:
		require.Equal(t, pubsub.ReloadedEvent, ev.Type)
		require.Equal(t, path, ev.Payload.Path)
		require.Equal(t, "x = 10\n", ev.Payload.Text)
	case <-time.After(time.Second):
		t.Fatal("expected reload but got timeout")
	}

	select {
	case ev := <-events:
		t.Fatalf("unexpected second reload: %q", ev.Payload.Text)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_IgnoresUnchangedContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("same"), 0644))

	events := start(t, path)
	require.NoError(t, os.WriteFile(path, []byte("same"), 0644))

	select {
	case <-events:
		t.Fatal("should not reload identical content")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.py")
	other := filepath.Join(dir, "other.txt")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0644))
	require.NoError(t, os.WriteFile(other, []byte("initial"), 0644))

	events := start(t, path)
	require.NoError(t, os.WriteFile(other, []byte("other content"), 0644))

	select {
	case <-events:
		t.Fatal("should not reload for unrelated files")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_ReloadsAfterRenameSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.py")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0644))

	events := start(t, path)

	tmp := filepath.Join(dir, ".main.py.swp")
	require.NoError(t, os.WriteFile(tmp, []byte("new"), 0644))
	require.NoError(t, os.Rename(tmp, path))

	select {
	case ev := <-events:
		require.Equal(t, "new", ev.Payload.Text)
	case <-time.After(time.Second):
		t.Fatal("expected reload after rename")
	}
}

func TestWatcher_Stop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.py")
	require.NoError(t, os.WriteFile(path, []byte("test"), 0644))

	w, err := watcher.New(watcher.DefaultConfig(path))
	require.NoError(t, err)
	events := w.Subscribe(context.Background())
	require.NoError(t, w.Start())

	done := make(chan struct{})
	go func() {
		assert.NoError(t, w.Stop(), "Stop returned error")
		assert.NoError(t, w.Stop(), "second Stop is a no-op")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop() timed out - possible deadlock")
	}

	_, ok := <-events
	require.False(t, ok, "subscriptions close on Stop")
}

func TestNew_MissingFile(t *testing.T) {
	_, err := watcher.New(watcher.DefaultConfig(filepath.Join(t.TempDir(), "absent.py")))
	require.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := watcher.DefaultConfig("/tmp/main.py")

	assert.Equal(t, "/tmp/main.py", cfg.Path)
	assert.Equal(t, 100*time.Millisecond, cfg.DebounceDur)
}
