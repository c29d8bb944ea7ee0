// Package watcher reloads a document from disk with debouncing.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/textcore/internal/log"
	"github.com/zjrosen/textcore/internal/pubsub"
)

// Document is the content of the watched file after a change.
type Document struct {
	Path string
	Text string
}

// Watcher monitors one file and publishes a ReloadedEvent each time its
// content changes.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	path      string
	debounce  time.Duration
	broker    *pubsub.Broker[Document]
	done      chan struct{}
	stopOnce  sync.Once

	last string // content of the last published reload
}

// Config holds watcher configuration options.
type Config struct {
	Path        string
	DebounceDur time.Duration
}

// DefaultConfig returns sensible defaults for the watcher.
func DefaultConfig(path string) Config {
	return Config{
		Path:        path,
		DebounceDur: 100 * time.Millisecond,
	}
}

// New creates a new file watcher. The current content of the file is the
// baseline; a reload is only published when the content differs from it.
func New(cfg Config) (*Watcher, error) {
	initial, err := os.ReadFile(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", cfg.Path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	return &Watcher{
		fsWatcher: fsw,
		path:      cfg.Path,
		debounce:  cfg.DebounceDur,
		broker:    pubsub.NewBroker[Document](),
		done:      make(chan struct{}),
		last:      string(initial),
	}, nil
}

// Subscribe returns a channel of reloads.
func (w *Watcher) Subscribe(ctx context.Context) <-chan pubsub.Event[Document] {
	return w.broker.Subscribe(ctx)
}

// Start begins watching the file's directory. Watching the directory
// instead of the file survives editors that save by renaming a temp file.
func (w *Watcher) Start() error {
	dir := filepath.Dir(w.path)
	if err := w.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("watching directory %s: %w", dir, err)
	}
	log.Debug(log.CatWatcher, "Watching", "path", w.path)

	go w.loop()
	return nil
}

// Stop terminates the watcher, closes subscriptions and releases resources.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsWatcher.Close()
		w.broker.Close()
	})
	return err
}

// loop processes file system events with debouncing.
func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		pending bool
	)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.isRelevantEvent(event) {
				continue
			}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					// drain the timer channel if it already fired
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			pending = true

		case <-func() <-chan time.Time {
			if timer != nil {
				return timer.C
			}
			return nil
		}():
			if pending {
				w.reload()
				pending = false
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.WarnErr(log.CatWatcher, "Watch error", err, "path", w.path)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// reload reads the file and publishes it when the content changed.
func (w *Watcher) reload() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		// the file may be mid-rename; the next event retries
		log.WarnErr(log.CatWatcher, "Reload failed", err, "path", w.path)
		return
	}
	text := string(data)
	if text == w.last {
		return
	}
	w.last = text

	log.Debug(log.CatWatcher, "Reloaded", "path", w.path, "length", len(text))
	w.broker.Publish(pubsub.ReloadedEvent, Document{Path: w.path, Text: text})
}

// isRelevantEvent checks if the event should trigger a reload.
func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return false
	}
	return filepath.Base(event.Name) == filepath.Base(w.path)
}
