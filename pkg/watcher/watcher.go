// Package watcher notices edits to the favourites store made outside the
// running server, e.g. by another instance or by hand.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ritzau/aip-explorer/pkg/logging"
)

// ChangeType represents the type of file change detected
type ChangeType int

const (
	ChangeTypeWrite ChangeType = iota
	ChangeTypeRemove
)

func (t ChangeType) String() string {
	if t == ChangeTypeRemove {
		return "remove"
	}
	return "write"
}

// ChangeEvent represents a batch of file system changes
type ChangeEvent struct {
	Type      ChangeType
	Paths     []string
	Timestamp time.Time
}

// FileWatcher watches a set of files by watching their directories
type FileWatcher struct {
	watcher *fsnotify.Watcher
	files   map[string]bool
	events  chan ChangeEvent
}

// NewFileWatcher creates a watcher for the given files. The files need not
// exist yet but their directories must.
func NewFileWatcher(files ...string) (*FileWatcher, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to watch")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	fw := &FileWatcher{
		watcher: w,
		files:   make(map[string]bool),
		events:  make(chan ChangeEvent, 100),
	}

	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("failed to resolve %s: %w", f, err)
		}
		fw.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}

	for dir := range dirs {
		if _, err := os.Stat(dir); err != nil {
			w.Close()
			return nil, fmt.Errorf("cannot watch %s: %w", dir, err)
		}
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	return fw, nil
}

// Start begins watching for file changes. The events channel is closed
// once ctx is done.
func (fw *FileWatcher) Start(ctx context.Context) {
	logging.Info("started watching favourites", "files", len(fw.files))
	go fw.processEvents(ctx)
}

// classify maps an fsnotify event on a watched file to a change type
func (fw *FileWatcher) classify(event fsnotify.Event) (ChangeType, bool) {
	abs, err := filepath.Abs(event.Name)
	if err != nil || !fw.files[abs] {
		return 0, false
	}
	switch {
	case event.Has(fsnotify.Remove):
		return ChangeTypeRemove, true
	case event.Has(fsnotify.Write), event.Has(fsnotify.Create), event.Has(fsnotify.Rename):
		// Atomic saves show up as a create of the final name
		return ChangeTypeWrite, true
	}
	return 0, false
}

func (fw *FileWatcher) processEvents(ctx context.Context) {
	defer close(fw.events)
	defer fw.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			t, relevant := fw.classify(event)
			if !relevant {
				continue
			}
			logging.Trace("favourites file event", "path", event.Name, "op", event.Op.String())
			select {
			case fw.events <- ChangeEvent{Type: t, Paths: []string{event.Name}, Timestamp: time.Now()}:
			case <-ctx.Done():
				return
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("watcher error", "error", err)
		}
	}
}

// Events returns the channel of change events
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}
