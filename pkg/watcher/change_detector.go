package watcher

import (
	"context"
	"crypto/sha256"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ritzau/aip-explorer/pkg/logging"
	"github.com/ritzau/aip-explorer/pkg/pubsub"
)

// ChangeDetector remembers the content of watched files so that writes the
// server made itself are not reported back as external changes.
type ChangeDetector struct {
	mu   sync.Mutex
	last map[string][sha256.Size]byte
}

func NewChangeDetector() *ChangeDetector {
	return &ChangeDetector{last: make(map[string][sha256.Size]byte)}
}

// digest hashes the file; a missing file hashes as empty content
func digest(path string) ([sha256.Size]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return sha256.Sum256(nil), nil
	}
	if err != nil {
		return [sha256.Size]byte{}, err
	}
	return sha256.Sum256(data), nil
}

func key(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// Sync records the current content of path as known
func (d *ChangeDetector) Sync(path string) error {
	sum, err := digest(path)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.last[key(path)] = sum
	d.mu.Unlock()
	return nil
}

// Changed reports whether any path differs from its recorded content and
// records the new content.
func (d *ChangeDetector) Changed(paths ...string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	changed := false
	for _, p := range paths {
		sum, err := digest(p)
		if err != nil {
			return false, err
		}
		k := key(p)
		if prev, ok := d.last[k]; !ok || prev != sum {
			changed = true
		}
		d.last[k] = sum
	}
	return changed, nil
}

// Config configures a favourites watch
type Config struct {
	Files       []string
	QuietPeriod time.Duration
	MaxWait     time.Duration
}

// DefaultConfig returns the debounce timings used by the server
func DefaultConfig(files ...string) Config {
	return Config{Files: files, QuietPeriod: 200 * time.Millisecond, MaxWait: 2 * time.Second}
}

// Watch publishes a favourites event for every debounced external change
// of the watched files until ctx is done. count reports the current number
// of favourites.
func Watch(ctx context.Context, cfg Config, detector *ChangeDetector, pub pubsub.Publisher, count func() (int, error)) error {
	fw, err := NewFileWatcher(cfg.Files...)
	if err != nil {
		return err
	}

	for _, f := range cfg.Files {
		if err := detector.Sync(f); err != nil {
			logging.Warn("failed to read favourites file", "path", f, "error", err)
		}
	}

	fw.Start(ctx)
	debouncer := NewDebouncer(fw.Events(), cfg.QuietPeriod, cfg.MaxWait)
	debouncer.Start(ctx)

	go func() {
		for event := range debouncer.Output() {
			changed, err := detector.Changed(event.Paths...)
			if err != nil {
				logging.Warn("failed to inspect favourites change", "error", err)
				continue
			}
			if !changed {
				logging.Trace("ignoring favourites write made by the server")
				continue
			}

			n, err := count()
			if err != nil {
				logging.Error("failed to reload favourites", "error", err)
				continue
			}
			logging.Info("favourites changed on disk", "type", event.Type.String(), "count", n)
			if err := pub.Publish(pubsub.TopicFavourites, "changed", pubsub.FavouritesChanged{Count: n, Source: "file"}); err != nil {
				logging.Warn("failed to publish favourites change", "error", err)
			}
		}
	}()

	return nil
}
