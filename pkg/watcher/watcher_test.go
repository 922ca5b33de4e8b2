package watcher

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/ritzau/aip-explorer/pkg/pubsub"
)

func TestDebouncerBatchesBurst(t *testing.T) {
	input := make(chan ChangeEvent)
	d := NewDebouncer(input, 50*time.Millisecond, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	input <- ChangeEvent{Type: ChangeTypeWrite, Paths: []string{"a.json"}}
	input <- ChangeEvent{Type: ChangeTypeWrite, Paths: []string{"a.json"}}
	input <- ChangeEvent{Type: ChangeTypeRemove, Paths: []string{"b.json"}}

	select {
	case event := <-d.Output():
		if !reflect.DeepEqual(event.Paths, []string{"a.json", "b.json"}) {
			t.Errorf("Expected deduplicated paths, got %v", event.Paths)
		}
		if event.Type != ChangeTypeRemove {
			t.Errorf("Expected the latest change type, got %s", event.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for batch")
	}

	close(input)
	if _, ok := <-d.Output(); ok {
		t.Error("Expected output to close with the input")
	}
}

func TestDebouncerMaxWait(t *testing.T) {
	input := make(chan ChangeEvent, 1)
	d := NewDebouncer(input, time.Hour, 50*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	input <- ChangeEvent{Type: ChangeTypeWrite, Paths: []string{"a.json"}}

	select {
	case event := <-d.Output():
		if len(event.Paths) != 1 {
			t.Errorf("Unexpected batch %+v", event)
		}
	case <-time.After(time.Second):
		t.Fatal("Max wait did not flush the batch")
	}
}

func TestDebouncerFlushesOnCancel(t *testing.T) {
	input := make(chan ChangeEvent, 1)
	d := NewDebouncer(input, time.Hour, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	input <- ChangeEvent{Type: ChangeTypeWrite, Paths: []string{"a.json"}}
	time.Sleep(20 * time.Millisecond)
	cancel()

	event, ok := <-d.Output()
	if !ok || len(event.Paths) != 1 {
		t.Errorf("Expected pending batch on cancel, got %+v (open=%v)", event, ok)
	}
	if _, ok := <-d.Output(); ok {
		t.Error("Expected output to be closed")
	}
}

func TestChangeDetector(t *testing.T) {
	path := filepath.Join(t.TempDir(), "favourite_queries.json")
	d := NewChangeDetector()

	if err := d.Sync(path); err != nil {
		t.Fatalf("Sync of missing file failed: %v", err)
	}
	if changed, _ := d.Changed(path); changed {
		t.Error("Missing file reported as changed")
	}

	os.WriteFile(path, []byte(`[]`), 0o644)
	if changed, _ := d.Changed(path); !changed {
		t.Error("New content not reported")
	}
	if changed, _ := d.Changed(path); changed {
		t.Error("Same content reported twice")
	}

	// A write the server announces itself is not a change
	os.WriteFile(path, []byte(`[{"type":"sql"}]`), 0o644)
	d.Sync(path)
	if changed, _ := d.Changed(path); changed {
		t.Error("Synced content reported as changed")
	}
}

func TestNewFileWatcherRequiresDirectory(t *testing.T) {
	if _, err := NewFileWatcher(); err == nil {
		t.Error("Expected error with no files")
	}
	missing := filepath.Join(t.TempDir(), "nope", "favourite_queries.json")
	if _, err := NewFileWatcher(missing); err == nil {
		t.Error("Expected error for missing directory")
	}
}

func TestWatchPublishesExternalChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "favourite_queries.json")
	other := filepath.Join(dir, "unrelated.json")

	pub := pubsub.NewSSEPublisher()
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := pub.Subscribe(ctx, pubsub.TopicFavourites)
	if err != nil {
		t.Fatal(err)
	}

	cfg := Config{Files: []string{path}, QuietPeriod: 30 * time.Millisecond, MaxWait: 500 * time.Millisecond}
	count := func() (int, error) { return 2, nil }
	if err := Watch(ctx, cfg, NewChangeDetector(), pub, count); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	os.WriteFile(other, []byte(`{}`), 0o644)
	os.WriteFile(path, []byte(`[{},{}]`), 0o644)

	select {
	case event := <-sub.Events():
		var payload pubsub.FavouritesChanged
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			t.Fatal(err)
		}
		if payload.Count != 2 || payload.Source != "file" {
			t.Errorf("Unexpected payload %+v", payload)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("No favourites event published")
	}
}
