package watcher

import (
	"context"
	"time"

	"github.com/ritzau/aip-explorer/pkg/logging"
)

// Debouncer batches rapid file system events into one change per burst
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a new event debouncer. A batch is emitted after
// quietPeriod without events, or maxWait after its first event.
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 10),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

func (d *Debouncer) run(ctx context.Context) {
	defer close(d.output)

	var (
		quiet   <-chan time.Time
		maxWait <-chan time.Time
		pending *ChangeEvent
		seen    map[string]bool
		count   int
	)

	flush := func() {
		quiet, maxWait = nil, nil
		if pending == nil {
			return
		}
		logging.Debug("flushing accumulated events", "count", count, "type", pending.Type.String())
		pending.Timestamp = time.Now()
		d.output <- *pending
		pending, seen, count = nil, nil, 0
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				return
			}

			if pending == nil {
				pending = &ChangeEvent{Type: event.Type}
				seen = make(map[string]bool)
				maxWait = time.After(d.maxWait)
			}
			// The latest operation decides whether the file still exists
			pending.Type = event.Type
			for _, p := range event.Paths {
				if !seen[p] {
					seen[p] = true
					pending.Paths = append(pending.Paths, p)
				}
			}
			count++
			quiet = time.After(d.quietPeriod)

		case <-quiet:
			flush()

		case <-maxWait:
			flush()
		}
	}
}

// Output returns the channel of debounced events
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}
