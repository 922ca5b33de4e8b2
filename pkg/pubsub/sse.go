package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ritzau/aip-explorer/pkg/logging"
)

var ErrClosed = errors.New("publisher is closed")

// TopicConfig configures buffering for a topic
type TopicConfig struct {
	BufferSize int  // events kept for late subscribers (0 = none)
	ReplayAll  bool // replay the whole buffer instead of only the latest event
}

// subscriberQueue is how many undelivered events a slow client may lag behind
const subscriberQueue = 64

type topicState struct {
	config  TopicConfig
	version int
	buffer  []Event
	subs    map[*sseSubscription]struct{}
}

// SSEPublisher is an in-process Publisher for SSE handlers
type SSEPublisher struct {
	mu     sync.Mutex
	topics map[string]*topicState
	closed bool
}

func NewSSEPublisher() *SSEPublisher {
	return &SSEPublisher{topics: make(map[string]*topicState)}
}

// topic returns the state for name, creating it. Callers hold p.mu.
func (p *SSEPublisher) topic(name string) *topicState {
	t, ok := p.topics[name]
	if !ok {
		t = &topicState{subs: make(map[*sseSubscription]struct{})}
		p.topics[name] = t
	}
	return t
}

// ConfigureTopic sets buffering for a topic
func (p *SSEPublisher) ConfigureTopic(name string, config TopicConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic(name).config = config
}

func (p *SSEPublisher) Subscribe(ctx context.Context, name string) (Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}

	t := p.topic(name)
	sub := &sseSubscription{
		topic:     name,
		events:    make(chan Event, subscriberQueue),
		publisher: p,
	}
	t.subs[sub] = struct{}{}

	replay := t.buffer
	if !t.config.ReplayAll && len(replay) > 1 {
		replay = replay[len(replay)-1:]
	}
	for _, e := range replay {
		select {
		case sub.events <- e:
		default:
			logging.Warn("could not replay event", "topic", name, "version", e.Version)
		}
	}
	if len(replay) > 0 {
		logging.Debug("replayed events to new subscriber", "topic", name, "count", len(replay))
	}

	go func() {
		<-ctx.Done()
		sub.Close()
	}()

	return sub, nil
}

func (p *SSEPublisher) Publish(name string, eventType string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	t := p.topic(name)
	t.version++
	event := Event{Topic: name, Type: eventType, Data: payload, Version: t.version}

	if n := t.config.BufferSize; n > 0 {
		t.buffer = append(t.buffer, event)
		if len(t.buffer) > n {
			t.buffer = t.buffer[len(t.buffer)-n:]
		}
	}

	for sub := range t.subs {
		select {
		case sub.events <- event:
		default:
			logging.Warn("subscriber queue full, dropping event", "topic", name, "version", event.Version)
		}
	}

	logging.Trace("published event", "topic", name, "type", eventType, "version", event.Version)
	return nil
}

// Close ends every subscription; their event channels are closed
func (p *SSEPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	for _, t := range p.topics {
		for sub := range t.subs {
			sub.finish()
		}
		t.subs = make(map[*sseSubscription]struct{})
	}
	return nil
}

// Subscribers returns the number of live subscriptions on a topic
func (p *SSEPublisher) Subscribers(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.topics[name]; ok {
		return len(t.subs)
	}
	return 0
}

func (p *SSEPublisher) unsubscribe(sub *sseSubscription) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if t, ok := p.topics[sub.topic]; ok {
		if _, live := t.subs[sub]; live {
			delete(t.subs, sub)
			sub.finish()
		}
	}
}

type sseSubscription struct {
	topic     string
	events    chan Event
	publisher *SSEPublisher
	once      sync.Once
}

func (s *sseSubscription) Topic() string {
	return s.topic
}

func (s *sseSubscription) Events() <-chan Event {
	return s.events
}

// Close unsubscribes and closes the event channel
func (s *sseSubscription) Close() error {
	s.publisher.unsubscribe(s)
	return nil
}

// finish closes the channel once. Callers hold the publisher lock, so no
// Publish can be sending concurrently.
func (s *sseSubscription) finish() {
	s.once.Do(func() { close(s.events) })
}

// WriteSSE writes one event frame:
//
//	id: <version>
//	event: <type>
//	data: <event json>
func WriteSSE(w io.Writer, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", event.Version, event.Type, data)
	return err
}
