// Package pubsub pushes explorer state changes to open dashboards over
// server-sent events.
package pubsub

import (
	"context"
	"encoding/json"
)

// Topics the explorer publishes on
const (
	TopicExplorerStatus = "explorer_status"
	TopicAuthorGraph    = "author_graph"
	TopicFavourites     = "favourites"
)

// Topics lists every topic clients may subscribe to
var Topics = []string{TopicExplorerStatus, TopicAuthorGraph, TopicFavourites}

// KnownTopic reports whether topic is one of Topics
func KnownTopic(topic string) bool {
	for _, t := range Topics {
		if t == topic {
			return true
		}
	}
	return false
}

// Event is one published message
type Event struct {
	Topic   string          `json:"topic"`
	Type    string          `json:"type"` // e.g. "searching", "loaded", "merged", "failed"
	Data    json.RawMessage `json:"data"`
	Version int             `json:"version"` // per-topic, increasing
}

// Subscription delivers the events of one topic
type Subscription interface {
	Topic() string
	Events() <-chan Event
	Close() error
}

// Publisher manages subscriptions and event fan-out
type Publisher interface {
	// Subscribe creates a new subscription; cancelling ctx closes it
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	Publish(topic string, eventType string, data any) error

	Close() error
}

// ExplorerStatus is published on every session state change
type ExplorerStatus struct {
	State   string   `json:"state"` // empty, loading, loaded
	Message string   `json:"message"`
	Roots   []string `json:"roots"`
	Error   string   `json:"error,omitempty"`
}

// AuthorGraphUpdate announces a new model so clients refetch the view
type AuthorGraphUpdate struct {
	Generation        uint64 `json:"generation"`
	Author            string `json:"author"`
	CitationNodes     int    `json:"citation_nodes"`
	CoauthorshipNodes int    `json:"coauthorship_nodes"`
	CitationEdges     int    `json:"citation_edges"`
	CoauthorshipEdges int    `json:"coauthorship_edges"`
}

// FavouritesChanged is published when the favourites list changes, locally or on disk
type FavouritesChanged struct {
	Count  int    `json:"count"`
	Source string `json:"source"` // "api" or "file"
}
