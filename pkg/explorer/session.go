// Package explorer owns the author network screen: the current model, the
// searches and additions that change it, and the views rendered from it.
package explorer

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ritzau/aip-explorer/pkg/api"
	"github.com/ritzau/aip-explorer/pkg/authorgraph"
	"github.com/ritzau/aip-explorer/pkg/cycles"
	"github.com/ritzau/aip-explorer/pkg/lens"
	"github.com/ritzau/aip-explorer/pkg/logging"
	"github.com/ritzau/aip-explorer/pkg/metrics"
)

var (
	// ErrNoGraph is returned by operations that need a loaded graph
	ErrNoGraph = errors.New("no author graph loaded")
	// ErrStale is returned when a response arrives for a search or model that was superseded
	ErrStale = errors.New("response superseded by a newer search")
	// ErrAlreadyRoot is returned when adding an author that is already a root
	ErrAlreadyRoot = errors.New("author is already in the graph")
	// ErrEmptyName is returned for blank author names
	ErrEmptyName = errors.New("author name is empty")
)

// GraphSource looks up the author network around one author
type GraphSource interface {
	AuthorGraph(ctx context.Context, name string) (*authorgraph.Snapshot, error)
}

// State is the screen state
type State string

const (
	StateEmpty  State = "empty"
	StateLoaded State = "loaded"
)

// EventKind names what happened to the session
type EventKind string

const (
	EventSearching EventKind = "searching"
	EventLoaded    EventKind = "loaded"
	EventMerged    EventKind = "merged"
	EventFailed    EventKind = "failed"
)

// Status summarizes the session for clients
type Status struct {
	State      State    `json:"state"`
	Roots      []string `json:"roots"`
	Generation uint64   `json:"generation"`
	Pending    int      `json:"pending"`
	Error      string   `json:"error,omitempty"`
}

// Counts are the sizes of the four model lists
type Counts struct {
	CitationNodes     int `json:"citation_nodes"`
	CoauthorshipNodes int `json:"coauthorship_nodes"`
	CitationEdges     int `json:"citation_edges"`
	CoauthorshipEdges int `json:"coauthorship_edges"`
}

func countsOf(s *authorgraph.Snapshot) Counts {
	return Counts{
		CitationNodes:     len(s.CitationNodes),
		CoauthorshipNodes: len(s.CoauthorshipNodes),
		CitationEdges:     len(s.CitationEdges),
		CoauthorshipEdges: len(s.CoauthorshipEdges),
	}
}

// Event is passed to OnChange listeners
type Event struct {
	Kind   EventKind
	Author string
	Status Status
	Counts Counts
	Err    error
}

// SharedLookupTimeout bounds an author lookup shared by concurrent additions.
// The lookup itself is detached from the callers' contexts.
const SharedLookupTimeout = time.Minute

// NotFoundMessage is the alert shown when an author is not in the database
func NotFoundMessage(name string) string {
	return fmt.Sprintf("%s's connections weren't found in the database.", name)
}

// FailureMessage is the alert shown when looking up name failed with err
func FailureMessage(name string, err error) string {
	switch {
	case errors.Is(err, api.ErrAuthorNotFound):
		return NotFoundMessage(name)
	case errors.Is(err, context.Canceled):
		return fmt.Sprintf("Looking up %s was cancelled.", name)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("Looking up %s timed out.", name)
	default:
		return fmt.Sprintf("Could not look up %s: the database is unreachable.", name)
	}
}

// Session is one author network screen. It is safe for concurrent use.
//
// Searches are numbered: a search only replaces the model when it is newer
// than the last applied search. Additions remember the model generation they
// were issued against and are dropped if the model was replaced meanwhile.
type Session struct {
	source GraphSource
	group  singleflight.Group

	mu         sync.Mutex
	model      *authorgraph.Model
	generation uint64
	issued     uint64
	applied    uint64
	pending    int
	lastErr    string
	listeners  []func(Event)
}

// NewSession creates an empty session backed by source
func NewSession(source GraphSource) *Session {
	return &Session{source: source}
}

// OnChange registers fn to be called after every state change. Listeners
// run on the goroutine that made the change, without the session lock held.
func (s *Session) OnChange(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Session) notify(e Event) {
	s.mu.Lock()
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(e)
	}
}

// State returns the current screen state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	if s.model != nil && s.model.Initialized() {
		return StateLoaded
	}
	return StateEmpty
}

// Status returns a summary of the session
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Session) statusLocked() Status {
	st := Status{
		State:      s.stateLocked(),
		Roots:      []string{},
		Generation: s.generation,
		Pending:    s.pending,
		Error:      s.lastErr,
	}
	if st.State == StateLoaded {
		st.Roots = s.model.RootAuthors()
	}
	return st
}

// Search looks up name and, if it is the newest search to complete so far,
// replaces the model with a fresh one rooted at name. A failed lookup leaves
// the model unchanged.
func (s *Session) Search(ctx context.Context, name string) (Status, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return s.Status(), ErrEmptyName
	}

	s.mu.Lock()
	s.issued++
	seq := s.issued
	s.pending++
	searching := s.statusLocked()
	s.mu.Unlock()

	logging.DebugContext(ctx, "searching author", "author", name, "seq", seq)
	s.notify(Event{Kind: EventSearching, Author: name, Status: searching})

	snap, err := s.source.AuthorGraph(ctx, name)

	s.mu.Lock()
	s.pending--
	if seq <= s.applied {
		st := s.statusLocked()
		s.mu.Unlock()
		metrics.StaleResponses.Inc()
		logging.DebugContext(ctx, "dropping stale search response", "author", name, "seq", seq)
		return st, ErrStale
	}
	if err != nil {
		s.lastErr = FailureMessage(name, err)
		st := s.statusLocked()
		s.mu.Unlock()
		logging.WarnContext(ctx, "author search failed", "author", name, "error", err)
		s.notify(Event{Kind: EventFailed, Author: name, Status: st, Err: err})
		return st, err
	}

	model := authorgraph.NewModel()
	if err := model.Initialize(name, snap); err != nil {
		s.mu.Unlock()
		return s.Status(), err
	}
	s.model = model
	s.generation++
	s.applied = seq
	s.lastErr = ""
	st := s.statusLocked()
	counts := countsOf(snap)
	s.mu.Unlock()

	metrics.GraphUpdates.WithLabelValues("search").Inc()
	logging.InfoContext(ctx, "author graph loaded", "author", name,
		"citationNodes", counts.CitationNodes, "coauthorshipNodes", counts.CoauthorshipNodes)
	s.notify(Event{Kind: EventLoaded, Author: name, Status: st, Counts: counts})
	return st, nil
}

// AddAuthor looks up name and merges it into the current model. Concurrent
// additions of the same name share one lookup; additions of different names
// are merged one at a time so every one of them lands.
func (s *Session) AddAuthor(ctx context.Context, name string) (Status, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return s.Status(), ErrEmptyName
	}

	s.mu.Lock()
	if s.stateLocked() != StateLoaded {
		s.mu.Unlock()
		return s.Status(), ErrNoGraph
	}
	if s.model.IsRoot(name) {
		st := s.statusLocked()
		s.mu.Unlock()
		return st, fmt.Errorf("%w: %s", ErrAlreadyRoot, name)
	}
	gen := s.generation
	s.pending++
	searching := s.statusLocked()
	s.mu.Unlock()

	s.notify(Event{Kind: EventSearching, Author: name, Status: searching})

	key := fmt.Sprintf("%d/%s", gen, name)
	ch := s.group.DoChan(key, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), SharedLookupTimeout)
		defer cancel()
		return s.source.AuthorGraph(lookupCtx, name)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		s.mu.Lock()
		s.pending--
		st := s.statusLocked()
		s.mu.Unlock()
		logging.DebugContext(ctx, "author lookup abandoned by caller", "author", name)
		return st, ctx.Err()
	}
	v, err, shared := res.Val, res.Err, res.Shared

	s.mu.Lock()
	s.pending--
	if s.generation != gen {
		st := s.statusLocked()
		s.mu.Unlock()
		metrics.StaleResponses.Inc()
		logging.DebugContext(ctx, "dropping author for a replaced graph", "author", name, "generation", gen)
		return st, ErrStale
	}
	if err != nil {
		s.lastErr = FailureMessage(name, err)
		st := s.statusLocked()
		s.mu.Unlock()
		logging.WarnContext(ctx, "author lookup failed", "author", name, "error", err)
		s.notify(Event{Kind: EventFailed, Author: name, Status: st, Err: err})
		return st, err
	}
	if s.model.IsRoot(name) {
		// Another caller sharing this lookup merged it already
		st := s.statusLocked()
		s.mu.Unlock()
		logging.TraceContext(ctx, "author already merged", "author", name, "shared", shared)
		return st, nil
	}

	if err := s.model.Merge(name, v.(*authorgraph.Snapshot)); err != nil {
		s.mu.Unlock()
		return s.Status(), err
	}
	s.lastErr = ""
	st := s.statusLocked()
	counts := countsOf(s.model.Snapshot())
	s.mu.Unlock()

	metrics.GraphUpdates.WithLabelValues("merge").Inc()
	logging.InfoContext(ctx, "author merged", "author", name, "roots", len(st.Roots))
	s.notify(Event{Kind: EventMerged, Author: name, Status: st, Counts: counts})
	return st, nil
}

// snapshot returns a copy of the model and its roots
func (s *Session) snapshot() (*authorgraph.Snapshot, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stateLocked() != StateLoaded {
		return nil, nil, ErrNoGraph
	}
	return s.model.Snapshot(), s.model.RootAuthors(), nil
}

// View applies l to the model and lays out the visible subset
func (s *Session) View(l lens.Lens, width float64) (*lens.View, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	snap, roots, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	view := lens.Layout(lens.SelectVisible(snap, roots, l), width)
	metrics.VisibleNodes.Set(float64(len(view.Nodes)))
	return view, nil
}

// Connections lists the edges touching author
func (s *Session) Connections(author string) ([]authorgraph.Connection, error) {
	snap, _, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return authorgraph.Connections(snap, author), nil
}

// Rings finds the citation rings of the model
func (s *Session) Rings() ([]cycles.CitationRing, error) {
	snap, _, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return cycles.FindCitationRings(snap.CitationEdges), nil
}

// Counts returns the sizes of the model lists
func (s *Session) Counts() (Counts, error) {
	snap, _, err := s.snapshot()
	if err != nil {
		return Counts{}, err
	}
	return countsOf(snap), nil
}
