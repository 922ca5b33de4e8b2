package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ritzau/aip-explorer/pkg/api"
	"github.com/ritzau/aip-explorer/pkg/explorer"
	"github.com/ritzau/aip-explorer/pkg/favourites"
	"github.com/ritzau/aip-explorer/pkg/lens"
	"github.com/ritzau/aip-explorer/pkg/logging"
	"github.com/ritzau/aip-explorer/pkg/pubsub"
	"github.com/ritzau/aip-explorer/pkg/watcher"
)

//go:embed static/*
var staticFiles embed.FS

// Backend is the remote API as used by the server
type Backend interface {
	explorer.GraphSource
	Publications(ctx context.Context, q api.PublicationQuery) (*api.PublicationPage, error)
	RawQuery(ctx context.Context, sql string) ([]map[string]any, error)
	HotKeywords(ctx context.Context, p api.HotKeywordsParams) ([]string, error)
	RisingStars(ctx context.Context, p api.RisingStarsParams) ([]api.RisingStar, error)
	Dashboard(ctx context.Context) (*api.Dashboard, error)
}

// Server represents the web server
type Server struct {
	router     *mux.Router
	backend    Backend
	session    *explorer.Session
	favourites *favourites.Store
	publisher  *pubsub.SSEPublisher

	detector     *watcher.ChangeDetector
	watchedFiles []string

	now func() time.Time
}

// NewServer creates a new web server
func NewServer(backend Backend, store *favourites.Store) *Server {
	ssePublisher := pubsub.NewSSEPublisher()

	// explorer_status: new subscribers only need the current state
	ssePublisher.ConfigureTopic(pubsub.TopicExplorerStatus, pubsub.TopicConfig{BufferSize: 10})
	// author_graph: likewise, clients refetch the view on any update
	ssePublisher.ConfigureTopic(pubsub.TopicAuthorGraph, pubsub.TopicConfig{BufferSize: 5})
	ssePublisher.ConfigureTopic(pubsub.TopicFavourites, pubsub.TopicConfig{BufferSize: 1})

	s := &Server{
		router:     mux.NewRouter(),
		backend:    backend,
		session:    explorer.NewSession(backend),
		favourites: store,
		publisher:  ssePublisher,
		now:        time.Now,
	}

	s.session.OnChange(s.publishSessionEvent)
	store.OnChange(s.favouritesChanged)

	s.setupRoutes()
	return s
}

// Session returns the explorer session served by s
func (s *Server) Session() *explorer.Session {
	return s.session
}

// Publisher returns the event publisher, e.g. for a favourites watcher
func (s *Server) Publisher() *pubsub.SSEPublisher {
	return s.publisher
}

// SetChangeDetector makes the server record its own favourites writes so a
// watcher on files does not report them as external edits.
func (s *Server) SetChangeDetector(d *watcher.ChangeDetector, files ...string) {
	s.detector = d
	s.watchedFiles = files
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) publishSessionEvent(e explorer.Event) {
	status := pubsub.ExplorerStatus{
		State: string(e.Status.State),
		Roots: e.Status.Roots,
	}
	switch e.Kind {
	case explorer.EventSearching:
		status.State = "loading"
		status.Message = fmt.Sprintf("Looking up %s", e.Author)
	case explorer.EventFailed:
		status.Message = explorer.FailureMessage(e.Author, e.Err)
		status.Error = e.Err.Error()
	default:
		status.Message = fmt.Sprintf("%d root authors", len(e.Status.Roots))
	}
	if err := s.publisher.Publish(pubsub.TopicExplorerStatus, string(e.Kind), status); err != nil {
		logging.Warn("failed to publish explorer status", "error", err)
	}

	if e.Kind != explorer.EventLoaded && e.Kind != explorer.EventMerged {
		return
	}
	update := pubsub.AuthorGraphUpdate{
		Generation:        e.Status.Generation,
		Author:            e.Author,
		CitationNodes:     e.Counts.CitationNodes,
		CoauthorshipNodes: e.Counts.CoauthorshipNodes,
		CitationEdges:     e.Counts.CitationEdges,
		CoauthorshipEdges: e.Counts.CoauthorshipEdges,
	}
	if err := s.publisher.Publish(pubsub.TopicAuthorGraph, string(e.Kind), update); err != nil {
		logging.Warn("failed to publish author graph update", "error", err)
	}
}

func (s *Server) favouritesChanged(queries []favourites.Query) {
	if s.detector != nil {
		for _, f := range s.watchedFiles {
			if err := s.detector.Sync(f); err != nil {
				logging.Warn("failed to record favourites write", "path", f, "error", err)
			}
		}
	}
	data := pubsub.FavouritesChanged{Count: len(queries), Source: "api"}
	if err := s.publisher.Publish(pubsub.TopicFavourites, "changed", data); err != nil {
		logging.Warn("failed to publish favourites change", "error", err)
	}
}

func (s *Server) setupRoutes() {
	s.router.Use(logging.RequestIDMiddleware)

	// SSE subscription endpoint
	s.router.HandleFunc("/api/subscribe/{topic}", s.handleSubscribe).Methods("GET")

	// Author network
	s.router.HandleFunc("/api/explorer", s.handleExplorerStatus).Methods("GET")
	s.router.HandleFunc("/api/explorer/search", s.handleSearch).Methods("POST")
	s.router.HandleFunc("/api/explorer/authors", s.handleAddAuthor).Methods("POST")
	s.router.HandleFunc("/api/explorer/graph", s.handleGraph).Methods("GET")
	s.router.HandleFunc("/api/explorer/authors/{name}/connections", s.handleConnections).Methods("GET")
	s.router.HandleFunc("/api/explorer/rings", s.handleRings).Methods("GET")

	// Remote queries
	s.router.HandleFunc("/api/publications", s.handlePublications).Methods("GET")
	s.router.HandleFunc("/api/raw-query", s.handleRawQuery).Methods("GET")
	s.router.HandleFunc("/api/hot-keywords", s.handleHotKeywords).Methods("GET")
	s.router.HandleFunc("/api/rising-stars", s.handleRisingStars).Methods("GET")
	s.router.HandleFunc("/api/dashboard", s.handleDashboard).Methods("GET")

	// Favourites - more specific routes must come first
	s.router.HandleFunc("/api/favourites/export", s.handleExportFavourites).Methods("GET")
	s.router.HandleFunc("/api/favourites/import", s.handleImportFavourites).Methods("POST")
	s.router.HandleFunc("/api/favourites/{index:[0-9]+}/run", s.handleRunFavourite).Methods("GET")
	s.router.HandleFunc("/api/favourites/{index:[0-9]+}", s.handleDeleteFavourite).Methods("DELETE")
	s.router.HandleFunc("/api/favourites", s.handleListFavourites).Methods("GET")
	s.router.HandleFunc("/api/favourites", s.handleAddFavourite).Methods("POST")

	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Serve static files
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		logging.Fatal("failed to open embedded static files", "error", err)
	}
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(staticFS)))
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]
	if !pubsub.KnownTopic(topic) {
		writeError(w, r, http.StatusNotFound, fmt.Errorf("unknown topic %q", topic))
		return
	}

	sub, err := s.publisher.Subscribe(r.Context(), topic)
	if err != nil {
		writeError(w, r, http.StatusServiceUnavailable, err)
		return
	}
	defer sub.Close()

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// Send initial comment to establish connection (Safari compatibility)
	fmt.Fprintf(w, ": connected\n\n")
	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	for event := range sub.Events() {
		if err := pubsub.WriteSSE(w, event); err != nil {
			logging.DebugContext(r.Context(), "SSE client went away", "topic", topic, "error", err)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// Start serves on port until ctx is done, then shuts down gracefully
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logging.Info("starting web server", "url", fmt.Sprintf("http://localhost:%d", port))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	// Ends open SSE streams
	s.publisher.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down web server: %w", err)
	}
	return nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= 500 {
		logging.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// statusOf maps domain errors to HTTP status codes
func statusOf(err error) int {
	var apiErr *api.APIError
	switch {
	case errors.Is(err, api.ErrAuthorNotFound),
		errors.Is(err, favourites.ErrIndexOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, explorer.ErrEmptyName),
		errors.Is(err, lens.ErrInvalidFilter),
		errors.Is(err, lens.ErrInvalidLimit),
		errors.Is(err, favourites.ErrMalformedImport):
		return http.StatusBadRequest
	case errors.Is(err, explorer.ErrNoGraph),
		errors.Is(err, explorer.ErrStale),
		errors.Is(err, explorer.ErrAlreadyRoot):
		return http.StatusConflict
	case errors.Is(err, api.ErrRateLimited):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, api.ErrNetwork),
		errors.Is(err, api.ErrMalformedResponse),
		errors.As(err, &apiErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, statusOf(err), err)
}
