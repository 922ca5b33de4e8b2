package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ritzau/aip-explorer/pkg/api"
	"github.com/ritzau/aip-explorer/pkg/explorer"
	"github.com/ritzau/aip-explorer/pkg/lens"
)

type authorRequest struct {
	Author string `json:"author"`
}

func decodeAuthor(r *http.Request) (string, error) {
	var req authorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", fmt.Errorf("%w: %v", explorer.ErrEmptyName, err)
	}
	return req.Author, nil
}

func (s *Server) handleExplorerStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Status())
}

// handleSearch replaces the graph with the network around one author
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	name, err := decodeAuthor(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	status, err := s.session.Search(r.Context(), name)
	s.respondToLookup(w, r, name, status, err)
}

// handleAddAuthor merges another author into the graph
func (s *Server) handleAddAuthor(w http.ResponseWriter, r *http.Request) {
	name, err := decodeAuthor(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	status, err := s.session.AddAuthor(r.Context(), name)
	s.respondToLookup(w, r, name, status, err)
}

func (s *Server) respondToLookup(w http.ResponseWriter, r *http.Request, name string, status explorer.Status, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, status)
	case errors.Is(err, api.ErrAuthorNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: explorer.NotFoundMessage(name)})
	default:
		fail(w, r, err)
	}
}

// handleGraph renders the current graph through the requested lens
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	l, err := lens.Parse(q.Get("filter"), q.Get("limit"))
	if err != nil {
		fail(w, r, err)
		return
	}

	width := 0.0
	if v := q.Get("width"); v != "" {
		width, err = strconv.ParseFloat(v, 64)
		if err != nil || width <= 0 || math.IsNaN(width) || math.IsInf(width, 0) {
			writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid width %q", v))
			return
		}
	}

	view, err := s.session.View(l, width)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleConnections(w http.ResponseWriter, r *http.Request) {
	conns, err := s.session.Connections(mux.Vars(r)["name"])
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conns)
}

func (s *Server) handleRings(w http.ResponseWriter, r *http.Request) {
	rings, err := s.session.Rings()
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rings)
}
