package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ritzau/aip-explorer/pkg/api"
	"github.com/ritzau/aip-explorer/pkg/favourites"
)

// addFavouriteRequest saves either raw SQL, a filter object, or an already
// encoded query
type addFavouriteRequest struct {
	Type      favourites.QueryType   `json:"type"`
	QueryName string                 `json:"queryName"`
	SQL       string                 `json:"sql"`
	Filter    *api.PublicationFilter `json:"filter"`
	Query     json.RawMessage        `json:"query"`
}

func (req addFavouriteRequest) query(s *Server) (favourites.Query, error) {
	if req.QueryName == "" {
		return favourites.Query{}, badRequest{fmt.Errorf("queryName is required")}
	}
	switch {
	case req.Filter != nil:
		return favourites.NewFiltersQuery(req.QueryName, *req.Filter, s.now())
	case req.SQL != "":
		return favourites.NewSQLQuery(req.QueryName, req.SQL, s.now())
	}

	if req.Type != favourites.QuerySQL && req.Type != favourites.QueryFilters {
		return favourites.Query{}, badRequest{fmt.Errorf("unknown query type %q", req.Type)}
	}
	if len(req.Query) == 0 {
		return favourites.Query{}, badRequest{fmt.Errorf("query is required")}
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, req.Query); err != nil {
		return favourites.Query{}, badRequest{err}
	}
	return favourites.Query{
		Type:      req.Type,
		QueryName: req.QueryName,
		Time:      favourites.FormatTime(s.now()),
		Query:     compact.Bytes(),
	}, nil
}

func (s *Server) handleListFavourites(w http.ResponseWriter, r *http.Request) {
	var (
		queries []favourites.Query
		err     error
	)
	if name := r.URL.Query().Get("search"); name != "" {
		queries, err = s.favourites.Search(name)
	} else {
		queries, err = s.favourites.List()
	}
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, queries)
}

func (s *Server) handleAddFavourite(w http.ResponseWriter, r *http.Request) {
	var req addFavouriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("invalid favourite: %w", err))
		return
	}
	q, err := req.query(s)
	if err != nil {
		s.failInput(w, r, err)
		return
	}
	if err := s.favourites.Add(q); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func indexVar(r *http.Request) int {
	// The route only matches digits
	index, _ := strconv.Atoi(mux.Vars(r)["index"])
	return index
}

func (s *Server) handleDeleteFavourite(w http.ResponseWriter, r *http.Request) {
	if err := s.favourites.Remove(indexVar(r)); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportFavourites(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.favourites.Export(&buf); err != nil {
		fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", favourites.ExportFileName(s.now())))
	w.Write(buf.Bytes())
}

func (s *Server) handleImportFavourites(w http.ResponseWriter, r *http.Request) {
	n, err := s.favourites.Import(r.Body)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": n})
}

type runResponse struct {
	Type    favourites.QueryType `json:"type"`
	Results any                  `json:"results"`
}

// handleRunFavourite executes a saved query: raw SQL directly, filters as a
// publication search
func (s *Server) handleRunFavourite(w http.ResponseWriter, r *http.Request) {
	q, err := s.favourites.Get(indexVar(r))
	if err != nil {
		fail(w, r, err)
		return
	}

	switch q.Type {
	case favourites.QuerySQL:
		sql, err := q.SQL()
		if err != nil {
			fail(w, r, err)
			return
		}
		rows, err := s.backend.RawQuery(r.Context(), sql)
		if err != nil {
			fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, runResponse{Type: q.Type, Results: rows})

	case favourites.QueryFilters:
		pq, err := publicationQuery(r.URL.Query())
		if err != nil {
			s.failInput(w, r, err)
			return
		}
		if pq.Filter, err = q.Filter(); err != nil {
			fail(w, r, err)
			return
		}
		page, err := s.backend.Publications(r.Context(), pq)
		if err != nil {
			fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, runResponse{Type: q.Type, Results: page})

	default:
		writeError(w, r, http.StatusUnprocessableEntity, fmt.Errorf("favourite %q has unknown type %q", q.QueryName, q.Type))
	}
}
