package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ritzau/aip-explorer/pkg/api"
)

// badRequest marks client input errors
type badRequest struct{ error }

func intParam(q url.Values, name string) (int, error) {
	v := q.Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, badRequest{fmt.Errorf("invalid %s %q", name, v)}
	}
	return n, nil
}

func floatParam(q url.Values, name string) (float64, error) {
	v := q.Get(name)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, badRequest{fmt.Errorf("invalid %s %q", name, v)}
	}
	return f, nil
}

// publicationQuery reads page, page_size, ordering and a JSON filter object
func publicationQuery(q url.Values) (api.PublicationQuery, error) {
	pq := api.PublicationQuery{Sort: api.DefaultSort, Filter: api.DefaultFilter()}

	var err error
	if pq.Page, err = intParam(q, "page"); err != nil {
		return pq, err
	}
	if pq.PageSize, err = intParam(q, "page_size"); err != nil {
		return pq, err
	}
	if v := q.Get("ordering"); v != "" {
		pq.Sort = api.ParseOrdering(v)
	}
	if v := q.Get("filter"); v != "" {
		if err := json.Unmarshal([]byte(v), &pq.Filter); err != nil {
			return pq, badRequest{fmt.Errorf("invalid filter: %w", err)}
		}
	}
	return pq, nil
}

func (s *Server) failInput(w http.ResponseWriter, r *http.Request, err error) {
	if _, ok := err.(badRequest); ok {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	fail(w, r, err)
}

func (s *Server) handlePublications(w http.ResponseWriter, r *http.Request) {
	pq, err := publicationQuery(r.URL.Query())
	if err != nil {
		s.failInput(w, r, err)
		return
	}
	page, err := s.backend.Publications(r.Context(), pq)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleRawQuery(w http.ResponseWriter, r *http.Request) {
	sql := r.URL.Query().Get("query")
	if sql == "" {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("query is required"))
		return
	}
	rows, err := s.backend.RawQuery(r.Context(), sql)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func hotKeywordsParams(q url.Values) (api.HotKeywordsParams, error) {
	var p api.HotKeywordsParams
	var err error
	if p.Year, err = intParam(q, "year"); err != nil {
		return p, err
	}
	if p.PRate, err = floatParam(q, "p_rate"); err != nil {
		return p, err
	}
	if p.CRate, err = floatParam(q, "c_rate"); err != nil {
		return p, err
	}
	if v := q.Get("r_adjustment"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return p, badRequest{fmt.Errorf("invalid r_adjustment %q", v)}
		}
		p.RAdjustment = &b
	}
	if p.NumberOfFeatures, err = intParam(q, "number_of_features"); err != nil {
		return p, err
	}
	if p.RMin, err = intParam(q, "r_min"); err != nil {
		return p, err
	}
	if p.DT, err = intParam(q, "dt"); err != nil {
		return p, err
	}
	return p, nil
}

func (s *Server) handleHotKeywords(w http.ResponseWriter, r *http.Request) {
	p, err := hotKeywordsParams(r.URL.Query())
	if err != nil {
		s.failInput(w, r, err)
		return
	}
	keywords, err := s.backend.HotKeywords(r.Context(), p)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, keywords)
}

func risingStarsParams(q url.Values) (api.RisingStarsParams, error) {
	p := api.RisingStarsParams{
		Scope:     api.Scope(q.Get("scope")),
		Algorithm: api.Algorithm(q.Get("algorithm")),
		Keywords:  q["keyword"],
	}
	var err error
	if p.FirstYear, err = intParam(q, "first_year"); err != nil {
		return p, err
	}
	if p.Number, err = intParam(q, "number"); err != nil {
		return p, err
	}
	if err := p.Validate(); err != nil {
		return p, badRequest{err}
	}
	return p, nil
}

func (s *Server) handleRisingStars(w http.ResponseWriter, r *http.Request) {
	p, err := risingStarsParams(r.URL.Query())
	if err != nil {
		s.failInput(w, r, err)
		return
	}
	stars, err := s.backend.RisingStars(r.Context(), p)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stars)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.backend.Dashboard(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
