package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"testing"
)

func TestPublicationQuery_Values(t *testing.T) {
	filter := DefaultFilter()
	filter.Year = &IntRange{2001, 2009}
	filter.AuthorNames = []string{"Jane Doe"}

	v := PublicationQuery{Filter: filter}.Values()

	want := url.Values{
		"page":      {"1"},
		"page_size": {"10"},
		"year__gte": {"2001"},
		"year__lte": {"2009"},
		"authors":   {"Jane Doe"},
		"ordering":  {"id"},
	}
	if !reflect.DeepEqual(v, want) {
		t.Errorf("Values() = %v, want %v", v, want)
	}

	encoded := v.Encode()
	for _, fragment := range []string{"year__gte=2001", "year__lte=2009", "authors=Jane+Doe"} {
		if !strings.Contains(encoded, fragment) {
			t.Errorf("Expected %q in %q", fragment, encoded)
		}
	}
	if strings.Contains(encoded, "n_citations") {
		t.Errorf("n_citations must not be sent: %q", encoded)
	}
}

func TestPublicationFilter_Encode(t *testing.T) {
	tests := []struct {
		name   string
		filter PublicationFilter
		want   url.Values
	}{
		{
			name:   "default sends nothing",
			filter: DefaultFilter(),
			want:   url.Values{},
		},
		{
			name:   "id is never sent",
			filter: PublicationFilter{ID: "p1"},
			want:   url.Values{},
		},
		{
			name: "everything",
			filter: PublicationFilter{
				Venue:            "VIS",
				Volume:           "12",
				Title:            "graph",
				DOI:              "10.1109",
				NCitations:       &IntRange{0, 50},
				AuthorNames:      []string{"A", "B"},
				AbstractKeywords: []string{"x", "y z"},
			},
			want: url.Values{
				"venue__contains":  {"VIS"},
				"volume__contains": {"12"},
				"title__icontains": {"graph"},
				"doi__contains":    {"10.1109"},
				"n_citations__gte": {"0"},
				"n_citations__lte": {"50"},
				"authors":          {"A,B"},
				"abstract":         {"x,y z"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := url.Values{}
			tt.filter.Encode(got)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Encode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultFilterJSON(t *testing.T) {
	data, err := json.Marshal(DefaultFilter())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := `{"id":"","venue":"","volume":"","year":null,"title":"","doi":"","n_citations":null,"author_names":[],"abstract_keywords":[]}`
	if string(data) != want {
		t.Errorf("DefaultFilter JSON = %s, want %s", data, want)
	}
}

func TestSortOrdering(t *testing.T) {
	tests := []struct {
		sort Sort
		want string
	}{
		{Sort{}, "id"},
		{Sort{Field: "year"}, "year"},
		{Sort{Field: "n_citations", Desc: true}, "-n_citations"},
	}
	for _, tt := range tests {
		if got := tt.sort.Ordering(); got != tt.want {
			t.Errorf("%+v.Ordering() = %q, want %q", tt.sort, got, tt.want)
		}
		if tt.sort.Field != "" && ParseOrdering(tt.want) != tt.sort {
			t.Errorf("ParseOrdering(%q) = %+v, want %+v", tt.want, ParseOrdering(tt.want), tt.sort)
		}
	}
}

func TestHotKeywordsParams_Values(t *testing.T) {
	off := false
	tests := []struct {
		name   string
		params HotKeywordsParams
		want   url.Values
	}{
		{
			name:   "year only",
			params: HotKeywordsParams{Year: 2019},
			want:   url.Values{"year": {"2019"}},
		},
		{
			name:   "default year",
			params: HotKeywordsParams{},
			want:   url.Values{"year": {"2021"}},
		},
		{
			name: "false adjustment is still sent",
			params: HotKeywordsParams{
				Year: 2020, PRate: 0.01, CRate: 0.05, RAdjustment: &off,
				NumberOfFeatures: 10, RMin: 5, DT: 5,
			},
			want: url.Values{
				"year": {"2020"}, "p_rate": {"0.01"}, "c_rate": {"0.05"}, "r_adjustment": {"false"},
				"number_of_features": {"10"}, "r_min": {"5"}, "dt": {"5"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.params.Values(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Values() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRisingStarsParams(t *testing.T) {
	tests := []struct {
		params   RisingStarsParams
		endpoint string
		keywords []string
	}{
		{RisingStarsParams{Scope: ScopeGlobal, Algorithm: AlgorithmBasic, Keywords: []string{"vis"}}, "rising-stars", nil},
		{RisingStarsParams{Scope: ScopeGlobal, Algorithm: AlgorithmClusters}, "rising-stars-clusters", nil},
		{RisingStarsParams{Scope: ScopeGlobal, Algorithm: AlgorithmPageRank}, "rising-stars-page-rank", nil},
		{RisingStarsParams{Scope: ScopeLocal, Algorithm: AlgorithmBasic, Keywords: []string{"vis", "graph"}}, "rising-stars-local", []string{"vis", "graph"}},
		{RisingStarsParams{Scope: ScopeLocal, Algorithm: AlgorithmPageRank}, "rising-stars-local-page-rank", nil},
	}

	for _, tt := range tests {
		if got := tt.params.Endpoint(); got != tt.endpoint {
			t.Errorf("Endpoint() = %q, want %q", got, tt.endpoint)
		}
		if got := tt.params.Values()["keyword"]; !reflect.DeepEqual(got, tt.keywords) {
			t.Errorf("%s keywords = %v, want %v", tt.endpoint, got, tt.keywords)
		}
	}

	if err := (RisingStarsParams{Algorithm: "magic"}).Validate(); err == nil {
		t.Error("Expected unknown algorithm to be rejected")
	}
}

func TestRisingStars(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/rising-stars-local-clusters" {
			t.Errorf("Unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query()["keyword"]; len(got) != 2 {
			t.Errorf("Expected 2 keyword params, got %v", got)
		}
		w.Write([]byte(`[{"author_id": 7, "author_name": "Ada", "z_score": 2.5, "first_publication": 2015}]`))
	})

	stars, err := c.RisingStars(context.Background(), RisingStarsParams{
		FirstYear: 2015, Number: 5, Scope: ScopeLocal, Algorithm: AlgorithmClusters,
		Keywords: []string{"vis", "graph"},
	})
	if err != nil {
		t.Fatalf("RisingStars failed: %v", err)
	}
	want := []RisingStar{{AuthorID: 7, AuthorName: "Ada", ZScore: 2.5, FirstPublication: 2015}}
	if !reflect.DeepEqual(stars, want) {
		t.Errorf("RisingStars = %+v, want %+v", stars, want)
	}
}

func TestPublicationsAndRawQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/publications/":
			if got := r.URL.Query().Get("ordering"); got != "-year" {
				t.Errorf("Unexpected ordering %q", got)
			}
			w.Write([]byte(`{"count": 1, "next": null, "previous": null, "results": [
				{"id": "p1", "venue": "VIS", "year": 2020, "title": "Graphs", "n_citations": 4,
				 "authors": [{"name": "Ada", "orcid": null, "first_publication_year": 2015}]}
			]}`))
		case "/api/raw-query":
			if got := r.URL.Query().Get("sql"); got != "SELECT 1 AS one" {
				t.Errorf("Unexpected sql %q", got)
			}
			w.Write([]byte(`[{"one": 1}]`))
		}
	})

	page, err := c.Publications(context.Background(), PublicationQuery{Sort: Sort{Field: "year", Desc: true}})
	if err != nil {
		t.Fatalf("Publications failed: %v", err)
	}
	if page.Count != 1 || page.Results[0].Authors[0].Name != "Ada" || *page.Results[0].Year != 2020 {
		t.Errorf("Unexpected page %+v", page)
	}

	rows, err := c.RawQuery(context.Background(), "SELECT 1 AS one")
	if err != nil {
		t.Fatalf("RawQuery failed: %v", err)
	}
	if len(rows) != 1 || rows[0]["one"] != float64(1) {
		t.Errorf("Unexpected rows %v", rows)
	}
}
