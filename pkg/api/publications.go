package api

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

const (
	publicationsEndpoint = "publications/"
	rawQueryEndpoint     = "raw-query"

	// DefaultPageSize matches the dashboard's table size.
	DefaultPageSize = 10
)

// IntRange is an inclusive [from, to] bound.
type IntRange [2]int

// PublicationFilter is the dashboard's publication filter object. Nil ranges
// and empty strings or lists are not sent.
type PublicationFilter struct {
	ID               string    `json:"id"`
	Venue            string    `json:"venue"`
	Volume           string    `json:"volume"`
	Year             *IntRange `json:"year"`
	Title            string    `json:"title"`
	DOI              string    `json:"doi"`
	NCitations       *IntRange `json:"n_citations"`
	AuthorNames      []string  `json:"author_names"`
	AbstractKeywords []string  `json:"abstract_keywords"`
}

// DefaultFilter returns the empty filter with non-nil lists.
func DefaultFilter() PublicationFilter {
	return PublicationFilter{
		AuthorNames:      []string{},
		AbstractKeywords: []string{},
	}
}

// Encode adds the filter's query parameters to v. The id field is only used
// by the dashboard for display and is never sent.
func (f PublicationFilter) Encode(v url.Values) {
	if f.Venue != "" {
		v.Add("venue__contains", f.Venue)
	}
	if f.Volume != "" {
		v.Add("volume__contains", f.Volume)
	}
	if f.Year != nil {
		v.Add("year__gte", strconv.Itoa(f.Year[0]))
		v.Add("year__lte", strconv.Itoa(f.Year[1]))
	}
	if f.Title != "" {
		v.Add("title__icontains", f.Title)
	}
	if f.DOI != "" {
		v.Add("doi__contains", f.DOI)
	}
	if f.NCitations != nil {
		v.Add("n_citations__gte", strconv.Itoa(f.NCitations[0]))
		v.Add("n_citations__lte", strconv.Itoa(f.NCitations[1]))
	}
	if len(f.AuthorNames) > 0 {
		v.Add("authors", strings.Join(f.AuthorNames, ","))
	}
	if len(f.AbstractKeywords) > 0 {
		v.Add("abstract", strings.Join(f.AbstractKeywords, ","))
	}
}

// Sort orders the publication table by one column.
type Sort struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc"`
}

// DefaultSort is ascending by id.
var DefaultSort = Sort{Field: "id"}

// Ordering renders the sort as the backend's ordering parameter
func (s Sort) Ordering() string {
	field := s.Field
	if field == "" {
		field = DefaultSort.Field
	}
	if s.Desc {
		return "-" + field
	}
	return field
}

// ParseOrdering is the inverse of Ordering.
func ParseOrdering(s string) Sort {
	if s == "" {
		return DefaultSort
	}
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		return Sort{Field: rest, Desc: true}
	}
	return Sort{Field: s}
}

// PublicationQuery is one page of a filtered, sorted publication search.
type PublicationQuery struct {
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Sort     Sort              `json:"sort"`
	Filter   PublicationFilter `json:"filter"`
}

// Values builds the query string for the publications endpoint.
func (q PublicationQuery) Values() url.Values {
	page, size := q.Page, q.PageSize
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}

	v := url.Values{}
	v.Set("page", strconv.Itoa(page))
	v.Set("page_size", strconv.Itoa(size))
	q.Filter.Encode(v)
	v.Set("ordering", q.Sort.Ordering())
	return v
}

// PublicationAuthor is an author as embedded in a publication.
type PublicationAuthor struct {
	Name                 string  `json:"name"`
	ORCID                *string `json:"orcid"`
	FirstPublicationYear *int    `json:"first_publication_year"`
}

// Publication is one row of the publication table.
type Publication struct {
	ID                string              `json:"id"`
	Venue             string              `json:"venue"`
	Year              *int                `json:"year"`
	Volume            *string             `json:"volume"`
	DOI               *string             `json:"doi"`
	Title             string              `json:"title"`
	Abstract          *string             `json:"abstract"`
	NCitations        int                 `json:"n_citations"`
	SemanticScholarID *string             `json:"semantic_scholar_id"`
	Authors           []PublicationAuthor `json:"authors"`
}

// PublicationPage is a paginated search result.
type PublicationPage struct {
	Count    int           `json:"count"`
	Next     *string       `json:"next"`
	Previous *string       `json:"previous"`
	Results  []Publication `json:"results"`
}

// Publications runs a publication search.
func (c *Client) Publications(ctx context.Context, q PublicationQuery) (*PublicationPage, error) {
	var page PublicationPage
	if err := c.get(ctx, publicationsEndpoint, q.Values(), &page); err != nil {
		return nil, err
	}
	if page.Results == nil {
		page.Results = []Publication{}
	}
	return &page, nil
}

// RawQuery runs SQL on the backend and returns one map per row.
func (c *Client) RawQuery(ctx context.Context, sql string) ([]map[string]any, error) {
	var rows []map[string]any
	if err := c.get(ctx, rawQueryEndpoint, url.Values{"sql": {sql}}, &rows); err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	return rows, nil
}
