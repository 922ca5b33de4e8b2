// Package favourites keeps the user's saved publication queries: SQL text or
// filter objects, stored as one JSON array under a single key.
package favourites

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ritzau/aip-explorer/pkg/api"
)

// QueryType tells how a saved query is executed
type QueryType string

const (
	QuerySQL     QueryType = "sql"
	QueryFilters QueryType = "filters"
)

// Query is one saved favourite. Query holds a JSON string for sql queries and
// the non-default filter fields for filter queries; both are kept verbatim.
type Query struct {
	Type      QueryType       `json:"type"`
	QueryName string          `json:"queryName"`
	Time      string          `json:"time"`
	Query     json.RawMessage `json:"query"`
}

// timeLayout is the ISO form timestamps are saved in
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTime renders t the way saved queries record it
func FormatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// NewSQLQuery saves raw SQL
func NewSQLQuery(name, sql string, t time.Time) (Query, error) {
	data, err := encode(sql)
	if err != nil {
		return Query{}, err
	}
	return Query{Type: QuerySQL, QueryName: name, Time: FormatTime(t), Query: data}, nil
}

// filterKeys is the field order of a publication filter
var filterKeys = []string{
	"id", "venue", "volume", "year", "title", "doi", "n_citations", "author_names", "abstract_keywords",
}

// NewFiltersQuery saves the fields of f that differ from the default filter.
// Empty lists count as unset.
func NewFiltersQuery(name string, f api.PublicationFilter, t time.Time) (Query, error) {
	specified, err := specifiedFields(f)
	if err != nil {
		return Query{}, err
	}
	return Query{Type: QueryFilters, QueryName: name, Time: FormatTime(t), Query: specified}, nil
}

func specifiedFields(f api.PublicationFilter) (json.RawMessage, error) {
	current, err := fieldsOf(f)
	if err != nil {
		return nil, err
	}
	defaults, err := fieldsOf(api.DefaultFilter())
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, key := range filterKeys {
		v := current[key]
		if bytes.Equal(v, defaults[key]) || bytes.Equal(v, []byte("[]")) || bytes.Equal(v, []byte("null")) {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, _ := json.Marshal(key)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func fieldsOf(f api.PublicationFilter) (map[string]json.RawMessage, error) {
	data, err := encode(f)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// SQL returns the text of a sql query
func (q Query) SQL() (string, error) {
	if q.Type != QuerySQL {
		return "", fmt.Errorf("query %q is a %s query", q.QueryName, q.Type)
	}
	var sql string
	if err := json.Unmarshal(q.Query, &sql); err != nil {
		return "", fmt.Errorf("query %q: %w", q.QueryName, err)
	}
	return sql, nil
}

// Filter returns the saved fields laid over the default filter
func (q Query) Filter() (api.PublicationFilter, error) {
	f := api.DefaultFilter()
	if q.Type != QueryFilters {
		return f, fmt.Errorf("query %q is a %s query", q.QueryName, q.Type)
	}
	if len(q.Query) == 0 {
		return f, nil
	}
	if err := json.Unmarshal(q.Query, &f); err != nil {
		return api.DefaultFilter(), fmt.Errorf("query %q: %w", q.QueryName, err)
	}
	if f.AuthorNames == nil {
		f.AuthorNames = []string{}
	}
	if f.AbstractKeywords == nil {
		f.AbstractKeywords = []string{}
	}
	return f, nil
}
