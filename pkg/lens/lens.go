// Package lens decides which part of the author network reaches the force
// layout: the edge type filter, the node limit and node sizing.
package lens

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/ritzau/aip-explorer/pkg/authorgraph"
)

// FilterThreshold is the visible node count above which the node limit control is offered
const FilterThreshold = 49

var (
	ErrInvalidFilter = errors.New("invalid edge type filter")
	ErrInvalidLimit  = errors.New("limit must be in (0, 1]")
)

// TypeFilter restricts the view to one edge type. The zero value shows both.
type TypeFilter string

const (
	ShowAll          TypeFilter = ""
	ShowCitation     TypeFilter = TypeFilter(authorgraph.EdgeCitation)
	ShowCoauthorship TypeFilter = TypeFilter(authorgraph.EdgeCoauthorship)
)

// ParseTypeFilter accepts "", "all", "citation" and "coauthorship"
func ParseTypeFilter(s string) (TypeFilter, error) {
	switch s {
	case "", "all", "both":
		return ShowAll, nil
	case string(ShowCitation), "citations":
		return ShowCitation, nil
	case string(ShowCoauthorship), "coauthorships":
		return ShowCoauthorship, nil
	default:
		return ShowAll, fmt.Errorf("%w: %q", ErrInvalidFilter, s)
	}
}

// Includes reports whether edges (and neighbour nodes) of type t pass the filter
func (f TypeFilter) Includes(t authorgraph.EdgeType) bool {
	return f == ShowAll || f == TypeFilter(t)
}

// Lens is the user's current view choice
type Lens struct {
	Filter TypeFilter `json:"filter"`
	Limit  float64    `json:"limit"`
}

// Default shows everything
func Default() Lens {
	return Lens{Filter: ShowAll, Limit: 1}
}

// Validate checks the limit fraction
func (l Lens) Validate() error {
	if l.Limit <= 0 || l.Limit > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidLimit, l.Limit)
	}
	switch l.Filter {
	case ShowAll, ShowCitation, ShowCoauthorship:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFilter, l.Filter)
	}
}

// Parse builds a lens from query-string style values; empty values take defaults
func Parse(filter, limit string) (Lens, error) {
	l := Default()

	f, err := ParseTypeFilter(filter)
	if err != nil {
		return l, err
	}
	l.Filter = f

	if limit != "" {
		v, err := strconv.ParseFloat(limit, 64)
		if err != nil {
			return l, fmt.Errorf("%w: %q", ErrInvalidLimit, limit)
		}
		l.Limit = v
	}

	return l, l.Validate()
}
