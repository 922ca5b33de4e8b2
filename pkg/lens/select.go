package lens

import (
	"math"

	"github.com/ritzau/aip-explorer/pkg/authorgraph"
)

// VisibleNode is a node that reaches the layout. Weight 0 means no weight is
// known, which is the case for root authors missing from every node list.
type VisibleNode struct {
	ID     string `json:"id"`
	Weight int    `json:"weight,omitempty"`
	Root   bool   `json:"root"`
}

// VisibleEdge is an edge whose endpoints are both visible
type VisibleEdge struct {
	Source string               `json:"source"`
	Target string               `json:"target"`
	Type   authorgraph.EdgeType `json:"type"`
}

// Selection is the subset of a snapshot that passes a lens
type Selection struct {
	Nodes            []VisibleNode `json:"nodes"`
	Edges            []VisibleEdge `json:"edges"`
	MaxWeight        int           `json:"maxWeight"`
	FilteringAllowed bool          `json:"filteringAllowed"`
	Limit            float64       `json:"limit"`
	Filter           TypeFilter    `json:"filter"`
}

// FilteringAllowed reports whether the node limit applies: only when the
// lists shown under the filter hold more than FilterThreshold nodes.
func FilteringAllowed(s *authorgraph.Snapshot, filter TypeFilter) bool {
	if s == nil {
		return false
	}
	switch filter {
	case ShowCitation:
		return len(s.CitationNodes) > FilterThreshold
	case ShowCoauthorship:
		return len(s.CoauthorshipNodes) > FilterThreshold
	default:
		return len(s.CitationNodes)+len(s.CoauthorshipNodes) > FilterThreshold
	}
}

// NodeLimit is round(fraction × length), rounding halves up
func NodeLimit(fraction float64, length int) int {
	return int(math.Floor(fraction*float64(length) + 0.5))
}

// SelectVisible applies a lens to a snapshot.
//
// Root authors are always visible. Each node list allowed by the filter then
// contributes its heaviest entries; the limit comparison is strict, so
// NodeLimit+1 entries are taken when the list is long enough. A name seen
// more than once keeps the last weight recorded for it.
func SelectVisible(s *authorgraph.Snapshot, roots []string, l Lens) *Selection {
	if s == nil {
		s = &authorgraph.Snapshot{}
	}

	allowed := FilteringAllowed(s, l.Filter)
	fraction := l.Limit
	if !allowed || fraction <= 0 || fraction > 1 {
		fraction = 1
	}

	sel := &Selection{
		Nodes:            make([]VisibleNode, 0, len(roots)),
		Edges:            make([]VisibleEdge, 0),
		FilteringAllowed: allowed,
		Limit:            fraction,
		Filter:           l.Filter,
	}

	index := make(map[string]int)
	add := func(name string) int {
		if i, ok := index[name]; ok {
			return i
		}
		index[name] = len(sel.Nodes)
		sel.Nodes = append(sel.Nodes, VisibleNode{ID: name})
		return len(sel.Nodes) - 1
	}

	for _, root := range roots {
		i := add(root)
		sel.Nodes[i].Root = true
	}

	for _, t := range []authorgraph.EdgeType{authorgraph.EdgeCitation, authorgraph.EdgeCoauthorship} {
		if !l.Filter.Includes(t) {
			continue
		}
		nodes := s.Nodes(t)
		limit := NodeLimit(fraction, len(nodes))
		for count, n := range nodes {
			if count > limit {
				break
			}
			i := add(n.Name)
			sel.Nodes[i].Weight = n.Weight
			sel.MaxWeight = max(sel.MaxWeight, n.Weight)
		}
	}

	for _, t := range []authorgraph.EdgeType{authorgraph.EdgeCitation, authorgraph.EdgeCoauthorship} {
		if !l.Filter.Includes(t) {
			continue
		}
		for _, e := range s.Edges(t) {
			_, src := index[e.Source]
			_, dst := index[e.Target]
			if src && dst {
				sel.Edges = append(sel.Edges, VisibleEdge{Source: e.Source, Target: e.Target, Type: t})
			}
		}
	}

	return sel
}

// Names returns the visible author names in selection order
func (s *Selection) Names() []string {
	names := make([]string, len(s.Nodes))
	for i, n := range s.Nodes {
		names[i] = n.ID
	}
	return names
}
