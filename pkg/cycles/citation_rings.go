// Package cycles finds citation rings: groups of authors who cite each other.
package cycles

import (
	"sort"

	"gonum.org/v1/gonum/graph/topo"

	"github.com/ritzau/aip-explorer/pkg/authorgraph"
	"github.com/ritzau/aip-explorer/pkg/graph"
)

// CitationRing is a group of authors who all, directly or transitively, cite each other
type CitationRing struct {
	Authors []string `json:"authors"`
}

// FindCitationRings finds the strongly connected groups of the citation graph.
// Authors within a ring are sorted; rings are ordered largest first.
func FindCitationRings(edges []authorgraph.Edge) []CitationRing {
	ag := graph.BuildCitationGraph(edges)
	directed, ok := ag.Directed()
	if !ok {
		return []CitationRing{}
	}

	rings := []CitationRing{}
	for _, scc := range topo.TarjanSCC(directed) {
		// Self-citations are not linked, so a lone author is never a ring
		if len(scc) < 2 {
			continue
		}
		authors := make([]string, 0, len(scc))
		for _, n := range scc {
			if name, ok := ag.Name(n.ID()); ok {
				authors = append(authors, name)
			}
		}
		sort.Strings(authors)
		rings = append(rings, CitationRing{Authors: authors})
	}

	sort.Slice(rings, func(i, j int) bool {
		if len(rings[i].Authors) != len(rings[j].Authors) {
			return len(rings[i].Authors) > len(rings[j].Authors)
		}
		return rings[i].Authors[0] < rings[j].Authors[0]
	})

	return rings
}
