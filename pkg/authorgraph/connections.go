package authorgraph

import "sort"

// Connection is one row of an author's details table
type Connection struct {
	ID     int    `json:"id"`
	Source string `json:"source"`
	Type   string `json:"type"`
	Target string `json:"target"`
	Times  int    `json:"times"`
}

// Connections lists every edge that touches author. Citation rows come first;
// coauthorship row ids are offset by the number of citation edges so ids stay
// unique across both tables.
func Connections(s *Snapshot, author string) []Connection {
	rows := make([]Connection, 0)
	if s == nil {
		return rows
	}

	i := 0
	for _, e := range s.CitationEdges {
		if e.Source != author && e.Target != author {
			continue
		}
		rows = append(rows, Connection{
			ID:     i,
			Source: e.Source,
			Type:   EdgeCitation.Label(),
			Target: e.Target,
			Times:  e.Weight,
		})
		i++
	}

	i = 0
	for _, e := range s.CoauthorshipEdges {
		if e.Source != author && e.Target != author {
			continue
		}
		rows = append(rows, Connection{
			ID:     i + len(s.CitationEdges),
			Source: e.Source,
			Type:   EdgeCoauthorship.Label(),
			Target: e.Target,
			Times:  e.Weight,
		})
		i++
	}

	return rows
}

// NodesFromEdges derives a node list from edges the way the graph API does:
// each author gets the heaviest weight of any edge it appears in (sources are
// scanned before targets) and the result is sorted by descending weight, then
// by name.
func NodesFromEdges(edges []Edge) []Node {
	weights := make(map[string]int)
	for _, e := range edges {
		if w, ok := weights[e.Source]; !ok || e.Weight > w {
			weights[e.Source] = e.Weight
		}
	}
	for _, e := range edges {
		if w, ok := weights[e.Target]; !ok || e.Weight > w {
			weights[e.Target] = e.Weight
		}
	}

	nodes := make([]Node, 0, len(weights))
	for name, w := range weights {
		nodes = append(nodes, Node{Name: name, Weight: w})
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Weight != nodes[j].Weight {
			return nodes[i].Weight > nodes[j].Weight
		}
		return nodes[i].Name < nodes[j].Name
	})
	return nodes
}

// SnapshotFromEdges builds a complete lookup result from edge lists alone
func SnapshotFromEdges(citations, coauthorships []Edge) *Snapshot {
	return &Snapshot{
		CitationNodes:     NodesFromEdges(citations),
		CoauthorshipNodes: NodesFromEdges(coauthorships),
		CitationEdges:     cloneSlice(citations),
		CoauthorshipEdges: cloneSlice(coauthorships),
	}
}
