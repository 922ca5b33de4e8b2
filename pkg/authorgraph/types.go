package authorgraph

import (
	"encoding/json"
	"fmt"
)

// EdgeType distinguishes the two independent edge sequences of an author network
type EdgeType string

const (
	EdgeCitation     EdgeType = "citation"
	EdgeCoauthorship EdgeType = "coauthorship"
)

// Label returns the legend text shown next to the edge colour
func (t EdgeType) Label() string {
	switch t {
	case EdgeCitation:
		return "cited"
	case EdgeCoauthorship:
		return "coauthored with"
	default:
		return string(t)
	}
}

// Node is an author in the network. Weight 0 means the weight is absent.
type Node struct {
	Name   string
	Weight int
}

// Edge is an occurrence count between two authors: how often Source cited
// Target, or how many papers the two wrote together.
type Edge struct {
	Source string
	Target string
	Weight int
}

// MarshalJSON encodes a node as the [name, weight] tuple used on the wire
func (n Node) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{n.Name, n.Weight})
}

// UnmarshalJSON decodes a [name, weight] tuple
func (n *Node) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("node must be a [name, weight] array: %w", err)
	}
	if len(tuple) != 2 {
		return fmt.Errorf("node must have 2 elements, got %d", len(tuple))
	}
	if err := json.Unmarshal(tuple[0], &n.Name); err != nil {
		return fmt.Errorf("node name: %w", err)
	}
	weight, err := decodeWeight(tuple[1])
	if err != nil {
		return fmt.Errorf("node %q weight: %w", n.Name, err)
	}
	n.Weight = weight
	return nil
}

// MarshalJSON encodes an edge as the [source, target, weight] tuple used on the wire
func (e Edge) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.Source, e.Target, e.Weight})
}

// UnmarshalJSON decodes a [source, target, weight] tuple
func (e *Edge) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("edge must be a [source, target, weight] array: %w", err)
	}
	if len(tuple) != 3 {
		return fmt.Errorf("edge must have 3 elements, got %d", len(tuple))
	}
	if err := json.Unmarshal(tuple[0], &e.Source); err != nil {
		return fmt.Errorf("edge source: %w", err)
	}
	if err := json.Unmarshal(tuple[1], &e.Target); err != nil {
		return fmt.Errorf("edge target: %w", err)
	}
	weight, err := decodeWeight(tuple[2])
	if err != nil {
		return fmt.Errorf("edge %s->%s weight: %w", e.Source, e.Target, err)
	}
	e.Weight = weight
	return nil
}

// decodeWeight accepts integral JSON numbers, including ones written as 3.0, and null
func decodeWeight(raw json.RawMessage) (int, error) {
	if string(raw) == "null" {
		return 0, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("not an integer: %v", f)
	}
	return int(f), nil
}

// Snapshot is the graph state as returned by one author lookup, or as
// accumulated over several merges.
type Snapshot struct {
	CitationNodes     []Node `json:"citation_nodes"`
	CoauthorshipNodes []Node `json:"coauthorship_nodes"`
	CitationEdges     []Edge `json:"citation_edges"`
	CoauthorshipEdges []Edge `json:"coauthorship_edges"`
}

// Nodes returns the node list for an edge type
func (s *Snapshot) Nodes(t EdgeType) []Node {
	if t == EdgeCoauthorship {
		return s.CoauthorshipNodes
	}
	return s.CitationNodes
}

// Edges returns the edge list for an edge type
func (s *Snapshot) Edges(t EdgeType) []Edge {
	if t == EdgeCoauthorship {
		return s.CoauthorshipEdges
	}
	return s.CitationEdges
}

// Clone returns a deep copy whose slices can be appended to independently
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		s = &Snapshot{}
	}
	return &Snapshot{
		CitationNodes:     cloneSlice(s.CitationNodes),
		CoauthorshipNodes: cloneSlice(s.CoauthorshipNodes),
		CitationEdges:     cloneSlice(s.CitationEdges),
		CoauthorshipEdges: cloneSlice(s.CoauthorshipEdges),
	}
}

// cloneSlice copies into a non-nil slice so empty lists encode as []
func cloneSlice[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}
