// Package authorgraph holds the incrementally built author network: the root
// authors the user explored and the citation and coauthorship nodes and edges
// returned for each of them.
package authorgraph

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// ErrNotInitialized is returned when merging into a model that was never initialized
var ErrNotInitialized = errors.New("author graph is not initialized")

// Model accumulates author lookups. It is not safe for concurrent use; the
// explorer session serializes access.
type Model struct {
	roots       []string
	snapshot    *Snapshot
	initialized bool
}

// NewModel creates an empty, uninitialized model
func NewModel() *Model {
	return &Model{}
}

// Initialize replaces any previous state with a single root author and the
// lookup result for it.
func (m *Model) Initialize(rootAuthor string, response *Snapshot) error {
	if rootAuthor == "" {
		return fmt.Errorf("root author name is empty")
	}
	if response == nil {
		return fmt.Errorf("no graph for %s", rootAuthor)
	}

	m.roots = []string{rootAuthor}
	m.snapshot = response.Clone()
	m.initialized = true
	return nil
}

// Merge folds the lookup result for another author into the model.
//
// Node lists are concatenated and re-sorted by descending weight, keeping
// duplicates. Edges are appended only when no structurally equal edge (same
// source, target and weight) is already present.
func (m *Model) Merge(author string, response *Snapshot) error {
	if !m.initialized {
		return ErrNotInitialized
	}
	if response == nil {
		return fmt.Errorf("no graph for %s", author)
	}

	if !slices.Contains(m.roots, author) {
		m.roots = append(m.roots, author)
	}

	m.snapshot.CitationNodes = mergeNodes(m.snapshot.CitationNodes, response.CitationNodes)
	m.snapshot.CoauthorshipNodes = mergeNodes(m.snapshot.CoauthorshipNodes, response.CoauthorshipNodes)
	m.snapshot.CitationEdges = mergeEdges(m.snapshot.CitationEdges, response.CitationEdges)
	m.snapshot.CoauthorshipEdges = mergeEdges(m.snapshot.CoauthorshipEdges, response.CoauthorshipEdges)

	return nil
}

// Initialized reports whether the model holds a graph
func (m *Model) Initialized() bool {
	return m.initialized
}

// RootAuthors returns the explicitly searched or added authors in the order they were added
func (m *Model) RootAuthors() []string {
	return append([]string(nil), m.roots...)
}

// IsRoot reports whether name was searched for or added explicitly
func (m *Model) IsRoot(name string) bool {
	return slices.Contains(m.roots, name)
}

// Snapshot returns a copy of the accumulated graph
func (m *Model) Snapshot() *Snapshot {
	return m.snapshot.Clone()
}

func mergeNodes(existing, incoming []Node) []Node {
	merged := make([]Node, 0, len(existing)+len(incoming))
	merged = append(merged, existing...)
	merged = append(merged, incoming...)

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Weight > merged[j].Weight
	})
	return merged
}

func mergeEdges(existing, incoming []Edge) []Edge {
	seen := make(map[Edge]struct{}, len(existing)+len(incoming))
	for _, e := range existing {
		seen[e] = struct{}{}
	}

	merged := existing
	for _, e := range incoming {
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		merged = append(merged, e)
	}
	return merged
}
