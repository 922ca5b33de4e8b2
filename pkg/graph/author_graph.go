package graph

import (
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/ritzau/aip-explorer/pkg/authorgraph"
)

// builder is satisfied by both simple.DirectedGraph and simple.UndirectedGraph
type builder interface {
	graph.Graph
	graph.NodeAdder
	graph.EdgeAdder
}

// AuthorGraph maps author names onto a gonum graph so gonum algorithms
// (force layout, strongly connected components) can run over the network.
type AuthorGraph struct {
	graph  builder
	ids    map[string]int64
	names  map[int64]string
	nextID int64
}

// NewUndirected creates an author graph for layout, where edge direction is irrelevant
func NewUndirected() *AuthorGraph {
	return newAuthorGraph(simple.NewUndirectedGraph())
}

// NewDirected creates an author graph that keeps edge direction (A cited B)
func NewDirected() *AuthorGraph {
	return newAuthorGraph(simple.NewDirectedGraph())
}

func newAuthorGraph(g builder) *AuthorGraph {
	return &AuthorGraph{
		graph: g,
		ids:   make(map[string]int64),
		names: make(map[int64]string),
	}
}

// AddAuthor adds an author if it is not already present and returns its id
func (ag *AuthorGraph) AddAuthor(name string) int64 {
	if id, exists := ag.ids[name]; exists {
		return id
	}

	id := ag.nextID
	ag.ids[name] = id
	ag.names[id] = name
	ag.graph.AddNode(simple.Node(id))
	ag.nextID++

	return id
}

// Link connects two authors, adding them as needed. Self links are dropped
// (gonum's simple graphs reject them) and repeated links collapse into one.
func (ag *AuthorGraph) Link(from, to string) {
	fromID := ag.AddAuthor(from)
	toID := ag.AddAuthor(to)

	if fromID == toID {
		return
	}
	if ag.graph.Edge(fromID, toID) != nil {
		return
	}

	ag.graph.SetEdge(ag.graph.NewEdge(simple.Node(fromID), simple.Node(toID)))
}

// ID returns the graph id of an author
func (ag *AuthorGraph) ID(name string) (int64, bool) {
	id, ok := ag.ids[name]
	return id, ok
}

// Name returns the author behind a graph id
func (ag *AuthorGraph) Name(id int64) (string, bool) {
	name, ok := ag.names[id]
	return name, ok
}

// Len returns the number of authors
func (ag *AuthorGraph) Len() int {
	return len(ag.ids)
}

// Graph returns the underlying gonum graph
func (ag *AuthorGraph) Graph() graph.Graph {
	return ag.graph
}

// Directed returns the underlying graph when it was built with NewDirected
func (ag *AuthorGraph) Directed() (graph.Directed, bool) {
	d, ok := ag.graph.(graph.Directed)
	return d, ok
}

// Links returns every link as a [from, to] name pair
func (ag *AuthorGraph) Links() [][2]string {
	var links [][2]string

	iter := ag.graph.Nodes()
	for iter.Next() {
		fromID := iter.Node().ID()
		to := ag.graph.From(fromID)
		for to.Next() {
			toID := to.Node().ID()
			// Undirected graphs report each edge from both ends
			if _, directed := ag.graph.(graph.Directed); !directed && toID < fromID {
				continue
			}
			links = append(links, [2]string{ag.names[fromID], ag.names[toID]})
		}
	}

	return links
}

// BuildCitationGraph builds a directed graph of who cited whom
func BuildCitationGraph(edges []authorgraph.Edge) *AuthorGraph {
	ag := NewDirected()
	for _, e := range edges {
		ag.Link(e.Source, e.Target)
	}
	return ag
}
