package graph

import (
	"testing"

	"github.com/ritzau/aip-explorer/pkg/authorgraph"
)

func TestNewUndirected(t *testing.T) {
	ag := NewUndirected()
	if ag == nil {
		t.Fatal("NewUndirected() returned nil")
	}

	if ag.Len() != 0 {
		t.Errorf("New graph should have 0 authors, got %d", ag.Len())
	}
	if _, ok := ag.Directed(); ok {
		t.Error("Undirected graph reported itself as directed")
	}
}

func TestAddAuthorIsIdempotent(t *testing.T) {
	ag := NewUndirected()

	first := ag.AddAuthor("Ada Lovelace")
	second := ag.AddAuthor("Ada Lovelace")

	if first != second {
		t.Errorf("Expected same id for same author, got %d and %d", first, second)
	}
	if ag.Len() != 1 {
		t.Errorf("Expected 1 author, got %d", ag.Len())
	}

	name, ok := ag.Name(first)
	if !ok || name != "Ada Lovelace" {
		t.Errorf("Expected Ada Lovelace for id %d, got %q", first, name)
	}
}

func TestLinkSkipsSelfAndParallelLinks(t *testing.T) {
	ag := NewUndirected()

	ag.Link("Ada", "Ada")
	ag.Link("Ada", "Grace")
	ag.Link("Grace", "Ada")
	ag.Link("Ada", "Grace")

	links := ag.Links()
	if len(links) != 1 {
		t.Fatalf("Expected 1 link, got %d: %v", len(links), links)
	}
	if ag.Len() != 2 {
		t.Errorf("Expected 2 authors, got %d", ag.Len())
	}
}

func TestBuildCitationGraphKeepsDirection(t *testing.T) {
	ag := BuildCitationGraph([]authorgraph.Edge{
		{Source: "Ada", Target: "Grace", Weight: 3},
		{Source: "Grace", Target: "Ada", Weight: 1},
		{Source: "Grace", Target: "Alan", Weight: 2},
	})

	d, ok := ag.Directed()
	if !ok {
		t.Fatal("Citation graph must be directed")
	}

	ada, _ := ag.ID("Ada")
	grace, _ := ag.ID("Grace")
	alan, _ := ag.ID("Alan")

	if !d.HasEdgeFromTo(ada, grace) || !d.HasEdgeFromTo(grace, ada) {
		t.Error("Expected mutual citation between Ada and Grace")
	}
	if d.HasEdgeFromTo(alan, grace) {
		t.Error("Alan never cited Grace")
	}
	if len(ag.Links()) != 3 {
		t.Errorf("Expected 3 directed links, got %d", len(ag.Links()))
	}
}
