package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/ritzau/aip-explorer/pkg/authorgraph"
	"github.com/ritzau/aip-explorer/pkg/cycles"
	"github.com/ritzau/aip-explorer/pkg/explorer"
	"github.com/ritzau/aip-explorer/pkg/lens"
)

func init() {
	color.NoColor = true
}

func TestPrintExplorerReport(t *testing.T) {
	view := &lens.View{
		Nodes: []lens.PlacedNode{
			{VisibleNode: lens.VisibleNode{ID: "Ada", Root: true}, Radius: 4},
			{VisibleNode: lens.VisibleNode{ID: "Bob", Weight: 3}, Radius: 12.51},
			{VisibleNode: lens.VisibleNode{ID: "Cy", Weight: 9}, Radius: 12.51},
		},
		Edges: []lens.VisibleEdge{
			{Source: "Ada", Target: "Bob", Type: authorgraph.EdgeCitation},
			{Source: "Ada", Target: "Cy", Type: authorgraph.EdgeCoauthorship},
		},
		Limit: 1,
	}

	var buf bytes.Buffer
	PrintExplorerReport(&buf, Report{
		Roots:    []string{"Ada"},
		Counts:   explorer.Counts{CitationNodes: 2, CitationEdges: 1, CoauthorshipNodes: 2, CoauthorshipEdges: 1},
		View:     view,
		Rings:    []cycles.CitationRing{{Authors: []string{"Ada", "Bob"}}},
		TopNodes: 2,
	})
	out := buf.String()

	for _, want := range []string{
		"Roots: Ada\n",
		"Citation: 2 nodes, 1 edges\n",
		"Lens: all, limit 100% (graph too small to limit)\n",
		"Visible: 3 authors, 2 edges\n",
		"Ada cited Bob\n",
		"Ada coauthored with Cy\n",
		"CITATION RINGS: 1\n",
		"Ada ⇄ Bob\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Report missing %q:\n%s", want, out)
		}
	}

	// Heaviest first, cut to TopNodes
	if strings.Index(out, "Cy ") > strings.Index(out, "Bob ") {
		t.Errorf("Expected Cy before Bob:\n%s", out)
	}
	if strings.Contains(out, "* Ada") {
		t.Errorf("Ada should be cut from the top list:\n%s", out)
	}
}

func TestPrintExplorerReportWithoutView(t *testing.T) {
	var buf bytes.Buffer
	PrintExplorerReport(&buf, Report{})
	if !strings.Contains(buf.String(), "Nothing to show.") {
		t.Errorf("Unexpected report:\n%s", buf.String())
	}
}
