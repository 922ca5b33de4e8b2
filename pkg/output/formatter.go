package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/ritzau/aip-explorer/pkg/cycles"
	"github.com/ritzau/aip-explorer/pkg/explorer"
	"github.com/ritzau/aip-explorer/pkg/lens"
)

// DefaultTopNodes is how many of the heaviest visible authors are listed
const DefaultTopNodes = 10

// Report is what the CLI prints after exploring
type Report struct {
	Roots    []string
	Counts   explorer.Counts
	View     *lens.View
	Rings    []cycles.CitationRing
	TopNodes int
}

// PrintExplorerReport prints a coloured summary of an author network view
func PrintExplorerReport(w io.Writer, r Report) {
	// Color definitions
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	// Header
	bold.Fprintln(w, "AIP Explorer - Author Network")
	bold.Fprintln(w, "=============================")
	fmt.Fprintf(w, "Roots: %s\n", strings.Join(r.Roots, ", "))
	fmt.Fprintf(w, "Citation: %d nodes, %d edges\n", r.Counts.CitationNodes, r.Counts.CitationEdges)
	fmt.Fprintf(w, "Coauthorship: %d nodes, %d edges\n", r.Counts.CoauthorshipNodes, r.Counts.CoauthorshipEdges)

	v := r.View
	if v == nil {
		fmt.Fprintln(w)
		yellow.Fprintln(w, "Nothing to show.")
		return
	}

	filter := string(v.Filter)
	if filter == "" {
		filter = "all"
	}
	fmt.Fprintf(w, "Lens: %s, limit %.0f%%", filter, v.Limit*100)
	if !v.FilteringAllowed {
		fmt.Fprint(w, " (graph too small to limit)")
	}
	fmt.Fprintln(w)
	green.Fprintf(w, "Visible: %d authors, %d edges\n", len(v.Nodes), len(v.Edges))
	fmt.Fprintln(w)

	top := r.TopNodes
	if top <= 0 {
		top = DefaultTopNodes
	}
	nodes := append([]lens.PlacedNode(nil), v.Nodes...)
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].Weight > nodes[j].Weight })
	if len(nodes) > top {
		nodes = nodes[:top]
	}

	bold.Fprintln(w, "TOP AUTHORS:")
	for _, n := range nodes {
		marker := " "
		if n.Root {
			marker = "*"
		}
		cyan.Fprintf(w, "  %s %-30s", marker, n.ID)
		fmt.Fprintf(w, " weight %-5d radius %5.2f\n", n.Weight, n.Radius)
	}
	fmt.Fprintln(w)

	if len(v.Edges) > 0 {
		bold.Fprintln(w, "EDGES:")
		for _, e := range v.Edges {
			fmt.Fprintf(w, "  %s %s %s\n", e.Source, e.Type.Label(), e.Target)
		}
		fmt.Fprintln(w)
	}

	if len(r.Rings) == 0 {
		green.Fprintln(w, "✓ No citation rings")
		return
	}
	red.Fprintf(w, "CITATION RINGS: %d\n", len(r.Rings))
	for _, ring := range r.Rings {
		yellow.Fprintf(w, "  %s\n", strings.Join(ring.Authors, " ⇄ "))
	}
}
