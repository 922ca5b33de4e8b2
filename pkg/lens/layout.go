package lens

import (
	"math"

	"gonum.org/v1/gonum/graph/layout"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ritzau/aip-explorer/pkg/authorgraph"
	"github.com/ritzau/aip-explorer/pkg/graph"
	"github.com/ritzau/aip-explorer/pkg/logging"
)

const (
	// ViewHeight is the fixed height of the graph viewport
	ViewHeight = 600.0
	// DefaultViewWidth is used when the client does not report its width
	DefaultViewWidth = 960.0

	viewPadding = 24.0
)

// Simulation carries the force parameters the browser renderer runs with
type Simulation struct {
	LinkDistance    float64 `json:"linkDistance"`
	LinkStrengthMin float64 `json:"linkStrengthMin"`
	LinkStrengthMax float64 `json:"linkStrengthMax"`
	Charge          float64 `json:"charge"`
	CenterX         float64 `json:"centerX"`
	CenterY         float64 `json:"centerY"`
	Width           float64 `json:"width"`
	Height          float64 `json:"height"`
}

// SimulationFor returns the force parameters for a view of nodeCount nodes.
// Links grow longer as the graph grows so large graphs spread out.
func SimulationFor(nodeCount int, width float64) Simulation {
	return Simulation{
		LinkDistance:    float64(nodeCount) / 50 * 150,
		LinkStrengthMin: 1,
		LinkStrengthMax: 2,
		Charge:          -4000,
		CenterX:         width / 2,
		CenterY:         ViewHeight / 2,
		Width:           width,
		Height:          ViewHeight,
	}
}

// PlacedNode is a visible node with its size and initial position
type PlacedNode struct {
	VisibleNode
	Radius float64 `json:"radius"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// Legend entry for one edge type present in the view
type Legend struct {
	Type  authorgraph.EdgeType `json:"type"`
	Label string               `json:"label"`
}

// View is a laid out selection, ready to be drawn
type View struct {
	Nodes            []PlacedNode  `json:"nodes"`
	Edges            []VisibleEdge `json:"edges"`
	Legend           []Legend      `json:"legend"`
	MaxWeight        int           `json:"maxWeight"`
	FilteringAllowed bool          `json:"filteringAllowed"`
	Limit            float64       `json:"limit"`
	Filter           TypeFilter    `json:"filter"`
	Simulation       Simulation    `json:"simulation"`
}

// Eades holds the settings of the force directed optimizer
type Eades struct {
	Updates   int
	Repulsion float64
	Rate      float64
	Theta     float64
}

// DefaultEades matches gonum's reference settings
var DefaultEades = Eades{Updates: 30, Repulsion: 1, Rate: 0.05, Theta: 0.2}

// Layout sizes and places a selection inside a width × ViewHeight viewport
func Layout(sel *Selection, width float64) *View {
	return LayoutWith(sel, width, DefaultEades)
}

// LayoutWith is Layout with explicit optimizer settings
func LayoutWith(sel *Selection, width float64, eades Eades) *View {
	if width <= 0 || math.IsNaN(width) || math.IsInf(width, 0) {
		width = DefaultViewWidth
	}

	view := &View{
		Nodes:            make([]PlacedNode, 0, len(sel.Nodes)),
		Edges:            sel.Edges,
		Legend:           make([]Legend, 0, 2),
		MaxWeight:        sel.MaxWeight,
		FilteringAllowed: sel.FilteringAllowed,
		Limit:            sel.Limit,
		Filter:           sel.Filter,
		Simulation:       SimulationFor(len(sel.Nodes), width),
	}

	for _, t := range []authorgraph.EdgeType{authorgraph.EdgeCitation, authorgraph.EdgeCoauthorship} {
		if sel.Filter.Includes(t) {
			view.Legend = append(view.Legend, Legend{Type: t, Label: t.Label()})
		}
	}

	positions := place(sel, eades)
	bounds := boundsOf(positions)

	for i, n := range sel.Nodes {
		x, y := bounds.fit(positions[i], width, ViewHeight)
		view.Nodes = append(view.Nodes, PlacedNode{
			VisibleNode: n,
			Radius:      Radius(n.Weight, sel.MaxWeight),
			X:           x,
			Y:           y,
		})
	}

	logging.Debug("laid out author view",
		"nodes", len(view.Nodes), "edges", len(view.Edges), "maxWeight", view.MaxWeight)

	return view
}

// place runs the Eades optimizer and returns raw coordinates in selection order
func place(sel *Selection, eades Eades) []r2.Vec {
	positions := make([]r2.Vec, len(sel.Nodes))
	if len(sel.Nodes) == 0 {
		return positions
	}

	ag := graph.NewUndirected()
	for _, n := range sel.Nodes {
		ag.AddAuthor(n.ID)
	}
	for _, e := range sel.Edges {
		ag.Link(e.Source, e.Target)
	}

	updater := layout.EadesR2{
		Updates:   eades.Updates,
		Repulsion: eades.Repulsion,
		Rate:      eades.Rate,
		Theta:     eades.Theta,
	}
	optimizer := layout.NewOptimizerR2(ag.Graph(), updater.Update)
	for optimizer.Update() {
	}

	for i, n := range sel.Nodes {
		id, _ := ag.ID(n.ID)
		positions[i] = optimizer.Coord2(id)
	}
	return positions
}

type bounds struct {
	min, max r2.Vec
}

func boundsOf(points []r2.Vec) bounds {
	b := bounds{
		min: r2.Vec{X: math.Inf(1), Y: math.Inf(1)},
		max: r2.Vec{X: math.Inf(-1), Y: math.Inf(-1)},
	}
	for _, p := range points {
		b.min.X = math.Min(b.min.X, p.X)
		b.min.Y = math.Min(b.min.Y, p.Y)
		b.max.X = math.Max(b.max.X, p.X)
		b.max.Y = math.Max(b.max.Y, p.Y)
	}
	return b
}

// fit scales a point from the optimizer's space into the padded viewport.
// Degenerate axes (a single node, or nodes on a line) collapse to the centre.
func (b bounds) fit(p r2.Vec, width, height float64) (float64, float64) {
	return scale(p.X, b.min.X, b.max.X, width), scale(p.Y, b.min.Y, b.max.Y, height)
}

func scale(v, lo, hi, extent float64) float64 {
	span := hi - lo
	if span <= 0 || math.IsInf(span, 0) || math.IsNaN(span) || math.IsNaN(v) {
		return extent / 2
	}
	return viewPadding + (v-lo)/span*(extent-2*viewPadding)
}
