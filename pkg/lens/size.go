package lens

import "math"

// FallbackRadius is used for nodes without a weight
const FallbackRadius = 4.0

// Radius maps a node weight to its circle radius on a log scale relative to
// the heaviest visible node.
func Radius(weight, maxWeight int) float64 {
	if weight <= 0 {
		return FallbackRadius
	}
	if maxWeight <= 0 {
		maxWeight = weight
	}
	return math.Log(float64(weight)/float64(maxWeight)*9+1)*5 + 1
}
