package nav

import "github.com/l1jgo/tilemap/internal/coord"

// Cost is the traversal cost from one node to a neighbour:
//
//	from.Weight - |1 - to.Weight|
//
// 1.0 is neutral. The formula is not symmetric, Cost(a, b) != Cost(b, a)
// whenever the weights differ; pathfinders built against this graph rely on
// that exact value.
func Cost(from, to *Node) float32 {
	return from.Weight - abs32(1-to.Weight)
}

// EstimatedCost is the search heuristic between two grid positions,
// (dx + dy) - 1*min(dx, dy), which treats a diagonal step like an
// orthogonal one.
func EstimatedCost(from, to coord.Point) float32 {
	dx := absInt(to.X - from.X)
	dy := absInt(to.Y - from.Y)
	return float32((dx + dy) - 1*min(dx, dy))
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
