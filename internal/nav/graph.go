// Package nav builds weighted grid graphs over a layer's walkable tiles.
// It does not search; pathfinders consume the Graph and its cost functions.
package nav

import (
	"iter"
	"maps"
	"slices"

	"github.com/l1jgo/tilemap/internal/coord"
	"github.com/l1jgo/tilemap/internal/layer"
	"github.com/l1jgo/tilemap/internal/tileset"
	"github.com/zyedidia/generic/mapset"
)

// TileSource supplies tile attributes for weights. *tileset.Store
// satisfies it.
type TileSource interface {
	LookupRef(ref tileset.Ref) (*tileset.TileData, bool)
}

// Options controls which tiles become nodes.
//
// An empty set counts as "not provided". With neither set every resolvable
// tile is walkable. A non-empty Walkable set keeps only its members; a
// non-empty Obstacles set always removes its members.
type Options struct {
	Walkable  mapset.Set[tileset.Ref]
	Obstacles mapset.Set[tileset.Ref]
	Diagonals bool
}

// Node is one walkable grid cell.
type Node struct {
	Pos         coord.Point
	Weight      float32
	Connections mapset.Set[coord.Point]
}

// Graph is a grid graph owned by the caller, independent of the layer it was
// built from.
type Graph struct {
	nodes     map[coord.Point]*Node
	bounds    coord.Rect
	diagonals bool
}

// Build walks every valid coordinate of l and keeps the cells that hold a
// resolvable, non-obstacle tile. tiles may be nil, in which case all weights
// are neutral.
func Build(l *layer.Layer, tiles TileSource, opts Options) *Graph {
	g := &Graph{
		nodes:     make(map[coord.Point]*Node),
		bounds:    l.Bounds(),
		diagonals: opts.Diagonals,
	}
	restrict := opts.Walkable.Size() > 0

	for p := range l.Cells() {
		t, ok := l.TileAt(p)
		if !ok {
			continue
		}
		ref := t.Ref()
		if opts.Obstacles.Has(ref) {
			continue
		}
		if restrict && !opts.Walkable.Has(ref) {
			continue
		}

		weight := tileset.DefaultWeight
		if tiles != nil {
			if td, found := tiles.LookupRef(ref); found {
				weight = td.Weight
			}
		}
		g.nodes[p] = &Node{Pos: p, Weight: weight, Connections: mapset.New[coord.Point]()}
	}

	for p, n := range g.nodes {
		for _, q := range p.Neighbors(opts.Diagonals) {
			if _, ok := g.nodes[q]; ok {
				n.Connections.Put(q)
			}
		}
	}
	return g
}

// SetsFromStore derives walkable and obstacle sets from the classification
// of every tile in the store.
func SetsFromStore(s *tileset.Store) (walkable, obstacles mapset.Set[tileset.Ref]) {
	walkable = mapset.New[tileset.Ref]()
	obstacles = mapset.New[tileset.Ref]()
	for ref, td := range s.All() {
		if td.Walkable {
			walkable.Put(ref)
		}
		if td.Obstacle {
			obstacles.Put(ref)
		}
	}
	return walkable, obstacles
}

func (g *Graph) Len() int           { return len(g.nodes) }
func (g *Graph) Bounds() coord.Rect { return g.bounds }
func (g *Graph) Diagonals() bool    { return g.diagonals }

// Node returns the node at p, if p was kept.
func (g *Graph) Node(p coord.Point) (*Node, bool) {
	n, ok := g.nodes[p]
	return n, ok
}

// Nodes yields the nodes in row-major order.
func (g *Graph) Nodes() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for _, p := range sortedPoints(maps.Keys(g.nodes)) {
			if !yield(g.nodes[p]) {
				return
			}
		}
	}
}

// Neighbors returns the connections of p in row-major order, or nil when p is
// not a node.
func (g *Graph) Neighbors(p coord.Point) []coord.Point {
	n, ok := g.nodes[p]
	if !ok {
		return nil
	}
	return n.Neighbors()
}

// Neighbors returns the node's connections in row-major order.
func (n *Node) Neighbors() []coord.Point {
	out := make([]coord.Point, 0, n.Connections.Size())
	n.Connections.Each(func(q coord.Point) {
		out = append(out, q)
	})
	slices.SortFunc(out, comparePoints)
	return out
}

// EdgeCount returns the number of undirected connections.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, node := range g.nodes {
		n += node.Connections.Size()
	}
	return n / 2
}

// Reachable returns every node reachable from start, start included.
// The set is empty when start is not a node.
func (g *Graph) Reachable(start coord.Point) mapset.Set[coord.Point] {
	visited := mapset.New[coord.Point]()
	if _, ok := g.nodes[start]; !ok {
		return visited
	}
	queue := []coord.Point{start}
	visited.Put(start)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		g.nodes[current].Connections.Each(func(q coord.Point) {
			if !visited.Has(q) {
				visited.Put(q)
				queue = append(queue, q)
			}
		})
	}
	return visited
}

func comparePoints(a, b coord.Point) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	}
	return 0
}

func sortedPoints(seq iter.Seq[coord.Point]) []coord.Point {
	return slices.SortedFunc(seq, comparePoints)
}
