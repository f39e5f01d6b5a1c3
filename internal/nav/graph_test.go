package nav_test

import (
	"testing"

	"github.com/l1jgo/tilemap/internal/coord"
	"github.com/l1jgo/tilemap/internal/layer"
	"github.com/l1jgo/tilemap/internal/nav"
	"github.com/l1jgo/tilemap/internal/tileset"
	"github.com/stretchr/testify/require"
	"github.com/zyedidia/generic/mapset"
)

// tile ids in the "terrain" set: gid 1 = floor, gid 2 = wall, gid 3 = mud
var (
	floor = tileset.Ref{Tileset: "terrain", LocalID: 0}
	wall  = tileset.Ref{Tileset: "terrain", LocalID: 1}
	mud   = tileset.Ref{Tileset: "terrain", LocalID: 2}
)

func fixture(t *testing.T) (*tileset.Registry, *tileset.Store) {
	t.Helper()
	reg := tileset.NewRegistry()
	require.NoError(t, reg.Register(tileset.Descriptor{Name: "terrain", FirstGID: 1, TileCount: 4}))

	store := tileset.NewStore(nil)
	add := func(id uint32, props map[string]string) {
		require.NoError(t, store.Add("terrain", tileset.NewTileData(id, 16, 16, "", tileset.NewProperties(props), nil)))
	}
	add(0, map[string]string{"walkable": "true"})
	add(1, map[string]string{"obstacle": "true"})
	add(2, map[string]string{"walkable": "true", "weight": "2"})
	return reg, store
}

func denseLayer(t *testing.T, reg *tileset.Registry, w, h int, raw []uint32) *layer.Layer {
	t.Helper()
	l := layer.NewDense(1, "ground", reg)
	_, err := l.SetDenseData(raw, w, h)
	require.NoError(t, err)
	return l
}

func TestObstacleCenterRemoved(t *testing.T) {
	reg, store := fixture(t)
	l := denseLayer(t, reg, 3, 3, []uint32{
		1, 1, 1,
		1, 2, 1,
		1, 1, 1,
	})

	for _, diagonals := range []bool{false, true} {
		g := nav.Build(l, store, nav.Options{Obstacles: mapset.Of(wall), Diagonals: diagonals})
		require.Equal(t, 8, g.Len())

		center := coord.Pt(1, 1)
		_, ok := g.Node(center)
		require.False(t, ok)
		for n := range g.Nodes() {
			require.Falsef(t, n.Connections.Has(center), "node %v links to the obstacle", n.Pos)
		}
	}
}

func TestConnectivityCardinalAndDiagonal(t *testing.T) {
	reg, store := fixture(t)
	l := denseLayer(t, reg, 3, 3, []uint32{
		1, 1, 1,
		1, 1, 1,
		1, 1, 1,
	})

	g := nav.Build(l, store, nav.Options{})
	require.Equal(t, 9, g.Len())
	require.Equal(t, []coord.Point{{X: 1, Y: 0}, {X: 0, Y: 1}, {X: 2, Y: 1}, {X: 1, Y: 2}}, g.Neighbors(coord.Pt(1, 1)))
	require.Len(t, g.Neighbors(coord.Pt(0, 0)), 2)
	require.Equal(t, 12, g.EdgeCount())

	g8 := nav.Build(l, store, nav.Options{Diagonals: true})
	require.Len(t, g8.Neighbors(coord.Pt(1, 1)), 8)
	require.Len(t, g8.Neighbors(coord.Pt(0, 0)), 3)
	require.Equal(t, 20, g8.EdgeCount())
	require.True(t, g8.Diagonals())
}

func TestEmptyCellsAndUnresolvedAreRemoved(t *testing.T) {
	reg, store := fixture(t)
	l := denseLayer(t, reg, 3, 1, []uint32{1, 0, 99})

	g := nav.Build(l, store, nav.Options{})
	require.Equal(t, 1, g.Len())
	require.Nil(t, g.Neighbors(coord.Pt(1, 0)))
	require.Empty(t, g.Neighbors(coord.Pt(0, 0)))
}

func TestWalkableSetRestricts(t *testing.T) {
	reg, store := fixture(t)
	l := denseLayer(t, reg, 4, 1, []uint32{1, 3, 4, 2})

	// gid 4 (local 3) has no tile data and is not in the walkable set
	g := nav.Build(l, store, nav.Options{Walkable: mapset.Of(floor, mud)})
	require.Equal(t, 2, g.Len())
	_, ok := g.Node(coord.Pt(2, 0))
	require.False(t, ok)

	// with no sets, every resolvable tile is walkable, wall included
	all := nav.Build(l, store, nav.Options{})
	require.Equal(t, 4, all.Len())
}

func TestWeightsFromTileData(t *testing.T) {
	reg, store := fixture(t)
	l := denseLayer(t, reg, 3, 1, []uint32{1, 3, 4})

	g := nav.Build(l, store, nav.Options{})
	n, ok := g.Node(coord.Pt(1, 0))
	require.True(t, ok)
	require.Equal(t, float32(2), n.Weight)

	// no tile data: neutral weight
	n, ok = g.Node(coord.Pt(2, 0))
	require.True(t, ok)
	require.Equal(t, float32(1), n.Weight)

	// no tile source at all
	g = nav.Build(l, nil, nav.Options{})
	n, _ = g.Node(coord.Pt(1, 0))
	require.Equal(t, float32(1), n.Weight)
}

func TestSetsFromStore(t *testing.T) {
	reg, store := fixture(t)
	walkable, obstacles := nav.SetsFromStore(store)
	require.True(t, walkable.Has(floor))
	require.True(t, walkable.Has(mud))
	require.False(t, walkable.Has(wall))
	require.True(t, obstacles.Has(wall))
	require.Equal(t, 1, obstacles.Size())

	l := denseLayer(t, reg, 3, 1, []uint32{1, 2, 3})
	g := nav.Build(l, store, nav.Options{Walkable: walkable, Obstacles: obstacles})
	require.Equal(t, 2, g.Len())
	require.Equal(t, 1, g.Reachable(coord.Pt(0, 0)).Size())
}

func TestGraphOverChunks(t *testing.T) {
	reg, store := fixture(t)
	l := layer.NewInfinite(2, "ground", reg)
	_, err := l.AddChunk(coord.Pt(-2, 0), 2, 1, []uint32{1, 1})
	require.NoError(t, err)
	_, err = l.AddChunk(coord.Pt(0, 0), 2, 1, []uint32{1, 1})
	require.NoError(t, err)
	_, err = l.AddChunk(coord.Pt(10, 10), 2, 1, []uint32{1, 1})
	require.NoError(t, err)

	g := nav.Build(l, store, nav.Options{})
	require.Equal(t, 6, g.Len())
	// chunks touching at x=-1/0 are connected, the far chunk is not
	require.Equal(t, 4, g.Reachable(coord.Pt(-2, 0)).Size())
	require.Equal(t, 2, g.Reachable(coord.Pt(11, 10)).Size())
	require.Equal(t, 0, g.Reachable(coord.Pt(5, 5)).Size())
}

func TestGraphOverDistantChunks(t *testing.T) {
	reg, store := fixture(t)
	l := layer.NewInfinite(3, "ground", reg)
	_, err := l.AddChunk(coord.Pt(0, 0), 2, 2, []uint32{1, 1, 1, 1})
	require.NoError(t, err)
	far := coord.Pt(5_000_000, 5_000_000)
	_, err = l.AddChunk(far, 2, 2, []uint32{1, 0, 0, 3})
	require.NoError(t, err)

	// the box spanning both chunks holds ~2.5e13 cells; only the 8 chunk cells are visited
	g := nav.Build(l, store, nav.Options{Diagonals: true})
	require.Equal(t, coord.Rect{Min: coord.Pt(0, 0), Max: coord.Pt(5_000_002, 5_000_002)}, g.Bounds())
	require.Equal(t, 6, g.Len())
	require.Equal(t, 4, g.Reachable(coord.Pt(0, 0)).Size())
	require.Equal(t, []coord.Point{coord.Pt(5_000_001, 5_000_001)}, g.Neighbors(far))
}
