package layer_test

import (
	"errors"
	"testing"

	"github.com/l1jgo/tilemap/internal/coord"
	"github.com/l1jgo/tilemap/internal/gid"
	"github.com/l1jgo/tilemap/internal/layer"
	"github.com/l1jgo/tilemap/internal/tileset"
	"github.com/stretchr/testify/require"
)

func registry(t *testing.T) *tileset.Registry {
	t.Helper()
	r := tileset.NewRegistry()
	require.NoError(t, r.Register(tileset.Descriptor{Name: "terrain", FirstGID: 1, TileCount: 10}))
	require.NoError(t, r.Register(tileset.Descriptor{Name: "props", FirstGID: 11, TileCount: 5}))
	return r
}

func fill(n int, v uint32) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestSetDenseDataSize(t *testing.T) {
	l := layer.NewDense(1, "ground", registry(t))
	_, err := l.SetDenseData(fill(12, 1), 4, 3)
	require.NoError(t, err)

	l2 := layer.NewDense(2, "ground", registry(t))
	_, err = l2.SetDenseData(fill(12, 1), 5, 3)
	require.Truef(t, errors.Is(err, layer.ErrSizeMismatch), "%v", err)
}

func TestDenseRowMajorSkipsEmpty(t *testing.T) {
	l := layer.NewDense(3, "ground", registry(t))
	rep, err := l.SetDenseData([]uint32{0, 5, 0, 5}, 2, 2)
	require.NoError(t, err)
	require.Equal(t, 2, rep.Placed)
	require.True(t, rep.OK())

	var occupied []coord.Point
	for p := range l.Tiles() {
		occupied = append(occupied, p)
	}
	require.Equal(t, []coord.Point{{X: 1, Y: 0}, {X: 1, Y: 1}}, occupied)

	tile, ok := l.TileAt(coord.Pt(1, 1))
	require.True(t, ok)
	require.Equal(t, layer.TileRef{
		Layer:   3,
		Tileset: "terrain",
		LocalID: 4,
		Pos:     coord.Pt(1, 1),
	}, tile)

	_, ok = l.TileAt(coord.Pt(0, 0))
	require.False(t, ok)
	require.True(t, l.IsValid(coord.Pt(0, 0)))

	_, ok = l.TileAt(coord.Pt(2, 0))
	require.False(t, ok)
	require.False(t, l.IsValid(coord.Pt(2, 0)))
	require.False(t, l.IsValid(coord.Pt(-1, 0)))
	require.Equal(t, coord.RectAt(coord.Point{}, 2, 2), l.Bounds())
}

func TestDenseKeepsFlipFlags(t *testing.T) {
	l := layer.NewDense(0, "ground", registry(t))
	raw := gid.MustEncode(gid.FlipHorizontal|gid.FlipDiagonal, 12)
	_, err := l.SetDenseData([]uint32{raw}, 1, 1)
	require.NoError(t, err)

	tile, ok := l.TileAt(coord.Pt(0, 0))
	require.True(t, ok)
	require.Equal(t, "props", tile.Tileset)
	require.Equal(t, uint32(1), tile.LocalID)
	require.True(t, tile.Flags.Horizontal())
	require.False(t, tile.Flags.Vertical())
	require.True(t, tile.Flags.Diagonal())
	require.Equal(t, tileset.Ref{Tileset: "props", LocalID: 1}, tile.Ref())
}

func TestUnresolvedTilesArePartialSuccess(t *testing.T) {
	l := layer.NewDense(0, "ground", registry(t))
	rep, err := l.SetDenseData([]uint32{1, 99, 0, 16}, 2, 2)
	require.NoError(t, err)
	require.Equal(t, 1, rep.Placed)
	require.Equal(t, 2, rep.Failed)
	require.Equal(t, []coord.Point{{X: 1, Y: 0}, {X: 1, Y: 1}}, rep.Failures)
	require.Equal(t, "1 placed, 2 errors", rep.String())

	errs := l.ResolveErrors()
	require.Len(t, errs, 2)
	require.Equal(t, coord.Pt(1, 0), errs[0].Pos)
	require.Equal(t, uint32(99), errs[0].Raw)
	require.True(t, errors.Is(errs[0], tileset.ErrUnresolvedIndex))

	require.Error(t, l.ErrorAt(coord.Pt(1, 1)))
	require.NoError(t, l.ErrorAt(coord.Pt(0, 0)))

	_, ok := l.TileAt(coord.Pt(1, 0))
	require.False(t, ok)
	_, ok = l.TileAt(coord.Pt(0, 0))
	require.True(t, ok)
}

func TestChunkOverlap(t *testing.T) {
	l := layer.NewInfinite(0, "ground", registry(t))
	_, err := l.AddChunk(coord.Pt(0, 0), 16, 16, fill(256, 1))
	require.NoError(t, err)
	_, err = l.AddChunk(coord.Pt(16, 0), 16, 16, fill(256, 2))
	require.NoError(t, err)

	_, err = l.AddChunk(coord.Pt(8, 0), 16, 16, fill(256, 3))
	require.Truef(t, errors.Is(err, layer.ErrChunkOverlap), "%v", err)
	require.Len(t, l.Chunks(), 2)

	// the failed chunk left no trace
	tile, ok := l.TileAt(coord.Pt(10, 0))
	require.True(t, ok)
	require.Equal(t, uint32(0), tile.LocalID)
}

func TestChunkSizeMismatch(t *testing.T) {
	l := layer.NewInfinite(0, "ground", registry(t))
	_, err := l.AddChunk(coord.Pt(0, 0), 4, 4, fill(15, 1))
	require.Truef(t, errors.Is(err, layer.ErrSizeMismatch), "%v", err)
	_, err = l.AddChunk(coord.Pt(0, 0), 0, 4, nil)
	require.Truef(t, errors.Is(err, layer.ErrSizeMismatch), "%v", err)
}

func TestInfiniteLookupNegativeOffsets(t *testing.T) {
	l := layer.NewInfinite(7, "ground", registry(t))
	raw := make([]uint32, 16)
	raw[0] = 2  // local (0,0)
	raw[15] = 3 // local (3,3)
	_, err := l.AddChunk(coord.Pt(-4, -4), 4, 4, raw)
	require.NoError(t, err)
	_, err = l.AddChunk(coord.Pt(0, 0), 4, 4, fill(16, 4))
	require.NoError(t, err)

	tile, ok := l.TileAt(coord.Pt(-4, -4))
	require.True(t, ok)
	require.Equal(t, uint32(1), tile.LocalID)
	require.Equal(t, layer.Handle(7), tile.Layer)

	tile, ok = l.TileAt(coord.Pt(-1, -1))
	require.True(t, ok)
	require.Equal(t, uint32(2), tile.LocalID)
	require.Equal(t, coord.Pt(-1, -1), tile.Pos)

	_, ok = l.TileAt(coord.Pt(-2, -2))
	require.False(t, ok)
	require.True(t, l.IsValid(coord.Pt(-2, -2)))

	require.False(t, l.IsValid(coord.Pt(-1, 0)))
	require.False(t, l.IsValid(coord.Pt(4, 0)))
	require.Equal(t, coord.Rect{Min: coord.Pt(-4, -4), Max: coord.Pt(4, 4)}, l.Bounds())
	require.Equal(t, 18, l.Len())
}

func TestInfiniteUnalignedChunks(t *testing.T) {
	l := layer.NewInfinite(0, "ground", registry(t))
	_, err := l.AddChunk(coord.Pt(3, 1), 2, 2, []uint32{1, 2, 3, 4})
	require.NoError(t, err)
	_, err = l.AddChunk(coord.Pt(5, 1), 3, 1, []uint32{5, 6, 7})
	require.NoError(t, err)

	cases := map[coord.Point]uint32{
		coord.Pt(3, 1): 0,
		coord.Pt(4, 2): 3,
		coord.Pt(5, 1): 4,
		coord.Pt(7, 1): 6,
	}
	for p, want := range cases {
		tile, ok := l.TileAt(p)
		require.Truef(t, ok, "p=%v", p)
		require.Equalf(t, want, tile.LocalID, "p=%v", p)
	}
	_, ok := l.TileAt(coord.Pt(5, 2))
	require.False(t, ok)
	require.False(t, l.IsValid(coord.Pt(5, 2)))

	chunks := l.Chunks()
	require.Equal(t, 4, chunks[0].Occupied())
	require.True(t, chunks[1].Contains(coord.Pt(7, 1)))
}

func TestModeMismatch(t *testing.T) {
	dense := layer.NewDense(0, "d", registry(t))
	_, err := dense.AddChunk(coord.Pt(0, 0), 1, 1, []uint32{1})
	require.Truef(t, errors.Is(err, layer.ErrModeMismatch), "%v", err)

	inf := layer.NewInfinite(0, "i", registry(t))
	_, err = inf.SetDenseData([]uint32{1}, 1, 1)
	require.Truef(t, errors.Is(err, layer.ErrModeMismatch), "%v", err)
	require.True(t, inf.Infinite())
	require.Equal(t, "infinite", inf.Mode().String())
}

func TestReportMerge(t *testing.T) {
	var total layer.Report
	total.Merge(layer.Report{Placed: 3, Failed: 1, Failures: []coord.Point{{X: 1}}})
	total.Merge(layer.Report{Placed: 2})
	require.Equal(t, layer.Report{Placed: 5, Failed: 1, Failures: []coord.Point{{X: 1}}}, total)
	require.False(t, total.OK())
}

func TestCellsSkipSpaceBetweenChunks(t *testing.T) {
	l := layer.NewInfinite(1, "far", registry(t))
	_, err := l.AddChunk(coord.Pt(0, 0), 2, 1, []uint32{1, 0})
	require.NoError(t, err)
	_, err = l.AddChunk(coord.Pt(-3_000_000, 3_000_000), 1, 2, []uint32{0, 0})
	require.NoError(t, err)

	var cells []coord.Point
	for p := range l.Cells() {
		require.True(t, l.IsValid(p))
		cells = append(cells, p)
	}
	require.Equal(t, []coord.Point{
		{X: 0, Y: 0}, {X: 1, Y: 0},
		{X: -3_000_000, Y: 3_000_000}, {X: -3_000_000, Y: 3_000_001},
	}, cells)

	dense := layer.NewDense(2, "ground", registry(t))
	_, err = dense.SetDenseData(fill(6, 0), 3, 2)
	require.NoError(t, err)
	n := 0
	for range dense.Cells() {
		n++
	}
	require.Equal(t, 6, n)
}
