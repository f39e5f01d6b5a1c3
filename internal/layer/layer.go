// Package layer stores the resolved tiles of one tile layer, either as a
// single dense grid (finite maps) or as a set of offset chunks (infinite
// maps), behind one map-space coordinate lookup.
package layer

import (
	"errors"
	"fmt"
	"iter"
	"slices"

	"github.com/l1jgo/tilemap/internal/coord"
	"github.com/l1jgo/tilemap/internal/gid"
	"github.com/l1jgo/tilemap/internal/tileset"
)

var (
	ErrSizeMismatch = errors.New("layer data size mismatch")
	ErrChunkOverlap = errors.New("chunk overlaps existing chunk")
	ErrModeMismatch = errors.New("operation does not match layer mode")
)

// Handle identifies a layer inside its map. Tiles carry it instead of a
// pointer back to the layer.
type Handle uint32

// Mode is the storage mode of a layer.
type Mode int

const (
	Dense Mode = iota
	Infinite
)

func (m Mode) String() string {
	switch m {
	case Dense:
		return "dense"
	case Infinite:
		return "infinite"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Resolver maps a raw tile index to its tile-set. *tileset.Registry
// satisfies it.
type Resolver interface {
	Resolve(index uint32) (tileset.Ref, error)
}

// TileRef is a resolved tile placement.
type TileRef struct {
	Layer   Handle
	Tileset string
	LocalID uint32
	Flags   gid.Flags
	Pos     coord.Point
}

// Ref drops the placement and keeps the tile identity.
func (t TileRef) Ref() tileset.Ref {
	return tileset.Ref{Tileset: t.Tileset, LocalID: t.LocalID}
}

// emptySlot marks a grid cell with no tile.
const emptySlot int32 = -1

// Layer is created empty, populated once, then only read. Resolution failures
// are kept per coordinate instead of failing the population call.
//
// Every resolved tile lives in one arena owned by the layer; grids hold slot
// indices into it.
type Layer struct {
	handle   Handle
	name     string
	mode     Mode
	resolver Resolver

	refs []TileRef
	errs map[coord.Point]*ResolveError

	// dense mode
	width, height int
	cells         []int32

	// infinite mode
	chunks   []*Chunk
	byOffset map[coord.Point]*Chunk
	chunkW   int
	chunkH   int
	aligned  bool // all chunks share chunkW×chunkH and sit on that grid
}

func newLayer(h Handle, name string, mode Mode, r Resolver) *Layer {
	return &Layer{
		handle:   h,
		name:     name,
		mode:     mode,
		resolver: r,
		errs:     make(map[coord.Point]*ResolveError),
		byOffset: make(map[coord.Point]*Chunk),
		aligned:  true,
	}
}

// NewDense creates an empty finite layer.
func NewDense(h Handle, name string, r Resolver) *Layer {
	return newLayer(h, name, Dense, r)
}

// NewInfinite creates an empty chunked layer.
func NewInfinite(h Handle, name string, r Resolver) *Layer {
	return newLayer(h, name, Infinite, r)
}

func (l *Layer) Handle() Handle { return l.handle }
func (l *Layer) Name() string   { return l.name }
func (l *Layer) Mode() Mode     { return l.mode }
func (l *Layer) Infinite() bool { return l.mode == Infinite }

// Len returns the number of placed tiles.
func (l *Layer) Len() int { return len(l.refs) }

// place decodes and resolves raw into cells. Index i sits at local
// (i%width, i/width), which origin shifts into map space.
func (l *Layer) place(cells []int32, raw []uint32, width int, origin coord.Point) Report {
	var rep Report
	for i, v := range raw {
		cells[i] = emptySlot
		if gid.IsEmpty(v) {
			continue
		}
		flags, index := gid.Decode(v)
		pos := coord.ToMapSpace(coord.Point{X: i % width, Y: i / width}, origin)

		ref, err := l.resolver.Resolve(index)
		if err != nil {
			l.errs[pos] = &ResolveError{Pos: pos, Raw: v, Err: err}
			rep.Failed++
			rep.Failures = append(rep.Failures, pos)
			continue
		}
		cells[i] = int32(len(l.refs))
		l.refs = append(l.refs, TileRef{
			Layer:   l.handle,
			Tileset: ref.Tileset,
			LocalID: ref.LocalID,
			Flags:   flags,
			Pos:     pos,
		})
		rep.Placed++
	}
	return rep
}

// SetDenseData fills a finite layer from row-major raw global ids.
// It fails only when len(raw) != width*height; unresolved ids are reported,
// not fatal.
func (l *Layer) SetDenseData(raw []uint32, width, height int) (Report, error) {
	if l.mode != Dense {
		return Report{}, fmt.Errorf("layer %q: set dense data on %s layer: %w", l.name, l.mode, ErrModeMismatch)
	}
	if width < 0 || height < 0 || len(raw) != width*height {
		return Report{}, fmt.Errorf("layer %q: %d ids for %dx%d: %w", l.name, len(raw), width, height, ErrSizeMismatch)
	}

	l.refs = l.refs[:0]
	clear(l.errs)
	l.width, l.height = width, height
	l.cells = make([]int32, len(raw))
	return l.place(l.cells, raw, width, coord.Point{}), nil
}

// AddChunk adds one chunk to an infinite layer. The chunk's box may not
// intersect any chunk already present.
func (l *Layer) AddChunk(offset coord.Point, width, height int, raw []uint32) (Report, error) {
	if l.mode != Infinite {
		return Report{}, fmt.Errorf("layer %q: add chunk to %s layer: %w", l.name, l.mode, ErrModeMismatch)
	}
	if width <= 0 || height <= 0 || len(raw) != width*height {
		return Report{}, fmt.Errorf("layer %q: chunk %v: %d ids for %dx%d: %w",
			l.name, offset, len(raw), width, height, ErrSizeMismatch)
	}

	box := coord.RectAt(offset, width, height)
	for _, c := range l.chunks {
		if c.Bounds().Overlaps(box) {
			return Report{}, fmt.Errorf("layer %q: chunk %v intersects chunk %v: %w",
				l.name, box, c.Bounds(), ErrChunkOverlap)
		}
	}

	c := &Chunk{Offset: offset, Width: width, Height: height, cells: make([]int32, len(raw))}
	rep := l.place(c.cells, raw, width, offset)

	if len(l.chunks) == 0 {
		l.chunkW, l.chunkH = width, height
	}
	if width != l.chunkW || height != l.chunkH || coord.ChunkOrigin(offset, l.chunkW, l.chunkH) != offset {
		l.aligned = false
	}
	l.chunks = append(l.chunks, c)
	l.byOffset[offset] = c
	return rep, nil
}

// chunkAt finds the chunk whose box contains p.
func (l *Layer) chunkAt(p coord.Point) *Chunk {
	if len(l.chunks) == 0 {
		return nil
	}
	if l.aligned {
		return l.byOffset[coord.ChunkOrigin(p, l.chunkW, l.chunkH)]
	}
	for _, c := range l.chunks {
		if c.Contains(p) {
			return c
		}
	}
	return nil
}

// TileAt returns the tile at a map-space coordinate. The boolean is false
// both for empty cells and for coordinates outside the layer; use IsValid to
// tell them apart.
func (l *Layer) TileAt(p coord.Point) (TileRef, bool) {
	var slot int32
	switch l.mode {
	case Dense:
		if !l.inDense(p) {
			return TileRef{}, false
		}
		slot = l.cells[p.Y*l.width+p.X]
	case Infinite:
		c := l.chunkAt(p)
		if c == nil {
			return TileRef{}, false
		}
		slot = c.slot(coord.ToChunkLocal(p, c.Offset))
	}
	if slot == emptySlot {
		return TileRef{}, false
	}
	return l.refs[slot], true
}

func (l *Layer) inDense(p coord.Point) bool {
	return p.X >= 0 && p.X < l.width && p.Y >= 0 && p.Y < l.height
}

// IsValid reports whether p is addressable: inside the dense grid, or inside
// one of the chunks.
func (l *Layer) IsValid(p coord.Point) bool {
	if l.mode == Dense {
		return l.inDense(p)
	}
	return l.chunkAt(p) != nil
}

// Bounds is the smallest rectangle covering every addressable coordinate.
func (l *Layer) Bounds() coord.Rect {
	if l.mode == Dense {
		return coord.RectAt(coord.Point{}, l.width, l.height)
	}
	var r coord.Rect
	for _, c := range l.chunks {
		r = r.Union(c.Bounds())
	}
	return r
}

// Cells yields every valid coordinate, occupied or not: row-major for dense
// layers, chunk by chunk for infinite ones. Space between chunks is skipped.
func (l *Layer) Cells() iter.Seq[coord.Point] {
	return func(yield func(coord.Point) bool) {
		if l.mode == Dense {
			for p := range l.Bounds().Points {
				if !yield(p) {
					return
				}
			}
			return
		}
		for _, c := range l.chunks {
			for p := range c.Bounds().Points {
				if !yield(p) {
					return
				}
			}
		}
	}
}

// Tiles yields every occupied coordinate with its tile: row-major for dense
// layers, chunk by chunk in insertion order for infinite ones.
func (l *Layer) Tiles() iter.Seq2[coord.Point, TileRef] {
	return func(yield func(coord.Point, TileRef) bool) {
		for _, t := range l.refs {
			if !yield(t.Pos, t) {
				return
			}
		}
	}
}

// Chunks returns copies of the layer's chunks in insertion order.
func (l *Layer) Chunks() []Chunk {
	out := make([]Chunk, len(l.chunks))
	for i, c := range l.chunks {
		out[i] = *c
	}
	return out
}

// ErrorAt returns the resolution failure recorded at p, if any.
func (l *Layer) ErrorAt(p coord.Point) error {
	if e, ok := l.errs[p]; ok {
		return e
	}
	return nil
}

// ResolveErrors returns every recorded failure, ordered row-major.
func (l *Layer) ResolveErrors() []*ResolveError {
	out := make([]*ResolveError, 0, len(l.errs))
	for _, e := range l.errs {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b *ResolveError) int {
		switch {
		case a.Pos.Less(b.Pos):
			return -1
		case b.Pos.Less(a.Pos):
			return 1
		}
		return 0
	})
	return out
}
