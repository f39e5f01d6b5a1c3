// Package coord holds the integer grid geometry shared by layers and graphs:
// map-space points, chunk-local translation and half-open rectangles.
// Only axis-aligned grids are modelled; visual projection belongs to renderers.
package coord

import "fmt"

// Point is an integer grid coordinate.
type Point struct {
	X, Y int
}

func Pt(x, y int) Point { return Point{X: x, Y: y} }

func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

func (p Point) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

// Less orders points row-major (y first), used for deterministic output.
func (p Point) Less(q Point) bool {
	if p.Y != q.Y {
		return p.Y < q.Y
	}
	return p.X < q.X
}

// ToChunkLocal translates a map-space coordinate into the frame of the chunk
// at chunkOffset. No bounds check; callers validate separately.
func ToChunkLocal(mapCoord, chunkOffset Point) Point {
	return mapCoord.Sub(chunkOffset)
}

// ToMapSpace is the exact inverse of ToChunkLocal.
func ToMapSpace(chunkCoord, chunkOffset Point) Point {
	return chunkCoord.Add(chunkOffset)
}

// floorDiv rounds toward negative infinity so that -1 lands in cell -1, not 0.
func floorDiv(v, size int) int {
	if v < 0 {
		return (v - size + 1) / size
	}
	return v / size
}

// ChunkOrigin returns the offset of the w×h aligned chunk containing p.
func ChunkOrigin(p Point, w, h int) Point {
	return Point{floorDiv(p.X, w) * w, floorDiv(p.Y, h) * h}
}

// Rect is a half-open rectangle [Min, Max).
type Rect struct {
	Min, Max Point
}

// RectAt builds the rectangle of a w×h box whose top-left corner is origin.
func RectAt(origin Point, w, h int) Rect {
	return Rect{Min: origin, Max: Point{origin.X + w, origin.Y + h}}
}

func (r Rect) Dx() int { return r.Max.X - r.Min.X }
func (r Rect) Dy() int { return r.Max.Y - r.Min.Y }

// Empty reports whether r contains no points.
func (r Rect) Empty() bool {
	return r.Min.X >= r.Max.X || r.Min.Y >= r.Max.Y
}

func (r Rect) Contains(p Point) bool {
	return r.Min.X <= p.X && p.X < r.Max.X &&
		r.Min.Y <= p.Y && p.Y < r.Max.Y
}

// Overlaps reports whether r and s share at least one point.
func (r Rect) Overlaps(s Rect) bool {
	if r.Empty() || s.Empty() {
		return false
	}
	return r.Min.X < s.Max.X && s.Min.X < r.Max.X &&
		r.Min.Y < s.Max.Y && s.Min.Y < r.Max.Y
}

// Union returns the smallest rectangle covering both r and s.
func (r Rect) Union(s Rect) Rect {
	if r.Empty() {
		return s
	}
	if s.Empty() {
		return r
	}
	return Rect{
		Min: Point{min(r.Min.X, s.Min.X), min(r.Min.Y, s.Min.Y)},
		Max: Point{max(r.Max.X, s.Max.X), max(r.Max.Y, s.Max.Y)},
	}
}

// Points yields every point of r in row-major order.
func (r Rect) Points(yield func(Point) bool) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if !yield(Point{x, y}) {
				return
			}
		}
	}
}

func (r Rect) String() string {
	return fmt.Sprintf("[%v-%v)", r.Min, r.Max)
}
