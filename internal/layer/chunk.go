package layer

import (
	"fmt"

	"github.com/l1jgo/tilemap/internal/coord"
)

// Chunk is a fixed-size rectangular piece of an infinite layer. Local
// coordinate (lx, ly) sits at map-space (Offset.X+lx, Offset.Y+ly).
type Chunk struct {
	Offset coord.Point
	Width  int
	Height int

	cells []int32
}

func (c *Chunk) Bounds() coord.Rect {
	return coord.RectAt(c.Offset, c.Width, c.Height)
}

// Contains reports whether map-space p falls inside the chunk.
func (c *Chunk) Contains(p coord.Point) bool {
	return c.Bounds().Contains(p)
}

func (c *Chunk) slot(local coord.Point) int32 {
	return c.cells[local.Y*c.Width+local.X]
}

// Occupied counts the chunk cells holding a tile.
func (c *Chunk) Occupied() int {
	n := 0
	for _, s := range c.cells {
		if s != emptySlot {
			n++
		}
	}
	return n
}

// Report summarises one population call: how many tiles were placed and
// which coordinates failed to resolve.
type Report struct {
	Placed   int
	Failed   int
	Failures []coord.Point
}

func (r Report) OK() bool { return r.Failed == 0 }

// Merge accumulates o into r.
func (r *Report) Merge(o Report) {
	r.Placed += o.Placed
	r.Failed += o.Failed
	r.Failures = append(r.Failures, o.Failures...)
}

func (r Report) String() string {
	return fmt.Sprintf("%d placed, %d errors", r.Placed, r.Failed)
}

// ResolveError records a tile id that did not resolve to any tile-set.
type ResolveError struct {
	Pos coord.Point
	Raw uint32
	Err error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("tile %v (gid %#x): %v", e.Pos, e.Raw, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }
