package coord

import "slices"

// Heading is a grid direction: 0=N, 1=NE, 2=E, 3=SE, 4=S, 5=SW, 6=W, 7=NW.
type Heading int

const (
	North Heading = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
)

// heading direction deltas, indexed by Heading
var headingDX = [8]int{0, 1, 1, 1, 0, -1, -1, -1}
var headingDY = [8]int{-1, -1, 0, 1, 1, 1, 0, -1}

// Delta returns the unit step for h.
func (h Heading) Delta() Point {
	return Point{headingDX[h&7], headingDY[h&7]}
}

// Diagonal reports whether h moves along both axes.
func (h Heading) Diagonal() bool { return h&1 == 1 }

var cardinals = [4]Heading{North, East, South, West}
var allHeadings = [8]Heading{North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest}

func headings(diagonals bool) []Heading {
	if diagonals {
		return allHeadings[:]
	}
	return cardinals[:]
}

// Headings returns the 4 cardinal headings, or all 8 when diagonals is set.
// The slice is the caller's own.
func Headings(diagonals bool) []Heading {
	return slices.Clone(headings(diagonals))
}

// Neighbors returns p's grid neighbours in heading order.
func (p Point) Neighbors(diagonals bool) []Point {
	hs := headings(diagonals)
	out := make([]Point, len(hs))
	for i, h := range hs {
		out[i] = p.Add(h.Delta())
	}
	return out
}
