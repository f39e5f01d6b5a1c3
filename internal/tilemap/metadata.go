package tilemap

import "fmt"

// Orientation is the projection a map was authored for. It is carried as
// metadata; the model itself is always a plain grid.
type Orientation int

const (
	Orthogonal Orientation = iota
	Isometric
	Hexagonal
	Staggered
)

var orientationNames = [...]string{"orthogonal", "isometric", "hexagonal", "staggered"}

func (o Orientation) String() string {
	if o < 0 || int(o) >= len(orientationNames) {
		return fmt.Sprintf("Orientation(%d)", int(o))
	}
	return orientationNames[o]
}

func (o Orientation) MarshalText() ([]byte, error) {
	if o < 0 || int(o) >= len(orientationNames) {
		return nil, fmt.Errorf("invalid orientation %d", int(o))
	}
	return []byte(orientationNames[o]), nil
}

// UnmarshalText accepts the lower-case names; empty means orthogonal.
func (o *Orientation) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*o = Orthogonal
		return nil
	}
	for i, name := range orientationNames {
		if string(b) == name {
			*o = Orientation(i)
			return nil
		}
	}
	return fmt.Errorf("unknown orientation %q", b)
}

// StaggerAxis is the axis shifted on staggered and hexagonal maps.
type StaggerAxis int

const (
	StaggerX StaggerAxis = iota
	StaggerY
)

func (a StaggerAxis) String() string {
	if a == StaggerY {
		return "y"
	}
	return "x"
}

func (a StaggerAxis) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *StaggerAxis) UnmarshalText(b []byte) error {
	switch string(b) {
	case "", "x":
		*a = StaggerX
	case "y":
		*a = StaggerY
	default:
		return fmt.Errorf("unknown stagger axis %q", b)
	}
	return nil
}

// StaggerIndex selects whether odd or even rows/columns are shifted.
type StaggerIndex int

const (
	StaggerOdd StaggerIndex = iota
	StaggerEven
)

func (s StaggerIndex) String() string {
	if s == StaggerEven {
		return "even"
	}
	return "odd"
}

func (s StaggerIndex) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *StaggerIndex) UnmarshalText(b []byte) error {
	switch string(b) {
	case "", "odd":
		*s = StaggerOdd
	case "even":
		*s = StaggerEven
	default:
		return fmt.Errorf("unknown stagger index %q", b)
	}
	return nil
}
