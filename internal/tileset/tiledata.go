package tileset

import (
	"slices"
	"time"
)

// Frame is one step of a tile animation.
type Frame struct {
	LocalID  uint32
	Duration time.Duration
}

// TileData is the attribute record of one tile inside its tile-set.
// The classification fields are filled by the Store when the tile is added.
type TileData struct {
	LocalID    uint32
	Width      int
	Height     int
	Type       string
	Properties Properties

	Walkable bool
	Obstacle bool
	Weight   float32

	frames []Frame
}

// NewTileData builds a tile record. frames is copied; the animation cannot
// be changed afterwards.
func NewTileData(localID uint32, width, height int, typ string, props Properties, frames []Frame) TileData {
	return TileData{
		LocalID:    localID,
		Width:      width,
		Height:     height,
		Type:       typ,
		Properties: props,
		Weight:     DefaultWeight,
		frames:     slices.Clone(frames),
	}
}

// Frames returns the animation frames in declared order.
func (td *TileData) Frames() []Frame {
	return slices.Clone(td.frames)
}

func (td *TileData) FrameCount() int {
	return len(td.frames)
}

func (td *TileData) Animated() bool {
	return len(td.frames) > 0
}

// AnimationDuration is the length of one full animation cycle.
func (td *TileData) AnimationDuration() time.Duration {
	var total time.Duration
	for _, f := range td.frames {
		total += f.Duration
	}
	return total
}

// Classification returns the derived navigation attributes.
func (td *TileData) Classification() Classification {
	return Classification{Walkable: td.Walkable, Obstacle: td.Obstacle, Weight: td.Weight}
}
