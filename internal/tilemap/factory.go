package tilemap

import (
	"fmt"

	"github.com/l1jgo/tilemap/internal/coord"
	"github.com/l1jgo/tilemap/internal/gid"
	"github.com/l1jgo/tilemap/internal/layer"
	"github.com/l1jgo/tilemap/internal/tileset"
)

// TileFactory turns a placed tile and its attribute record into whatever
// representation a consumer works with. td is never nil: tiles without a
// declared record get a bare one sized from their tile-set.
type TileFactory[T any] interface {
	NewTile(ref layer.TileRef, td *tileset.TileData) (T, error)
}

// FactoryFunc adapts a plain function to TileFactory.
type FactoryFunc[T any] func(ref layer.TileRef, td *tileset.TileData) (T, error)

func (f FactoryFunc[T]) NewTile(ref layer.TileRef, td *tileset.TileData) (T, error) {
	return f(ref, td)
}

// Materialize runs f over every placed tile of the named layer in storage
// order and stops at the first factory error.
func Materialize[T any](m *Map, layerName string, f TileFactory[T]) ([]T, error) {
	l, err := m.Layer(layerName)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, l.Len())
	for p, ref := range l.Tiles() {
		v, err := f.NewTile(ref, m.tileDataOrDefault(ref.Ref()))
		if err != nil {
			return nil, fmt.Errorf("layer %s: tile at %v: %w", layerName, p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// BasicTile is a plain value representation of a placed tile.
type BasicTile struct {
	Pos      coord.Point
	Ref      tileset.Ref
	Flags    gid.Flags
	Type     string
	Width    int
	Height   int
	Walkable bool
	Obstacle bool
	Weight   float32
	Frames   []tileset.Frame
}

// BasicFactory produces BasicTile values.
type BasicFactory struct{}

func (BasicFactory) NewTile(ref layer.TileRef, td *tileset.TileData) (BasicTile, error) {
	return BasicTile{
		Pos:      ref.Pos,
		Ref:      ref.Ref(),
		Flags:    ref.Flags,
		Type:     td.Type,
		Width:    td.Width,
		Height:   td.Height,
		Walkable: td.Walkable,
		Obstacle: td.Obstacle,
		Weight:   td.Weight,
		Frames:   td.Frames(),
	}, nil
}
