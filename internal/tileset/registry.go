// Package tileset resolves global tile indices to tile-sets and holds the
// per-tile attribute data those tile-sets declare.
package tileset

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

var (
	ErrDuplicateRangeStart = errors.New("duplicate tileset range start")
	ErrUnresolvedIndex     = errors.New("unresolved tile index")
	ErrInvalidDescriptor   = errors.New("invalid tileset descriptor")
)

// Descriptor declares one tile-set and the global index range it owns:
// [FirstGID, FirstGID+TileCount).
type Descriptor struct {
	Name       string
	FirstGID   uint32
	TileCount  uint32
	TileWidth  int
	TileHeight int
	Columns    int
	Source     string
}

// Contains reports whether index falls inside the descriptor's own range.
func (d Descriptor) Contains(index uint32) bool {
	return index >= d.FirstGID && index-d.FirstGID < d.TileCount
}

// LastGID is the last index in range, or FirstGID-1 for an empty tile-set.
func (d Descriptor) LastGID() uint32 {
	return d.FirstGID + d.TileCount - 1
}

// Ref names one tile: its tile-set and the id local to that tile-set.
type Ref struct {
	Tileset string
	LocalID uint32
}

func (r Ref) String() string {
	return fmt.Sprintf("%s#%d", r.Tileset, r.LocalID)
}

// Registry holds descriptors sorted descending by FirstGID.
//
// Resolution takes the first descriptor whose FirstGID is <= the index. When
// ranges overlap the highest FirstGID wins, which can shadow the tail of a
// lower range; well-formed documents never overlap.
//
// A registry is populated once and then only read. Concurrent Resolve calls
// are safe once registration has finished.
type Registry struct {
	descs  []Descriptor
	byName map[string]Descriptor
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Descriptor)}
}

// descending order: e sorts before target when e.FirstGID > target
func byFirstGIDDesc(e Descriptor, target uint32) int {
	return cmp.Compare(target, e.FirstGID)
}

// Register inserts d, keeping the descending order.
func (r *Registry) Register(d Descriptor) error {
	if d.Name == "" {
		return fmt.Errorf("register tileset at %d: empty name: %w", d.FirstGID, ErrInvalidDescriptor)
	}
	if d.FirstGID == 0 {
		return fmt.Errorf("register tileset %q: first gid 0 is reserved: %w", d.Name, ErrInvalidDescriptor)
	}
	if _, dup := r.byName[d.Name]; dup {
		return fmt.Errorf("register tileset %q: name already registered: %w", d.Name, ErrInvalidDescriptor)
	}
	pos, found := slices.BinarySearchFunc(r.descs, d.FirstGID, byFirstGIDDesc)
	if found {
		return fmt.Errorf("register tileset %q at %d (taken by %q): %w",
			d.Name, d.FirstGID, r.descs[pos].Name, ErrDuplicateRangeStart)
	}
	r.descs = slices.Insert(r.descs, pos, d)
	r.byName[d.Name] = d
	return nil
}

// Resolve maps a raw tile index (flags already stripped) to its tile-set and
// local id. Index 0 never resolves; callers treat it as "no tile" beforehand.
func (r *Registry) Resolve(index uint32) (Ref, error) {
	var d Descriptor
	switch len(r.descs) {
	case 0:
		return Ref{}, fmt.Errorf("resolve index %d: no tilesets: %w", index, ErrUnresolvedIndex)
	case 1:
		d = r.descs[0]
		if index < d.FirstGID {
			return Ref{}, fmt.Errorf("resolve index %d: %w", index, ErrUnresolvedIndex)
		}
	default:
		// first descriptor with FirstGID <= index
		pos, _ := slices.BinarySearchFunc(r.descs, index, byFirstGIDDesc)
		if pos == len(r.descs) {
			return Ref{}, fmt.Errorf("resolve index %d: %w", index, ErrUnresolvedIndex)
		}
		d = r.descs[pos]
	}

	local := index - d.FirstGID
	if local >= d.TileCount {
		return Ref{}, fmt.Errorf("resolve index %d: past end of %q (%d tiles): %w",
			index, d.Name, d.TileCount, ErrUnresolvedIndex)
	}
	return Ref{Tileset: d.Name, LocalID: local}, nil
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Descriptors returns a copy of the descriptors in resolution order.
func (r *Registry) Descriptors() []Descriptor {
	return slices.Clone(r.descs)
}

func (r *Registry) Len() int {
	return len(r.descs)
}
