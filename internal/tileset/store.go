package tileset

import (
	"errors"
	"fmt"
	"iter"
	"maps"
	"slices"
)

var ErrDuplicateTile = errors.New("duplicate tile data")

// Store maps (tile-set, local id) to tile attribute records.
// Like the Registry it is filled once and then shared read-only.
type Store struct {
	tiles      map[string]map[uint32]*TileData
	classifier Classifier
}

// NewStore creates a store; a nil classifier means DefaultClassifier.
func NewStore(c Classifier) *Store {
	if c == nil {
		c = DefaultClassifier
	}
	return &Store{
		tiles:      make(map[string]map[uint32]*TileData),
		classifier: c,
	}
}

// Add stores td under tileset and fills its classification.
func (s *Store) Add(tileset string, td TileData) error {
	byID := s.tiles[tileset]
	if byID == nil {
		byID = make(map[uint32]*TileData)
		s.tiles[tileset] = byID
	}
	if _, dup := byID[td.LocalID]; dup {
		return fmt.Errorf("add tile %s#%d: %w", tileset, td.LocalID, ErrDuplicateTile)
	}
	c := s.classifier.Classify(&td)
	td.Walkable, td.Obstacle, td.Weight = c.Walkable, c.Obstacle, c.Weight
	byID[td.LocalID] = &td
	return nil
}

// Classify runs the store's classifier over td without storing it.
func (s *Store) Classify(td *TileData) Classification {
	return s.classifier.Classify(td)
}

// Lookup returns the record for a tile, if the tile-set declared one.
func (s *Store) Lookup(tileset string, localID uint32) (*TileData, bool) {
	td, ok := s.tiles[tileset][localID]
	return td, ok
}

// LookupRef is Lookup keyed by a resolved Ref.
func (s *Store) LookupRef(ref Ref) (*TileData, bool) {
	return s.Lookup(ref.Tileset, ref.LocalID)
}

// Len returns the number of tile records across all tile-sets.
func (s *Store) Len() int {
	n := 0
	for _, byID := range s.tiles {
		n += len(byID)
	}
	return n
}

// All yields every record ordered by tile-set name then local id.
func (s *Store) All() iter.Seq2[Ref, *TileData] {
	return func(yield func(Ref, *TileData) bool) {
		for _, name := range slices.Sorted(maps.Keys(s.tiles)) {
			byID := s.tiles[name]
			for _, id := range slices.Sorted(maps.Keys(byID)) {
				if !yield(Ref{Tileset: name, LocalID: id}, byID[id]) {
					return
				}
			}
		}
	}
}
