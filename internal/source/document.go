// Package source holds the attribute records a tile map is built from and
// loads them from YAML documents.
package source

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
	"gopkg.in/yaml.v3"
)

// Document is one tile-map document, already split into records.
type Document struct {
	Name         string            `yaml:"name"`
	Orientation  string            `yaml:"orientation,omitempty"`
	StaggerAxis  string            `yaml:"stagger_axis,omitempty"`
	StaggerIndex string            `yaml:"stagger_index,omitempty"`
	Width        int               `yaml:"width"`
	Height       int               `yaml:"height"`
	TileWidth    int               `yaml:"tile_width"`
	TileHeight   int               `yaml:"tile_height"`
	Infinite     bool              `yaml:"infinite"`
	Properties   map[string]string `yaml:"properties,omitempty"`
	Tilesets     []TilesetRecord   `yaml:"tilesets"`
	Layers       []LayerRecord     `yaml:"layers"`
}

// TilesetRecord declares a tile-set and the attribute records of its tiles.
type TilesetRecord struct {
	Name       string       `yaml:"name"`
	FirstGID   uint32       `yaml:"first_gid"`
	TileCount  uint32       `yaml:"tile_count"`
	TileWidth  int          `yaml:"tile_width"`
	TileHeight int          `yaml:"tile_height"`
	Columns    int          `yaml:"columns,omitempty"`
	Source     string       `yaml:"source,omitempty"`
	Tiles      []TileRecord `yaml:"tiles,omitempty"`
}

// TileRecord carries the attributes of one tile. Width and Height of zero
// mean "use the tile-set tile size".
type TileRecord struct {
	ID         uint32            `yaml:"id"`
	Type       string            `yaml:"type,omitempty"`
	Width      int               `yaml:"width,omitempty"`
	Height     int               `yaml:"height,omitempty"`
	Properties map[string]string `yaml:"properties,omitempty"`
	Animation  []FrameRecord     `yaml:"animation,omitempty"`
}

// FrameRecord is one animation frame; Duration is in milliseconds.
type FrameRecord struct {
	TileID   uint32 `yaml:"tile_id" json:"tile_id"`
	Duration int    `yaml:"duration" json:"duration"`
}

// LayerRecord is one tile layer. Finite maps use Data (or DataFile, a CSV
// text file relative to the document); infinite maps use Chunks.
type LayerRecord struct {
	Name     string        `yaml:"name"`
	Width    int           `yaml:"width,omitempty"`
	Height   int           `yaml:"height,omitempty"`
	Data     Indices       `yaml:"data,omitempty"`
	DataFile string        `yaml:"data_file,omitempty"`
	Chunks   []ChunkRecord `yaml:"chunks,omitempty"`
}

// ChunkRecord is one fixed-size block of an infinite layer.
type ChunkRecord struct {
	X      int     `yaml:"x"`
	Y      int     `yaml:"y"`
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	Data   Indices `yaml:"data"`
}

// Fingerprint is a hex blake2b-256 digest of the document's canonical YAML
// form. Two documents with the same records have the same fingerprint.
func (d *Document) Fingerprint() (string, error) {
	raw, err := yaml.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("marshal document %s: %w", d.Name, err)
	}
	sum := blake2b.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// Tileset returns the tile-set record with the given name.
func (d *Document) Tileset(name string) (*TilesetRecord, bool) {
	for i := range d.Tilesets {
		if d.Tilesets[i].Name == name {
			return &d.Tilesets[i], true
		}
	}
	return nil, false
}

// TileCount returns the number of tile attribute records across tile-sets.
func (d *Document) TileCount() int {
	n := 0
	for _, ts := range d.Tilesets {
		n += len(ts.Tiles)
	}
	return n
}
