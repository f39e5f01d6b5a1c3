// Package tilemap assembles a resolved map model from source records: it
// populates the tile-set registry and tile store, then builds every layer
// against them.
package tilemap

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/l1jgo/tilemap/internal/coord"
	"github.com/l1jgo/tilemap/internal/layer"
	"github.com/l1jgo/tilemap/internal/source"
	"github.com/l1jgo/tilemap/internal/tileset"
	"go.uber.org/zap"
)

var (
	ErrLayerNotFound  = errors.New("layer not found")
	ErrDuplicateLayer = errors.New("duplicate layer name")
)

// Map is a fully built tile map. It is read-only once Build returns and may
// be shared between goroutines.
type Map struct {
	Name         string
	Orientation  Orientation
	StaggerAxis  StaggerAxis
	StaggerIndex StaggerIndex
	Width        int
	Height       int
	TileWidth    int
	TileHeight   int
	Infinite     bool
	Properties   tileset.Properties

	registry *tileset.Registry
	store    *tileset.Store
	layers   []*layer.Layer
	byName   map[string]*layer.Layer
	report   layer.Report
	log      *zap.Logger
}

type buildOptions struct {
	log        *zap.Logger
	classifier tileset.Classifier
}

// Option configures Build.
type Option func(*buildOptions)

func WithLogger(log *zap.Logger) Option {
	return func(o *buildOptions) { o.log = log }
}

// WithClassifier replaces the property based tile classification.
func WithClassifier(c tileset.Classifier) Option {
	return func(o *buildOptions) { o.classifier = c }
}

// Build resolves doc into a Map. Tiles that fail to resolve are recorded in
// the layer reports and the map keeps building; a structural problem
// (bad descriptor, mismatched data size, overlapping chunks) aborts.
func Build(doc *source.Document, opts ...Option) (*Map, error) {
	o := buildOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}

	m := &Map{
		Name:       doc.Name,
		Width:      doc.Width,
		Height:     doc.Height,
		TileWidth:  doc.TileWidth,
		TileHeight: doc.TileHeight,
		Infinite:   doc.Infinite,
		Properties: tileset.NewProperties(doc.Properties),
		registry:   tileset.NewRegistry(),
		store:      tileset.NewStore(o.classifier),
		byName:     make(map[string]*layer.Layer, len(doc.Layers)),
		log:        o.log.With(zap.String("map", doc.Name)),
	}
	if err := m.Orientation.UnmarshalText([]byte(doc.Orientation)); err != nil {
		return nil, fmt.Errorf("map %s: %w", doc.Name, err)
	}
	if err := m.StaggerAxis.UnmarshalText([]byte(doc.StaggerAxis)); err != nil {
		return nil, fmt.Errorf("map %s: %w", doc.Name, err)
	}
	if err := m.StaggerIndex.UnmarshalText([]byte(doc.StaggerIndex)); err != nil {
		return nil, fmt.Errorf("map %s: %w", doc.Name, err)
	}

	for i := range doc.Tilesets {
		if err := m.addTileset(&doc.Tilesets[i]); err != nil {
			return nil, fmt.Errorf("map %s: %w", doc.Name, err)
		}
	}

	for i := range doc.Layers {
		if err := m.addLayer(layer.Handle(i), &doc.Layers[i]); err != nil {
			return nil, fmt.Errorf("map %s: %w", doc.Name, err)
		}
	}

	m.log.Info("map built",
		zap.Int("tilesets", m.registry.Len()),
		zap.Int("tiles", m.store.Len()),
		zap.Int("layers", len(m.layers)),
		zap.Int("resolved", m.report.Placed),
		zap.Int("failed", m.report.Failed),
	)
	return m, nil
}

func (m *Map) addTileset(rec *source.TilesetRecord) error {
	d := tileset.Descriptor{
		Name:       rec.Name,
		FirstGID:   rec.FirstGID,
		TileCount:  rec.TileCount,
		TileWidth:  rec.TileWidth,
		TileHeight: rec.TileHeight,
		Columns:    rec.Columns,
		Source:     rec.Source,
	}
	if err := m.registry.Register(d); err != nil {
		return err
	}

	for _, t := range rec.Tiles {
		if t.ID >= rec.TileCount {
			return fmt.Errorf("tileset %s: tile %d outside %d tiles: %w",
				rec.Name, t.ID, rec.TileCount, tileset.ErrInvalidDescriptor)
		}
		w, h := t.Width, t.Height
		if w == 0 {
			w = rec.TileWidth
		}
		if h == 0 {
			h = rec.TileHeight
		}
		frames := make([]tileset.Frame, 0, len(t.Animation))
		for _, f := range t.Animation {
			frames = append(frames, tileset.Frame{
				LocalID:  f.TileID,
				Duration: time.Duration(f.Duration) * time.Millisecond,
			})
		}
		td := tileset.NewTileData(t.ID, w, h, t.Type, tileset.NewProperties(t.Properties), frames)
		if err := m.store.Add(rec.Name, td); err != nil {
			return err
		}
	}
	return nil
}

func (m *Map) addLayer(h layer.Handle, rec *source.LayerRecord) error {
	if rec.Name == "" {
		return fmt.Errorf("layer %d: missing name", h)
	}
	if _, dup := m.byName[rec.Name]; dup {
		return fmt.Errorf("layer %s: %w", rec.Name, ErrDuplicateLayer)
	}

	var (
		l   *layer.Layer
		rep layer.Report
	)
	if m.Infinite {
		l = layer.NewInfinite(h, rec.Name, m.registry)
		for _, c := range rec.Chunks {
			r, err := l.AddChunk(coord.Pt(c.X, c.Y), c.Width, c.Height, c.Data)
			if err != nil {
				return fmt.Errorf("layer %s: %w", rec.Name, err)
			}
			rep.Merge(r)
		}
	} else {
		w, hgt := rec.Width, rec.Height
		if w == 0 && hgt == 0 {
			w, hgt = m.Width, m.Height
		}
		l = layer.NewDense(h, rec.Name, m.registry)
		r, err := l.SetDenseData(rec.Data, w, hgt)
		if err != nil {
			return fmt.Errorf("layer %s: %w", rec.Name, err)
		}
		rep = r
	}

	if rep.OK() {
		m.log.Debug("layer built",
			zap.String("layer", rec.Name),
			zap.Stringer("mode", l.Mode()),
			zap.Int("resolved", rep.Placed),
		)
	} else {
		m.log.Warn("layer has unresolved tiles",
			zap.String("layer", rec.Name),
			zap.Int("resolved", rep.Placed),
			zap.Int("failed", rep.Failed),
		)
	}

	m.layers = append(m.layers, l)
	m.byName[rec.Name] = l
	m.report.Merge(rep)
	return nil
}

// Layer returns the named layer.
func (m *Map) Layer(name string) (*layer.Layer, error) {
	l, ok := m.byName[name]
	if !ok {
		return nil, fmt.Errorf("layer %s: %w", name, ErrLayerNotFound)
	}
	return l, nil
}

// Layers returns the layers in document order.
func (m *Map) Layers() []*layer.Layer {
	return slices.Clone(m.layers)
}

// TileAt returns the tile at p on the named layer. ok is false when the
// layer does not exist or the cell is empty.
func (m *Map) TileAt(layerName string, p coord.Point) (layer.TileRef, bool) {
	l, found := m.byName[layerName]
	if !found {
		return layer.TileRef{}, false
	}
	return l.TileAt(p)
}

// TileData returns the attribute record of a resolved tile, if its
// tile-set declared one.
func (m *Map) TileData(ref tileset.Ref) (*tileset.TileData, bool) {
	return m.store.LookupRef(ref)
}

// Registry returns the tile-set registry the layers resolve against.
func (m *Map) Registry() *tileset.Registry { return m.registry }
func (m *Map) Store() *tileset.Store       { return m.store }

// Report is the sum of all layer reports.
func (m *Map) Report() layer.Report { return m.report }

// tileDataOrDefault returns the stored record for ref, or a bare record
// sized from its tile-set and classified by the store when none was declared.
func (m *Map) tileDataOrDefault(ref tileset.Ref) *tileset.TileData {
	if td, ok := m.store.LookupRef(ref); ok {
		return td
	}
	d, _ := m.registry.Lookup(ref.Tileset)
	td := tileset.NewTileData(ref.LocalID, d.TileWidth, d.TileHeight, "", tileset.Properties{}, nil)
	c := m.store.Classify(&td)
	td.Walkable, td.Obstacle, td.Weight = c.Walkable, c.Obstacle, c.Weight
	return &td
}
