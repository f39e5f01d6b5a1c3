package httpapi

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/l1jgo/tilemap/internal/nav"
	"github.com/l1jgo/tilemap/internal/tilemap"
	"github.com/sasha-s/go-deadlock"
	"go.uber.org/zap"
)

var ErrMapNotFound = errors.New("map not found")

// Loader builds a map by name from wherever the maps are kept.
type Loader func(ctx context.Context, name string) (*tilemap.Map, error)

// Entry is one served map together with its per-layer graphs. Entries are
// never modified; a reload swaps in a new one.
type Entry struct {
	Map      *tilemap.Map
	Graphs   map[string]*nav.Graph
	LoadedAt time.Time
}

// Catalog holds the maps served by the API.
type Catalog struct {
	mu        deadlock.RWMutex
	entries   map[string]*Entry
	load      Loader
	diagonals bool
	log       *zap.Logger
}

func NewCatalog(load Loader, diagonals bool, log *zap.Logger) *Catalog {
	if log == nil {
		log = zap.NewNop()
	}
	return &Catalog{
		entries:   make(map[string]*Entry),
		load:      load,
		diagonals: diagonals,
		log:       log,
	}
}

// Put builds the graphs of m and publishes it, replacing any map with the
// same name.
func (c *Catalog) Put(ctx context.Context, m *tilemap.Map) error {
	graphs, err := m.BuildGraphs(ctx, m.NavOptions(c.diagonals))
	if err != nil {
		return fmt.Errorf("build graphs of %s: %w", m.Name, err)
	}
	e := &Entry{Map: m, Graphs: graphs, LoadedAt: time.Now()}

	c.mu.Lock()
	c.entries[m.Name] = e
	c.mu.Unlock()

	c.log.Info("map published",
		zap.String("map", m.Name),
		zap.Int("layers", len(graphs)),
		zap.Int("failed", m.Report().Failed),
	)
	return nil
}

// Get returns the current entry of a map.
func (c *Catalog) Get(name string) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[name]
	return e, ok
}

// Names returns the served map names in lexical order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.entries))
}

// Reload rebuilds a map through the loader and swaps it in. On failure the
// previous entry stays in place.
func (c *Catalog) Reload(ctx context.Context, name string) error {
	if c.load == nil {
		return fmt.Errorf("reload %s: no loader configured", name)
	}
	m, err := c.load(ctx, name)
	if err != nil {
		return fmt.Errorf("reload %s: %w", name, err)
	}
	if m == nil {
		return fmt.Errorf("reload %s: %w", name, ErrMapNotFound)
	}
	return c.Put(ctx, m)
}
