package tilemap

import (
	"context"
	"sync"

	"github.com/l1jgo/tilemap/internal/nav"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// NavOptions derives walkable and obstacle sets from the classification of
// every tile record in the map.
func (m *Map) NavOptions(diagonals bool) nav.Options {
	walkable, obstacles := nav.SetsFromStore(m.store)
	return nav.Options{Walkable: walkable, Obstacles: obstacles, Diagonals: diagonals}
}

// BuildGraph builds the navigation graph of one layer.
func (m *Map) BuildGraph(layerName string, opts nav.Options) (*nav.Graph, error) {
	l, err := m.Layer(layerName)
	if err != nil {
		return nil, err
	}
	g := nav.Build(l, m.store, opts)
	m.log.Debug("graph built",
		zap.String("layer", layerName),
		zap.Int("nodes", g.Len()),
		zap.Int("edges", g.EdgeCount()),
	)
	return g, nil
}

// BuildGraphs builds one graph per layer in parallel. The registry and store
// are only read, so the builds share them.
func (m *Map) BuildGraphs(ctx context.Context, opts nav.Options) (map[string]*nav.Graph, error) {
	var (
		mu     sync.Mutex
		graphs = make(map[string]*nav.Graph, len(m.layers))
	)
	g, ctx := errgroup.WithContext(ctx)
	for _, l := range m.layers {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			graph, err := m.BuildGraph(l.Name(), opts)
			if err != nil {
				return err
			}
			mu.Lock()
			graphs[l.Name()] = graph
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return graphs, nil
}
