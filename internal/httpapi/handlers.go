// Package httpapi serves read-only queries over built maps and their
// navigation graphs.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/l1jgo/tilemap/internal/coord"
	"github.com/l1jgo/tilemap/internal/layer"
	"github.com/l1jgo/tilemap/internal/nav"
	"go.uber.org/zap"
)

type handler struct {
	catalog *Catalog
	log     *zap.Logger
}

// NewRouter returns the API routes over c.
func NewRouter(c *Catalog, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &handler{catalog: c, log: log}

	r := chi.NewRouter()
	r.Use(recovery(log))
	r.Use(requestLogger(log))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/maps", func(r chi.Router) {
		r.Get("/", h.listMaps)
		r.Route("/{map}", func(r chi.Router) {
			r.Post("/reload", h.reload)
			r.Route("/layers/{layer}", func(r chi.Router) {
				r.Get("/tiles/{x}/{y}", h.getTile)
				r.Get("/nodes/{x}/{y}", h.getNode)
				r.Get("/cost", h.getCost)
			})
		})
	})
	return r
}

type pointJSON struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func toPointJSON(p coord.Point) pointJSON { return pointJSON{X: p.X, Y: p.Y} }

type layerSummary struct {
	Name   string `json:"name"`
	Mode   string `json:"mode"`
	Tiles  int    `json:"tiles"`
	Failed int    `json:"failed"`
	Nodes  int    `json:"nodes"`
	Edges  int    `json:"edges"`
	Bounds string `json:"bounds"`
}

type mapSummary struct {
	Name        string         `json:"name"`
	Orientation string         `json:"orientation"`
	Width       int            `json:"width"`
	Height      int            `json:"height"`
	TileWidth   int            `json:"tile_width"`
	TileHeight  int            `json:"tile_height"`
	Infinite    bool           `json:"infinite"`
	Layers      []layerSummary `json:"layers"`
	LoadedAt    time.Time      `json:"loaded_at"`
}

// listMaps handles GET /maps.
func (h *handler) listMaps(w http.ResponseWriter, r *http.Request) {
	out := []mapSummary{}
	for _, name := range h.catalog.Names() {
		e, ok := h.catalog.Get(name)
		if !ok {
			continue
		}
		m := e.Map
		s := mapSummary{
			Name:        m.Name,
			Orientation: m.Orientation.String(),
			Width:       m.Width,
			Height:      m.Height,
			TileWidth:   m.TileWidth,
			TileHeight:  m.TileHeight,
			Infinite:    m.Infinite,
			LoadedAt:    e.LoadedAt,
		}
		for _, l := range m.Layers() {
			ls := layerSummary{
				Name:   l.Name(),
				Mode:   l.Mode().String(),
				Tiles:  l.Len(),
				Failed: len(l.ResolveErrors()),
				Bounds: l.Bounds().String(),
			}
			if g, ok := e.Graphs[l.Name()]; ok {
				ls.Nodes, ls.Edges = g.Len(), g.EdgeCount()
			}
			s.Layers = append(s.Layers, ls)
		}
		out = append(out, s)
	}
	respondJSON(w, http.StatusOK, out)
}

type flagsJSON struct {
	Horizontal bool `json:"horizontal"`
	Vertical   bool `json:"vertical"`
	Diagonal   bool `json:"diagonal"`
}

type tileResponse struct {
	Pos        pointJSON         `json:"pos"`
	Tileset    string            `json:"tileset"`
	LocalID    uint32            `json:"local_id"`
	Flags      flagsJSON         `json:"flags"`
	Type       string            `json:"type,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
	Walkable   bool              `json:"walkable"`
	Obstacle   bool              `json:"obstacle"`
	Weight     float32           `json:"weight"`
	Animated   bool              `json:"animated"`
}

// getTile handles GET /maps/{map}/layers/{layer}/tiles/{x}/{y}.
func (h *handler) getTile(w http.ResponseWriter, r *http.Request) {
	e, l, ok := h.lookupLayer(w, r)
	if !ok {
		return
	}
	p, err := pointParams(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	t, found := l.TileAt(p)
	if !found {
		if rerr := l.ErrorAt(p); rerr != nil {
			respondError(w, http.StatusUnprocessableEntity, rerr.Error())
			return
		}
		respondError(w, http.StatusNotFound, fmt.Sprintf("no tile at %v", p))
		return
	}

	resp := tileResponse{
		Pos:     toPointJSON(t.Pos),
		Tileset: t.Tileset,
		LocalID: t.LocalID,
		Flags: flagsJSON{
			Horizontal: t.Flags.Horizontal(),
			Vertical:   t.Flags.Vertical(),
			Diagonal:   t.Flags.Diagonal(),
		},
		Weight: 1,
	}
	if td, ok := e.Map.TileData(t.Ref()); ok {
		resp.Type = td.Type
		resp.Properties = td.Properties.Map()
		resp.Walkable = td.Walkable
		resp.Obstacle = td.Obstacle
		resp.Weight = td.Weight
		resp.Animated = td.Animated()
	}
	respondJSON(w, http.StatusOK, resp)
}

type nodeResponse struct {
	Pos       pointJSON   `json:"pos"`
	Weight    float32     `json:"weight"`
	Neighbors []pointJSON `json:"neighbors"`
	Reachable int         `json:"reachable"`
}

// getNode handles GET /maps/{map}/layers/{layer}/nodes/{x}/{y}.
func (h *handler) getNode(w http.ResponseWriter, r *http.Request) {
	g, ok := h.lookupGraph(w, r)
	if !ok {
		return
	}
	p, err := pointParams(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	n, found := g.Node(p)
	if !found {
		respondError(w, http.StatusNotFound, fmt.Sprintf("no node at %v", p))
		return
	}

	resp := nodeResponse{
		Pos:       toPointJSON(n.Pos),
		Weight:    n.Weight,
		Neighbors: []pointJSON{},
		Reachable: g.Reachable(p).Size(),
	}
	for _, q := range n.Neighbors() {
		resp.Neighbors = append(resp.Neighbors, toPointJSON(q))
	}
	respondJSON(w, http.StatusOK, resp)
}

type costResponse struct {
	From      pointJSON `json:"from"`
	To        pointJSON `json:"to"`
	Adjacent  bool      `json:"adjacent"`
	Cost      *float32  `json:"cost,omitempty"`
	Estimated float32   `json:"estimated"`
}

// getCost handles GET /maps/{map}/layers/{layer}/cost?from=x,y&to=x,y.
// cost is only present for connected neighbours.
func (h *handler) getCost(w http.ResponseWriter, r *http.Request) {
	g, ok := h.lookupGraph(w, r)
	if !ok {
		return
	}
	from, err := parsePoint(r.URL.Query().Get("from"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "from: "+err.Error())
		return
	}
	to, err := parsePoint(r.URL.Query().Get("to"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "to: "+err.Error())
		return
	}

	a, okA := g.Node(from)
	b, okB := g.Node(to)
	if !okA || !okB {
		respondError(w, http.StatusNotFound, "both endpoints must be walkable nodes")
		return
	}

	resp := costResponse{
		From:      toPointJSON(from),
		To:        toPointJSON(to),
		Adjacent:  a.Connections.Has(to),
		Estimated: nav.EstimatedCost(from, to),
	}
	if resp.Adjacent {
		c := nav.Cost(a, b)
		resp.Cost = &c
	}
	respondJSON(w, http.StatusOK, resp)
}

// reload handles POST /maps/{map}/reload.
func (h *handler) reload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "map")
	if err := h.catalog.Reload(r.Context(), name); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrMapNotFound) {
			status = http.StatusNotFound
		}
		h.log.Warn("reload failed", zap.String("map", name), zap.Error(err))
		respondError(w, status, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "reloaded", "map": name})
}

func (h *handler) lookupLayer(w http.ResponseWriter, r *http.Request) (*Entry, *layer.Layer, bool) {
	name := chi.URLParam(r, "map")
	e, ok := h.catalog.Get(name)
	if !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("map %s not found", name))
		return nil, nil, false
	}
	l, err := e.Map.Layer(chi.URLParam(r, "layer"))
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return nil, nil, false
	}
	return e, l, true
}

func (h *handler) lookupGraph(w http.ResponseWriter, r *http.Request) (*nav.Graph, bool) {
	e, l, ok := h.lookupLayer(w, r)
	if !ok {
		return nil, false
	}
	g, ok := e.Graphs[l.Name()]
	if !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("no graph for layer %s", l.Name()))
		return nil, false
	}
	return g, true
}

func pointParams(r *http.Request) (coord.Point, error) {
	x, err := strconv.Atoi(chi.URLParam(r, "x"))
	if err != nil {
		return coord.Point{}, errors.New("invalid x coordinate")
	}
	y, err := strconv.Atoi(chi.URLParam(r, "y"))
	if err != nil {
		return coord.Point{}, errors.New("invalid y coordinate")
	}
	return coord.Pt(x, y), nil
}

// parsePoint parses "x,y".
func parsePoint(s string) (coord.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return coord.Point{}, fmt.Errorf("want x,y, got %q", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return coord.Point{}, fmt.Errorf("invalid x coordinate %q", xs)
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return coord.Point{}, fmt.Errorf("invalid y coordinate %q", ys)
	}
	return coord.Pt(x, y), nil
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError writes an error JSON response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
