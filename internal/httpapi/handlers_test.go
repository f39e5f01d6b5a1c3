package httpapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/l1jgo/tilemap/internal/httpapi"
	"github.com/l1jgo/tilemap/internal/source"
	"github.com/l1jgo/tilemap/internal/tilemap"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const yardDoc = `
name: yard
width: 3
height: 2
tilesets:
  - name: terrain
    first_gid: 1
    tile_count: 4
    tiles:
      - {id: 0, type: grass, properties: {walkable: "true"}}
      - {id: 1, type: wall, properties: {obstacle: "true"}}
      - {id: 2, type: mud, properties: {walkable: "true", weight: "2"}}
layers:
  - name: ground
    data: [1, 3, 2, 2147483649, 1, 50]
`

func buildYard(ctx context.Context, name string) (*tilemap.Map, error) {
	if name != "yard" {
		return nil, nil
	}
	doc, err := source.Parse([]byte(yardDoc), ".")
	if err != nil {
		return nil, err
	}
	return tilemap.Build(doc)
}

func newServer(t *testing.T, load httpapi.Loader) (*httpapi.Catalog, *httptest.Server) {
	t.Helper()
	log := zaptest.NewLogger(t)
	c := httpapi.NewCatalog(load, false, log)
	m, err := buildYard(context.Background(), "yard")
	require.NoError(t, err)
	require.NoError(t, c.Put(context.Background(), m))

	srv := httptest.NewServer(httpapi.NewRouter(c, log))
	t.Cleanup(srv.Close)
	return c, srv
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestListMaps(t *testing.T) {
	_, srv := newServer(t, buildYard)

	var maps []struct {
		Name   string `json:"name"`
		Layers []struct {
			Name   string `json:"name"`
			Mode   string `json:"mode"`
			Tiles  int    `json:"tiles"`
			Failed int    `json:"failed"`
			Nodes  int    `json:"nodes"`
		} `json:"layers"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/maps", &maps))
	require.Len(t, maps, 1)
	require.Equal(t, "yard", maps[0].Name)
	require.Len(t, maps[0].Layers, 1)

	l := maps[0].Layers[0]
	require.Equal(t, "dense", l.Mode)
	require.Equal(t, 5, l.Tiles)
	require.Equal(t, 1, l.Failed)
	// grass and mud tiles only: (0,0), (1,0), (0,1) and (1,1)
	require.Equal(t, 4, l.Nodes)
}

func TestGetTile(t *testing.T) {
	_, srv := newServer(t, buildYard)

	var tile struct {
		Tileset string  `json:"tileset"`
		LocalID uint32  `json:"local_id"`
		Type    string  `json:"type"`
		Weight  float32 `json:"weight"`
		Flags   struct {
			Horizontal bool `json:"horizontal"`
		} `json:"flags"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/maps/yard/layers/ground/tiles/0/1", &tile))
	require.Equal(t, "terrain", tile.Tileset)
	require.Equal(t, "grass", tile.Type)
	require.True(t, tile.Flags.Horizontal)

	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/maps/yard/layers/ground/tiles/1/0", &tile))
	require.Equal(t, "mud", tile.Type)
	require.Equal(t, float32(2), tile.Weight)

	require.Equal(t, http.StatusUnprocessableEntity, getJSON(t, srv.URL+"/maps/yard/layers/ground/tiles/2/1", nil))
	require.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/maps/yard/layers/ground/tiles/9/9", nil))
	require.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/maps/yard/layers/ground/tiles/a/0", nil))
	require.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/maps/yard/layers/roof/tiles/0/0", nil))
	require.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/maps/nope/layers/ground/tiles/0/0", nil))
}

func TestGetNode(t *testing.T) {
	_, srv := newServer(t, buildYard)

	var node struct {
		Weight    float32 `json:"weight"`
		Neighbors []struct {
			X int `json:"x"`
			Y int `json:"y"`
		} `json:"neighbors"`
		Reachable int `json:"reachable"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/maps/yard/layers/ground/nodes/0/0", &node))
	require.Equal(t, float32(1), node.Weight)
	require.Len(t, node.Neighbors, 2)
	require.Equal(t, 1, node.Neighbors[0].X)
	require.Equal(t, 0, node.Neighbors[0].Y)
	require.Equal(t, 0, node.Neighbors[1].X)
	require.Equal(t, 1, node.Neighbors[1].Y)
	require.Equal(t, 4, node.Reachable)

	// unresolved tile
	require.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/maps/yard/layers/ground/nodes/2/1", nil))
}

func TestGetCost(t *testing.T) {
	_, srv := newServer(t, buildYard)

	var cost struct {
		Adjacent  bool     `json:"adjacent"`
		Cost      *float32 `json:"cost"`
		Estimated float32  `json:"estimated"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/maps/yard/layers/ground/cost?from=1,1&to=1,0", &cost))
	require.True(t, cost.Adjacent)
	require.NotNil(t, cost.Cost)
	// 1 - |1 - 2|
	require.Equal(t, float32(0), *cost.Cost)
	require.Equal(t, float32(1), cost.Estimated)

	cost.Cost = nil
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/maps/yard/layers/ground/cost?from=0,0&to=1,1", &cost))
	require.False(t, cost.Adjacent)
	require.Nil(t, cost.Cost)
	require.Equal(t, float32(1), cost.Estimated)

	require.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/maps/yard/layers/ground/cost?from=1&to=1,0", nil))
	require.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/maps/yard/layers/ground/cost?from=0,0&to=2,1", nil))
}

func TestReload(t *testing.T) {
	c, srv := newServer(t, buildYard)
	before, ok := c.Get("yard")
	require.True(t, ok)

	resp, err := http.Post(srv.URL+"/maps/yard/reload", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	after, ok := c.Get("yard")
	require.True(t, ok)
	require.NotSame(t, before, after)

	resp, err = http.Post(srv.URL+"/maps/other/reload", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReloadFailureKeepsEntry(t *testing.T) {
	boom := errors.New("disk gone")
	c, srv := newServer(t, func(context.Context, string) (*tilemap.Map, error) { return nil, boom })
	before, _ := c.Get("yard")

	resp, err := http.Post(srv.URL+"/maps/yard/reload", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	after, _ := c.Get("yard")
	require.Same(t, before, after)
	require.Equal(t, []string{"yard"}, c.Names())
}
