package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/l1jgo/tilemap/internal/source"
	"go.uber.org/zap"
)

// MapSummary is one row of the stored map listing.
type MapSummary struct {
	Name        string
	Fingerprint string
	Layers      int
	UpdatedAt   time.Time
}

// MapRepo stores the attribute records a map is rebuilt from.
type MapRepo struct {
	db *DB
}

func NewMapRepo(db *DB) *MapRepo {
	return &MapRepo{db: db}
}

// Save replaces every stored record of doc.Name in a single transaction.
func (r *MapRepo) Save(ctx context.Context, doc *source.Document) error {
	fp, err := doc.Fingerprint()
	if err != nil {
		return err
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("save map %s begin: %w", doc.Name, err)
	}
	defer tx.Rollback(ctx)

	// cascades to tilesets, tiles, layers and chunks
	if _, err := tx.Exec(ctx, `DELETE FROM map_documents WHERE name = $1`, doc.Name); err != nil {
		return fmt.Errorf("save map %s clear: %w", doc.Name, err)
	}

	props := doc.Properties
	if props == nil {
		props = map[string]string{}
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO map_documents (name, orientation, stagger_axis, stagger_index,
		        width, height, tile_width, tile_height, infinite, properties, fingerprint)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		doc.Name, doc.Orientation, doc.StaggerAxis, doc.StaggerIndex,
		doc.Width, doc.Height, doc.TileWidth, doc.TileHeight, doc.Infinite, props, fp,
	); err != nil {
		return fmt.Errorf("save map %s: %w", doc.Name, err)
	}

	for i, ts := range doc.Tilesets {
		if _, err := tx.Exec(ctx,
			`INSERT INTO map_tilesets (map_name, position, name, first_gid, tile_count,
			        tile_width, tile_height, columns, source)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			doc.Name, i, ts.Name, int64(ts.FirstGID), int64(ts.TileCount),
			ts.TileWidth, ts.TileHeight, ts.Columns, ts.Source,
		); err != nil {
			return fmt.Errorf("save tileset %s: %w", ts.Name, err)
		}
		for _, t := range ts.Tiles {
			tprops := t.Properties
			if tprops == nil {
				tprops = map[string]string{}
			}
			anim := t.Animation
			if anim == nil {
				anim = []source.FrameRecord{}
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO map_tiles (map_name, tileset_name, local_id, tile_type,
				        width, height, properties, animation)
				 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
				doc.Name, ts.Name, int64(t.ID), t.Type, t.Width, t.Height, tprops, anim,
			); err != nil {
				return fmt.Errorf("save tile %s#%d: %w", ts.Name, t.ID, err)
			}
		}
	}

	for i, l := range doc.Layers {
		if _, err := tx.Exec(ctx,
			`INSERT INTO map_layers (map_name, position, name, width, height, data)
			 VALUES ($1,$2,$3,$4,$5,$6)`,
			doc.Name, i, l.Name, l.Width, l.Height, toInt64s(l.Data),
		); err != nil {
			return fmt.Errorf("save layer %s: %w", l.Name, err)
		}
		for j, c := range l.Chunks {
			if _, err := tx.Exec(ctx,
				`INSERT INTO map_chunks (map_name, layer_name, position, x, y, width, height, data)
				 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
				doc.Name, l.Name, j, c.X, c.Y, c.Width, c.Height, toInt64s(c.Data),
			); err != nil {
				return fmt.Errorf("save layer %s chunk %d: %w", l.Name, j, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("save map %s commit: %w", doc.Name, err)
	}
	r.db.log.Info("map saved", zap.String("map", doc.Name), zap.String("fingerprint", fp))
	return nil
}

// Load rebuilds a document from its stored records. Returns nil, nil when
// no map with that name is stored.
func (r *MapRepo) Load(ctx context.Context, name string) (*source.Document, error) {
	doc := &source.Document{Name: name}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT orientation, stagger_axis, stagger_index, width, height,
		        tile_width, tile_height, infinite, properties
		 FROM map_documents WHERE name = $1`, name,
	).Scan(&doc.Orientation, &doc.StaggerAxis, &doc.StaggerIndex, &doc.Width, &doc.Height,
		&doc.TileWidth, &doc.TileHeight, &doc.Infinite, &doc.Properties)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load map %s: %w", name, err)
	}
	if len(doc.Properties) == 0 {
		doc.Properties = nil
	}

	if err := r.loadTilesets(ctx, doc); err != nil {
		return nil, err
	}
	if err := r.loadLayers(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *MapRepo) loadTilesets(ctx context.Context, doc *source.Document) error {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT name, first_gid, tile_count, tile_width, tile_height, columns, source
		 FROM map_tilesets WHERE map_name = $1 ORDER BY position`, doc.Name,
	)
	if err != nil {
		return fmt.Errorf("load tilesets of %s: %w", doc.Name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			ts              source.TilesetRecord
			firstGID, count int64
		)
		if err := rows.Scan(&ts.Name, &firstGID, &count, &ts.TileWidth, &ts.TileHeight, &ts.Columns, &ts.Source); err != nil {
			return fmt.Errorf("scan tileset: %w", err)
		}
		ts.FirstGID, ts.TileCount = uint32(firstGID), uint32(count)
		doc.Tilesets = append(doc.Tilesets, ts)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	tileRows, err := r.db.Pool.Query(ctx,
		`SELECT tileset_name, local_id, tile_type, width, height, properties, animation
		 FROM map_tiles WHERE map_name = $1 ORDER BY tileset_name, local_id`, doc.Name,
	)
	if err != nil {
		return fmt.Errorf("load tiles of %s: %w", doc.Name, err)
	}
	defer tileRows.Close()

	for tileRows.Next() {
		var (
			tsName string
			id     int64
			t      source.TileRecord
		)
		if err := tileRows.Scan(&tsName, &id, &t.Type, &t.Width, &t.Height, &t.Properties, &t.Animation); err != nil {
			return fmt.Errorf("scan tile: %w", err)
		}
		t.ID = uint32(id)
		if len(t.Properties) == 0 {
			t.Properties = nil
		}
		if len(t.Animation) == 0 {
			t.Animation = nil
		}
		ts, ok := doc.Tileset(tsName)
		if !ok {
			return fmt.Errorf("tile %s#%d: tileset not stored", tsName, id)
		}
		ts.Tiles = append(ts.Tiles, t)
	}
	return tileRows.Err()
}

func (r *MapRepo) loadLayers(ctx context.Context, doc *source.Document) error {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT name, width, height, data
		 FROM map_layers WHERE map_name = $1 ORDER BY position`, doc.Name,
	)
	if err != nil {
		return fmt.Errorf("load layers of %s: %w", doc.Name, err)
	}
	defer rows.Close()

	index := make(map[string]int)
	for rows.Next() {
		var (
			l    source.LayerRecord
			data []int64
		)
		if err := rows.Scan(&l.Name, &l.Width, &l.Height, &data); err != nil {
			return fmt.Errorf("scan layer: %w", err)
		}
		l.Data = fromInt64s(data)
		index[l.Name] = len(doc.Layers)
		doc.Layers = append(doc.Layers, l)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	chunkRows, err := r.db.Pool.Query(ctx,
		`SELECT layer_name, x, y, width, height, data
		 FROM map_chunks WHERE map_name = $1 ORDER BY layer_name, position`, doc.Name,
	)
	if err != nil {
		return fmt.Errorf("load chunks of %s: %w", doc.Name, err)
	}
	defer chunkRows.Close()

	for chunkRows.Next() {
		var (
			layerName string
			c         source.ChunkRecord
			data      []int64
		)
		if err := chunkRows.Scan(&layerName, &c.X, &c.Y, &c.Width, &c.Height, &data); err != nil {
			return fmt.Errorf("scan chunk: %w", err)
		}
		c.Data = fromInt64s(data)
		i, ok := index[layerName]
		if !ok {
			return fmt.Errorf("chunk of %s: layer not stored", layerName)
		}
		doc.Layers[i].Chunks = append(doc.Layers[i].Chunks, c)
	}
	return chunkRows.Err()
}

// List returns every stored map ordered by name.
func (r *MapRepo) List(ctx context.Context) ([]MapSummary, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT d.name, d.fingerprint, d.updated_at,
		        (SELECT count(*) FROM map_layers l WHERE l.map_name = d.name)
		 FROM map_documents d
		 ORDER BY d.name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []MapSummary
	for rows.Next() {
		var s MapSummary
		if err := rows.Scan(&s.Name, &s.Fingerprint, &s.UpdatedAt, &s.Layers); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// Fingerprint returns the stored fingerprint of a map, or "" when absent.
func (r *MapRepo) Fingerprint(ctx context.Context, name string) (string, error) {
	var fp string
	err := r.db.Pool.QueryRow(ctx,
		`SELECT fingerprint FROM map_documents WHERE name = $1`, name,
	).Scan(&fp)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return fp, nil
}

// Delete removes a stored map. It reports whether anything was deleted.
func (r *MapRepo) Delete(ctx context.Context, name string) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM map_documents WHERE name = $1`, name)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func toInt64s(v []uint32) []int64 {
	out := make([]int64, len(v))
	for i, x := range v {
		out[i] = int64(x)
	}
	return out
}

func fromInt64s(v []int64) source.Indices {
	if len(v) == 0 {
		return nil
	}
	out := make(source.Indices, len(v))
	for i, x := range v {
		out[i] = uint32(x)
	}
	return out
}
