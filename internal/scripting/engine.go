package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/l1jgo/tilemap/internal/coord"
	"github.com/l1jgo/tilemap/internal/gid"
	"github.com/l1jgo/tilemap/internal/layer"
	"github.com/l1jgo/tilemap/internal/tileset"
	"github.com/sasha-s/go-deadlock"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

const (
	fnClassify = "classify_tile"
	fnMakeTile = "make_tile"
)

// Engine wraps a single gopher-lua VM for tile classification and tile
// construction. Calls are serialized; the VM is not safe for parallel use.
type Engine struct {
	mu       deadlock.Mutex
	vm       *lua.LState
	fallback tileset.Classifier
	log      *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given
// directory. fallback classifies tiles when no classify_tile is defined or
// the script fails; nil means tileset.DefaultClassifier.
func NewEngine(scriptsDir string, fallback tileset.Classifier, log *zap.Logger) (*Engine, error) {
	if fallback == nil {
		fallback = tileset.DefaultClassifier
	}
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, fallback: fallback, log: log}

	// Top-level scripts first, then the optional sub-directories
	for _, dir := range []string{scriptsDir, filepath.Join(scriptsDir, "tiles")} {
		if err := e.loadDir(dir); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load scripts: %w", err)
		}
	}

	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// HasClassifier reports whether the scripts define classify_tile.
func (e *Engine) HasClassifier() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vm.GetGlobal(fnClassify) != lua.LNil
}

// Classify calls the Lua classify_tile function. The script receives the
// tile record and returns {walkable=bool, obstacle=bool, weight=number};
// a missing weight keeps the neutral 1.0.
func (e *Engine) Classify(td *tileset.TileData) tileset.Classification {
	e.mu.Lock()
	defer e.mu.Unlock()

	fn := e.vm.GetGlobal(fnClassify)
	if fn == lua.LNil {
		return e.fallback.Classify(td)
	}

	rt, err := e.call(fn, e.tileTable(td))
	if err != nil {
		e.log.Error("lua classify_tile error", zap.Uint32("tile", td.LocalID), zap.Error(err))
		return e.fallback.Classify(td)
	}

	out := tileset.Classification{
		Walkable: lua.LVAsBool(rt.RawGetString("walkable")),
		Obstacle: lua.LVAsBool(rt.RawGetString("obstacle")),
		Weight:   tileset.DefaultWeight,
	}
	if w, ok := rt.RawGetString("weight").(lua.LNumber); ok {
		out.Weight = float32(w)
	}
	return out
}

// ScriptedTile is the tile representation produced by make_tile.
type ScriptedTile struct {
	Pos   coord.Point
	Ref   tileset.Ref
	Flags gid.Flags
	Kind  string
	Attrs map[string]string
}

// NewTile calls the Lua make_tile function with the placed tile. The
// returned table's "kind" names the tile; every other string or number field
// is kept in Attrs. Without make_tile, or when it fails, the kind is the
// tile's type ("tile" when untyped).
func (e *Engine) NewTile(ref layer.TileRef, td *tileset.TileData) (ScriptedTile, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := ScriptedTile{
		Pos:   ref.Pos,
		Ref:   ref.Ref(),
		Flags: ref.Flags,
		Kind:  td.Type,
		Attrs: map[string]string{},
	}
	if st.Kind == "" {
		st.Kind = "tile"
	}

	fn := e.vm.GetGlobal(fnMakeTile)
	if fn == lua.LNil {
		return st, nil
	}

	t := e.tileTable(td)
	t.RawSetString("tileset", lua.LString(ref.Tileset))
	t.RawSetString("x", lua.LNumber(ref.Pos.X))
	t.RawSetString("y", lua.LNumber(ref.Pos.Y))
	t.RawSetString("flip_h", lua.LBool(ref.Flags.Horizontal()))
	t.RawSetString("flip_v", lua.LBool(ref.Flags.Vertical()))
	t.RawSetString("flip_d", lua.LBool(ref.Flags.Diagonal()))

	rt, err := e.call(fn, t)
	if err != nil {
		e.log.Error("lua make_tile error", zap.Stringer("pos", ref.Pos), zap.Error(err))
		return st, nil
	}

	if kind := lStr(rt, "kind"); kind != "" {
		st.Kind = kind
	}
	rt.ForEach(func(k, v lua.LValue) {
		key, ok := k.(lua.LString)
		if !ok || key == "kind" {
			return
		}
		switch v.Type() {
		case lua.LTString, lua.LTNumber, lua.LTBool:
			st.Attrs[string(key)] = v.String()
		}
	})
	return st, nil
}

// tileTable packs a tile record for Lua.
func (e *Engine) tileTable(td *tileset.TileData) *lua.LTable {
	t := e.vm.NewTable()
	t.RawSetString("id", lua.LNumber(td.LocalID))
	t.RawSetString("type", lua.LString(td.Type))
	t.RawSetString("width", lua.LNumber(td.Width))
	t.RawSetString("height", lua.LNumber(td.Height))
	t.RawSetString("animated", lua.LBool(td.Animated()))
	t.RawSetString("frames", lua.LNumber(td.FrameCount()))

	props := e.vm.NewTable()
	for k, v := range td.Properties.All() {
		props.RawSetString(k, lua.LString(v))
	}
	t.RawSetString("properties", props)
	return t
}

// call runs fn with one argument and expects a single table result.
func (e *Engine) call(fn lua.LValue, arg lua.LValue) (*lua.LTable, error) {
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, arg); err != nil {
		return nil, err
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("returned %s, want table", result.Type())
	}
	return rt, nil
}

func lStr(t *lua.LTable, key string) string {
	v := t.RawGetString(key)
	if v == lua.LNil {
		return ""
	}
	return v.String()
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vm.Close()
}
