package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gridshooter/gridshooter/internal/world"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM. Movers call it from many goroutines,
// so every VM access goes through mu.
type Engine struct {
	mu  sync.Mutex
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts under <scriptsDir>/ai.
// A missing directory leaves the engine empty, and every hook then reports
// no answer.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	dirs := vm.NewTable()
	for _, d := range world.Directions {
		dirs.RawSetString(d.String(), lua.LNumber(d))
	}
	vm.SetGlobal("DIR", dirs)

	e := &Engine{vm: vm, log: log.Named("lua")}

	if err := e.loadDir(filepath.Join(scriptsDir, "ai")); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load ai scripts: %w", err)
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

// LoadString runs a chunk of Lua source in the engine's VM.
func (e *Engine) LoadString(src string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vm.DoString(src)
}

// HasHook reports whether a global Lua function named name is defined.
func (e *Engine) HasHook(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

// MoveContext is what a wandering character knows when it picks a move.
type MoveContext struct {
	Kind   string
	X, Y   int
	Size   int
	Width  int
	Height int
	Step   int
}

// PickDirection calls pick_direction(ctx) and returns its answer. The second
// result is false when the hook is missing, fails, or answers anything other
// than a direction number 0..3; the caller then uses its own choice.
func (e *Engine) PickDirection(ctx MoveContext) (world.Direction, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fn := e.vm.GetGlobal("pick_direction")
	if fn == lua.LNil {
		return 0, false
	}

	t := e.vm.NewTable()
	t.RawSetString("kind", lua.LString(ctx.Kind))
	t.RawSetString("x", lua.LNumber(ctx.X))
	t.RawSetString("y", lua.LNumber(ctx.Y))
	t.RawSetString("size", lua.LNumber(ctx.Size))
	t.RawSetString("width", lua.LNumber(ctx.Width))
	t.RawSetString("height", lua.LNumber(ctx.Height))
	t.RawSetString("step", lua.LNumber(ctx.Step))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua pick_direction error", zap.Error(err))
		return 0, false
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	n, ok := result.(lua.LNumber)
	if !ok {
		return 0, false
	}
	d := world.Direction(int(n))
	if float64(n) != float64(int(n)) || int(n) < 0 || !d.Valid() {
		e.log.Warn("lua pick_direction returned invalid direction", zap.Float64("value", float64(n)))
		return 0, false
	}
	return d, true
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vm.Close()
}
