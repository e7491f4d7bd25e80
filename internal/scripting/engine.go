package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xrplace/sandbox/internal/xr"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for tunable frame logic.
// Single-goroutine access only (frame loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads every script under the core,
// spin and input subdirectories of scriptsDir. Missing directories are
// skipped; a script that fails to load is an error.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	for _, sub := range []string{"core", "spin", "input"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}
	return e, nil
}

// LoadString runs a chunk of Lua source in the engine's VM.
func (e *Engine) LoadString(src string) error {
	if err := e.vm.DoString(src); err != nil {
		return fmt.Errorf("load lua chunk: %w", err)
	}
	return nil
}

func (e *Engine) Close() { e.vm.Close() }

func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
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

// HasFunction reports whether a global Lua function is defined.
func (e *Engine) HasFunction(name string) bool {
	_, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

// SpinContext is passed to calc_spin_speed.
type SpinContext struct {
	Distance    float64
	MaxSpeed    float64
	Factor      float64
	MinDistance float64
}

// CalcSpinSpeed calls Lua calc_spin_speed(ctx). ok is false when the
// function is missing, fails, or returns a non-number; callers then use
// their built-in formula.
func (e *Engine) CalcSpinSpeed(ctx SpinContext) (speed float64, ok bool) {
	fn, isFn := e.vm.GetGlobal("calc_spin_speed").(*lua.LFunction)
	if !isFn {
		return 0, false
	}

	t := e.vm.NewTable()
	t.RawSetString("distance", lua.LNumber(ctx.Distance))
	t.RawSetString("max_speed", lua.LNumber(ctx.MaxSpeed))
	t.RawSetString("factor", lua.LNumber(ctx.Factor))
	t.RawSetString("min_distance", lua.LNumber(ctx.MinDistance))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua calc_spin_speed error", zap.Error(err))
		return 0, false
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	n, isNum := result.(lua.LNumber)
	if !isNum {
		e.log.Error("lua calc_spin_speed returned non-number", zap.String("type", result.Type().String()))
		return 0, false
	}
	return float64(n), true
}

// Trigger calls Lua scripted_trigger(frame, hand). A nil result leaves the
// pad alone. It lets the emulator replay a scripted session.
func (e *Engine) Trigger(frame uint64, hand xr.Handedness) (pressed bool, ok bool) {
	fn, isFn := e.vm.GetGlobal("scripted_trigger").(*lua.LFunction)
	if !isFn {
		return false, false
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lua.LNumber(frame), lua.LString(hand)); err != nil {
		e.log.Error("lua scripted_trigger error", zap.Error(err))
		return false, false
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	if result == lua.LNil {
		return false, false
	}
	return lua.LVAsBool(result), true
}
