package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xrplace/sandbox/internal/xr"
	"go.uber.org/zap"
)

func newEngine(t *testing.T, dir string) *Engine {
	t.Helper()
	e, err := NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestShippedSpinScript(t *testing.T) {
	e := newEngine(t, filepath.Join("..", "..", "scripts"))
	if !e.HasFunction("calc_spin_speed") {
		t.Fatalf("shipped calc_spin_speed not found")
	}
	base := SpinContext{MaxSpeed: 10, Factor: 2, MinDistance: 0.2}

	cases := []struct {
		distance, want float64
	}{
		{0, 10},
		{0.1, 10},
		{0.2, 10},
		{1, 2},
		{4, 0.5},
	}
	for _, c := range cases {
		ctx := base
		ctx.Distance = c.distance
		got, ok := e.CalcSpinSpeed(ctx)
		if !ok || got != c.want {
			t.Fatalf("distance %v: got %v ok=%v, want %v", c.distance, got, ok, c.want)
		}
	}
}

func TestShippedInputScript(t *testing.T) {
	e := newEngine(t, filepath.Join("..", "..", "scripts"))
	if p, ok := e.Trigger(72, xr.HandRight); !ok || !p {
		t.Fatalf("right hand frame 72 = %v %v", p, ok)
	}
	if p, ok := e.Trigger(80, xr.HandRight); !ok || p {
		t.Fatalf("right hand frame 80 = %v %v", p, ok)
	}
	if _, ok := e.Trigger(1, xr.HandNone); ok {
		t.Fatalf("unknown hand must leave the pad alone")
	}
}

func TestMissingFunctionsFallBack(t *testing.T) {
	e := newEngine(t, t.TempDir())
	if e.HasFunction("calc_spin_speed") {
		t.Fatalf("calc_spin_speed reported in an empty script dir")
	}
	if _, ok := e.CalcSpinSpeed(SpinContext{Distance: 1}); ok {
		t.Fatalf("missing calc_spin_speed reported ok")
	}
	if _, ok := e.Trigger(1, xr.HandRight); ok {
		t.Fatalf("missing scripted_trigger reported ok")
	}
}

func TestScriptErrorsFallBack(t *testing.T) {
	e := newEngine(t, t.TempDir())
	if err := e.LoadString(`function calc_spin_speed(ctx) error("boom") end`); err != nil {
		t.Fatal(err)
	}
	if _, ok := e.CalcSpinSpeed(SpinContext{Distance: 1}); ok {
		t.Fatalf("failing script reported ok")
	}
	if err := e.LoadString(`function calc_spin_speed(ctx) return "fast" end`); err != nil {
		t.Fatal(err)
	}
	if _, ok := e.CalcSpinSpeed(SpinContext{Distance: 1}); ok {
		t.Fatalf("non-number result reported ok")
	}
}

func TestBrokenScriptFailsLoad(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "spin"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "spin", "bad.lua"), []byte("function ("), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewEngine(dir, zap.NewNop()); err == nil {
		t.Fatalf("expected load error")
	}
}
