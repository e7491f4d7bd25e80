package system

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/xrplace/sandbox/internal/config"
	"github.com/xrplace/sandbox/internal/scripting"
	"github.com/xrplace/sandbox/internal/xr"
)

func TestSpinSpeedFormula(t *testing.T) {
	cfg := config.Defaults().Spin
	cases := []struct {
		distance, want float64
	}{
		{-1, 10},
		{0, 10},
		{0.1, 10},
		{0.2, 10},
		{0.5, 4},
		{1, 2},
		{4, 0.5},
	}
	for _, c := range cases {
		if got := SpinSpeed(c.distance, cfg); math.Abs(got-c.want) > 1e-12 {
			t.Fatalf("SpinSpeed(%v) = %v, want %v", c.distance, got, c.want)
		}
	}
}

func TestSpinSpeedMonotoneAndBounded(t *testing.T) {
	cfg := config.Defaults().Spin
	prev := math.Inf(1)
	for d := 0.0; d < 20; d += 0.01 {
		v := SpinSpeed(d, cfg)
		if v > cfg.MaxSpeed || v <= 0 {
			t.Fatalf("SpinSpeed(%v) = %v out of (0, %v]", d, v, cfg.MaxSpeed)
		}
		if v > prev {
			t.Fatalf("SpinSpeed increased at %v: %v > %v", d, v, prev)
		}
		prev = v
	}
}

type fixedScript struct {
	v  float64
	ok bool
}

func (f fixedScript) CalcSpinSpeed(scripting.SpinContext) (float64, bool) { return f.v, f.ok }

func TestSpinSystemUsesScriptThenFallsBack(t *testing.T) {
	cfg := config.Defaults().Spin
	cases := []struct {
		name   string
		script SpinScript
		want   float64
	}{
		{"none", nil, 2},
		{"override", fixedScript{v: 3, ok: true}, 3},
		{"declined", fixedScript{v: 3}, 2},
		{"nan", fixedScript{v: math.NaN(), ok: true}, 2},
	}
	for _, c := range cases {
		s := &SpinSystem{cfg: cfg, script: c.script}
		if got := s.speed(1); got != c.want {
			t.Fatalf("%s: speed = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestPlacedObjectSpinsFasterWhenViewerIsClose(t *testing.T) {
	h := newHarness(t, harnessOpts{})
	h.immersive()
	h.dev.MoveController(xr.HandRight, xr.Pose{Position: mgl64.Vec3{0, 1.6, -1}, Orientation: mgl64.QuatIdent()})
	h.click(xr.HandRight)

	_, sp, ok := h.ws.C.Spinners.First()
	if !ok {
		t.Fatalf("no spinner")
	}
	h.dev.SetHead(xr.Pose{Position: mgl64.Vec3{0, 1.6, 0}, Orientation: mgl64.QuatIdent()})
	h.step(1)
	far := sp.AngularSpeed
	if math.Abs(far-2) > 1e-9 {
		t.Fatalf("speed at 1m = %v, want 2", far)
	}

	h.dev.SetHead(xr.Pose{Position: mgl64.Vec3{0, 1.6, -0.9}, Orientation: mgl64.QuatIdent()})
	before := sp.Object.Rotation
	h.step(1)
	if sp.AngularSpeed != 10 {
		t.Fatalf("speed at 0.1m = %v, want 10", sp.AngularSpeed)
	}
	if sp.Object.Rotation.ApproxEqualThreshold(before, 1e-12) {
		t.Fatalf("object did not rotate")
	}
}
