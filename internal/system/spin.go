package system

import (
	"math"
	"time"

	"github.com/xrplace/sandbox/internal/component"
	"github.com/xrplace/sandbox/internal/config"
	"github.com/xrplace/sandbox/internal/core/ecs"
	coresys "github.com/xrplace/sandbox/internal/core/system"
	"github.com/xrplace/sandbox/internal/scripting"
	"github.com/xrplace/sandbox/internal/world"
)

// SpinScript can override the spin formula. *scripting.Engine implements it.
type SpinScript interface {
	CalcSpinSpeed(ctx scripting.SpinContext) (float64, bool)
}

// SpinSpeed is the built-in formula: factor/distance capped at max speed.
// Distances below the configured floor count as the floor, so zero and
// negative distances give max speed.
func SpinSpeed(distance float64, cfg config.SpinConfig) float64 {
	d := math.Max(distance, cfg.MinDistance)
	return math.Min(cfg.MaxSpeed, cfg.DistanceFactor/d)
}

// SpinSystem turns every spinnable about its vertical axis, faster the
// closer the viewer is. Speed is recomputed every frame from the live
// distance. Phase 3 (Spin).
type SpinSystem struct {
	ws     *world.State
	cfg    config.SpinConfig
	script SpinScript
}

// NewSpinSystem creates the spin system. script may be nil.
func NewSpinSystem(ws *world.State, cfg config.SpinConfig, script SpinScript) *SpinSystem {
	return &SpinSystem{ws: ws, cfg: cfg, script: script}
}

func (s *SpinSystem) Phase() coresys.Phase { return coresys.PhaseSpin }

func (s *SpinSystem) Update(dt time.Duration) {
	viewer := s.ws.ViewerPosition()
	sec := dt.Seconds()
	s.ws.C.Spinners.Each(func(_ ecs.EntityID, sp *component.Spinnable) {
		d := sp.Object.WorldPosition().Sub(viewer).Len()
		sp.AngularSpeed = s.speed(d)
		sp.Object.RotateY(sp.AngularSpeed * sec)
	})
}

func (s *SpinSystem) speed(distance float64) float64 {
	if s.script != nil {
		v, ok := s.script.CalcSpinSpeed(scripting.SpinContext{
			Distance:    distance,
			MaxSpeed:    s.cfg.MaxSpeed,
			Factor:      s.cfg.DistanceFactor,
			MinDistance: s.cfg.MinDistance,
		})
		if ok && !math.IsNaN(v) && !math.IsInf(v, 0) {
			return v
		}
	}
	return SpinSpeed(distance, s.cfg)
}
