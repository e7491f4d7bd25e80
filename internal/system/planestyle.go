package system

import (
	"math/rand"
	"time"

	coresys "github.com/xrplace/sandbox/internal/core/system"
	"github.com/xrplace/sandbox/internal/scene"
	"github.com/xrplace/sandbox/internal/world"
)

const planeOpacity = 0.3

// PlaneStyleSystem gives every detected plane a random translucent colour.
// Phase 4 (Present).
type PlaneStyleSystem struct {
	ws    *world.State
	rng   *rand.Rand
	fresh []*scene.Node
}

func NewPlaneStyleSystem(ws *world.State, rng *rand.Rand) *PlaneStyleSystem {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	s := &PlaneStyleSystem{ws: ws, rng: rng}
	ws.Runtime.OnPlaneAdded(func(plane *scene.Node) {
		ws.Async.Post(func() { s.fresh = append(s.fresh, plane) })
	})
	return s
}

func (s *PlaneStyleSystem) Phase() coresys.Phase { return coresys.PhasePresent }

func (s *PlaneStyleSystem) Update(_ time.Duration) {
	for _, plane := range s.fresh {
		Style(plane, uint32(s.rng.Int63n(0x1000000)))
	}
	s.fresh = s.fresh[:0]
}

// Style applies the plane look with the given 24-bit colour.
func Style(plane *scene.Node, color uint32) {
	plane.Material = &scene.Material{
		Color:       color & 0xffffff,
		Opacity:     planeOpacity,
		Transparent: true,
		DoubleSided: true,
	}
}
