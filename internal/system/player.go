package system

import (
	"sort"
	"time"

	"github.com/xrplace/sandbox/internal/component"
	coresys "github.com/xrplace/sandbox/internal/core/system"
	"github.com/xrplace/sandbox/internal/scene"
	"github.com/xrplace/sandbox/internal/world"
	"github.com/xrplace/sandbox/internal/xr"
	"github.com/xrplace/sandbox/internal/xr/gamepad"
	"go.uber.org/zap"
)

// controllerSlots is how many controller slots the runtime exposes.
const controllerSlots = 2

// PlayerSystem owns the single Player entity: it creates it on the first
// frame, keeps the controller map in step with connect/disconnect events
// and snapshots every gamepad once per frame. Phase 0 (Input).
type PlayerSystem struct {
	ws  *world.State
	log *zap.Logger
}

func NewPlayerSystem(ws *world.State, log *zap.Logger) *PlayerSystem {
	return &PlayerSystem{ws: ws, log: log}
}

func (s *PlayerSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *PlayerSystem) Update(_ time.Duration) {
	_, player, ok := s.ws.C.Players.First()
	if !ok {
		s.setup()
		return
	}
	for _, c := range player.Controllers {
		c.Gamepad.Update()
	}
}

func (s *PlayerSystem) setup() {
	rt := s.ws.Runtime
	player := &component.Player{
		Space:       scene.NewGroup("player-space"),
		Controllers: make(map[xr.Handedness]*component.ControllerRef, controllerSlots),
	}
	player.Space.Add(s.ws.Camera.Node)
	s.ws.Scene.Add(player.Space)

	for i := 0; i < controllerSlots; i++ {
		ray, grip := rt.Controller(i)
		if ray == nil || grip == nil {
			continue
		}
		if grip.FindByName("controller-model") == nil {
			grip.Add(scene.NewNode("controller-model", scene.KindController))
		}
		ray.Visible = false
		grip.Visible = false
		s.ws.Scene.Add(grip)
		s.ws.Scene.Add(ray)
	}

	// Connection events may arrive on any goroutine; apply them on the loop.
	rt.OnControllerConnected(func(e xr.ControllerEvent) {
		s.ws.Async.Post(func() { s.connect(player, e) })
	})
	rt.OnControllerDisconnected(func(e xr.ControllerEvent) {
		s.ws.Async.Post(func() { s.disconnect(player, e) })
	})

	id := s.ws.ECS.CreateEntity()
	s.ws.C.Players.Set(id, player)
	s.log.Debug("player created", zap.Uint64("entity", uint64(id)))
}

func (s *PlayerSystem) connect(p *component.Player, e xr.ControllerEvent) {
	ray, grip := s.ws.Runtime.Controller(e.Index)
	if ray == nil || e.Gamepad == nil {
		return
	}
	ray.Visible = true
	grip.Visible = true
	p.Controllers[e.Handedness] = &component.ControllerRef{
		Index:     e.Index,
		Hand:      e.Handedness,
		RaySpace:  ray,
		GripSpace: grip,
		Gamepad:   gamepad.NewWrapper(e.Gamepad),
	}
	s.log.Info("controller connected", zap.String("hand", string(e.Handedness)), zap.Int("slot", e.Index))
}

func (s *PlayerSystem) disconnect(p *component.Player, e xr.ControllerEvent) {
	for hand, c := range p.Controllers {
		if c.Index != e.Index {
			continue
		}
		c.RaySpace.Visible = false
		c.GripSpace.Visible = false
		delete(p.Controllers, hand)
		s.log.Info("controller disconnected", zap.String("hand", string(hand)), zap.Int("slot", e.Index))
	}
}

// sortedControllers returns controllers by slot so per-frame work does not
// depend on map order.
func sortedControllers(p *component.Player) []*component.ControllerRef {
	out := make([]*component.ControllerRef, 0, len(p.Controllers))
	for _, c := range p.Controllers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}
