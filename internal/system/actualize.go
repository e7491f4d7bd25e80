package system

import (
	"fmt"
	"time"

	"github.com/xrplace/sandbox/internal/component"
	"github.com/xrplace/sandbox/internal/core/async"
	"github.com/xrplace/sandbox/internal/core/ecs"
	"github.com/xrplace/sandbox/internal/core/event"
	coresys "github.com/xrplace/sandbox/internal/core/system"
	"github.com/xrplace/sandbox/internal/scene"
	"github.com/xrplace/sandbox/internal/world"
	"github.com/xrplace/sandbox/internal/xr"
	"go.uber.org/zap"
)

// anchorTask is a realized object waiting for its anchor.
type anchorTask struct {
	request *component.SpawnRequest
	object  *scene.Node
	spinner ecs.EntityID
	proto   string
}

// ActualizerSystem consumes SpawnRequest entities in arrival order. Each
// request is consumed exactly once: its entity is destroyed whether or not
// an object results. Phase 2 (Actualize).
type ActualizerSystem struct {
	ws      *world.State
	log     *zap.Logger
	pending *async.Pending[anchorTask]

	dropped int
	lag     uint64
}

func NewActualizerSystem(ws *world.State, log *zap.Logger) *ActualizerSystem {
	return &ActualizerSystem{
		ws:      ws,
		log:     log,
		pending: async.NewPending[anchorTask](),
	}
}

func (s *ActualizerSystem) Phase() coresys.Phase { return coresys.PhaseActualize }

// Dropped counts requests consumed without an object because the selected
// prototype was not loaded.
func (s *ActualizerSystem) Dropped() int { return s.dropped }

// Lag is the largest number of frames a request waited before it was
// consumed.
func (s *ActualizerSystem) Lag() uint64 { return s.lag }

// AwaitingAnchors is the number of objects whose anchor is still pending.
func (s *ActualizerSystem) AwaitingAnchors() int { return s.pending.Len() }

func (s *ActualizerSystem) Update(_ time.Duration) {
	for _, id := range s.ws.C.Spawns.Entities() {
		req, ok := s.ws.C.Spawns.Get(id)
		s.ws.C.Spawns.Remove(id)
		s.ws.ECS.MarkForDestruction(id)
		if !ok {
			continue
		}
		if d := s.ws.Frame() - req.Frame; d > s.lag {
			s.lag = d
		}
		s.realize(req)
	}
}

func (s *ActualizerSystem) realize(req *component.SpawnRequest) {
	name := s.ws.Controls.SelectedModel()
	proto := s.ws.Scene.FindByName(name)
	if proto == nil {
		s.dropped++
		s.log.Warn("prototype not loaded, spawn request dropped",
			zap.String("prototype", name), zap.Uint64("request", req.ID))
		return
	}

	obj := proto.Clone()
	obj.Name = fmt.Sprintf("%s#%d", name, req.ID)
	scale := proto.ARScale
	if scale == 0 {
		scale = 1
	}
	obj.SetScalar(scale)
	obj.XROnly = true
	obj.Visible = s.ws.Runtime.IsPresenting()

	spinner := s.ws.ECS.CreateEntity()
	s.ws.C.Spinners.Set(spinner, &component.Spinnable{Object: obj})

	if !s.ws.Controls.UseAnchor() {
		obj.Position = req.Position
		obj.Rotation = req.Orientation
		s.ws.Scene.Add(obj)
		s.realized(req, spinner, name, false)
		return
	}

	task := s.pending.Start(anchorTask{request: req, object: obj, spinner: spinner, proto: name})
	pose := xr.Pose{Position: req.Position, Orientation: req.Orientation}
	s.ws.Runtime.CreateAnchor(pose, async.Deliver(s.ws.Async, func(anchor *scene.Node, err error) {
		s.onAnchor(task, anchor, err)
	}))
}

func (s *ActualizerSystem) onAnchor(id async.ID, anchor *scene.Node, err error) {
	t, ok := s.pending.Resolve(id)
	if !ok {
		return
	}
	if err != nil || anchor == nil {
		// The object never enters the scene; stop spinning it.
		s.ws.C.Spinners.Remove(t.spinner)
		s.ws.ECS.MarkForDestruction(t.spinner)
		s.log.Debug("anchor creation failed", zap.Uint64("request", t.request.ID), zap.Error(err))
		event.Emit(s.ws.Bus, event.AnchorFailed{RequestID: t.request.ID, Err: err})
		return
	}
	// The session may have ended while the anchor was pending.
	t.object.Visible = s.ws.Runtime.IsPresenting()
	anchor.Add(t.object)
	s.realized(t.request, t.spinner, t.proto, true)
}

func (s *ActualizerSystem) realized(req *component.SpawnRequest, spinner ecs.EntityID, proto string, anchored bool) {
	event.Emit(s.ws.Bus, event.ObjectRealized{
		RequestID:   req.ID,
		Entity:      spinner,
		Prototype:   proto,
		Hand:        string(req.Hand),
		Position:    req.Position,
		Orientation: req.Orientation,
		Anchored:    anchored,
	})
	s.log.Debug("object realized",
		zap.Uint64("request", req.ID),
		zap.String("prototype", proto),
		zap.Bool("anchored", anchored))
}
