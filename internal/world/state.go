package world

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/xrplace/sandbox/internal/component"
	"github.com/xrplace/sandbox/internal/core/async"
	"github.com/xrplace/sandbox/internal/core/ecs"
	"github.com/xrplace/sandbox/internal/core/event"
	"github.com/xrplace/sandbox/internal/data"
	"github.com/xrplace/sandbox/internal/scene"
	"github.com/xrplace/sandbox/internal/xr"
)

// Controls are the page toggles, read synchronously every frame.
type Controls interface {
	UseHitTest() bool
	UseAnchor() bool
	SelectedModel() string
}

// Components holds the typed stores every system shares.
type Components struct {
	Players  *ecs.Store[component.Player]
	Spawns   *ecs.Store[component.SpawnRequest]
	Spinners *ecs.Store[component.Spinnable]
}

// State is the explicit global context handed to every system: the scene,
// the preview camera, the XR runtime and the shared ECS stores. Created
// once at startup. Accessed only from the frame loop goroutine.
type State struct {
	Scene      *scene.Node
	Camera     *scene.Camera
	Runtime    xr.Runtime
	Controls   Controls
	Prototypes *data.PrototypeTable

	ECS   *ecs.World
	C     Components
	Bus   *event.Bus
	Async *async.Queue

	Now   func() time.Time
	frame uint64
}

// NewState builds the scene root (with the runtime's own subtree attached)
// and registers the component stores.
func NewState(rt xr.Runtime, controls Controls, prototypes *data.PrototypeTable, now func() time.Time) *State {
	if now == nil {
		now = time.Now
	}
	w := ecs.NewWorld()
	s := &State{
		Scene:      scene.NewGroup("scene"),
		Camera:     scene.NewCamera(50, 0.1, 10),
		Runtime:    rt,
		Controls:   controls,
		Prototypes: prototypes,
		ECS:        w,
		C: Components{
			Players:  ecs.Register[component.Player](w),
			Spawns:   ecs.Register[component.SpawnRequest](w),
			Spinners: ecs.Register[component.Spinnable](w),
		},
		Bus:   event.NewBus(),
		Async: async.NewQueue(),
		Now:   now,
	}
	if root := rt.Root(); root != nil {
		s.Scene.Add(root)
	}
	return s
}

// Frame is the number of the frame currently running.
func (s *State) Frame() uint64 { return s.frame }

// BeginFrame advances the frame counter; the frame driver calls it.
func (s *State) BeginFrame() uint64 {
	s.frame++
	return s.frame
}

// ViewerPosition is where distances are measured from: the headset while
// presenting, the preview camera otherwise.
func (s *State) ViewerPosition() mgl64.Vec3 {
	if s.Runtime.IsPresenting() {
		return s.Runtime.Camera().Position
	}
	return s.Camera.WorldPosition()
}
