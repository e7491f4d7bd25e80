package system

import (
	"math/rand"
	"testing"
	"time"

	"github.com/xrplace/sandbox/internal/assets"
	"github.com/xrplace/sandbox/internal/config"
	coresys "github.com/xrplace/sandbox/internal/core/system"
	"github.com/xrplace/sandbox/internal/data"
	"github.com/xrplace/sandbox/internal/persist"
	"github.com/xrplace/sandbox/internal/scene"
	"github.com/xrplace/sandbox/internal/world"
	"github.com/xrplace/sandbox/internal/xr"
	"github.com/xrplace/sandbox/internal/xr/emulator"
	"github.com/xrplace/sandbox/internal/xr/gamepad"
	"go.uber.org/zap"
)

const frameDT = time.Second / 72

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

// syncLoader builds prototypes inline; completions still go through the
// async queue.
type syncLoader struct{}

func (syncLoader) Load(p *data.Prototype, done func(*scene.Node, error)) {
	done(assets.Build(p))
}

type sinkRecorder struct {
	placements []persist.Placement
	full       bool
}

func (s *sinkRecorder) Enqueue(p persist.Placement) bool {
	if s.full {
		return false
	}
	s.placements = append(s.placements, p)
	return true
}

type harness struct {
	t        *testing.T
	clock    *clock
	dev      *emulator.Device
	controls *world.PageControls
	ws       *world.State
	runner   *coresys.Runner
	sink     *sinkRecorder

	spawn   *SpawnSystem
	actual  *ActualizerSystem
	present *PresentationSystem
}

type harnessOpts struct {
	device      func(*emulator.Options)
	runtime     func(*emulator.Device) xr.Runtime
	controls    world.PageControls
	noAutoEnter bool
	roomDelay   time.Duration
	script      SpinScript
}

var testCatalog = `
prototypes:
  - name: mesh-prototype
    asset: assets/camera.glb
    ar_scale: 1
    preview: true
  - name: prop-lamp
    asset: assets/lamp.glb
    ar_scale: 0.5
`

func newHarness(t *testing.T, o harnessOpts) *harness {
	t.Helper()
	c := &clock{t: time.Unix(5000, 0)}

	dopts := emulator.Quest3()
	dopts.Now = c.now
	dopts.SessionLatency = 0
	dopts.HitTestLatency = 0
	dopts.AnchorLatency = 0
	dopts.RoomCaptureTime = 0
	if o.device != nil {
		o.device(&dopts)
	}
	log := zap.NewNop()
	dev := emulator.New(dopts, log)

	protos, err := data.ParsePrototypeTable([]byte(testCatalog))
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	controls := o.controls
	if controls.Model == "" {
		controls.Model = "mesh-prototype"
	}
	var rt xr.Runtime = dev
	if o.runtime != nil {
		rt = o.runtime(dev)
	}
	ws := world.NewState(rt, &controls, protos, c.now)

	delay := o.roomDelay
	if delay == 0 {
		delay = time.Hour
	}
	cfg := config.Defaults()

	h := &harness{t: t, clock: c, dev: dev, controls: &controls, ws: ws, sink: &sinkRecorder{}}
	h.spawn = NewSpawnSystem(ws, true, log)
	h.actual = NewActualizerSystem(ws, log)
	h.present = NewPresentationSystem(ws, syncLoader{}, PresentationOptions{
		Init: xr.SessionInit{
			Mode:             xr.ModeImmersiveAR,
			RequiredFeatures: []string{xr.FeatureHitTest, xr.FeatureAnchors},
		},
		Language:  "en",
		PageURL:   "https://example.test/",
		AutoEnter: !o.noAutoEnter,
	}, log)

	r := coresys.NewRunner()
	r.Register(NewEventDispatchSystem(ws.Bus))
	r.Register(NewPlayerSystem(ws, log))
	r.Register(h.spawn)
	r.Register(h.actual)
	r.Register(NewSpinSystem(ws, cfg.Spin, o.script))
	r.Register(h.present)
	r.Register(NewRoomCaptureSystem(ws, delay, log))
	r.Register(NewPlaneStyleSystem(ws, rand.New(rand.NewSource(7))))
	r.Register(NewJournalSystem(ws, h.sink, "test-session", log))
	r.Register(NewCleanupSystem(ws.ECS))
	h.runner = r
	return h
}

// step runs n frames the way the frame driver does.
func (h *harness) step(n int) {
	h.t.Helper()
	for i := 0; i < n; i++ {
		h.clock.t = h.clock.t.Add(frameDT)
		h.ws.BeginFrame()
		h.dev.Update()
		h.ws.Async.Drain()
		if !h.runner.Tick(frameDT) {
			h.t.Fatalf("tick refused")
		}
	}
}

// immersive steps until the auto-entered session is presenting, the
// controllers are registered and requests issued on entry have answered.
// Frame 1 probes, frame 2 requests the session, frame 3 starts it.
func (h *harness) immersive() {
	h.t.Helper()
	h.step(4)
	if h.present.Mode() != ModeImmersive {
		h.t.Fatalf("mode = %v, want immersive", h.present.Mode())
	}
}

func (h *harness) trigger(hand xr.Handedness, pressed bool) {
	h.dev.Pad(hand).Set(gamepad.Trigger, pressed)
}

// click presses and releases the trigger over two frames.
func (h *harness) click(hand xr.Handedness) {
	h.trigger(hand, true)
	h.step(1)
	h.trigger(hand, false)
	h.step(1)
}

// placed returns realized objects that are in the scene graph.
func (h *harness) placed() []*scene.Node {
	var out []*scene.Node
	h.ws.Scene.Traverse(func(n *scene.Node) {
		if n.XROnly {
			out = append(out, n)
		}
	})
	return out
}
