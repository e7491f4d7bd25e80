package emulator

import (
	"errors"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/xrplace/sandbox/internal/scene"
	"github.com/xrplace/sandbox/internal/xr"
	"go.uber.org/zap"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newDevice(t *testing.T, mutate func(*Options)) (*Device, *clock) {
	t.Helper()
	c := &clock{t: time.Unix(1000, 0)}
	opts := Quest3()
	opts.Now = c.now
	if mutate != nil {
		mutate(&opts)
	}
	return New(opts, zap.NewNop()), c
}

var arInit = xr.SessionInit{
	Mode:             xr.ModeImmersiveAR,
	RequiredFeatures: []string{xr.FeatureHitTest, xr.FeatureAnchors},
}

// start requests a session and runs one Update to answer it.
func start(t *testing.T, d *Device, init xr.SessionInit) error {
	t.Helper()
	var got error
	answered := false
	d.RequestSession(init, func(_ struct{}, err error) { got, answered = err, true })
	d.Update()
	if !answered {
		t.Fatalf("session request not answered")
	}
	return got
}

func TestSessionConnectsControllers(t *testing.T) {
	d, _ := newDevice(t, nil)
	var connected, disconnected []xr.Handedness
	d.OnControllerConnected(func(e xr.ControllerEvent) { connected = append(connected, e.Handedness) })
	d.OnControllerDisconnected(func(e xr.ControllerEvent) { disconnected = append(disconnected, e.Handedness) })

	if err := start(t, d, arInit); err != nil {
		t.Fatalf("request session: %v", err)
	}
	if !d.IsPresenting() || len(connected) != 2 {
		t.Fatalf("presenting=%v connected=%v", d.IsPresenting(), connected)
	}
	if err := start(t, d, arInit); !errors.Is(err, xr.ErrSessionActive) {
		t.Fatalf("second request err = %v", err)
	}
	if err := d.EndSession(); err != nil {
		t.Fatalf("end: %v", err)
	}
	if len(disconnected) != 2 {
		t.Fatalf("disconnected = %v", disconnected)
	}
}

func TestRequestSessionChecksSupportAndFeatures(t *testing.T) {
	d, _ := newDevice(t, func(o *Options) { o.Modes = []string{xr.ModeImmersiveVR} })
	if err := start(t, d, arInit); !errors.Is(err, xr.ErrUnsupported) {
		t.Fatalf("err = %v, want ErrUnsupported", err)
	}

	d, _ = newDevice(t, func(o *Options) { o.Features = nil })
	if err := start(t, d, arInit); !errors.Is(err, xr.ErrMissingFeature) {
		t.Fatalf("err = %v, want ErrMissingFeature", err)
	}
}

func TestAnchorCompletesAfterLatency(t *testing.T) {
	d, c := newDevice(t, nil)
	var got *scene.Node
	pose := xr.Pose{Position: mgl64.Vec3{1, 0, -2}, Orientation: mgl64.QuatIdent()}
	d.CreateAnchor(pose, func(n *scene.Node, err error) {
		if err != nil {
			t.Errorf("anchor err: %v", err)
		}
		got = n
	})
	d.Update()
	if got != nil {
		t.Fatalf("anchor resolved before latency elapsed")
	}
	c.advance(200 * time.Millisecond)
	d.Update()
	if got == nil || got.Position != pose.Position || got.Parent() != d.Root() {
		t.Fatalf("anchor = %+v", got)
	}
}

func TestAnchorFailureRate(t *testing.T) {
	d, c := newDevice(t, func(o *Options) { o.AnchorFailureRate = 1 })
	var gotErr error
	d.CreateAnchor(xr.Pose{Orientation: mgl64.QuatIdent()}, func(_ *scene.Node, err error) { gotErr = err })
	c.advance(time.Second)
	d.Update()
	if !errors.Is(gotErr, xr.ErrAnchorRejected) {
		t.Fatalf("err = %v", gotErr)
	}
}

func TestHitTestTargetTracksFloor(t *testing.T) {
	d, c := newDevice(t, nil)
	if err := start(t, d, arInit); err != nil {
		t.Fatal(err)
	}
	// Point the right controller straight down from (0.5, 1, -1).
	down := mgl64.QuatRotate(-mgl64.DegToRad(90), mgl64.Vec3{1, 0, 0})
	d.MoveController(xr.HandRight, xr.Pose{Position: mgl64.Vec3{0.5, 1, -1}, Orientation: down})

	var target *scene.Node
	d.RequestHitTestTarget(xr.HandRight, func(n *scene.Node, err error) {
		if err != nil {
			t.Errorf("hit-test err: %v", err)
		}
		target = n
	})
	c.advance(time.Second)
	d.Update()
	if target == nil {
		t.Fatalf("hit-test target not delivered")
	}
	want := mgl64.Vec3{0.5, 0, -1}
	if !target.Position.ApproxEqualThreshold(want, 1e-9) {
		t.Fatalf("hit pose = %v, want %v", target.Position, want)
	}

	d.MoveController(xr.HandRight, xr.Pose{Position: mgl64.Vec3{-0.5, 1, -1}, Orientation: down})
	d.Update()
	if !target.Position.ApproxEqualThreshold(mgl64.Vec3{-0.5, 0, -1}, 1e-9) {
		t.Fatalf("hit pose not refreshed: %v", target.Position)
	}
}

type pressOn struct{ frame uint64 }

func (p pressOn) Trigger(frame uint64, hand xr.Handedness) (bool, bool) {
	if hand != xr.HandRight {
		return false, false
	}
	return frame == p.frame, true
}

func TestInputScriptDrivesPad(t *testing.T) {
	d, _ := newDevice(t, func(o *Options) { o.Input = pressOn{frame: 3} })
	if err := start(t, d, arInit); err != nil {
		t.Fatal(err)
	}
	d.Update()
	if d.Pad(xr.HandRight).Buttons()[0].Pressed {
		t.Fatalf("pressed on frame 2")
	}
	d.Update()
	if !d.Pad(xr.HandRight).Buttons()[0].Pressed {
		t.Fatalf("not pressed on frame 3")
	}
}

func TestRoomCaptureAddsFloorPlane(t *testing.T) {
	d, c := newDevice(t, nil)
	if err := start(t, d, arInit); err != nil {
		t.Fatal(err)
	}
	added := 0
	d.OnPlaneAdded(func(*scene.Node) { added++ })
	done := false
	d.InitiateRoomCapture(func(_ struct{}, err error) { done = err == nil })
	c.advance(5 * time.Second)
	d.Update()
	if !done || added != 1 || d.PlaneCount() != 1 {
		t.Fatalf("done=%v added=%d planes=%d", done, added, d.PlaneCount())
	}
}

func TestSessionOpsWaitForLatency(t *testing.T) {
	d, c := newDevice(t, func(o *Options) { o.SessionLatency = 300 * time.Millisecond })

	supported, probed := false, false
	d.IsSessionSupported(xr.ModeImmersiveAR, func(ok bool, err error) {
		if err != nil {
			t.Errorf("probe err: %v", err)
		}
		supported, probed = ok, true
	})
	started := false
	d.RequestSession(arInit, func(_ struct{}, err error) { started = err == nil })

	d.Update()
	if probed || started || d.IsPresenting() {
		t.Fatalf("answered before latency: probed=%v started=%v", probed, started)
	}
	if d.Outstanding() != 2 {
		t.Fatalf("outstanding = %d, want 2", d.Outstanding())
	}

	c.advance(300 * time.Millisecond)
	d.Update()
	if !probed || !supported || !started || !d.IsPresenting() {
		t.Fatalf("probed=%v supported=%v started=%v", probed, supported, started)
	}
	if d.Outstanding() != 0 {
		t.Fatalf("outstanding = %d after completion", d.Outstanding())
	}
}

func TestHitTestTargetsEndWithSession(t *testing.T) {
	d, c := newDevice(t, nil)
	if err := start(t, d, arInit); err != nil {
		t.Fatal(err)
	}
	var targets []*scene.Node
	for _, hand := range []xr.Handedness{xr.HandRight, xr.HandLeft} {
		d.RequestHitTestTarget(hand, func(n *scene.Node, err error) {
			if err != nil {
				t.Errorf("hit-test err: %v", err)
			}
			targets = append(targets, n)
		})
	}
	c.advance(time.Second)
	d.Update()
	if len(targets) != 2 || d.HitTargets() != 2 {
		t.Fatalf("targets = %d, tracked = %d", len(targets), d.HitTargets())
	}

	// A target its owner detached is no longer tracked.
	d.Root().Remove(targets[0])
	d.Update()
	if d.HitTargets() != 1 {
		t.Fatalf("tracked = %d after detaching one target", d.HitTargets())
	}

	if err := d.EndSession(); err != nil {
		t.Fatal(err)
	}
	if d.HitTargets() != 0 || targets[1].Parent() != nil {
		t.Fatalf("targets survived the session: tracked=%d", d.HitTargets())
	}

	var rejected error
	d.RequestHitTestTarget(xr.HandRight, func(_ *scene.Node, err error) { rejected = err })
	d.Update()
	if !errors.Is(rejected, xr.ErrHitTestRejected) {
		t.Fatalf("err = %v outside a session", rejected)
	}
}
