// Package emulator is a software XR runtime standing in for a headset. It
// models a standalone headset with two tracked controllers, a floor for
// hit tests, anchors, plane detection and room capture. Deferred work
// completes inside Update, so the whole device runs on the frame loop.
package emulator

import (
	"fmt"
	"math"
	"math/rand"
	"slices"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/xrplace/sandbox/internal/scene"
	"github.com/xrplace/sandbox/internal/xr"
	"github.com/xrplace/sandbox/internal/xr/gamepad"
	"go.uber.org/zap"
)

// InputScript decides the trigger level for a hand on a given frame.
// ok=false leaves the pad untouched.
type InputScript interface {
	Trigger(frame uint64, hand xr.Handedness) (pressed bool, ok bool)
}

// Options configure the emulated device.
type Options struct {
	Modes      []string // supported session modes
	Features   []string // features the device can grant
	ProbeError error    // returned by IsSessionSupported when set

	SessionLatency    time.Duration // capability probe and session start
	HitTestLatency    time.Duration
	AnchorLatency     time.Duration
	RoomCaptureTime   time.Duration
	AnchorFailureRate float64
	FloorY            float64

	Head        xr.Pose
	Controllers map[xr.Handedness]xr.Pose

	Input InputScript
	Now   func() time.Time
	Rand  *rand.Rand
}

// Quest3 returns options matching the default emulated headset: seated
// height head, controllers held slightly forward and tilted down.
func Quest3() Options {
	tilt := mgl64.Quat{W: 0.9887216687202454, V: mgl64.Vec3{0.14766305685043335, 0.02471366710960865, -0.0037767395842820406}}
	return Options{
		Modes: []string{xr.ModeImmersiveAR, xr.ModeImmersiveVR},
		Features: []string{
			xr.FeatureHitTest, xr.FeaturePlaneDetection, xr.FeatureAnchors,
			xr.FeatureLocalFloor, xr.FeatureBoundedFloor, xr.FeatureLayers,
		},
		HitTestLatency:  50 * time.Millisecond,
		AnchorLatency:   100 * time.Millisecond,
		RoomCaptureTime: 2 * time.Second,
		Head:            xr.Pose{Position: mgl64.Vec3{0, 1.6, 0}, Orientation: mgl64.QuatIdent()},
		Controllers: map[xr.Handedness]xr.Pose{
			xr.HandRight: {Position: mgl64.Vec3{0.15649, 1.43474, -0.38368}, Orientation: tilt},
			xr.HandLeft:  {Position: mgl64.Vec3{-0.15649, 1.43474, -0.38368}, Orientation: tilt},
		},
	}
}

type deferred struct {
	at time.Time
	fn func()
}

type hitTarget struct {
	hand xr.Handedness
	node *scene.Node
}

// Device implements xr.Runtime.
type Device struct {
	opts Options
	log  *zap.Logger

	root  *scene.Node
	rays  [2]*scene.Node
	grips [2]*scene.Node
	hands [2]xr.Handedness
	pads  [2]*Pad

	presenting bool
	session    xr.SessionInit
	head       xr.Pose
	frame      uint64

	onConnect    []func(xr.ControllerEvent)
	onDisconnect []func(xr.ControllerEvent)
	onPlane      []func(*scene.Node)

	// mu guards queue; requests may arrive from any goroutine.
	mu      sync.Mutex
	queue   []deferred
	targets []hitTarget
	planes  []*scene.Node
	anchors int
}

func New(opts Options, log *zap.Logger) *Device {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(1))
	}
	d := &Device{
		opts:  opts,
		log:   log,
		root:  scene.NewGroup("xr-root"),
		head:  opts.Head,
		hands: [2]xr.Handedness{xr.HandRight, xr.HandLeft},
	}
	for i := range d.rays {
		d.rays[i] = scene.NewNode(fmt.Sprintf("target-ray-%d", i), scene.KindController)
		d.grips[i] = scene.NewNode(fmt.Sprintf("grip-%d", i), scene.KindController)
		d.pads[i] = NewPad()
		if pose, ok := opts.Controllers[d.hands[i]]; ok {
			d.setControllerPose(i, pose)
		}
	}
	return d
}

func (d *Device) setControllerPose(i int, p xr.Pose) {
	for _, n := range []*scene.Node{d.rays[i], d.grips[i]} {
		n.Position = p.Position
		n.Rotation = p.Orientation
	}
}

func (d *Device) slot(hand xr.Handedness) int {
	for i, h := range d.hands {
		if h == hand {
			return i
		}
	}
	return -1
}

func (d *Device) IsSessionSupported(mode string, done func(bool, error)) {
	d.after(d.opts.SessionLatency, func() { done(d.supports(mode)) })
}

func (d *Device) supports(mode string) (bool, error) {
	if d.opts.ProbeError != nil {
		return false, d.opts.ProbeError
	}
	return slices.Contains(d.opts.Modes, mode), nil
}

func (d *Device) RequestSession(init xr.SessionInit, done func(struct{}, error)) {
	d.after(d.opts.SessionLatency, func() { done(struct{}{}, d.startSession(init)) })
}

func (d *Device) startSession(init xr.SessionInit) error {
	if d.presenting {
		return xr.ErrSessionActive
	}
	ok, err := d.supports(init.Mode)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", xr.ErrUnsupported, init.Mode)
	}
	for _, f := range init.RequiredFeatures {
		if !slices.Contains(d.opts.Features, f) {
			return fmt.Errorf("%w: %s", xr.ErrMissingFeature, f)
		}
	}
	d.session = init
	d.presenting = true
	d.log.Info("emulated session started", zap.String("mode", init.Mode))
	for i := range d.pads {
		d.pads[i].Reset()
		ev := xr.ControllerEvent{Index: i, Handedness: d.hands[i], Gamepad: d.pads[i]}
		for _, fn := range d.onConnect {
			fn(ev)
		}
	}
	return nil
}

func (d *Device) EndSession() error {
	if !d.presenting {
		return xr.ErrNoSession
	}
	d.presenting = false
	// Hit-test sources die with their session.
	for _, t := range d.targets {
		d.root.Remove(t.node)
	}
	d.targets = nil
	for i := range d.pads {
		ev := xr.ControllerEvent{Index: i, Handedness: d.hands[i]}
		for _, fn := range d.onDisconnect {
			fn(ev)
		}
	}
	d.log.Info("emulated session ended")
	return nil
}

func (d *Device) IsPresenting() bool { return d.presenting }

func (d *Device) Camera() xr.Pose { return d.head }

// SetHead moves the emulated headset.
func (d *Device) SetHead(p xr.Pose) { d.head = p }

func (d *Device) Controller(i int) (*scene.Node, *scene.Node) {
	if i < 0 || i >= len(d.rays) {
		return nil, nil
	}
	return d.rays[i], d.grips[i]
}

// MoveController sets a controller's ray and grip pose.
func (d *Device) MoveController(hand xr.Handedness, p xr.Pose) {
	if i := d.slot(hand); i >= 0 {
		d.setControllerPose(i, p)
	}
}

// Pad returns the emulated gamepad of a hand.
func (d *Device) Pad(hand xr.Handedness) *Pad {
	if i := d.slot(hand); i >= 0 {
		return d.pads[i]
	}
	return nil
}

func (d *Device) OnControllerConnected(fn func(xr.ControllerEvent)) {
	d.onConnect = append(d.onConnect, fn)
}

func (d *Device) OnControllerDisconnected(fn func(xr.ControllerEvent)) {
	d.onDisconnect = append(d.onDisconnect, fn)
}

func (d *Device) OnPlaneAdded(fn func(*scene.Node)) {
	d.onPlane = append(d.onPlane, fn)
}

func (d *Device) Root() *scene.Node { return d.root }

func (d *Device) after(delay time.Duration, fn func()) {
	d.mu.Lock()
	d.queue = append(d.queue, deferred{at: d.opts.Now().Add(delay), fn: fn})
	d.mu.Unlock()
}

func (d *Device) RequestHitTestTarget(hand xr.Handedness, done func(*scene.Node, error)) {
	d.after(d.opts.HitTestLatency, func() {
		if !d.presenting || !slices.Contains(d.session.RequiredFeatures, xr.FeatureHitTest) &&
			!slices.Contains(d.session.OptionalFeatures, xr.FeatureHitTest) {
			done(nil, xr.ErrHitTestRejected)
			return
		}
		node := scene.NewNode("hit-test-"+string(hand), scene.KindMarker)
		d.root.Add(node)
		d.targets = append(d.targets, hitTarget{hand: hand, node: node})
		d.castHit(hand, node)
		done(node, nil)
	})
}

func (d *Device) CreateAnchor(pose xr.Pose, done func(*scene.Node, error)) {
	fail := d.opts.AnchorFailureRate > 0 && d.opts.Rand.Float64() < d.opts.AnchorFailureRate
	d.after(d.opts.AnchorLatency, func() {
		if fail {
			done(nil, xr.ErrAnchorRejected)
			return
		}
		d.anchors++
		node := scene.NewNode(fmt.Sprintf("anchor-%d", d.anchors), scene.KindAnchor)
		node.Position = pose.Position
		node.Rotation = pose.Orientation
		d.root.Add(node)
		done(node, nil)
	})
}

func (d *Device) PlaneCount() int { return len(d.planes) }

// AddPlane simulates plane detection of a horizontal plane.
func (d *Device) AddPlane(name string, center mgl64.Vec3) *scene.Node {
	plane := scene.NewNode(name, scene.KindPlane)
	plane.Position = center
	plane.Material = &scene.Material{Color: 0xffffff, Opacity: 1}
	d.root.Add(plane)
	d.planes = append(d.planes, plane)
	for _, fn := range d.onPlane {
		fn(plane)
	}
	return plane
}

func (d *Device) InitiateRoomCapture(done func(struct{}, error)) {
	d.after(d.opts.RoomCaptureTime, func() {
		if !d.presenting {
			done(struct{}{}, xr.ErrNoSession)
			return
		}
		d.AddPlane("floor", mgl64.Vec3{0, d.opts.FloorY, 0})
		done(struct{}{}, nil)
	})
}

// castHit intersects the controller's -Z ray with the floor. A ray that
// never reaches the floor leaves the target where it was.
func (d *Device) castHit(hand xr.Handedness, target *scene.Node) {
	i := d.slot(hand)
	if i < 0 {
		return
	}
	ray := d.rays[i]
	origin := ray.WorldPosition()
	dir := ray.WorldRotation().Rotate(mgl64.Vec3{0, 0, -1})
	if math.Abs(dir.Y()) < 1e-9 {
		return
	}
	t := (d.opts.FloorY - origin.Y()) / dir.Y()
	if t < 0 {
		return
	}
	target.Position = origin.Add(dir.Mul(t))
	target.Rotation = mgl64.QuatIdent()
}

// Update runs due deferred work, refreshes hit-test poses and applies the
// input script.
func (d *Device) Update() {
	d.frame++
	now := d.opts.Now()

	d.mu.Lock()
	var due []deferred
	kept := d.queue[:0]
	for _, op := range d.queue {
		if !op.at.After(now) {
			due = append(due, op)
		} else {
			kept = append(kept, op)
		}
	}
	d.queue = kept
	d.mu.Unlock()

	for _, op := range due {
		op.fn()
	}

	if !d.presenting {
		return
	}
	live := d.targets[:0]
	for _, t := range d.targets {
		if t.node.Parent() == nil {
			continue
		}
		d.castHit(t.hand, t.node)
		live = append(live, t)
	}
	clear(d.targets[len(live):])
	d.targets = live
	if d.opts.Input != nil {
		for i, hand := range d.hands {
			if pressed, ok := d.opts.Input.Trigger(d.frame, hand); ok {
				d.pads[i].Set(gamepad.Trigger, pressed)
			}
		}
	}
}

// Outstanding returns the number of deferred operations not yet run.
func (d *Device) Outstanding() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// HitTargets returns the number of hit-test targets still being tracked.
func (d *Device) HitTargets() int { return len(d.targets) }

var _ xr.Runtime = (*Device)(nil)
