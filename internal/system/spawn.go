package system

import (
	"time"

	"github.com/xrplace/sandbox/internal/component"
	"github.com/xrplace/sandbox/internal/core/async"
	coresys "github.com/xrplace/sandbox/internal/core/system"
	"github.com/xrplace/sandbox/internal/scene"
	"github.com/xrplace/sandbox/internal/world"
	"github.com/xrplace/sandbox/internal/xr"
	"github.com/xrplace/sandbox/internal/xr/gamepad"
	"go.uber.org/zap"
)

const (
	targetRayName  = "target-ray-line"
	hitMarkerName  = "hit-marker"
	spawnPulse     = 0.6
	spawnPulseTime = 50 * time.Millisecond
)

// hitTarget is this system's view of one hand's hit-test subscription.
// node stays nil until the runtime delivers the target.
type hitTarget struct {
	node *scene.Node
	line *scene.Node
}

// SpawnSystem turns trigger presses into SpawnRequest entities. A request
// is emitted only on the frame the trigger goes from released to pressed.
// With hit testing on, the request takes the hand's hit-test target pose;
// until that target exists presses on that hand are ignored. Otherwise it
// takes the controller's target-ray pose. Targets belong to one session and
// are released when it ends. Phase 1 (Spawn).
type SpawnSystem struct {
	ws      *world.State
	log     *zap.Logger
	haptics bool

	nextID    uint64
	hitTestOn bool
	targets   map[xr.Handedness]*hitTarget
	pending   *async.Pending[*hitTarget]

	suppressed int
}

func NewSpawnSystem(ws *world.State, haptics bool, log *zap.Logger) *SpawnSystem {
	return &SpawnSystem{
		ws:      ws,
		log:     log,
		haptics: haptics,
		targets: make(map[xr.Handedness]*hitTarget, 2),
		pending: async.NewPending[*hitTarget](),
	}
}

func (s *SpawnSystem) Phase() coresys.Phase { return coresys.PhaseSpawn }

// Requested is how many spawn requests have been emitted.
func (s *SpawnSystem) Requested() uint64 { return s.nextID }

// Suppressed counts trigger edges ignored while a hit-test target was
// still missing.
func (s *SpawnSystem) Suppressed() int { return s.suppressed }

// Target returns the delivered hit-test target for hand, or nil.
func (s *SpawnSystem) Target(hand xr.Handedness) *scene.Node {
	if t := s.targets[hand]; t != nil {
		return t.node
	}
	return nil
}

func (s *SpawnSystem) Update(_ time.Duration) {
	_, player, ok := s.ws.C.Players.First()
	if !ok {
		return
	}
	if !s.ws.Runtime.IsPresenting() {
		// Hit-test sources end with the session; the next one subscribes anew.
		if len(s.targets) > 0 {
			s.releaseTargets()
		}
		return
	}

	useHitTest := s.ws.Controls.UseHitTest()
	if s.hitTestOn && !useHitTest {
		s.releaseTargets()
	}
	s.hitTestOn = useHitTest

	for _, c := range sortedControllers(player) {
		var pose xr.Pose
		if useHitTest {
			t := s.targets[c.Hand]
			if t == nil {
				s.requestTarget(c)
				t = s.targets[c.Hand]
			}
			if !c.Gamepad.ButtonDown(gamepad.Trigger) {
				continue
			}
			if t.node == nil {
				s.suppressed++
				s.log.Debug("trigger ignored, hit-test target pending", zap.String("hand", string(c.Hand)))
				continue
			}
			pose = xr.PoseOf(t.node)
		} else {
			if !c.Gamepad.ButtonDown(gamepad.Trigger) {
				continue
			}
			pose = xr.PoseOf(c.RaySpace)
		}
		s.emit(c, pose)
	}
}

func (s *SpawnSystem) emit(c *component.ControllerRef, pose xr.Pose) {
	s.nextID++
	id := s.ws.ECS.CreateEntity()
	s.ws.C.Spawns.Set(id, &component.SpawnRequest{
		ID:          s.nextID,
		Position:    pose.Position,
		Orientation: pose.Orientation,
		Hand:        c.Hand,
		Frame:       s.ws.Frame(),
	})
	if s.haptics {
		c.Gamepad.Pulse(spawnPulse, spawnPulseTime)
	}
	s.log.Debug("spawn requested",
		zap.Uint64("request", s.nextID),
		zap.String("hand", string(c.Hand)),
		zap.Float64("x", pose.Position.X()),
		zap.Float64("y", pose.Position.Y()),
		zap.Float64("z", pose.Position.Z()),
	)
}

func (s *SpawnSystem) requestTarget(c *component.ControllerRef) {
	t := &hitTarget{line: scene.NewNode(targetRayName, scene.KindLine)}
	c.RaySpace.Add(t.line)
	s.targets[c.Hand] = t

	id := s.pending.Start(t)
	hand := c.Hand
	s.ws.Runtime.RequestHitTestTarget(hand, async.Deliver(s.ws.Async, func(node *scene.Node, err error) {
		s.onTarget(id, hand, node, err)
	}))
}

func (s *SpawnSystem) onTarget(id async.ID, hand xr.Handedness, node *scene.Node, err error) {
	t, ok := s.pending.Resolve(id)
	if !ok {
		// Hit testing was switched off while this request was in flight.
		if node != nil && node.Parent() != nil {
			node.Parent().Remove(node)
		}
		s.log.Debug("stale hit-test target discarded", zap.String("hand", string(hand)))
		return
	}
	if err != nil {
		// The entry stays without a node: the hand is suppressed until the
		// session ends.
		s.log.Warn("hit-test subscription failed", zap.String("hand", string(hand)), zap.Error(err))
		return
	}
	marker := scene.NewNode(hitMarkerName, scene.KindMarker)
	marker.SetScalar(0.1)
	node.Add(marker)
	t.node = node
	s.log.Debug("hit-test target ready", zap.String("hand", string(hand)))
}

func (s *SpawnSystem) releaseTargets() {
	s.pending.Drop()
	for hand, t := range s.targets {
		if t.line.Parent() != nil {
			t.line.Parent().Remove(t.line)
		}
		if t.node != nil && t.node.Parent() != nil {
			t.node.Parent().Remove(t.node)
		}
		delete(s.targets, hand)
	}
	s.log.Debug("hit-test targets released")
}
