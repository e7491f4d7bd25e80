// Package xr describes the XR device runtime the sandbox drives. Real
// headsets and the emulator both sit behind Runtime.
package xr

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/xrplace/sandbox/internal/scene"
	"github.com/xrplace/sandbox/internal/xr/gamepad"
)

// Handedness of a tracked controller.
type Handedness string

const (
	HandNone  Handedness = "none"
	HandLeft  Handedness = "left"
	HandRight Handedness = "right"
)

// Session modes.
const (
	ModeImmersiveAR = "immersive-ar"
	ModeImmersiveVR = "immersive-vr"
)

// Feature names understood by RequestSession.
const (
	FeatureHitTest        = "hit-test"
	FeaturePlaneDetection = "plane-detection"
	FeatureAnchors        = "anchors"
	FeatureLocalFloor     = "local-floor"
	FeatureBoundedFloor   = "bounded-floor"
	FeatureLayers         = "layers"
)

var (
	ErrUnsupported     = errors.New("xr: session mode not supported")
	ErrNoSession       = errors.New("xr: no active session")
	ErrSessionActive   = errors.New("xr: session already active")
	ErrMissingFeature  = errors.New("xr: required feature unavailable")
	ErrAnchorRejected  = errors.New("xr: anchor creation rejected")
	ErrHitTestRejected = errors.New("xr: hit-test subscription rejected")
)

// Pose is a position plus orientation in reference space.
type Pose struct {
	Position    mgl64.Vec3
	Orientation mgl64.Quat
}

// PoseOf reads the world pose of a scene node.
func PoseOf(n *scene.Node) Pose {
	return Pose{Position: n.WorldPosition(), Orientation: n.WorldRotation()}
}

// SessionInit lists the features a session needs.
type SessionInit struct {
	Mode             string
	RequiredFeatures []string
	OptionalFeatures []string
}

// ControllerEvent describes a connect or disconnect.
type ControllerEvent struct {
	Index      int
	Handedness Handedness
	Gamepad    gamepad.Source
}

// Runtime is the XR session API surface the systems consume.
//
// The async methods take a completion callback that may be invoked on any
// goroutine; callers wrap them with async.Deliver. Requests cannot be
// cancelled.
type Runtime interface {
	// IsSessionSupported probes whether mode can be presented.
	IsSessionSupported(mode string, done func(bool, error))
	// RequestSession starts a session. Controllers connect before done
	// reports success.
	RequestSession(init SessionInit, done func(struct{}, error))
	EndSession() error
	IsPresenting() bool

	// Camera is the viewer head pose while presenting.
	Camera() Pose
	// Controller returns the target-ray and grip spaces for slot i.
	Controller(i int) (ray, grip *scene.Node)
	OnControllerConnected(fn func(ControllerEvent))
	OnControllerDisconnected(fn func(ControllerEvent))

	// RequestHitTestTarget subscribes to hit tests cast from the given
	// controller. The returned node's pose is kept current by Update.
	RequestHitTestTarget(hand Handedness, done func(*scene.Node, error))
	// CreateAnchor pins a node to the real world at pose.
	CreateAnchor(pose Pose, done func(*scene.Node, error))

	PlaneCount() int
	OnPlaneAdded(fn func(*scene.Node))
	InitiateRoomCapture(done func(struct{}, error))

	// Root holds runtime-managed nodes (anchors, planes, hit-test targets).
	Root() *scene.Node
	// Update refreshes tracked poses; called once per frame.
	Update()
}
