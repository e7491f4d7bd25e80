package event

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/xrplace/sandbox/internal/core/ecs"
)

// SessionStarted fires on the first presenting frame.
type SessionStarted struct {
	At time.Time
}

// SessionEnded fires on the first frame after presenting stops.
type SessionEnded struct {
	At time.Time
}

// ObjectRealized is emitted once per spawn request whose object entered the
// scene. Anchored objects are reported when their anchor resolves.
type ObjectRealized struct {
	RequestID   uint64
	Entity      ecs.EntityID
	Prototype   string
	Hand        string
	Position    mgl64.Vec3
	Orientation mgl64.Quat
	Anchored    bool
}

// AnchorFailed reports an anchor request the runtime rejected. Nothing
// retries it; the placement is lost.
type AnchorFailed struct {
	RequestID uint64
	Err       error
}
