package component

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/xrplace/sandbox/internal/xr"
)

// SpawnRequest asks for one object at a pose. Exactly one consumer: the
// actualizer removes the component when it realizes the request.
type SpawnRequest struct {
	ID          uint64
	Position    mgl64.Vec3
	Orientation mgl64.Quat
	Hand        xr.Handedness
	Frame       uint64 // frame the trigger edge was seen
}
