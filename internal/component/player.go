package component

import (
	"github.com/xrplace/sandbox/internal/scene"
	"github.com/xrplace/sandbox/internal/xr"
	"github.com/xrplace/sandbox/internal/xr/gamepad"
)

// Player is the single entity tracking connected controllers.
// Pure data; PlayerSystem owns every mutation.
type Player struct {
	Space       *scene.Node // player rig; the preview camera rides in it
	Controllers map[xr.Handedness]*ControllerRef
}

// ControllerRef is one connected controller.
type ControllerRef struct {
	Index     int
	Hand      xr.Handedness
	RaySpace  *scene.Node
	GripSpace *scene.Node
	Gamepad   *gamepad.Wrapper
}
