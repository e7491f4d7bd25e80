package component

import "github.com/xrplace/sandbox/internal/scene"

// Spinnable makes Object turn about its vertical axis every frame.
// AngularSpeed is the value applied last frame; SpinSystem recomputes it
// from the live viewer distance before every use.
type Spinnable struct {
	Object       *scene.Node
	AngularSpeed float64
}
