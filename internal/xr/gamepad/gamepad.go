// Package gamepad turns a live controller gamepad into per-frame input state
// with press and release edges.
package gamepad

import "time"

// Button indices of the xr-standard gamepad mapping.
const (
	Trigger    = 0
	Squeeze    = 1
	Touchpad   = 2
	Thumbstick = 3
	ButtonA    = 4 // X on the left controller
	ButtonB    = 5 // Y on the left controller
)

// Axis indices of the xr-standard mapping.
const (
	TouchpadX   = 0
	TouchpadY   = 1
	ThumbstickX = 2
	ThumbstickY = 3
)

// Button is the live state of one physical button.
type Button struct {
	Pressed bool
	Touched bool
	Value   float64
}

// Source is a live gamepad owned by the runtime.
type Source interface {
	Buttons() []Button
	Axes() []float64
	// Pulse fires the haptic actuator; false when there is none.
	Pulse(intensity float64, d time.Duration) bool
}

// Wrapper snapshots a Source once per frame. Edge queries compare the
// latest snapshot with the one before it, so a held button reports
// ButtonDown exactly once.
type Wrapper struct {
	src  Source
	prev []Button
	curr []Button
	axes []float64
}

func NewWrapper(src Source) *Wrapper {
	return &Wrapper{src: src}
}

// Update takes a new snapshot. Call once per frame before any query.
func (w *Wrapper) Update() {
	w.prev, w.curr = w.curr, w.prev[:0]
	w.curr = append(w.curr, w.src.Buttons()...)
	w.axes = append(w.axes[:0], w.src.Axes()...)
}

func (w *Wrapper) button(snap []Button, i int) Button {
	if i < 0 || i >= len(snap) {
		return Button{}
	}
	return snap[i]
}

// ButtonPressed reports the level state in the latest snapshot.
func (w *Wrapper) ButtonPressed(i int) bool {
	return w.button(w.curr, i).Pressed
}

// ButtonDown reports a released→pressed edge this frame.
func (w *Wrapper) ButtonDown(i int) bool {
	return w.button(w.curr, i).Pressed && !w.button(w.prev, i).Pressed
}

// ButtonUp reports a pressed→released edge this frame.
func (w *Wrapper) ButtonUp(i int) bool {
	return !w.button(w.curr, i).Pressed && w.button(w.prev, i).Pressed
}

// ButtonClick is an alias for ButtonUp: a full press-release cycle ended.
func (w *Wrapper) ButtonClick(i int) bool { return w.ButtonUp(i) }

func (w *Wrapper) Axis(i int) float64 {
	if i < 0 || i >= len(w.axes) {
		return 0
	}
	return w.axes[i]
}

// Pulse forwards a haptic pulse to the source.
func (w *Wrapper) Pulse(intensity float64, d time.Duration) bool {
	return w.src.Pulse(intensity, d)
}
