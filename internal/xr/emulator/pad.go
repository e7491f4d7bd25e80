package emulator

import (
	"sync"
	"time"

	"github.com/xrplace/sandbox/internal/xr/gamepad"
)

// Pad is an emulated xr-standard gamepad.
type Pad struct {
	mu      sync.Mutex
	buttons []gamepad.Button
	axes    []float64
	pulses  []time.Duration
}

func NewPad() *Pad {
	return &Pad{
		buttons: make([]gamepad.Button, 6),
		axes:    make([]float64, 4),
	}
}

// Set presses or releases a button.
func (p *Pad) Set(button int, pressed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if button < 0 || button >= len(p.buttons) {
		return
	}
	v := 0.0
	if pressed {
		v = 1
	}
	p.buttons[button] = gamepad.Button{Pressed: pressed, Touched: pressed, Value: v}
}

// Reset releases everything.
func (p *Pad) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	clear(p.buttons)
	clear(p.axes)
}

func (p *Pad) Buttons() []gamepad.Button {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]gamepad.Button(nil), p.buttons...)
}

func (p *Pad) Axes() []float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]float64(nil), p.axes...)
}

func (p *Pad) Pulse(intensity float64, d time.Duration) bool {
	if intensity <= 0 {
		return false
	}
	p.mu.Lock()
	p.pulses = append(p.pulses, d)
	p.mu.Unlock()
	return true
}

// Pulses returns how many haptic pulses were fired.
func (p *Pad) Pulses() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pulses)
}
