package system

import (
	"time"

	"github.com/xrplace/sandbox/internal/core/event"
	coresys "github.com/xrplace/sandbox/internal/core/system"
)

// EventDispatchSystem makes last frame's events readable and runs their
// subscribed handlers. Phase 0 (Input); register it before other input
// systems.
type EventDispatchSystem struct {
	bus *event.Bus
}

func NewEventDispatchSystem(bus *event.Bus) *EventDispatchSystem {
	return &EventDispatchSystem{bus: bus}
}

func (s *EventDispatchSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *EventDispatchSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}
