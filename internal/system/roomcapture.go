package system

import (
	"time"

	"github.com/xrplace/sandbox/internal/core/async"
	"github.com/xrplace/sandbox/internal/core/event"
	coresys "github.com/xrplace/sandbox/internal/core/system"
	"github.com/xrplace/sandbox/internal/world"
	"go.uber.org/zap"
)

// RoomCaptureSystem asks the runtime to run room setup when a session has
// been up for a while without detecting any plane. Phase 4 (Present).
type RoomCaptureSystem struct {
	ws    *world.State
	log   *zap.Logger
	delay time.Duration

	armed    bool
	deadline time.Time
}

func NewRoomCaptureSystem(ws *world.State, delay time.Duration, log *zap.Logger) *RoomCaptureSystem {
	return &RoomCaptureSystem{ws: ws, log: log, delay: delay}
}

func (s *RoomCaptureSystem) Phase() coresys.Phase { return coresys.PhasePresent }

func (s *RoomCaptureSystem) Update(_ time.Duration) {
	for _, ev := range event.Read[event.SessionStarted](s.ws.Bus) {
		s.armed = true
		s.deadline = ev.At.Add(s.delay)
	}
	if len(event.Read[event.SessionEnded](s.ws.Bus)) > 0 {
		s.armed = false
	}
	if !s.armed || s.ws.Now().Before(s.deadline) {
		return
	}
	s.armed = false
	if !s.ws.Runtime.IsPresenting() || s.ws.Runtime.PlaneCount() > 0 {
		return
	}
	s.log.Info("no planes detected, starting room capture")
	s.ws.Runtime.InitiateRoomCapture(async.Deliver(s.ws.Async, func(_ struct{}, err error) {
		if err != nil {
			s.log.Warn("room capture failed", zap.Error(err))
			return
		}
		s.log.Info("room capture finished", zap.Int("planes", s.ws.Runtime.PlaneCount()))
	}))
}
