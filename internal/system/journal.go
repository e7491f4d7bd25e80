package system

import (
	"time"

	"github.com/xrplace/sandbox/internal/core/event"
	coresys "github.com/xrplace/sandbox/internal/core/system"
	"github.com/xrplace/sandbox/internal/persist"
	"github.com/xrplace/sandbox/internal/world"
	"go.uber.org/zap"
)

// PlacementSink accepts placements without blocking. *persist.Journal
// implements it.
type PlacementSink interface {
	Enqueue(p persist.Placement) bool
}

// JournalSystem records every realized object to the placement journal.
// Phase 5 (Persist).
type JournalSystem struct {
	ws        *world.State
	sink      PlacementSink
	sessionID string
	log       *zap.Logger
}

func NewJournalSystem(ws *world.State, sink PlacementSink, sessionID string, log *zap.Logger) *JournalSystem {
	return &JournalSystem{ws: ws, sink: sink, sessionID: sessionID, log: log}
}

func (s *JournalSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *JournalSystem) Update(_ time.Duration) {
	for _, ev := range event.Read[event.ObjectRealized](s.ws.Bus) {
		q := ev.Orientation
		p := persist.Placement{
			SessionID: s.sessionID,
			RequestID: ev.RequestID,
			Prototype: ev.Prototype,
			Hand:      ev.Hand,
			Position:  [3]float64{ev.Position.X(), ev.Position.Y(), ev.Position.Z()},
			Rotation:  [4]float64{q.W, q.V.X(), q.V.Y(), q.V.Z()},
			Anchored:  ev.Anchored,
			PlacedAt:  s.ws.Now(),
		}
		if !s.sink.Enqueue(p) {
			s.log.Warn("placement journal full, placement not recorded", zap.Uint64("request", ev.RequestID))
		}
	}
}
