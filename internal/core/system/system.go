package system

import "time"

// Phase defines execution ordering within a single frame.
type Phase int

const (
	PhaseInput     Phase = iota // 0: event swap, controller polling
	PhaseSpawn                  // 1: trigger edges -> spawn requests
	PhaseActualize              // 2: spawn requests -> scene objects
	PhaseSpin                   // 3: per-object animation
	PhasePresent                // 4: preview/immersive reconciliation
	PhasePersist                // 5: hand placements to the journal
	PhaseCleanup                // 6: destroy queued entities
)

var phaseNames = [...]string{"input", "spawn", "actualize", "spin", "present", "persist", "cleanup"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// System is the interface every ECS system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
