package system

import (
	"sort"
	"time"
)

// Runner executes systems in phase order each frame. Systems sharing a
// phase run in registration order.
type Runner struct {
	systems []System
	sorted  bool
	running bool
	frames  uint64
}

func NewRunner() *Runner {
	return &Runner{
		systems: make([]System, 0, 16),
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

// Tick runs one frame. A Tick issued while another is still running (from a
// continuation fired inside a system) is refused and reported as false.
func (r *Runner) Tick(dt time.Duration) bool {
	if r.running {
		return false
	}
	r.running = true
	defer func() { r.running = false }()

	r.ensureSorted()
	for _, s := range r.systems {
		s.Update(dt)
	}
	r.frames++
	return true
}

// Frames returns the number of completed ticks.
func (r *Runner) Frames() uint64 { return r.frames }

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}
}
