package system

import "time"

// Phase defines execution ordering within a single frame.
type Phase int

const (
	PhaseEvents Phase = iota // 0: swap + dispatch last frame's events
	PhaseDrain               // 1: flush staged removals
	PhaseRender              // 2: snapshot survivors, hand to the frontend
)

// System is the interface every frame system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
