package game

import (
	"time"

	"github.com/gridshooter/gridshooter/internal/core/event"
	coresys "github.com/gridshooter/gridshooter/internal/core/system"
	"github.com/gridshooter/gridshooter/internal/world"
	"go.uber.org/zap"
)

// eventSystem delivers last frame's events. Phase 0 (Events).
type eventSystem struct {
	bus *event.Bus
}

func newEventSystem(bus *event.Bus) *eventSystem {
	return &eventSystem{bus: bus}
}

func (s *eventSystem) Phase() coresys.Phase { return coresys.PhaseEvents }

func (s *eventSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}

// drainSystem flushes staged removals before anything reads the registry.
// Phase 1 (Drain).
type drainSystem struct {
	state *world.State
	log   *zap.Logger
}

func newDrainSystem(state *world.State, log *zap.Logger) *drainSystem {
	return &drainSystem{state: state, log: log}
}

func (s *drainSystem) Phase() coresys.Phase { return coresys.PhaseDrain }

func (s *drainSystem) Update(_ time.Duration) {
	if n := s.state.Drain(); n > 0 {
		s.log.Debug("drained", zap.Int("removed", n))
	}
}

// renderSystem hands a snapshot of the survivors to the presenter.
// Phase 2 (Render).
type renderSystem struct {
	state     *world.State
	presenter Presenter
	seq       uint64
}

func newRenderSystem(state *world.State, p Presenter) *renderSystem {
	return &renderSystem{state: state, presenter: p}
}

func (s *renderSystem) Phase() coresys.Phase { return coresys.PhaseRender }

func (s *renderSystem) Update(_ time.Duration) {
	s.seq++
	s.presenter.Present(s.state.Snapshot(s.seq))
}

// subscribeLog writes combat and lifecycle events to the log as they are
// dispatched.
func subscribeLog(bus *event.Bus, log *zap.Logger) {
	event.Subscribe(bus, func(ev event.CharacterKilled) {
		log.Debug("character killed",
			zap.String("kind", ev.Kind),
			zap.Uint64("id", uint64(ev.ID)),
			zap.Int("x", ev.X),
			zap.Int("y", ev.Y),
			zap.String("cause", ev.Cause),
		)
	})
	event.Subscribe(bus, func(ev event.ProjectileSpent) {
		if ev.Hit {
			log.Debug("projectile hit",
				zap.String("faction", ev.Faction),
				zap.Int("x", ev.X),
				zap.Int("y", ev.Y),
			)
		}
	})
	event.Subscribe(bus, func(ev event.GameEnded) {
		log.Info("game ended", zap.Bool("won", ev.Won))
	})
}
