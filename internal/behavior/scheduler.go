package behavior

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gridshooter/gridshooter/internal/combat"
	"github.com/gridshooter/gridshooter/internal/world"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Config holds the fixed periods of every scheduled behavior.
type Config struct {
	MoveInterval       time.Duration
	ShootInterval      time.Duration
	ProjectileInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		MoveInterval:       500 * time.Millisecond,
		ShootInterval:      1005 * time.Millisecond,
		ProjectileInterval: 100 * time.Millisecond,
	}
}

// Scheduler runs one Mover and one Shooter task per character and one
// flight task per projectile. Every task stops when the context passed to
// NewScheduler is cancelled or the craft dies, whichever it sees first.
type Scheduler struct {
	cfg    Config
	state  *world.State
	engine *combat.Engine
	picker DirectionPicker
	log    *zap.Logger

	ctx   context.Context
	group *errgroup.Group

	mu     sync.Mutex // guards closed; held across group.Go
	closed bool

	active   atomic.Int64
	launched atomic.Int64
}

func NewScheduler(ctx context.Context, cfg Config, state *world.State, engine *combat.Engine, picker DirectionPicker, log *zap.Logger) *Scheduler {
	g, gctx := errgroup.WithContext(ctx)
	return &Scheduler{
		cfg:    cfg,
		state:  state,
		engine: engine,
		picker: picker,
		log:    log.Named("behavior"),
		ctx:    gctx,
		group:  g,
	}
}

// Active returns the number of tasks currently running.
func (s *Scheduler) Active() int { return int(s.active.Load()) }

// Launched returns how many projectiles have been put in flight.
func (s *Scheduler) Launched() int { return int(s.launched.Load()) }

// Spawn starts the Mover and Shooter for c.
func (s *Scheduler) Spawn(c *world.Character) {
	s.goTask(func(ctx context.Context) error { return s.runMover(ctx, c) })
	s.goTask(func(ctx context.Context) error { return s.runShooter(ctx, c) })
	pos := c.Position()
	s.log.Debug("behavior started",
		zap.String("kind", c.Kind.String()),
		zap.Uint64("id", uint64(c.ID)),
		zap.Int("x", pos.X),
		zap.Int("y", pos.Y),
	)
}

// Fire puts two shots in flight from owner, one leaving each flank, tagged
// with owner's faction. A dead owner fires nothing.
func (s *Scheduler) Fire(owner *world.Character) []*world.Projectile {
	if !owner.Alive() {
		return nil
	}
	pos := owner.Position()
	faction := owner.Kind.Faction()
	projSize := s.state.Geometry().Sizes.Projectile

	left := s.state.AddProjectile(faction, world.Point{X: pos.X - projSize, Y: pos.Y}, -1)
	right := s.state.AddProjectile(faction, world.Point{X: pos.X + owner.Size, Y: pos.Y}, 1)
	s.Launch(left)
	s.Launch(right)
	return []*world.Projectile{left, right}
}

// Launch starts the flight task for p. After Wait has been called the
// projectile is retired immediately instead.
func (s *Scheduler) Launch(p *world.Projectile) {
	if !s.goTask(func(ctx context.Context) error { return s.fly(ctx, p) }) {
		s.engine.Spend(p)
		return
	}
	s.launched.Add(1)
}

// Wait blocks until every task has returned. No task can be started
// afterwards.
func (s *Scheduler) Wait() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	err := s.group.Wait()
	s.log.Debug("behavior stopped", zap.Int("projectiles_launched", s.Launched()))
	return err
}

func (s *Scheduler) goTask(fn func(ctx context.Context) error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.active.Add(1)
	s.group.Go(func() error {
		defer s.active.Add(-1)
		return fn(s.ctx)
	})
	return true
}

// running reports whether scheduled behavior should continue.
func (s *Scheduler) running(ctx context.Context) bool {
	return ctx.Err() == nil && s.state.Craft().Alive()
}

// sleep waits for the next tick. A cancelled context is the normal way out.
func sleep(ctx context.Context, t *time.Ticker) bool {
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (s *Scheduler) runMover(ctx context.Context, c *world.Character) error {
	t := time.NewTicker(s.cfg.MoveInterval)
	defer t.Stop()
	geo := s.state.Geometry()

	for s.running(ctx) {
		if !sleep(ctx, t) {
			return nil
		}
		if !c.Alive() {
			continue
		}
		c.Step(s.picker.PickDirection(c, geo), geo)
		s.engine.CheckCharacter(c)
	}
	return nil
}

func (s *Scheduler) runShooter(ctx context.Context, c *world.Character) error {
	t := time.NewTicker(s.cfg.ShootInterval)
	defer t.Stop()

	for s.running(ctx) {
		if !sleep(ctx, t) {
			return nil
		}
		if !s.state.Craft().Alive() {
			return nil
		}
		s.Fire(c)
	}
	return nil
}

// fly advances p one step per tick, checking for hits before each advance,
// until it leaves the field or is spent. The projectile is always retired
// on the way out.
func (s *Scheduler) fly(ctx context.Context, p *world.Projectile) error {
	defer s.engine.Spend(p)

	t := time.NewTicker(s.cfg.ProjectileInterval)
	defer t.Stop()
	geo := s.state.Geometry()

	for p.Alive() && geo.ProjectileInField(p.Position()) {
		if !sleep(ctx, t) {
			return nil
		}
		s.engine.CheckProjectile(p)
		if !p.Alive() {
			return nil
		}
		p.Advance(geo.Step)
	}
	return nil
}
