package game

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gridshooter/gridshooter/internal/behavior"
	"github.com/gridshooter/gridshooter/internal/combat"
	"github.com/gridshooter/gridshooter/internal/core/event"
	coresys "github.com/gridshooter/gridshooter/internal/core/system"
	"github.com/gridshooter/gridshooter/internal/data"
	"github.com/gridshooter/gridshooter/internal/world"
	"go.uber.org/zap"
)

var (
	ErrStarted = errors.New("game already started")
	ErrEnded   = errors.New("game already ended")
)

// Presenter is the output side of a frontend. Present is called from the
// frame driver once per frame; GameOver is called exactly once, after the
// final frame, when the match reaches a terminal state.
type Presenter interface {
	Present(f *world.Frame)
	GameOver(won bool)
}

// Options configures a match.
type Options struct {
	Geometry      world.Geometry
	Palette       world.Palette
	Timing        behavior.Config
	FrameInterval time.Duration
	Scenario      *data.Scenario
	Script        behavior.Scripter // optional
}

// DefaultOptions is the classic field with ten enemies and ten friends.
func DefaultOptions() Options {
	return Options{
		Geometry:      world.DefaultGeometry(),
		Palette:       world.DefaultPalette(),
		Timing:        behavior.DefaultConfig(),
		FrameInterval: 50 * time.Millisecond,
		Scenario:      data.DefaultScenario(),
	}
}

// Game owns one match: the registry, collision engine, behavior tasks and
// the frame driver.
type Game struct {
	opts Options
	log  *zap.Logger
	seed int64

	state  *world.State
	bus    *event.Bus
	engine *combat.Engine
	runner *coresys.Runner
	rng    *rand.Rand // placement only; used before any task starts

	sched   *behavior.Scheduler
	cancel  context.CancelFunc
	started atomic.Bool

	endOnce sync.Once
	done    chan struct{}
	won     atomic.Bool

	driverDone chan struct{}
}

func New(opts Options, log *zap.Logger) (*Game, error) {
	if opts.Scenario == nil {
		opts.Scenario = data.DefaultScenario()
	}
	if err := opts.Scenario.Validate(opts.Geometry); err != nil {
		return nil, err
	}
	seed := opts.Scenario.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	g := &Game{
		opts:       opts,
		log:        log.Named("game"),
		seed:       seed,
		state:      world.NewState(opts.Geometry, opts.Palette),
		bus:        event.NewBus(),
		runner:     coresys.NewRunner(),
		rng:        rand.New(rand.NewSource(seed)),
		done:       make(chan struct{}),
		driverDone: make(chan struct{}),
	}
	g.engine = combat.NewEngine(g.state, g.bus, rand.New(rand.NewSource(seed+1)), g, log)
	subscribeLog(g.bus, g.log)
	return g, nil
}

// State exposes the registry for frontends and tests.
func (g *Game) State() *world.State { return g.state }

// Engine exposes the collision engine.
func (g *Game) Engine() *combat.Engine { return g.engine }

// Seed returns the seed used for placement and movement.
func (g *Game) Seed() int64 { return g.seed }

// Start places the craft, spawns the scenario's forces, starts their
// behavior and the frame driver. Cancelling ctx stops the match without a
// result.
func (g *Game) Start(ctx context.Context, p Presenter) error {
	select {
	case <-g.done:
		return ErrEnded
	default:
	}
	if !g.started.CompareAndSwap(false, true) {
		return ErrStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	g.cancel = cancel

	var picker behavior.DirectionPicker = behavior.NewRandomPicker(rand.New(rand.NewSource(g.seed + 2)))
	if g.opts.Script != nil {
		picker = behavior.NewScriptedPicker(g.opts.Script, picker)
	}
	g.sched = behavior.NewScheduler(ctx, g.opts.Timing, g.state, g.engine, picker, g.log)

	g.runner.Register(newEventSystem(g.bus))
	g.runner.Register(newDrainSystem(g.state, g.log))
	g.runner.Register(newRenderSystem(g.state, p))

	var spawned []*world.Character
	g.state.Locked(func(tx *world.Tx) { spawned = g.populate(tx) })
	for _, c := range spawned {
		g.sched.Spawn(c)
	}
	g.log.Info("match started",
		zap.Int("enemies", g.opts.Scenario.Enemies),
		zap.Int("friends", g.opts.Scenario.Friends),
		zap.Int64("seed", g.Seed()),
	)

	go g.drive(ctx, p)
	return nil
}

// populate places the craft, then every pinned character, then scatters
// the remainder of each force over free cells.
func (g *Game) populate(tx *world.Tx) []*world.Character {
	tx.PlaceCraft()
	geo := tx.Geometry()
	sc := g.opts.Scenario

	fixedEnemies := sc.Fixed(world.KindEnemy)
	fixedFriends := sc.Fixed(world.KindFriend)

	out := make([]*world.Character, 0, sc.Enemies+sc.Friends)
	for _, p := range fixedEnemies {
		out = append(out, tx.AddEnemy(p))
	}
	for _, p := range fixedFriends {
		out = append(out, tx.AddFriend(p))
	}
	for i := len(fixedEnemies); i < sc.Enemies; i++ {
		out = append(out, tx.AddEnemy(world.PlaceNewEntity(g.rng, geo, tx.Occupied())))
	}
	for i := len(fixedFriends); i < sc.Friends; i++ {
		out = append(out, tx.AddFriend(world.PlaceNewEntity(g.rng, geo, tx.Occupied())))
	}
	return out
}

// MoveCraft steps the craft one cell in d, skipping moves that would leave
// the field, then resolves collisions. Returns false once the match is over.
func (g *Game) MoveCraft(d world.Direction) bool {
	craft := g.state.Craft()
	if !g.started.Load() || !craft.Alive() || !d.Valid() {
		return false
	}
	craft.Step(d, g.state.Geometry())
	g.engine.CheckCharacter(craft)
	return true
}

// FireCraft launches two craft shots flanking the craft.
func (g *Game) FireCraft() []*world.Projectile {
	if !g.started.Load() {
		return nil
	}
	return g.sched.Fire(g.state.Craft())
}

// EnemyDown runs the win check after an enemy death.
func (g *Game) EnemyDown(tx *world.Tx) {
	g.checkWin(tx)
}

// CraftDown ends the match as lost.
func (g *Game) CraftDown(tx *world.Tx) {
	g.finish(tx, false)
}

// CheckWin ends the match as won when the craft is alive and no enemy is.
// Reports whether this call ended the match.
func (g *Game) CheckWin() bool {
	ended := false
	g.state.Locked(func(tx *world.Tx) { ended = g.checkWin(tx) })
	return ended
}

func (g *Game) checkWin(tx *world.Tx) bool {
	if !tx.Craft().Alive() || tx.AnyEnemyAlive() {
		return false
	}
	return g.finish(tx, true)
}

// End forces a terminal state. Only the first terminal transition counts;
// later calls report false.
func (g *Game) End(won bool) bool {
	ended := false
	g.state.Locked(func(tx *world.Tx) { ended = g.finish(tx, won) })
	return ended
}

func (g *Game) finish(tx *world.Tx, won bool) bool {
	ended := false
	g.endOnce.Do(func() {
		ended = true
		// publish before the craft dies: the frame driver exits on a dead
		// craft and must find the result and the event already queued
		g.won.Store(won)
		close(g.done)
		event.Emit(g.bus, event.GameEnded{Won: won})
		tx.KillCraft(won)
		if g.cancel != nil {
			g.cancel()
		}
	})
	return ended
}

// Done is closed when the match reaches a terminal state.
func (g *Game) Done() <-chan struct{} { return g.done }

// Result reports whether the match is over and, if so, whether it was won.
func (g *Game) Result() (over, won bool) {
	select {
	case <-g.done:
		return true, g.won.Load()
	default:
		return false, false
	}
}

// Stop cancels a running match without a result.
func (g *Game) Stop() {
	if g.cancel != nil {
		g.cancel()
	}
}

// Wait blocks until the frame driver and every behavior task have returned.
func (g *Game) Wait() error {
	if !g.started.Load() {
		return nil
	}
	<-g.driverDone
	return g.sched.Wait()
}

// drive runs the frame systems every FrameInterval until the match ends or
// ctx is cancelled. A finished match gets one last frame and the GameOver
// call.
func (g *Game) drive(ctx context.Context, p Presenter) {
	defer close(g.driverDone)

	interval := g.opts.FrameInterval
	t := time.NewTicker(interval)
	defer t.Stop()

loop:
	for g.state.Craft().Alive() {
		select {
		case <-ctx.Done():
			break loop
		case <-t.C:
			g.runner.Tick(interval)
		}
	}

	over, won := g.Result()
	if !over {
		// deliver what was emitted before the cancel; nothing is drawn
		g.runner.TickPhase(coresys.PhaseEvents, interval)
		g.log.Info("match stopped", zap.Int("enemies_left", g.state.EnemiesAlive()))
		return
	}
	g.runner.Tick(interval)
	g.log.Info("match over",
		zap.Bool("won", won),
		zap.Int("enemies_left", g.state.EnemiesAlive()),
		zap.Uint64("frames", g.runner.Frames()),
	)
	p.GameOver(won)
}
