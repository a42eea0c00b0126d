package combat

import (
	"math/rand"
	"sync"

	"github.com/gridshooter/gridshooter/internal/core/event"
	"github.com/gridshooter/gridshooter/internal/world"
	"go.uber.org/zap"
)

// maxBumpDepth bounds the chain of re-checks a bump can start: a bumped
// character is checked again at its new cell, which may bump another.
const maxBumpDepth = 8

// Overlaps reports whether two squares intersect. Edges are half-open, so
// squares that only touch do not overlap.
func Overlaps(a, b world.Rect) bool {
	return a.X < b.X+b.Size && b.X < a.X+a.Size &&
		a.Y < b.Y+b.Size && b.Y < a.Y+a.Size
}

// Referee is told about deaths that can end the match. Both methods run
// with the registry lock held.
type Referee interface {
	EnemyDown(tx *world.Tx)
	CraftDown(tx *world.Tx)
}

// Engine resolves character and projectile collisions against the registry.
// Safe for concurrent use; every check runs as one locked pass.
type Engine struct {
	state   *world.State
	bus     *event.Bus
	referee Referee
	log     *zap.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewEngine(state *world.State, bus *event.Bus, rng *rand.Rand, referee Referee, log *zap.Logger) *Engine {
	return &Engine{
		state:   state,
		bus:     bus,
		referee: referee,
		rng:     rng,
		log:     log.Named("combat"),
	}
}

// CheckCharacter applies the character rules between subject and every
// other live character it overlaps.
func (e *Engine) CheckCharacter(subject *world.Character) {
	if !subject.Alive() {
		return
	}
	e.state.Locked(func(tx *world.Tx) {
		defer e.recoverScan("character")
		e.checkCharacter(tx, subject, 0)
	})
}

func (e *Engine) checkCharacter(tx *world.Tx, subject *world.Character, depth int) {
	var bumped []*world.Character
	tx.EachCharacter(func(other *world.Character) bool {
		if !subject.Alive() {
			return false
		}
		if other == subject || !other.Alive() {
			return true
		}
		if !Overlaps(other.Rect(), subject.Rect()) {
			return true
		}
		if b := e.resolveCharacters(tx, subject, other); b != nil {
			bumped = append(bumped, b)
		}
		return true
	})
	if depth >= maxBumpDepth {
		return
	}
	for _, b := range bumped {
		if b.Alive() {
			e.checkCharacter(tx, b, depth+1)
		}
	}
}

// resolveCharacters applies the first matching pair rule and returns the
// character that was bumped, if any.
func (e *Engine) resolveCharacters(tx *world.Tx, subject, other *world.Character) *world.Character {
	a, b := subject.Kind, other.Kind
	switch {
	case a == world.KindFriend && b == world.KindEnemy,
		a == world.KindEnemy && b == world.KindFriend:
		e.killCharacter(tx, subject, "collision")
		e.killCharacter(tx, other, "collision")
		e.enemyDown(tx)

	case a == world.KindEnemy && b == world.KindCraft,
		a == world.KindCraft && b == world.KindEnemy:
		e.killCraft(tx, "collision")

	case a == world.KindEnemy && b == world.KindEnemy,
		a == world.KindFriend && b == world.KindFriend:
		if e.bump(tx, other) {
			return other
		}

	case a == world.KindFriend && b == world.KindCraft:
		if e.bump(tx, subject) {
			return subject
		}

	case a == world.KindCraft && b == world.KindFriend:
		if e.bump(tx, other) {
			return other
		}
	}
	return nil
}

// bump moves c one random step. Out-of-field draws are skipped.
func (e *Engine) bump(tx *world.Tx, c *world.Character) bool {
	return c.Step(e.RandomDirection(), tx.Geometry())
}

// RandomDirection draws one of the four moves uniformly.
func (e *Engine) RandomDirection() world.Direction {
	e.rngMu.Lock()
	n := e.rng.Intn(len(world.Directions))
	e.rngMu.Unlock()
	return world.Directions[n]
}

// CheckProjectile applies the projectile rules for p against every live
// character. It stops at the first hit that absorbs the projectile.
func (e *Engine) CheckProjectile(p *world.Projectile) {
	if !p.Alive() {
		return
	}
	e.state.Locked(func(tx *world.Tx) {
		defer e.recoverScan("projectile")
		tx.EachCharacter(func(c *world.Character) bool {
			if !p.Alive() {
				return false
			}
			if !c.Alive() || !Overlaps(p.Rect(), c.Rect()) {
				return true
			}
			e.resolveHit(tx, p, c)
			return p.Alive()
		})
	})
}

func (e *Engine) resolveHit(tx *world.Tx, p *world.Projectile, c *world.Character) {
	cause := p.Faction.String()
	switch p.Faction {
	case world.FactionCraft, world.FactionFriend:
		if c.Kind == world.KindEnemy {
			e.killCharacter(tx, c, cause)
			e.enemyDown(tx)
		}
	case world.FactionEnemy:
		switch c.Kind {
		case world.KindFriend:
			e.killCharacter(tx, c, cause)
		case world.KindCraft:
			e.killCraft(tx, cause)
		}
	}
	e.spend(tx, p, true)
}

// Spend retires a projectile that stopped flying without a hit.
func (e *Engine) Spend(p *world.Projectile) {
	e.state.Locked(func(tx *world.Tx) { e.spend(tx, p, false) })
}

func (e *Engine) spend(tx *world.Tx, p *world.Projectile, hit bool) {
	if !tx.KillProjectile(p) {
		return
	}
	pt := p.Position()
	event.Emit(e.bus, event.ProjectileSpent{
		ID:      p.ID,
		Faction: p.Faction.String(),
		X:       pt.X,
		Y:       pt.Y,
		Hit:     hit,
	})
}

func (e *Engine) killCharacter(tx *world.Tx, c *world.Character, cause string) {
	if !tx.Kill(c) {
		return
	}
	pt := c.Position()
	event.Emit(e.bus, event.CharacterKilled{
		ID:    c.ID,
		Kind:  c.Kind.String(),
		X:     pt.X,
		Y:     pt.Y,
		Cause: cause,
	})
}

// enemyDown runs after every death of a pass has been emitted, so a match
// ended by the referee never loses the events that ended it.
func (e *Engine) enemyDown(tx *world.Tx) {
	if e.referee != nil {
		e.referee.EnemyDown(tx)
	}
}

func (e *Engine) killCraft(tx *world.Tx, cause string) {
	craft := tx.Craft()
	if !craft.Alive() {
		return
	}
	pt := craft.Position()
	event.Emit(e.bus, event.CharacterKilled{
		ID:    craft.ID,
		Kind:  world.KindCraft.String(),
		X:     pt.X,
		Y:     pt.Y,
		Cause: cause,
	})
	if e.referee != nil {
		e.referee.CraftDown(tx)
		return
	}
	tx.KillCraft(false)
}

// recoverScan keeps a faulty pass from taking down the calling task.
func (e *Engine) recoverScan(what string) {
	if r := recover(); r != nil {
		e.log.Warn("collision scan aborted",
			zap.String("check", what),
			zap.Any("panic", r),
		)
	}
}
