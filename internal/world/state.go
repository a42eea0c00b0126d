package world

import (
	"sync"

	"github.com/gridshooter/gridshooter/internal/core/ecs"
)

// category indexes the three removable collections.
type category int

const (
	catEnemy category = iota
	catFriend
	catProjectile
	numCategories
)

// State is the World Registry: the authoritative live collections plus one
// pending-removal queue per removable category.
//
// A single mutex guards all of it. The lock is intentionally coarse: every
// scan (collision, drain, snapshot) takes it for the whole pass.
//
// Structural removal only happens in Drain. A death marks the entity and
// stages its handle; scans in progress keep seeing the entity (flagged
// dead) until the next drain.
type State struct {
	mu sync.Mutex

	geo     Geometry
	palette Palette

	arena       *ecs.World
	characters  *ecs.Store[Character]
	enemies     *ecs.Store[Character]
	friends     *ecs.Store[Character]
	projectiles *ecs.Store[Projectile]
	pending     [numCategories]*ecs.DestroyQueue

	craft *Character
}

func NewState(geo Geometry, palette Palette) *State {
	s := &State{
		geo:         geo,
		palette:     palette,
		arena:       ecs.NewWorld(),
		characters:  ecs.NewStore[Character](64),
		enemies:     ecs.NewStore[Character](32),
		friends:     ecs.NewStore[Character](32),
		projectiles: ecs.NewStore[Projectile](128),
	}
	reg := s.arena.Registry()
	reg.Register(s.characters)
	reg.Register(s.enemies)
	reg.Register(s.friends)
	reg.Register(s.projectiles)
	for i := range s.pending {
		s.pending[i] = ecs.NewDestroyQueue()
	}

	// The craft is created up front so it can be referenced (and polled for
	// liveness) before the match starts. It is parked off-field until placed.
	id := s.arena.CreateEntity()
	s.craft = newCharacter(id, KindCraft, geo.Sizes.Craft, palette.Craft, Point{X: -100, Y: -100})
	s.characters.Set(id, s.craft)
	return s
}

func (s *State) Geometry() Geometry { return s.geo }
func (s *State) Palette() Palette   { return s.palette }

// Craft returns the player's craft. The pointer never changes.
func (s *State) Craft() *Character { return s.craft }

// Locked runs fn with the registry lock held.
func (s *State) Locked(fn func(tx *Tx)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&Tx{s: s})
}

// Drain flushes all staged removals. Returns the number of entities removed.
func (s *State) Drain() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drain()
}

func (s *State) drain() int {
	n := 0
	for _, q := range s.pending {
		n += s.arena.Flush(q)
	}
	return n
}

// Counts reports the current size of each live collection, including
// entities marked dead but not yet drained.
type Counts struct {
	Characters  int
	Enemies     int
	Friends     int
	Projectiles int
	Pending     int
}

func (s *State) Counts() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := Counts{
		Characters:  s.characters.Len(),
		Enemies:     s.enemies.Len(),
		Friends:     s.friends.Len(),
		Projectiles: s.projectiles.Len(),
	}
	for _, q := range s.pending {
		c.Pending += q.Len()
	}
	return c
}

// EnemiesAlive counts enemies whose alive flag is still set.
func (s *State) EnemiesAlive() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	s.enemies.Each(func(_ ecs.EntityID, c *Character) bool {
		if c.Alive() {
			n++
		}
		return true
	})
	return n
}

// AddProjectile registers a projectile under the lock.
func (s *State) AddProjectile(f Faction, at Point, dir int) *Projectile {
	var p *Projectile
	s.Locked(func(tx *Tx) { p = tx.AddProjectile(f, at, dir) })
	return p
}

// Tx is the handle for operations that must run under the registry lock.
// It is only valid inside the Locked callback that produced it.
type Tx struct {
	s *State
}

func (tx *Tx) Geometry() Geometry { return tx.s.geo }
func (tx *Tx) Craft() *Character  { return tx.s.craft }

// PlaceCraft moves the craft to its start cell and revives nothing: a dead
// craft stays dead.
func (tx *Tx) PlaceCraft() {
	tx.s.craft.SetPosition(tx.s.geo.CraftStart)
}

// AddEnemy registers a live enemy at p.
func (tx *Tx) AddEnemy(p Point) *Character {
	return tx.addCharacter(KindEnemy, p, tx.s.enemies)
}

// AddFriend registers a live friend at p.
func (tx *Tx) AddFriend(p Point) *Character {
	return tx.addCharacter(KindFriend, p, tx.s.friends)
}

func (tx *Tx) addCharacter(kind Kind, p Point, bucket *ecs.Store[Character]) *Character {
	s := tx.s
	id := s.arena.CreateEntity()
	c := newCharacter(id, kind, s.geo.SizeOf(kind), s.palette.ForKind(kind), p)
	s.characters.Set(id, c)
	bucket.Set(id, c)
	return c
}

// AddProjectile registers a live projectile at p flying in dir.
func (tx *Tx) AddProjectile(f Faction, p Point, dir int) *Projectile {
	s := tx.s
	id := s.arena.CreateEntity()
	pr := newProjectile(id, f, dir, s.geo.Sizes.Projectile, s.palette.ForFaction(f), p)
	s.projectiles.Set(id, pr)
	return pr
}

// Occupied returns the positions of every character in the registry.
func (tx *Tx) Occupied() []Point {
	out := make([]Point, 0, tx.s.characters.Len())
	tx.s.characters.Each(func(_ ecs.EntityID, c *Character) bool {
		out = append(out, c.Position())
		return true
	})
	return out
}

// EachCharacter visits characters in registration order until fn returns
// false. Dead-but-undrained characters are included; callers check Alive.
func (tx *Tx) EachCharacter(fn func(*Character) bool) {
	tx.s.characters.Each(func(_ ecs.EntityID, c *Character) bool { return fn(c) })
}

func (tx *Tx) EachEnemy(fn func(*Character) bool) {
	tx.s.enemies.Each(func(_ ecs.EntityID, c *Character) bool { return fn(c) })
}

func (tx *Tx) EachFriend(fn func(*Character) bool) {
	tx.s.friends.Each(func(_ ecs.EntityID, c *Character) bool { return fn(c) })
}

func (tx *Tx) EachProjectile(fn func(*Projectile) bool) {
	tx.s.projectiles.Each(func(_ ecs.EntityID, p *Projectile) bool { return fn(p) })
}

// AnyEnemyAlive reports whether at least one enemy still has its alive flag.
func (tx *Tx) AnyEnemyAlive() bool {
	found := false
	tx.s.enemies.Each(func(_ ecs.EntityID, c *Character) bool {
		if c.Alive() {
			found = true
			return false
		}
		return true
	})
	return found
}

// Kill marks a character dead and stages it for removal. The craft is never
// staged; it stays in the registry for the rest of the match.
// Reports whether this call performed the transition.
func (tx *Tx) Kill(c *Character) bool {
	if !c.kill() {
		return false
	}
	switch c.Kind {
	case KindEnemy:
		tx.s.pending[catEnemy].Push(c.ID)
	case KindFriend:
		tx.s.pending[catFriend].Push(c.ID)
	}
	return true
}

// KillCraft ends the craft's life, recording whether the match was won.
// Reports whether this call performed the transition.
func (tx *Tx) KillCraft(won bool) bool {
	c := tx.s.craft
	if !c.Alive() {
		return false
	}
	if won {
		c.won.Store(true)
	}
	return c.kill()
}

// KillProjectile marks a projectile dead and stages it for removal.
func (tx *Tx) KillProjectile(p *Projectile) bool {
	if !p.kill() {
		return false
	}
	tx.s.pending[catProjectile].Push(p.ID)
	return true
}

// Staged reports whether id is waiting in any pending-removal queue.
func (tx *Tx) Staged(id ecs.EntityID) bool {
	for _, q := range tx.s.pending {
		if q.Contains(id) {
			return true
		}
	}
	return false
}
