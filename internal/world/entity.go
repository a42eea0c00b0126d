package world

import (
	"image/color"
	"sync/atomic"

	"github.com/gridshooter/gridshooter/internal/core/ecs"
)

// Kind is the closed set of character variants.
type Kind uint8

const (
	KindCraft Kind = iota
	KindEnemy
	KindFriend
)

func (k Kind) String() string {
	switch k {
	case KindCraft:
		return "craft"
	case KindEnemy:
		return "enemy"
	case KindFriend:
		return "friend"
	}
	return "unknown"
}

// Faction returns the projectile faction fired by characters of kind k.
func (k Kind) Faction() Faction {
	switch k {
	case KindEnemy:
		return FactionEnemy
	case KindFriend:
		return FactionFriend
	}
	return FactionCraft
}

// ParseKind maps "craft", "enemy" or "friend" to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "craft":
		return KindCraft, true
	case "enemy":
		return KindEnemy, true
	case "friend":
		return KindFriend, true
	}
	return 0, false
}

// Faction tags a projectile with the side that fired it; it selects the
// collision rule set.
type Faction uint8

const (
	FactionCraft Faction = iota
	FactionEnemy
	FactionFriend
)

func (f Faction) String() string {
	switch f {
	case FactionCraft:
		return "craft shot"
	case FactionEnemy:
		return "enemy shot"
	case FactionFriend:
		return "friend shot"
	}
	return "unknown shot"
}

// Palette assigns a fill colour to every entity variant.
type Palette struct {
	Craft      color.RGBA
	Enemy      color.RGBA
	Friend     color.RGBA
	CraftShot  color.RGBA
	EnemyShot  color.RGBA
	FriendShot color.RGBA
}

func DefaultPalette() Palette {
	return Palette{
		Craft:      color.RGBA{R: 255, A: 255},
		Enemy:      color.RGBA{A: 255},
		Friend:     color.RGBA{G: 255, A: 255},
		CraftShot:  color.RGBA{R: 255, G: 200, A: 255},
		EnemyShot:  color.RGBA{B: 255, A: 255},
		FriendShot: color.RGBA{R: 211, G: 40, B: 255, A: 255},
	}
}

func (p Palette) ForKind(k Kind) color.RGBA {
	switch k {
	case KindEnemy:
		return p.Enemy
	case KindFriend:
		return p.Friend
	}
	return p.Craft
}

func (p Palette) ForFaction(f Faction) color.RGBA {
	switch f {
	case FactionEnemy:
		return p.EnemyShot
	case FactionFriend:
		return p.FriendShot
	}
	return p.CraftShot
}

// position packs X and Y into one word so readers never observe a torn
// half-updated coordinate pair.
type position struct{ v atomic.Uint64 }

func packPoint(p Point) uint64 {
	return uint64(uint32(int32(p.X)))<<32 | uint64(uint32(int32(p.Y)))
}

func unpackPoint(v uint64) Point {
	return Point{X: int(int32(uint32(v >> 32))), Y: int(int32(uint32(v)))}
}

func (p *position) load() Point   { return unpackPoint(p.v.Load()) }
func (p *position) store(pt Point) { p.v.Store(packPoint(pt)) }

// Character is the craft, an enemy or a friend. Identity, kind, size and
// colour never change after creation; position and liveness do.
// The nil *Character reports not alive.
type Character struct {
	ID    ecs.EntityID
	Kind  Kind
	Size  int
	Color color.RGBA

	pos   position
	alive atomic.Bool
	won   atomic.Bool
}

func newCharacter(id ecs.EntityID, kind Kind, size int, c color.RGBA, at Point) *Character {
	ch := &Character{ID: id, Kind: kind, Size: size, Color: c}
	ch.pos.store(at)
	ch.alive.Store(true)
	return ch
}

func (c *Character) Alive() bool { return c != nil && c.alive.Load() }

// Won is only ever set on the craft, when the last enemy falls.
func (c *Character) Won() bool { return c != nil && c.won.Load() }

func (c *Character) Position() Point { return c.pos.load() }

// SetPosition places the character without bounds checks.
func (c *Character) SetPosition(p Point) { c.pos.store(p) }

func (c *Character) Rect() Rect {
	p := c.pos.load()
	return Rect{X: p.X, Y: p.Y, Size: c.Size}
}

// Step moves one grid step in d if the destination stays inside g.
// An out-of-bounds move is skipped, not retried. Reports whether it moved.
func (c *Character) Step(d Direction, g Geometry) bool {
	dx, dy := d.Delta(g.Step)
	for {
		old := c.pos.v.Load()
		p := unpackPoint(old)
		next := Point{X: p.X + dx, Y: p.Y + dy}
		if !g.InBounds(next) {
			return false
		}
		if c.pos.v.CompareAndSwap(old, packPoint(next)) {
			return true
		}
	}
}

// kill makes the one-way alive->dead transition. Reports whether this call
// performed it.
func (c *Character) kill() bool {
	return c != nil && c.alive.CompareAndSwap(true, false)
}

// Projectile flies horizontally one step per tick in Dir (-1 left, +1 right).
// The nil *Projectile reports not alive.
type Projectile struct {
	ID      ecs.EntityID
	Faction Faction
	Dir     int
	Size    int
	Color   color.RGBA

	pos   position
	alive atomic.Bool
}

func newProjectile(id ecs.EntityID, f Faction, dir, size int, c color.RGBA, at Point) *Projectile {
	p := &Projectile{ID: id, Faction: f, Dir: dir, Size: size, Color: c}
	p.pos.store(at)
	p.alive.Store(true)
	return p
}

func (p *Projectile) Alive() bool { return p != nil && p.alive.Load() }

func (p *Projectile) Position() Point { return p.pos.load() }

func (p *Projectile) Rect() Rect {
	pt := p.pos.load()
	return Rect{X: pt.X, Y: pt.Y, Size: p.Size}
}

// Advance moves the projectile step pixels along Dir.
func (p *Projectile) Advance(step int) Point {
	pt := p.pos.load()
	pt.X += step * p.Dir
	p.pos.store(pt)
	return pt
}

func (p *Projectile) kill() bool {
	return p != nil && p.alive.CompareAndSwap(true, false)
}
