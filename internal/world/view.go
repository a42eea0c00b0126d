package world

import "image/color"

// Sprite is a filled square to paint.
type Sprite struct {
	X, Y  int
	Size  int
	Color color.RGBA
}

// Frame is an immutable snapshot of the live entities, taken after a drain.
// Frontends may hold on to it after the lock is released.
type Frame struct {
	Seq         uint64
	Projectiles []Sprite
	Enemies     []Sprite
	Friends     []Sprite
	Craft       *Sprite // nil once the craft is dead

	Over bool
	Won  bool
}

// Sprites flattens the frame in paint order: projectiles, enemies,
// friends, then the craft on top.
func (f *Frame) Sprites() []Sprite {
	out := make([]Sprite, 0, len(f.Projectiles)+len(f.Enemies)+len(f.Friends)+1)
	out = append(out, f.Projectiles...)
	out = append(out, f.Enemies...)
	out = append(out, f.Friends...)
	if f.Craft != nil {
		out = append(out, *f.Craft)
	}
	return out
}

// Snapshot drains staged removals and captures every live entity.
func (s *State) Snapshot(seq uint64) *Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drain()

	f := &Frame{
		Seq:         seq,
		Projectiles: make([]Sprite, 0, s.projectiles.Len()),
		Enemies:     make([]Sprite, 0, s.enemies.Len()),
		Friends:     make([]Sprite, 0, s.friends.Len()),
	}
	tx := &Tx{s: s}
	tx.EachProjectile(func(p *Projectile) bool {
		if p.Alive() {
			f.Projectiles = append(f.Projectiles, spriteOf(p.Rect(), p.Color))
		}
		return true
	})
	tx.EachEnemy(func(c *Character) bool {
		if c.Alive() {
			f.Enemies = append(f.Enemies, spriteOf(c.Rect(), c.Color))
		}
		return true
	})
	tx.EachFriend(func(c *Character) bool {
		if c.Alive() {
			f.Friends = append(f.Friends, spriteOf(c.Rect(), c.Color))
		}
		return true
	})
	if s.craft.Alive() {
		sp := spriteOf(s.craft.Rect(), s.craft.Color)
		f.Craft = &sp
	} else {
		f.Over = true
		f.Won = s.craft.Won()
	}
	return f
}

func spriteOf(r Rect, c color.RGBA) Sprite {
	return Sprite{X: r.X, Y: r.Y, Size: r.Size, Color: c}
}
