package behavior

import (
	"math/rand"
	"sync"

	"github.com/gridshooter/gridshooter/internal/scripting"
	"github.com/gridshooter/gridshooter/internal/world"
)

// DirectionPicker chooses the next move for a wandering character.
// Implementations must be safe for concurrent use.
type DirectionPicker interface {
	PickDirection(c *world.Character, g world.Geometry) world.Direction
}

// RandomPicker draws uniformly from the four moves.
type RandomPicker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomPicker(rng *rand.Rand) *RandomPicker {
	return &RandomPicker{rng: rng}
}

func (p *RandomPicker) PickDirection(_ *world.Character, _ world.Geometry) world.Direction {
	p.mu.Lock()
	n := p.rng.Intn(len(world.Directions))
	p.mu.Unlock()
	return world.Directions[n]
}

// Scripter is the subset of the Lua engine the Mover uses.
type Scripter interface {
	PickDirection(ctx scripting.MoveContext) (world.Direction, bool)
}

// ScriptedPicker asks a script first and falls back when the script has no
// answer.
type ScriptedPicker struct {
	script   Scripter
	fallback DirectionPicker
}

func NewScriptedPicker(script Scripter, fallback DirectionPicker) *ScriptedPicker {
	return &ScriptedPicker{script: script, fallback: fallback}
}

func (p *ScriptedPicker) PickDirection(c *world.Character, g world.Geometry) world.Direction {
	pos := c.Position()
	d, ok := p.script.PickDirection(scripting.MoveContext{
		Kind:   c.Kind.String(),
		X:      pos.X,
		Y:      pos.Y,
		Size:   c.Size,
		Width:  g.Width,
		Height: g.Height,
		Step:   g.Step,
	})
	if ok {
		return d
	}
	return p.fallback.PickDirection(c, g)
}
