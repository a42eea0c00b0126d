package data

import (
	"errors"
	"fmt"
	"image/color"
	"os"

	"github.com/gridshooter/gridshooter/internal/world"
	"gopkg.in/yaml.v3"
)

var (
	// ErrBadPlacement is returned when a fixed placement cannot be honoured.
	ErrBadPlacement = errors.New("bad placement")
	// ErrBadCount is returned for a negative force count.
	ErrBadCount = errors.New("bad force count")
)

// Placement pins one character to a cell at setup.
type Placement struct {
	Kind string `yaml:"kind"` // "enemy" or "friend"
	X    int    `yaml:"x"`
	Y    int    `yaml:"y"`
}

// RGB is a colour written as [r, g, b].
type RGB [3]uint8

func (c RGB) RGBA() color.RGBA { return color.RGBA{R: c[0], G: c[1], B: c[2], A: 255} }

// PaletteOverride replaces individual entries of the default palette.
type PaletteOverride struct {
	Craft      *RGB `yaml:"craft"`
	Enemy      *RGB `yaml:"enemy"`
	Friend     *RGB `yaml:"friend"`
	CraftShot  *RGB `yaml:"craft_shot"`
	EnemyShot  *RGB `yaml:"enemy_shot"`
	FriendShot *RGB `yaml:"friend_shot"`
}

// Scenario describes the opening forces of a match.
type Scenario struct {
	Enemies    int             `yaml:"enemies"`
	Friends    int             `yaml:"friends"`
	Seed       int64           `yaml:"seed"` // 0 picks a time-based seed
	Placements []Placement     `yaml:"placements"`
	Palette    PaletteOverride `yaml:"palette"`
}

// DefaultScenario is ten enemies against ten friends, all placed randomly.
func DefaultScenario() *Scenario {
	return &Scenario{Enemies: 10, Friends: 10}
}

// LoadScenario loads a scenario YAML file. Counts left out of the file keep
// their defaults.
func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	s := DefaultScenario()
	if err := yaml.Unmarshal(raw, s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	return s, nil
}

// Fixed returns the pinned cells for kind, in file order.
func (s *Scenario) Fixed(kind world.Kind) []world.Point {
	var out []world.Point
	for _, p := range s.Placements {
		if k, ok := world.ParseKind(p.Kind); ok && k == kind {
			out = append(out, world.Point{X: p.X, Y: p.Y})
		}
	}
	return out
}

// ApplyPalette returns base with the scenario's overrides applied.
func (s *Scenario) ApplyPalette(base world.Palette) world.Palette {
	o := s.Palette
	set := func(dst *color.RGBA, src *RGB) {
		if src != nil {
			*dst = src.RGBA()
		}
	}
	set(&base.Craft, o.Craft)
	set(&base.Enemy, o.Enemy)
	set(&base.Friend, o.Friend)
	set(&base.CraftShot, o.CraftShot)
	set(&base.EnemyShot, o.EnemyShot)
	set(&base.FriendShot, o.FriendShot)
	return base
}

// Validate checks the scenario against the playfield.
func (s *Scenario) Validate(g world.Geometry) error {
	if s.Enemies < 0 || s.Friends < 0 {
		return fmt.Errorf("enemies=%d friends=%d: %w", s.Enemies, s.Friends, ErrBadCount)
	}
	perKind := map[world.Kind]int{}
	seen := make(map[world.Point]int, len(s.Placements))
	for i, p := range s.Placements {
		kind, ok := world.ParseKind(p.Kind)
		if !ok || kind == world.KindCraft {
			return fmt.Errorf("placement %d: kind %q: %w", i, p.Kind, ErrBadPlacement)
		}
		pt := world.Point{X: p.X, Y: p.Y}
		switch {
		case !g.InBounds(pt):
			return fmt.Errorf("placement %d at (%d,%d) is outside the field: %w", i, p.X, p.Y, ErrBadPlacement)
		case !g.OnGrid(pt):
			return fmt.Errorf("placement %d at (%d,%d) is off the %dpx grid: %w", i, p.X, p.Y, g.Step, ErrBadPlacement)
		case pt == g.CraftStart:
			return fmt.Errorf("placement %d takes the craft start cell: %w", i, ErrBadPlacement)
		}
		if j, dup := seen[pt]; dup {
			return fmt.Errorf("placements %d and %d share (%d,%d): %w", j, i, p.X, p.Y, ErrBadPlacement)
		}
		seen[pt] = i
		perKind[kind]++
	}
	if perKind[world.KindEnemy] > s.Enemies {
		return fmt.Errorf("%d enemy placements for %d enemies: %w", perKind[world.KindEnemy], s.Enemies, ErrBadPlacement)
	}
	if perKind[world.KindFriend] > s.Friends {
		return fmt.Errorf("%d friend placements for %d friends: %w", perKind[world.KindFriend], s.Friends, ErrBadPlacement)
	}
	// one cell stays reserved for the craft
	if free := g.Columns()*g.Rows() - 1; s.Enemies+s.Friends > free {
		return fmt.Errorf("%d characters do not fit in %d free cells: %w", s.Enemies+s.Friends, free, ErrBadPlacement)
	}
	return nil
}
