package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gridshooter/gridshooter/internal/behavior"
	"github.com/gridshooter/gridshooter/internal/world"
)

// EnvPath names the environment variable that overrides the config path.
const EnvPath = "GRIDSHOOTER_CONFIG"

// DefaultPath is used when EnvPath is unset.
const DefaultPath = "config/gridshooter.toml"

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Playfield PlayfieldConfig `toml:"playfield"`
	Sizes     SizesConfig     `toml:"sizes"`
	Timing    TimingConfig    `toml:"timing"`
	Logging   LoggingConfig   `toml:"logging"`
	Scripting ScriptingConfig `toml:"scripting"`
	Scenario  ScenarioConfig  `toml:"scenario"`
	Display   DisplayConfig   `toml:"display"`
}

type PlayfieldConfig struct {
	Width          int `toml:"width"`
	Height         int `toml:"height"`
	Step           int `toml:"step"`
	CraftStartX    int `toml:"craft_start_x"`
	CraftStartY    int `toml:"craft_start_y"`
	ProjectileMaxX int `toml:"projectile_max_x"` // inclusive
	ProjectileMaxY int `toml:"projectile_max_y"` // inclusive
}

type SizesConfig struct {
	Craft      int `toml:"craft"`
	Enemy      int `toml:"enemy"`
	Friend     int `toml:"friend"`
	Projectile int `toml:"projectile"`
}

type TimingConfig struct {
	FrameInterval      time.Duration `toml:"frame_interval"`
	MoveInterval       time.Duration `toml:"move_interval"`
	ShootInterval      time.Duration `toml:"shoot_interval"`
	ProjectileInterval time.Duration `toml:"projectile_interval"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
	File   string `toml:"file"`   // empty = stderr, or discarded when the terminal frontend owns the screen
}

type ScriptingConfig struct {
	Dir string `toml:"dir"`
}

type ScenarioConfig struct {
	Path string `toml:"path"`
}

type DisplayConfig struct {
	Frontend string `toml:"frontend"` // "window" or "terminal"
	Title    string `toml:"title"`
	Scale    int    `toml:"scale"`
}

// Path returns the config file location, honouring EnvPath.
func Path() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return DefaultPath
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the compiled-in configuration.
func Default() *Config { return defaults() }

func defaults() *Config {
	return &Config{
		Playfield: PlayfieldConfig{
			Width:          500,
			Height:         500,
			Step:           10,
			CraftStartX:    250,
			CraftStartY:    250,
			ProjectileMaxX: 509,
			ProjectileMaxY: 532,
		},
		Sizes: SizesConfig{
			Craft:      10,
			Enemy:      10,
			Friend:     10,
			Projectile: 5,
		},
		Timing: TimingConfig{
			FrameInterval:      50 * time.Millisecond,
			MoveInterval:       500 * time.Millisecond,
			ShootInterval:      1005 * time.Millisecond,
			ProjectileInterval: 100 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Scripting: ScriptingConfig{
			Dir: "scripts",
		},
		Scenario: ScenarioConfig{
			Path: "data/scenario.yaml",
		},
		Display: DisplayConfig{
			Frontend: "window",
			Title:    "Grid Shooter",
			Scale:    1,
		},
	}
}

// Validate rejects values the simulation cannot run with.
func (c *Config) Validate() error {
	p := c.Playfield
	if p.Width <= 0 || p.Height <= 0 || p.Step <= 0 {
		return fmt.Errorf("playfield %dx%d step %d: %w", p.Width, p.Height, p.Step, ErrInvalid)
	}
	if p.Width%p.Step != 0 || p.Height%p.Step != 0 {
		return fmt.Errorf("step %d does not divide %dx%d: %w", p.Step, p.Width, p.Height, ErrInvalid)
	}
	g := c.Geometry()
	if !g.InBounds(g.CraftStart) || !g.OnGrid(g.CraftStart) {
		return fmt.Errorf("craft start (%d,%d) is not a field cell: %w", p.CraftStartX, p.CraftStartY, ErrInvalid)
	}
	s := c.Sizes
	if s.Craft <= 0 || s.Enemy <= 0 || s.Friend <= 0 || s.Projectile <= 0 {
		return fmt.Errorf("sizes must be positive: %w", ErrInvalid)
	}
	if s.Craft > p.Step || s.Enemy > p.Step || s.Friend > p.Step {
		return fmt.Errorf("character sizes must fit the %dpx grid: %w", p.Step, ErrInvalid)
	}
	if p.ProjectileMaxX < p.Width-s.Projectile || p.ProjectileMaxY < p.Height-s.Projectile {
		return fmt.Errorf("projectile max (%d,%d) is short of the %dx%d field: %w",
			p.ProjectileMaxX, p.ProjectileMaxY, p.Width, p.Height, ErrInvalid)
	}
	t := c.Timing
	if t.FrameInterval <= 0 || t.MoveInterval <= 0 || t.ShootInterval <= 0 || t.ProjectileInterval <= 0 {
		return fmt.Errorf("intervals must be positive: %w", ErrInvalid)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging format %q: %w", c.Logging.Format, ErrInvalid)
	}
	switch c.Display.Frontend {
	case "window", "terminal":
	default:
		return fmt.Errorf("display frontend %q: %w", c.Display.Frontend, ErrInvalid)
	}
	if c.Display.Scale <= 0 {
		return fmt.Errorf("display scale %d: %w", c.Display.Scale, ErrInvalid)
	}
	return nil
}

// Geometry converts the playfield and size sections.
func (c *Config) Geometry() world.Geometry {
	p := c.Playfield
	return world.Geometry{
		Width:         p.Width,
		Height:        p.Height,
		Step:          p.Step,
		CraftStart:    world.Point{X: p.CraftStartX, Y: p.CraftStartY},
		ProjectileMax: world.Point{X: p.ProjectileMaxX, Y: p.ProjectileMaxY},
		Sizes: world.Sizes{
			Craft:      c.Sizes.Craft,
			Enemy:      c.Sizes.Enemy,
			Friend:     c.Sizes.Friend,
			Projectile: c.Sizes.Projectile,
		},
	}
}

// Behavior converts the timing section for the scheduler.
func (c *Config) Behavior() behavior.Config {
	return behavior.Config{
		MoveInterval:       c.Timing.MoveInterval,
		ShootInterval:      c.Timing.ShootInterval,
		ProjectileInterval: c.Timing.ProjectileInterval,
	}
}
