package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gridshooter/gridshooter/internal/world"
)

func writeConfig(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gridshooter.toml")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultsMatchClassicField(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if got, want := cfg.Geometry(), world.DefaultGeometry(); got != want {
		t.Fatalf("geometry = %+v, want %+v", got, want)
	}
	b := cfg.Behavior()
	if b.MoveInterval != 500*time.Millisecond || b.ShootInterval != 1005*time.Millisecond || b.ProjectileInterval != 100*time.Millisecond {
		t.Fatalf("behavior = %+v", b)
	}
}

func TestLoadShippedConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "gridshooter.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got, want := cfg.Geometry(), world.DefaultGeometry(); got != want {
		t.Fatalf("geometry = %+v, want %+v", got, want)
	}
	if cfg.Timing.FrameInterval != 50*time.Millisecond {
		t.Fatalf("frame interval = %v", cfg.Timing.FrameInterval)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
[timing]
move_interval = "250ms"

[display]
frontend = "terminal"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Timing.MoveInterval != 250*time.Millisecond {
		t.Fatalf("move interval = %v", cfg.Timing.MoveInterval)
	}
	if cfg.Timing.ShootInterval != 1005*time.Millisecond {
		t.Fatalf("shoot interval lost its default: %v", cfg.Timing.ShootInterval)
	}
	if cfg.Display.Frontend != "terminal" || cfg.Display.Title != "Grid Shooter" {
		t.Fatalf("display = %+v", cfg.Display)
	}
}

func TestLoadErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.toml")
	if _, err := Load(missing); err == nil || !strings.HasPrefix(err.Error(), "read config") {
		t.Fatalf("err = %v", err)
	}
	if _, err := Load(writeConfig(t, "[playfield\n")); err == nil || !strings.HasPrefix(err.Error(), "parse config") {
		t.Fatalf("err = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero step", func(c *Config) { c.Playfield.Step = 0 }},
		{"step does not divide", func(c *Config) { c.Playfield.Step = 7 }},
		{"craft off field", func(c *Config) { c.Playfield.CraftStartX = 500 }},
		{"craft off grid", func(c *Config) { c.Playfield.CraftStartY = 255 }},
		{"zero size", func(c *Config) { c.Sizes.Projectile = 0 }},
		{"character wider than step", func(c *Config) { c.Sizes.Enemy = 20 }},
		{"negative projectile max", func(c *Config) { c.Playfield.ProjectileMaxY = -1 }},
		{"projectile max inside field", func(c *Config) { c.Playfield.ProjectileMaxX = 300 }},
		{"zero interval", func(c *Config) { c.Timing.ShootInterval = 0 }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"bad frontend", func(c *Config) { c.Display.Frontend = "web" }},
		{"bad scale", func(c *Config) { c.Display.Scale = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Fatalf("err = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestPathFromEnv(t *testing.T) {
	t.Setenv(EnvPath, "")
	if Path() != DefaultPath {
		t.Fatalf("Path() = %q", Path())
	}
	t.Setenv(EnvPath, "/tmp/x.toml")
	if Path() != "/tmp/x.toml" {
		t.Fatalf("Path() = %q", Path())
	}
}
