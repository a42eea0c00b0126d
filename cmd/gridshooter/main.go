package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gridshooter/gridshooter/internal/config"
	"github.com/gridshooter/gridshooter/internal/data"
	"github.com/gridshooter/gridshooter/internal/frontend/terminal"
	"github.com/gridshooter/gridshooter/internal/frontend/window"
	"github.com/gridshooter/gridshooter/internal/game"
	"github.com/gridshooter/gridshooter/internal/scripting"
	"github.com/gridshooter/gridshooter/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config
	cfgPath := config.Path()
	cfg, err := config.Load(cfgPath)
	missingConfig := false
	if errors.Is(err, os.ErrNotExist) {
		cfg, err, missingConfig = config.Default(), nil, true
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging, cfg.Display.Frontend == "terminal")
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()
	if missingConfig {
		log.Info("no config file, using defaults", zap.String("path", cfgPath))
	}

	// 3. Scenario
	scenario, err := data.LoadScenario(cfg.Scenario.Path)
	if errors.Is(err, os.ErrNotExist) {
		log.Info("no scenario file, using defaults", zap.String("path", cfg.Scenario.Path))
		scenario, err = data.DefaultScenario(), nil
	}
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}

	// 4. Lua hooks
	lua, err := scripting.NewEngine(cfg.Scripting.Dir, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer lua.Close()

	// 5. Build the match
	opts := game.Options{
		Geometry:      cfg.Geometry(),
		Palette:       scenario.ApplyPalette(world.DefaultPalette()),
		Timing:        cfg.Behavior(),
		FrameInterval: cfg.Timing.FrameInterval,
		Scenario:      scenario,
	}
	if lua.HasHook("pick_direction") {
		opts.Script = lua
		log.Info("movement script enabled", zap.String("dir", cfg.Scripting.Dir))
	}
	g, err := game.New(opts, log)
	if err != nil {
		return fmt.Errorf("new game: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Run the frontend until the player leaves
	switch cfg.Display.Frontend {
	case "terminal":
		screen, err := terminal.NewScreen()
		if err != nil {
			return err
		}
		ui := terminal.New(screen, g, opts.Geometry)
		if err := g.Start(ctx, ui); err != nil {
			return fmt.Errorf("start game: %w", err)
		}
		err = ui.Run(ctx)
		g.Stop()
		if werr := g.Wait(); err == nil {
			err = werr
		}
		return err

	default:
		ui := window.New(g, opts.Geometry, cfg.Display.Title, cfg.Display.Scale)
		if err := g.Start(ctx, ui); err != nil {
			return fmt.Errorf("start game: %w", err)
		}
		go func() {
			<-ctx.Done()
			g.Stop()
		}()
		err = ui.Run()
		g.Stop()
		if werr := g.Wait(); err == nil {
			err = werr
		}
		return err
	}
}

// newLogger builds the process logger. When the terminal frontend owns the
// screen, logs go to the configured file or nowhere.
func newLogger(cfg config.LoggingConfig, ownsTerminal bool) (*zap.Logger, error) {
	if ownsTerminal && cfg.File == "" {
		return zap.NewNop(), nil
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := loggerConfig(cfg)
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}

// loggerConfig picks the encoder for cfg.Format and routes output to
// cfg.File when one is set. Colour codes are kept out of files.
func loggerConfig(cfg config.LoggingConfig) zap.Config {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		if cfg.File != "" {
			zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		}
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	if cfg.File != "" {
		zapCfg.OutputPaths = []string{cfg.File}
		zapCfg.ErrorOutputPaths = []string{cfg.File}
	}
	return zapCfg
}
