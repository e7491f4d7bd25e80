package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/xrplace/sandbox/internal/app"
	"github.com/xrplace/sandbox/internal/assets"
	"github.com/xrplace/sandbox/internal/config"
	coresys "github.com/xrplace/sandbox/internal/core/system"
	"github.com/xrplace/sandbox/internal/data"
	"github.com/xrplace/sandbox/internal/persist"
	"github.com/xrplace/sandbox/internal/scripting"
	"github.com/xrplace/sandbox/internal/system"
	"github.com/xrplace/sandbox/internal/world"
	"github.com/xrplace/sandbox/internal/xr"
	"github.com/xrplace/sandbox/internal/xr/emulator"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner() {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m         xrplace sandbox  v0.1.0           \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m      AR object placement · emulated       \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Sandbox startup ───────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/xrplace.toml"
	if p := os.Getenv("XRPLACE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner()

	// 3. Catalog and scripts
	printSection("Content")
	prototypes, err := data.LoadPrototypeTable(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	printStat("prototypes", prototypes.Count())
	if prototypes.Get(cfg.Session.Model) == nil {
		log.Warn("selected model is not in the catalog; spawns will be dropped", zap.String("model", cfg.Session.Model))
	}

	lua, err := scripting.NewEngine(cfg.Scripts.Dir, log)
	if err != nil {
		return fmt.Errorf("scripts: %w", err)
	}
	defer lua.Close()
	printOK("Lua scripts loaded")
	if lua.HasFunction("calc_spin_speed") {
		printOK("spin speed overridden by calc_spin_speed")
	}
	fmt.Println()

	// 4. Emulated headset
	printSection("Runtime")
	dev := emulator.New(emulatorOptions(cfg.Emulator, lua), log)
	printOK("emulated headset ready")
	fmt.Println()

	// 5. Optional placement journal
	var (
		journal *persist.Journal
		repo    *persist.PlacementRepo
	)
	if cfg.Database.DSN != "" {
		printSection("Database")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")

		version, err := persist.RunMigrations(ctx, db.Pool, log)
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK(fmt.Sprintf("migrations applied (schema v%d)", version))
		fmt.Println()

		repo = persist.NewPlacementRepo(db)
		journal = persist.NewJournal(repo, persist.JournalOptions{
			QueueSize:    cfg.Database.QueueSize,
			BatchSize:    cfg.Database.BatchSize,
			WriteTimeout: cfg.Database.WriteTimeout,
		}, log)
	}

	// 6. World state and systems
	controls := &world.PageControls{
		HitTest: cfg.Session.HitTest,
		Anchor:  cfg.Session.Anchors,
		Model:   cfg.Session.Model,
	}
	ws := world.NewState(dev, controls, prototypes, time.Now)

	runner := coresys.NewRunner()
	runner.Register(system.NewEventDispatchSystem(ws.Bus))
	runner.Register(system.NewPlayerSystem(ws, log))
	runner.Register(system.NewSpawnSystem(ws, cfg.Session.HapticsOnSpawn, log))
	runner.Register(system.NewActualizerSystem(ws, log))
	runner.Register(system.NewSpinSystem(ws, cfg.Spin, lua))
	runner.Register(system.NewPresentationSystem(ws, &assets.Placeholder{Log: log}, system.PresentationOptions{
		Init: xr.SessionInit{
			Mode:             xr.ModeImmersiveAR,
			RequiredFeatures: cfg.Session.RequiredFeatures,
			OptionalFeatures: cfg.Session.OptionalFeatures,
		},
		Language:  cfg.Session.Language,
		PageURL:   cfg.Session.PageURL,
		AutoEnter: cfg.Session.AutoEnter,
	}, log))
	runner.Register(system.NewRoomCaptureSystem(ws, cfg.Session.RoomCaptureDelay, log))
	runner.Register(system.NewPlaneStyleSystem(ws, rand.New(rand.NewSource(cfg.Emulator.Seed))))
	sessionID := time.Now().UTC().Format("20060102T150405.000Z")
	if journal != nil {
		runner.Register(system.NewJournalSystem(ws, journal, sessionID, log))
		printReady(fmt.Sprintf("journal session %s", sessionID))
	}
	runner.Register(system.NewCleanupSystem(ws.ECS))

	renderer := &app.LogRenderer{Log: log, Every: uint64(cfg.Loop.FrameRate)}
	sandbox := app.New(ws, runner, renderer, log)

	// 7. Frame loop until signalled
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	printSection("Ready")
	printReady(fmt.Sprintf("frame loop (interval: %s)", cfg.Loop.FrameInterval()))
	fmt.Println()

	err = sandbox.Run(ctx, cfg.Loop.FrameInterval(), cfg.Loop.MaxFrames)
	if journal != nil {
		journal.Close()
		written, dropped, failed := journal.Stats()
		log.Info("placement journal closed",
			zap.Int("written", written), zap.Int("dropped", dropped), zap.Int("failed", failed))

		countCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if n, err := repo.CountSession(countCtx, sessionID); err != nil {
			log.Warn("count session placements", zap.Error(err))
		} else {
			log.Info("session placements stored", zap.String("session", sessionID), zap.Int("rows", n))
		}
		cancel()
	}
	log.Info("sandbox stopped", zap.Uint64("frames", ws.Frame()))
	return err
}

func emulatorOptions(cfg config.EmulatorConfig, input emulator.InputScript) emulator.Options {
	opts := emulator.Quest3()
	if !cfg.NativeSupport {
		opts.Modes = []string{xr.ModeImmersiveVR}
	}
	opts.SessionLatency = cfg.SessionLatency
	opts.HitTestLatency = cfg.HitTestLatency
	opts.AnchorLatency = cfg.AnchorLatency
	opts.RoomCaptureTime = cfg.RoomCaptureTime
	opts.AnchorFailureRate = cfg.AnchorFailureRate
	opts.FloorY = cfg.FloorY
	opts.Rand = rand.New(rand.NewSource(cfg.Seed))
	opts.Input = input
	return opts
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
