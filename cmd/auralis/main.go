// Command auralis runs the multi-world agent economy simulation server.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/auralis/internal/agents"
	"github.com/talgya/auralis/internal/api"
	"github.com/talgya/auralis/internal/config"
	"github.com/talgya/auralis/internal/interaction"
	"github.com/talgya/auralis/internal/llm"
	"github.com/talgya/auralis/internal/multiworld"
	"github.com/talgya/auralis/internal/notary"
	"github.com/talgya/auralis/internal/persistence"
	"github.com/talgya/auralis/internal/world"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.App.LogLevel == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("Auralis — multi-world agent economy simulation")

	// ── Database ──────────────────────────────────────────────────────
	db, err := persistence.Open(cfg.DB.Path)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DB.Path)

	// ── Collaborators (both best-effort) ──────────────────────────────
	oracle := llm.NewClient(cfg.Oracle.URL, cfg.Oracle.Model)
	if oracle.Enabled() {
		slog.Info("advisory oracle connected", "url", cfg.Oracle.URL, "model", cfg.Oracle.Model)
	}
	ledger := notary.NewClient(cfg.Notary.Endpoint)

	// ── Engines ───────────────────────────────────────────────────────
	engine := multiworld.NewEngine()
	interactions := interaction.NewEngine()

	if cfg.Sim.DemoWorld {
		bootstrapDemoWorld(engine, interactions, oracle, ledger, db, cfg.Sim.Seed)
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	server := &api.Server{
		Engine:      engine,
		Interaction: interactions,
		Oracle:      oracle,
		Notary:      ledger,
		Port:        cfg.App.Port,
		Seed:        cfg.Sim.Seed,
	}
	server.Start()

	// ── Run until signalled ───────────────────────────────────────────
	interval := time.Duration(cfg.Sim.StepInterval) * time.Millisecond
	for _, w := range engine.ListWorlds() {
		engine.StartWorld(w.ID, interval)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	status := time.NewTicker(30 * time.Second)
	defer status.Stop()

	for {
		select {
		case <-status.C:
			for _, w := range engine.ListWorlds() {
				state, ok := engine.GetWorldState(w.ID)
				if !ok {
					continue
				}
				slog.Info("world status",
					"world", w.ID,
					"time", state.Time,
					"price", fmt.Sprintf("%.2f", state.Price),
					"volatility", fmt.Sprintf("%.3f", state.Volatility),
					"agents", state.ActiveAgents,
					"volume", humanize.CommafWithDigits(state.TotalVolume, 2),
				)
			}
		case sig := <-sigCh:
			slog.Info("shutting down", "signal", sig)
			shutdown(engine, db)
			return
		}
	}
}

// bootstrapDemoWorld creates the default world with one agent of every
// strategy so a fresh install has something to watch.
func bootstrapDemoWorld(engine *multiworld.Engine, interactions *interaction.Engine, oracle *llm.Client, ledger *notary.Client, db *persistence.DB, seed int64) {
	id := engine.CreateWorld("genesis", "system", 0, 50, nil, "genesis")

	sim := world.New(world.Config{Seed: seed, Notary: ledger})
	if snap, err := db.LoadWorld(id); err == nil {
		sim.Restore(snap)
		slog.Info("world state restored", "world", id, "time", snap.Time, "events", len(snap.Events))
	}
	engine.AttachWorld(id, sim)

	roster := []struct {
		name     string
		strategy agents.Strategy
	}{
		{"scout", agents.NewSimple()},
		{"turtle", agents.NewCautious()},
		{"hawk", agents.NewAggressive()},
		{"echo", agents.NewTrendFollower()},
		{"sage", agents.NewAdvised(oracle)},
	}
	for _, r := range roster {
		if engine.AgentEnterWorld(id, r.name) {
			sim.RegisterAgent(agents.New(r.name, r.strategy, 100))
			interactions.InitializeAgent(r.name)
		}
	}

	slog.Info("demo world ready", "world", id, "agents", len(roster), "seed", seed)
}

// shutdown stops every runner and saves each world with a simulation
// attached.
func shutdown(engine *multiworld.Engine, db *persistence.DB) {
	for _, w := range engine.ListWorlds() {
		engine.StopWorld(w.ID)
		sim := engine.Sim(w.ID)
		if sim == nil {
			continue
		}
		if err := db.SaveWorld(w.ID, sim.Export()); err != nil {
			slog.Error("failed to save world", "world", w.ID, "error", err)
			continue
		}
		slog.Info("world saved", "world", w.ID, "time", sim.Time())
	}
}
