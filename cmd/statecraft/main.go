// Command statecraft runs the multiplayer political simulation server.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/talgya/statecraft/internal/advisors"
	"github.com/talgya/statecraft/internal/api"
	"github.com/talgya/statecraft/internal/game"
	"github.com/talgya/statecraft/internal/persistence"
)

func envInt(name string, def int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
		slog.Warn("invalid value, using default", "var", name, "value", v, "default", def)
	}
	return def
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("Statecraft — multiplayer political simulation")

	tickInterval := envInt("TICK_INTERVAL_HOURS", 4)
	maxPlayers := envInt("MAX_PLAYERS_PER_SERVER", 20)
	port := envInt("PORT", 8080)
	dbPath := os.Getenv("STATECRAFT_DB")
	if dbPath == "" {
		dbPath = "data/statecraft.db"
	}

	// ── Database ──────────────────────────────────────────────────────
	os.MkdirAll(filepath.Dir(dbPath), 0755)
	db, err := persistence.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", dbPath)

	// ── Advisor Client ────────────────────────────────────────────────
	var caller advisors.Caller
	if client := advisors.NewClient(os.Getenv("ANTHROPIC_API_KEY")); client != nil {
		caller = client
		slog.Info("advisor client enabled (Haiku)")
	} else {
		slog.Warn("ANTHROPIC_API_KEY not set — advisor stages will use fallbacks")
	}

	// ── Game Manager ──────────────────────────────────────────────────
	mgr := game.NewManager(db, caller, game.Config{
		TickIntervalHours: tickInterval,
		MaxPlayers:        maxPlayers,
	})
	defer mgr.Close()

	if err := mgr.Restore(); err != nil {
		slog.Error("failed to restore games", "error", err)
		os.Exit(1)
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	apiServer := &api.Server{Manager: mgr, Port: port}
	apiServer.Start()

	fmt.Printf("Statecraft is live: http://localhost:%d/health (tick every %dh, max %d players)\n",
		port, tickInterval, maxPlayers)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)
}
