// Game manager — registry of running instances plus the tick scheduler.
package game

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/statecraft/internal/advisors"
	"github.com/talgya/statecraft/internal/engine"
	"github.com/talgya/statecraft/internal/persistence"
	"github.com/talgya/statecraft/internal/state"
)

// Manager owns every game hosted by this process.
type Manager struct {
	mu     sync.RWMutex
	games  map[string]*Game
	timers map[string]*time.Timer

	db     *persistence.DB
	caller advisors.Caller
	cfg    Config

	ctx    context.Context
	cancel context.CancelFunc
}

// NewManager creates a manager around shared storage and the advisor
// transport.
func NewManager(db *persistence.DB, caller advisors.Caller, cfg Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		games:  make(map[string]*Game),
		timers: make(map[string]*time.Timer),
		db:     db,
		caller: caller,
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
	}
}

// newOrchestrator builds a fresh per-game orchestrator (each game carries its
// own watchdog cooldown state).
func (m *Manager) newOrchestrator() *engine.Orchestrator {
	return engine.NewOrchestrator(advisors.NewPipeline(m.caller))
}

// CreateResult is returned from game creation.
type CreateResult struct {
	ServerID string
	Join     *JoinResult
}

// Create provisions a new game and joins the creating player.
func (m *Manager) Create(playerName string, role state.Role) (*CreateResult, error) {
	if !state.ValidRole(role) {
		return nil, ErrInvalidRole
	}

	serverID := strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	// The initial seed comes from the server id so it is stable across
	// restarts but differs between games.
	var seed int32
	for _, c := range serverID {
		seed = seed*31 + int32(c)
	}

	w := state.NewWorldState(serverID, m.cfg.TickIntervalHours, seed)
	w.Meta.TickDeadline = time.Now().Add(time.Duration(m.cfg.TickIntervalHours) * time.Hour).Unix()

	g := New(w, nil, m.newOrchestrator(), m.db, m.cfg)
	join, err := g.Join(playerName, role)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.games[serverID] = g
	m.mu.Unlock()
	m.schedule(g)

	slog.Info("game created", "server", serverID, "creator", join.PlayerID)
	return &CreateResult{ServerID: serverID, Join: join}, nil
}

// Get returns the game with the given id, or nil.
func (m *Manager) Get(serverID string) *Game {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.games[serverID]
}

// Restore loads every persisted game and re-arms its tick schedule. A
// deadline already in the past fires one catch-up tick shortly after start;
// missed intervals are not replayed.
func (m *Manager) Restore() error {
	ids, err := m.db.ListGameIDs()
	if err != nil {
		return fmt.Errorf("restore games: %w", err)
	}
	for _, id := range ids {
		w, tokens, err := m.db.LoadGame(id)
		if err != nil {
			slog.Error("game restore failed, skipping", "server", id, "error", err)
			continue
		}
		g := New(w, tokens, m.newOrchestrator(), m.db, m.cfg)
		m.mu.Lock()
		m.games[id] = g
		m.mu.Unlock()
		m.schedule(g)
	}
	slog.Info("games restored", "count", len(ids))
	return nil
}

// schedule arms the tick timer for a game's current deadline.
func (m *Manager) schedule(g *Game) {
	delay := time.Until(g.Deadline())
	if delay < time.Second {
		delay = time.Second
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.timers[g.ID()]; ok {
		t.Stop()
	}
	m.timers[g.ID()] = time.AfterFunc(delay, func() { m.fire(g) })
}

// fire runs one tick and reschedules. The scheduled callback invokes exactly
// one tick; the next deadline comes from the finalized state.
func (m *Manager) fire(g *Game) {
	if m.ctx.Err() != nil {
		return
	}
	if err := g.RunTick(m.ctx); err != nil {
		slog.Error("tick failed, storage kept on pre-tick snapshot", "server", g.ID(), "error", err)
		// Retry on the next interval rather than tight-looping.
	}
	m.schedule(g)
}

// Close stops all schedulers.
func (m *Manager) Close() {
	m.cancel()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.timers {
		t.Stop()
	}
}
