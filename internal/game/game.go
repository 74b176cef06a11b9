// Package game owns the per-instance concurrency model: each Game is a
// single-writer domain guarded by one mutex, so request handlers and tick
// processing never interleave for the same instance. Different games run
// fully in parallel.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/statecraft/internal/engine"
	"github.com/talgya/statecraft/internal/persistence"
	"github.com/talgya/statecraft/internal/state"
)

// User-facing errors, mapped to HTTP codes at the API boundary.
var (
	ErrUnauthorized   = errors.New("invalid player credentials")
	ErrServerFull     = errors.New("server is full")
	ErrWrongPhase     = errors.New("not accepting actions in the current phase")
	ErrWrongRole      = errors.New("action type not allowed for role")
	ErrTooManyPending = errors.New("pending action limit reached")
	ErrInvalidRole    = errors.New("invalid player role")
	ErrPlayerNotFound = errors.New("player not found")
)

// Config holds per-process game settings.
type Config struct {
	TickIntervalHours int
	MaxPlayers        int
}

// Game is the single in-memory owner of one instance's state.
type Game struct {
	mu     sync.Mutex
	world  *state.WorldState
	tokens map[string]string // playerId -> token
	orch   *engine.Orchestrator
	db     *persistence.DB
	cfg    Config
}

// New wraps an existing world state (fresh or restored) in a game owner.
func New(w *state.WorldState, tokens map[string]string, orch *engine.Orchestrator, db *persistence.DB, cfg Config) *Game {
	if tokens == nil {
		tokens = make(map[string]string)
	}
	return &Game{world: w, tokens: tokens, orch: orch, db: db, cfg: cfg}
}

// ID returns the game's server id.
func (g *Game) ID() string {
	return g.world.Meta.ServerID
}

// Deadline returns the current tick deadline.
func (g *Game) Deadline() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return time.Unix(g.world.Meta.TickDeadline, 0)
}

// JoinResult is returned to a newly joined player.
type JoinResult struct {
	PlayerID     string
	PlayerToken  string
	Tick         int64
	TickDeadline int64
}

// Join adds a player. Fails when the phase is not accepting_actions or the
// server is full; neither failure mutates state.
func (g *Game) Join(playerName string, role state.Role) (*JoinResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !state.ValidRole(role) {
		return nil, ErrInvalidRole
	}
	if g.world.Meta.Phase != state.PhaseAcceptingActions {
		return nil, ErrWrongPhase
	}
	if len(g.world.Players) >= g.cfg.MaxPlayers {
		return nil, ErrServerFull
	}

	playerID := uuid.NewString()
	token, err := newPlayerToken()
	if err != nil {
		return nil, err
	}

	joinSeed := int64(g.world.Meta.Seed)*1000003 + int64(len(g.world.Players))
	p := state.NewPlayer(playerID, playerName, role, g.world.Meta.Tick, joinSeed)
	g.world.Players[playerID] = p
	g.tokens[playerID] = token

	if err := g.db.SaveGame(g.world, g.tokens); err != nil {
		// Undo the in-memory join so state and storage stay consistent.
		delete(g.world.Players, playerID)
		delete(g.tokens, playerID)
		return nil, fmt.Errorf("persist join: %w", err)
	}

	slog.Info("player joined", "server", g.ID(), "player", playerID, "role", role)
	return &JoinResult{
		PlayerID:     playerID,
		PlayerToken:  token,
		Tick:         g.world.Meta.Tick,
		TickDeadline: g.world.Meta.TickDeadline,
	}, nil
}

// authenticate verifies a playerId/token pair under the lock.
func (g *Game) authenticate(playerID, token string) (*state.Player, error) {
	want, ok := g.tokens[playerID]
	if !ok || want != token {
		return nil, ErrUnauthorized
	}
	p := g.world.Players[playerID]
	if p == nil {
		return nil, ErrPlayerNotFound
	}
	return p, nil
}

// SubmitAction validates and queues one action. Returns the new pending count.
func (g *Game) SubmitAction(playerID, token string, action state.Action) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, err := g.authenticate(playerID, token)
	if err != nil {
		return 0, err
	}
	if !p.Alive {
		return 0, ErrPlayerNotFound
	}
	if g.world.Meta.Phase != state.PhaseAcceptingActions {
		return len(p.ActionsPending), ErrWrongPhase
	}
	if !engine.RoleAllows(p.Role, action.Type) {
		return len(p.ActionsPending), ErrWrongRole
	}
	if len(p.ActionsPending) >= state.MaxPendingActions {
		return len(p.ActionsPending), ErrTooManyPending
	}

	p.ActionsPending = append(p.ActionsPending, action)
	if err := g.db.SaveGame(g.world, g.tokens); err != nil {
		p.ActionsPending = p.ActionsPending[:len(p.ActionsPending)-1]
		return len(p.ActionsPending), fmt.Errorf("persist action: %w", err)
	}
	return len(p.ActionsPending), nil
}

// ViewResult bundles a projection with tick metadata.
type ViewResult struct {
	View         *engine.PlayerView
	Tick         int64
	Phase        state.Phase
	TickDeadline int64
}

// View projects the current state for one player.
func (g *Game) View(playerID, token string) (*ViewResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, err := g.authenticate(playerID, token); err != nil {
		return nil, err
	}
	return &ViewResult{
		View:         engine.ProjectView(g.world, playerID),
		Tick:         g.world.Meta.Tick,
		Phase:        g.world.Meta.Phase,
		TickDeadline: g.world.Meta.TickDeadline,
	}, nil
}

// PlayerSummary is the per-player slice of the status response.
type PlayerSummary struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Role         state.Role `json:"role"`
	Alive        bool       `json:"alive"`
	PendingCount int        `json:"pending_count"`
}

// Status is the public game summary; no auth required.
type Status struct {
	Initialized   bool            `json:"initialized"`
	ServerID      string          `json:"server_id"`
	Tick          int64           `json:"tick"`
	Phase         state.Phase     `json:"phase"`
	TickDeadline  int64           `json:"tick_deadline"`
	PlayerCount   int             `json:"player_count"`
	LawCount      int             `json:"law_count"`
	EventCount    int             `json:"event_count"`
	MovementCount int             `json:"movement_count"`
	Players       []PlayerSummary `json:"players"`
}

// Status reports counts and a per-player summary.
func (g *Game) Status() *Status {
	g.mu.Lock()
	defer g.mu.Unlock()

	st := &Status{
		Initialized:   true,
		ServerID:      g.world.Meta.ServerID,
		Tick:          g.world.Meta.Tick,
		Phase:         g.world.Meta.Phase,
		TickDeadline:  g.world.Meta.TickDeadline,
		PlayerCount:   len(g.world.Players),
		LawCount:      len(g.world.Laws),
		EventCount:    len(g.world.Events),
		MovementCount: len(g.world.Society.Movements),
	}
	for _, id := range g.world.PlayerIDs() {
		p := g.world.Players[id]
		st.Players = append(st.Players, PlayerSummary{
			ID:           p.ID,
			Name:         p.Name,
			Role:         p.Role,
			Alive:        p.Alive,
			PendingCount: len(p.ActionsPending),
		})
	}
	return st
}

// RunTick processes one tick on a snapshot and commits only at the end, so a
// host teardown mid-tick leaves storage on the pre-tick state.
func (g *Game) RunTick(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	work, err := state.Clone(g.world)
	if err != nil {
		return fmt.Errorf("snapshot state: %w", err)
	}

	g.orch.ProcessTick(ctx, work, time.Now())

	if err := g.db.SaveGame(work, g.tokens); err != nil {
		return fmt.Errorf("commit tick: %w", err)
	}
	g.world = work
	return nil
}
