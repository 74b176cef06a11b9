package game

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/statecraft/internal/advisors"
	"github.com/talgya/statecraft/internal/engine"
	"github.com/talgya/statecraft/internal/persistence"
	"github.com/talgya/statecraft/internal/state"
)

func newTestGame(t *testing.T, maxPlayers int) (*Game, *persistence.DB) {
	t.Helper()
	db, err := persistence.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	w := state.NewWorldState("srv_test", 4, 7)
	orch := engine.NewOrchestrator(advisors.NewPipeline(nil))
	return New(w, nil, orch, db, Config{TickIntervalHours: 4, MaxPlayers: maxPlayers}), db
}

func TestJoinIssuesCredentials(t *testing.T) {
	g, _ := newTestGame(t, 20)

	res, err := g.Join("Ada", state.RoleCitizen)
	require.NoError(t, err)
	require.NotEmpty(t, res.PlayerID)
	require.Len(t, res.PlayerToken, 32)
	require.Equal(t, int64(0), res.Tick)

	// Second player gets distinct credentials.
	res2, err := g.Join("Brin", state.RoleBusinessOwner)
	require.NoError(t, err)
	require.NotEqual(t, res.PlayerID, res2.PlayerID)
	require.NotEqual(t, res.PlayerToken, res2.PlayerToken)
}

func TestJoinInvalidRole(t *testing.T) {
	g, _ := newTestGame(t, 20)
	_, err := g.Join("Ada", state.Role("wizard"))
	require.ErrorIs(t, err, ErrInvalidRole)
}

func TestJoinWrongPhase(t *testing.T) {
	g, _ := newTestGame(t, 20)
	g.world.Meta.Phase = state.PhaseProcessing

	_, err := g.Join("Ada", state.RoleCitizen)
	require.ErrorIs(t, err, ErrWrongPhase)
	require.Empty(t, g.world.Players)
}

func TestJoinFullServer(t *testing.T) {
	g, _ := newTestGame(t, 2)
	_, err := g.Join("Ada", state.RoleCitizen)
	require.NoError(t, err)
	_, err = g.Join("Brin", state.RoleCitizen)
	require.NoError(t, err)

	_, err = g.Join("Cleo", state.RoleCitizen)
	require.ErrorIs(t, err, ErrServerFull)
	require.Len(t, g.world.Players, 2)
}

func TestSubmitActionAuth(t *testing.T) {
	g, _ := newTestGame(t, 20)
	res, err := g.Join("Ada", state.RoleCitizen)
	require.NoError(t, err)

	_, err = g.SubmitAction(res.PlayerID, "wrong-token", state.Action{Type: "work"})
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = g.SubmitAction("ghost", res.PlayerToken, state.Action{Type: "work"})
	require.ErrorIs(t, err, ErrUnauthorized)

	n, err := g.SubmitAction(res.PlayerID, res.PlayerToken, state.Action{Type: "work"})
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestSubmitActionRoleGate(t *testing.T) {
	g, _ := newTestGame(t, 20)
	res, err := g.Join("Ada", state.RoleCitizen)
	require.NoError(t, err)

	_, err = g.SubmitAction(res.PlayerID, res.PlayerToken, state.Action{Type: "propose_law"})
	require.ErrorIs(t, err, ErrWrongRole)
}

func TestSubmitActionPendingCap(t *testing.T) {
	g, _ := newTestGame(t, 20)
	res, err := g.Join("Ada", state.RoleCitizen)
	require.NoError(t, err)

	for i := 0; i < state.MaxPendingActions; i++ {
		_, err := g.SubmitAction(res.PlayerID, res.PlayerToken, state.Action{Type: "work"})
		require.NoError(t, err)
	}
	n, err := g.SubmitAction(res.PlayerID, res.PlayerToken, state.Action{Type: "work"})
	require.ErrorIs(t, err, ErrTooManyPending)
	require.Equal(t, state.MaxPendingActions, n)
}

func TestSubmitActionWrongPhase(t *testing.T) {
	g, _ := newTestGame(t, 20)
	res, err := g.Join("Ada", state.RoleCitizen)
	require.NoError(t, err)

	g.world.Meta.Phase = state.PhaseProcessing
	_, err = g.SubmitAction(res.PlayerID, res.PlayerToken, state.Action{Type: "work"})
	require.ErrorIs(t, err, ErrWrongPhase)
}

func TestViewRequiresAuth(t *testing.T) {
	g, _ := newTestGame(t, 20)
	res, err := g.Join("Ada", state.RoleCitizen)
	require.NoError(t, err)

	_, err = g.View(res.PlayerID, "nope")
	require.ErrorIs(t, err, ErrUnauthorized)

	v, err := g.View(res.PlayerID, res.PlayerToken)
	require.NoError(t, err)
	require.NotNil(t, v.View)
	require.Equal(t, state.PhaseAcceptingActions, v.Phase)
}

func TestStatusSummary(t *testing.T) {
	g, _ := newTestGame(t, 20)
	_, err := g.Join("Ada", state.RoleCitizen)
	require.NoError(t, err)
	_, err = g.Join("Brin", state.RolePolitician)
	require.NoError(t, err)

	st := g.Status()
	require.True(t, st.Initialized)
	require.Equal(t, "srv_test", st.ServerID)
	require.Equal(t, 2, st.PlayerCount)
	require.Len(t, st.Players, 2)
}

func TestRunTickAdvancesAndPersists(t *testing.T) {
	g, db := newTestGame(t, 20)
	res, err := g.Join("Ada", state.RoleCitizen)
	require.NoError(t, err)
	_, err = g.SubmitAction(res.PlayerID, res.PlayerToken, state.Action{Type: "work"})
	require.NoError(t, err)

	require.NoError(t, g.RunTick(context.Background()))
	require.Equal(t, int64(1), g.world.Meta.Tick)
	require.Empty(t, g.world.Players[res.PlayerID].ActionsPending)

	// The committed snapshot is the post-tick state.
	loaded, tokens, err := db.LoadGame("srv_test")
	require.NoError(t, err)
	require.Equal(t, int64(1), loaded.Meta.Tick)
	require.Equal(t, res.PlayerToken, tokens[res.PlayerID])
}
