package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/statecraft/internal/state"
)

func newTestWorld() *state.WorldState {
	return state.NewWorldState("test", 4, 7)
}

func addPlayer(w *state.WorldState, id string, role state.Role) *state.Player {
	p := state.NewPlayer(id, "player "+id, role, w.Meta.Tick, int64(len(w.Players)))
	w.Players[id] = p
	return p
}

func TestRoleAllows(t *testing.T) {
	require.True(t, RoleAllows(state.RoleCitizen, "work"))
	require.True(t, RoleAllows(state.RoleBusinessOwner, "evade_taxes"))
	require.True(t, RoleAllows(state.RolePolitician, "propose_law"))

	require.False(t, RoleAllows(state.RoleCitizen, "produce"))
	require.False(t, RoleAllows(state.RoleBusinessOwner, "propose_law"))
	require.False(t, RoleAllows(state.RolePolitician, "work"))
	require.False(t, RoleAllows(state.RoleCitizen, "no_such_action"))
}

func TestResolveActionsDrainsToHistory(t *testing.T) {
	w := newTestWorld()
	p := addPlayer(w, "c1", state.RoleCitizen)
	p.Citizen.Employed = true
	p.ActionsPending = []state.Action{{Type: "work"}, {Type: "consume"}}

	total, skipped := resolveActions(w)
	require.Equal(t, 2, total)
	require.Equal(t, 0, skipped)
	require.Empty(t, p.ActionsPending)
	require.Len(t, p.ActionsHistory, 1)
	require.Len(t, p.ActionsHistory[0].Actions, 2)
}

func TestResolveActionsHistoryCap(t *testing.T) {
	w := newTestWorld()
	p := addPlayer(w, "c1", state.RoleCitizen)
	for i := 0; i < state.MaxActionHistoryGroups+3; i++ {
		w.Meta.Tick = int64(i)
		p.ActionsPending = []state.Action{{Type: "work"}}
		resolveActions(w)
	}
	require.Len(t, p.ActionsHistory, state.MaxActionHistoryGroups)
	// Oldest groups dropped; the newest survives.
	last := p.ActionsHistory[len(p.ActionsHistory)-1]
	require.Equal(t, int64(state.MaxActionHistoryGroups+2), last.Tick)
}

func TestResolveActionsDeadPlayerSkipped(t *testing.T) {
	w := newTestWorld()
	p := addPlayer(w, "c1", state.RoleCitizen)
	p.Alive = false
	p.ActionsPending = []state.Action{{Type: "work"}}

	total, skipped := resolveActions(w)
	require.Equal(t, 0, total)
	require.Equal(t, 1, skipped)
	require.Empty(t, p.ActionsPending)
	require.Len(t, p.ActionsHistory, 1) // still drained for the record
}

func TestWorkEmployedVsUnemployed(t *testing.T) {
	w := newTestWorld()
	p := addPlayer(w, "c1", state.RoleCitizen)

	p.Citizen.Employed = true
	wealth := p.Visible.Wealth
	require.True(t, actWork(w, p))
	require.Greater(t, p.Visible.Wealth, wealth)
	require.Equal(t, 61.0, p.Citizen.Satisfaction)

	p.Citizen.Employed = false
	pressure := p.Citizen.EconomicPressure
	require.True(t, actWork(w, p))
	require.Equal(t, pressure+5, p.Citizen.EconomicPressure)
}

func TestConsumeMovesMarket(t *testing.T) {
	w := newTestWorld()
	p := addPlayer(w, "c1", state.RoleCitizen)

	demand := w.Economy.Market.Demand
	supply := w.Economy.Market.Supply
	require.True(t, actConsume(w, p))

	// amount = min(0.3*100, 0.01*1000) = 10
	require.Equal(t, 90.0, p.Visible.Wealth)
	require.Equal(t, demand+1, w.Economy.Market.Demand)
	require.Equal(t, supply-0.5, w.Economy.Market.Supply)
	require.Equal(t, 63.0, p.Citizen.Satisfaction)
}

func TestVoteLawWeights(t *testing.T) {
	w := newTestWorld()
	citizen := addPlayer(w, "c1", state.RoleCitizen)
	pol := addPlayer(w, "p1", state.RolePolitician)
	w.Laws = append(w.Laws, state.Law{ID: "law_x", Status: state.LawVoting})

	vote := state.Action{Type: "vote_law", Params: map[string]interface{}{
		"law_id": "law_x", "choice": "for",
	}}
	require.True(t, actVoteLaw(w, citizen, vote, 1))
	require.True(t, actVoteLaw(w, pol, vote, 3))
	require.Equal(t, 4, w.Laws[0].Votes.For)
	require.True(t, citizen.Citizen.VotedThisTick)

	// Voting is only legal during the voting window.
	w.Laws[0].Status = state.LawActive
	require.False(t, actVoteLaw(w, citizen, vote, 1))
}

func TestProposeLawTruncatesAndRegisters(t *testing.T) {
	w := newTestWorld()
	p := addPlayer(w, "p1", state.RolePolitician)

	long := make([]byte, state.MaxLawTextLen+500)
	for i := range long {
		long[i] = 'a'
	}
	ok := actProposeLaw(w, p, state.Action{Type: "propose_law", Params: map[string]interface{}{
		"text": string(long),
	}})
	require.True(t, ok)
	require.Len(t, w.Laws, 1)
	require.Len(t, w.Laws[0].OriginalText, state.MaxLawTextLen)
	require.Equal(t, state.LawProposed, w.Laws[0].Status)
	require.Equal(t, "p1", w.Laws[0].Proposer)
	require.Equal(t, 1, p.Politician.LawsProposed)

	// Missing text is a no-op.
	require.False(t, actProposeLaw(w, p, state.Action{Type: "propose_law", Params: map[string]interface{}{}}))
}

func TestLobbyTransfersAndCorrupts(t *testing.T) {
	w := newTestWorld()
	biz := addPlayer(w, "b1", state.RoleBusinessOwner) // wealth 500
	pol := addPlayer(w, "p1", state.RolePolitician)

	ok := actLobby(w, biz, state.Action{Type: "lobby", Params: map[string]interface{}{
		"target_player_id": "p1", "amount": 1000.0,
	}})
	require.True(t, ok)
	// Capped at 20% of wealth.
	require.Equal(t, 400.0, biz.Visible.Wealth)
	require.Equal(t, 100.0, pol.Politician.LobbyMoneyReceived)
	require.Equal(t, 50.0, pol.Hidden.Corruption)
	require.Equal(t, 2.0, biz.Hidden.Corruption)

	// Lobbying a non-politician fails.
	citizen := addPlayer(w, "c1", state.RoleCitizen)
	require.False(t, actLobby(w, biz, state.Action{Type: "lobby", Params: map[string]interface{}{
		"target_player_id": citizen.ID, "amount": 10.0,
	}}))
}

func TestTaxEvasionAndCompliance(t *testing.T) {
	w := newTestWorld()
	p := addPlayer(w, "b1", state.RoleBusinessOwner)

	compliance := w.Economy.TaxCompliance
	require.True(t, actEvadeTaxes(w, p))
	require.Equal(t, 0.2, p.Business.TaxEvasion)
	require.InDelta(t, 510.0, p.Visible.Wealth, 1e-9) // +0.001*500*20
	require.Equal(t, 1.0, p.Hidden.Corruption)
	require.InDelta(t, compliance-0.01, w.Economy.TaxCompliance, 1e-9)

	require.True(t, actComplyTaxes(w, p))
	require.InDelta(t, 0.0, p.Business.TaxEvasion, 1e-9)
	require.Equal(t, 0.5, p.Hidden.Reputation)
}

func TestAllocateBudgetValidation(t *testing.T) {
	w := newTestWorld()
	p := addPlayer(w, "p1", state.RolePolitician)

	valid := map[string]interface{}{
		"welfare": 0.4, "infrastructure": 0.2, "enforcement": 0.2,
		"education": 0.1, "discretionary": 0.1,
	}
	require.True(t, actAllocateBudget(w, p, state.Action{Params: map[string]interface{}{"allocation": valid}}))
	require.Equal(t, 0.4, w.Government.BudgetAllocation["welfare"])

	// Does not sum to 1.
	bad := map[string]interface{}{
		"welfare": 0.9, "infrastructure": 0.2, "enforcement": 0.2,
		"education": 0.1, "discretionary": 0.1,
	}
	require.False(t, actAllocateBudget(w, p, state.Action{Params: map[string]interface{}{"allocation": bad}}))
	require.Equal(t, 0.4, w.Government.BudgetAllocation["welfare"])

	// Missing category.
	incomplete := map[string]interface{}{"welfare": 1.0}
	require.False(t, actAllocateBudget(w, p, state.Action{Params: map[string]interface{}{"allocation": incomplete}}))
}

func TestMovementJoinLeave(t *testing.T) {
	w := newTestWorld()
	p := addPlayer(w, "c1", state.RoleCitizen)
	w.Society.Movements = append(w.Society.Movements, state.Movement{
		ID: "mov_1", Name: "Reform Now", Type: state.MovementRadical,
	})

	join := state.Action{Params: map[string]interface{}{"movement_id": "mov_1"}}
	require.True(t, actJoinMovement(w, p, join))
	require.Equal(t, "mov_1", p.Visible.MovementID)
	require.Equal(t, 10.0, p.Citizen.Radicalization) // radical movements radicalize

	// Idempotent join does not duplicate membership.
	require.True(t, actJoinMovement(w, p, join))
	require.Len(t, w.Society.Movements[0].MemberPlayerIDs, 1)

	require.True(t, actLeaveMovement(w, p))
	require.Empty(t, p.Visible.MovementID)
	require.Empty(t, w.Society.Movements[0].MemberPlayerIDs)
	require.False(t, actLeaveMovement(w, p))
}

func TestUnknownActionSkipped(t *testing.T) {
	w := newTestWorld()
	p := addPlayer(w, "c1", state.RoleCitizen)
	p.ActionsPending = []state.Action{{Type: "teleport"}}

	total, skipped := resolveActions(w)
	require.Equal(t, 1, total)
	require.Equal(t, 1, skipped)
}
