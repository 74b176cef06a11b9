package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/statecraft/internal/state"
)

func TestLawLifecycleOneHopPerTick(t *testing.T) {
	w := newTestWorld()
	pol := addPlayer(w, "p1", state.RolePolitician)

	w.Laws = append(w.Laws, state.Law{
		ID: "law_a", Proposer: pol.ID, ProposedTick: 0, Status: state.LawProposed,
	})

	// Same tick as proposal: stays proposed.
	activated, rejected := stepLaws(w)
	require.Empty(t, activated)
	require.Zero(t, rejected)
	require.Equal(t, state.LawProposed, w.Laws[0].Status)

	// Next tick: proposed → voting, never further in one hop.
	w.Meta.Tick = 1
	activated, _ = stepLaws(w)
	require.Empty(t, activated)
	require.Equal(t, state.LawVoting, w.Laws[0].Status)

	// No votes yet: voting persists.
	w.Meta.Tick = 2
	stepLaws(w)
	require.Equal(t, state.LawVoting, w.Laws[0].Status)

	// Votes arrive: activation records the tick and bumps counters.
	w.Laws[0].Votes = state.VoteTally{For: 3, Against: 1}
	w.Meta.Tick = 3
	activated, rejected = stepLaws(w)
	require.Len(t, activated, 1)
	require.Zero(t, rejected)
	require.Equal(t, state.LawActive, w.Laws[0].Status)
	require.NotNil(t, w.Laws[0].ActivatedTick)
	require.Equal(t, int64(3), *w.Laws[0].ActivatedTick)
	require.Equal(t, 1, w.Government.ActiveLawCount)
	require.Equal(t, 1, pol.Politician.LawsPassed)
}

func TestLawRejectedOnMajorityAgainst(t *testing.T) {
	w := newTestWorld()
	w.Meta.Tick = 2
	w.Laws = append(w.Laws, state.Law{
		ID: "law_b", Status: state.LawVoting,
		Votes: state.VoteTally{For: 1, Against: 2},
	})

	activated, rejected := stepLaws(w)
	require.Empty(t, activated)
	require.Equal(t, 1, rejected)
	require.Equal(t, state.LawRejected, w.Laws[0].Status)
}

func TestLawTieRejects(t *testing.T) {
	w := newTestWorld()
	w.Laws = append(w.Laws, state.Law{
		ID: "law_c", Status: state.LawVoting,
		Votes: state.VoteTally{For: 2, Against: 2},
	})
	_, rejected := stepLaws(w)
	require.Equal(t, 1, rejected)
	require.Equal(t, state.LawRejected, w.Laws[0].Status)
}

func TestApplyActiveLaws(t *testing.T) {
	w := newTestWorld()
	tick := int64(1)
	w.Laws = append(w.Laws, state.Law{
		ID: "law_d", Status: state.LawActive, ActivatedTick: &tick,
		Interpretation: &state.Interpretation{
			Implementation: state.Implementation{
				Modifiers: []state.Modifier{
					{Variable: "economy.tax_rate", Operation: state.OpAdd, Value: 5},
				},
			},
		},
	})

	applyActiveLaws(w)
	require.Equal(t, 25.0, w.Economy.TaxRate)
	require.False(t, w.Laws[0].Interpretation.RejectedByCore)

	// Applies every tick while active.
	applyActiveLaws(w)
	require.Equal(t, 30.0, w.Economy.TaxRate)
}

func TestApplyActiveLawsRejectionFlagsDeadLaw(t *testing.T) {
	w := newTestWorld()
	tick := int64(1)
	w.Laws = append(w.Laws, state.Law{
		ID: "law_e", Status: state.LawActive, ActivatedTick: &tick,
		Interpretation: &state.Interpretation{
			Implementation: state.Implementation{
				Modifiers: []state.Modifier{
					{Variable: "economy.tax_rate", Operation: state.OpAdd, Value: 5},
					{Variable: "no.such.leaf", Operation: state.OpSet, Value: 1},
				},
			},
		},
	})

	applyActiveLaws(w)
	// Batch rolled back, law stays active but flagged dead.
	require.Equal(t, 20.0, w.Economy.TaxRate)
	require.Equal(t, state.LawActive, w.Laws[0].Status)
	require.True(t, w.Laws[0].Interpretation.RejectedByCore)

	// Dead laws are skipped on later ticks.
	applyActiveLaws(w)
	require.Equal(t, 20.0, w.Economy.TaxRate)
}

func TestResetVoteFlags(t *testing.T) {
	w := newTestWorld()
	p := addPlayer(w, "c1", state.RoleCitizen)
	p.Citizen.VotedThisTick = true

	resetVoteFlags(w)
	require.False(t, p.Citizen.VotedThisTick)
}
