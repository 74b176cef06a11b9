package advisors

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/statecraft/internal/state"
)

// stubCaller serves canned responses keyed by a substring of the system
// prompt, or a single error for every stage.
type stubCaller struct {
	responses map[string]string
	err       error
	calls     int
}

func (s *stubCaller) Complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	for key, resp := range s.responses {
		if strings.Contains(system, key) {
			return resp, nil
		}
	}
	return "", errors.New("no canned response")
}

func testWorld() *state.WorldState {
	return state.NewWorldState("test", 4, 7)
}

func TestNilCallerFallsBack(t *testing.T) {
	p := NewPipeline(nil)
	w := testWorld()

	out, raw := p.RunAnalyst(context.Background(), w)
	require.Empty(t, raw)
	require.Zero(t, out.Confidence)
	require.Equal(t, w.Economy.GDP, out.Projections["gdp"])
	require.Equal(t, w.Society.Stability, out.Projections["stability"])
}

func TestAllStagesFallBackOnTransportError(t *testing.T) {
	p := NewPipeline(&stubCaller{err: errors.New("api unreachable")})
	w := testWorld()
	ctx := context.Background()

	analyst, _ := p.RunAnalyst(ctx, w)
	p.RunMedia(ctx, w, analyst)
	p.RunReaction(ctx, w, analyst)
	p.RunCrisis(ctx, w, analyst)
	p.RunHistorian(ctx, w)

	// Media fallback: exactly two placeholder headlines, no rumors.
	require.Len(t, w.Media.Headlines, 2)
	require.Equal(t, "Government continues its work amid quiet streets", w.Media.Headlines[0].Text)
	require.Empty(t, w.Media.Rumors)
	require.Empty(t, w.Media.Articles)

	// Reaction fallback: -1 to all four approvals, +0.02 protest.
	require.Equal(t, 54.0, w.Government.Approval.Overall)
	require.Equal(t, 54.0, w.Government.Approval.Economic)
	require.Equal(t, 54.0, w.Government.Approval.Social)
	require.Equal(t, 54.0, w.Government.Approval.Foreign)
	require.InDelta(t, 0.12, w.Society.ProtestPressure, 1e-9)

	// Crisis fallback injects nothing; historian fallback records nothing.
	require.Empty(t, w.Events)
	require.Len(t, w.History.Eras, 1)
}

func TestAnalystParsesValidOutput(t *testing.T) {
	p := NewPipeline(&stubCaller{responses: map[string]string{
		"chief state analyst": "```json\n" + `{"trends": ["growth slowing"], "risks": ["deficit"], "projections": {"gdp": 990, "inflation": 3, "unemployment": 6, "stability": 65}, "confidence": 0.7}` + "\n```",
	}})

	out, raw := p.RunAnalyst(context.Background(), testWorld())
	require.NotEmpty(t, raw)
	require.Equal(t, []string{"growth slowing"}, out.Trends)
	require.Equal(t, 0.7, out.Confidence)
	require.Equal(t, 990.0, out.Projections["gdp"])
}

func TestReactionRatchetOnlyRaisesProtest(t *testing.T) {
	w := testWorld()
	w.Society.ProtestPressure = 0.4

	// Advisor reports lower protest probability: ignored.
	applyReaction(w, ReactionOutput{
		ApprovalDelta: map[string]float64{},
		ProtestProb:   0.1,
	}, false)
	require.Equal(t, 0.4, w.Society.ProtestPressure)

	// Higher probability blends halfway.
	applyReaction(w, ReactionOutput{
		ApprovalDelta: map[string]float64{},
		ProtestProb:   0.8,
	}, false)
	require.InDelta(t, 0.6, w.Society.ProtestPressure, 1e-9)
}

func TestReactionMovementDirectives(t *testing.T) {
	w := testWorld()
	w.Players["c1"] = state.NewPlayer("c1", "Ada", state.RoleCitizen, 0, 1)

	applyReaction(w, ReactionOutput{
		ApprovalDelta: map[string]float64{},
		Movements: []MovementDirective{
			{Directive: "create", Name: "Bread and Wages", Type: "labor", StrengthDelta: 0.3},
			{Directive: "create", Name: "Nameless", Type: "not_a_type"}, // dropped
		},
	}, false)
	require.Len(t, w.Society.Movements, 1)
	m := &w.Society.Movements[0]
	require.Equal(t, state.MovementLabor, m.Type)
	require.Equal(t, 0.3, m.Strength)

	m.MemberPlayerIDs = []string{"c1"}
	w.Players["c1"].Visible.MovementID = m.ID

	applyReaction(w, ReactionOutput{
		ApprovalDelta: map[string]float64{},
		Movements: []MovementDirective{
			{Directive: "strengthen", MovementID: m.ID, StrengthDelta: 0.9},
		},
	}, false)
	require.Equal(t, 1.0, w.Society.Movements[0].Strength) // clamped

	applyReaction(w, ReactionOutput{
		ApprovalDelta: map[string]float64{},
		Movements: []MovementDirective{
			{Directive: "dissolve", MovementID: w.Society.Movements[0].ID},
		},
	}, false)
	require.Empty(t, w.Society.Movements)
	require.Empty(t, w.Players["c1"].Visible.MovementID)
}

func TestCrisisNullIsNotAFallback(t *testing.T) {
	p := NewPipeline(&stubCaller{responses: map[string]string{
		"crisis director": "null",
	}})
	w := testWorld()

	p.RunCrisis(context.Background(), w, AnalystOutput{})
	require.Empty(t, w.Events)
}

func TestCrisisInjectsPendingEvent(t *testing.T) {
	p := NewPipeline(&stubCaller{responses: map[string]string{
		"crisis director": `{"event_type": "bank_run", "severity": 4, "modifiers": [{"variable": "economy.budget.reserves", "operation": "add", "value": -100}], "narrative_hook": "panic at the counters", "duration_ticks": 3}`,
	}})
	w := testWorld()

	p.RunCrisis(context.Background(), w, AnalystOutput{})
	require.Len(t, w.Events, 1)
	e := w.Events[0]
	require.Equal(t, state.SourceCrisis, e.Source)
	require.Equal(t, state.EventPending, e.Status)
	require.Equal(t, "bank_run", e.Type)
	require.Equal(t, 4, e.Severity)
	// The reserves are untouched until the event processor runs.
	require.Equal(t, 500.0, w.Economy.Budget.Reserves)
}

func TestCrisisRejectsBadSeverity(t *testing.T) {
	p := NewPipeline(&stubCaller{responses: map[string]string{
		"crisis director": `{"event_type": "x", "severity": 9, "modifiers": [], "narrative_hook": "", "duration_ticks": null}`,
	}})
	w := testWorld()

	p.RunCrisis(context.Background(), w, AnalystOutput{})
	require.Empty(t, w.Events)
}

func TestJudiciaryBindsAndApplies(t *testing.T) {
	w := testWorld()
	w.Laws = append(w.Laws, state.Law{ID: "law_1", Status: state.LawActive, OriginalText: "Cut taxes"})
	law := &w.Laws[0]

	p := NewPipeline(&stubCaller{responses: map[string]string{
		"constitutional court": `{"law_id": "law_1", "interpretation": "a modest tax cut", "ambiguities": [], "implementation": {"affected_variables": ["economy.tax_rate"], "modifiers": [{"variable": "economy.tax_rate", "operation": "add", "value": -2}]}}`,
	}})

	raws := p.RunJudiciary(context.Background(), w, []*state.Law{law})
	require.Contains(t, raws, "law_1")
	require.NotNil(t, law.Interpretation)
	require.False(t, law.Interpretation.RejectedByCore)
	require.Equal(t, 18.0, w.Economy.TaxRate)
}

func TestJudiciaryLawIDMismatchFallsBack(t *testing.T) {
	w := testWorld()
	w.Laws = append(w.Laws, state.Law{ID: "law_1", Status: state.LawActive})
	law := &w.Laws[0]

	p := NewPipeline(&stubCaller{responses: map[string]string{
		"constitutional court": `{"law_id": "law_999", "interpretation": "", "ambiguities": [], "implementation": {"affected_variables": [], "modifiers": [{"variable": "economy.tax_rate", "operation": "add", "value": -2}]}}`,
	}})

	p.RunJudiciary(context.Background(), w, []*state.Law{law})
	require.NotNil(t, law.Interpretation)
	require.Empty(t, law.Interpretation.Implementation.Modifiers)
	require.Equal(t, 20.0, w.Economy.TaxRate)
}

func TestJudiciaryRejectedByCore(t *testing.T) {
	w := testWorld()
	w.Laws = append(w.Laws, state.Law{ID: "law_1", Status: state.LawActive})
	law := &w.Laws[0]

	p := NewPipeline(&stubCaller{responses: map[string]string{
		"constitutional court": `{"law_id": "law_1", "interpretation": "", "ambiguities": [], "implementation": {"affected_variables": [], "modifiers": [{"variable": "players.count", "operation": "set", "value": 0}]}}`,
	}})

	p.RunJudiciary(context.Background(), w, []*state.Law{law})
	require.True(t, law.Interpretation.RejectedByCore)
	require.Equal(t, state.LawActive, law.Status)
}

func TestHistorianOpensEra(t *testing.T) {
	w := testWorld()
	w.Meta.Tick = 12
	w.Players["p1"] = state.NewPlayer("p1", "Brin", state.RolePolitician, 0, 1)

	p := NewPipeline(&stubCaller{responses: map[string]string{
		"court historian": `{"era_transition": {"new_era": true, "name": "The Reform Years", "summary": "sweeping change"}, "summary": "a turning point", "player_reputations": {"p1": {"title": "The Reformer", "summary": "pushed it through", "score": 0.8}, "ghost": {"title": "?", "summary": "", "score": 0}}}`,
	}})

	p.RunHistorian(context.Background(), w)
	require.Len(t, w.History.Eras, 2)
	require.NotNil(t, w.History.Eras[0].TickEnd)
	require.Equal(t, int64(12), *w.History.Eras[0].TickEnd)
	require.Equal(t, "The Reform Years", w.History.Eras[1].Name)

	// Reputations bind only to known players.
	require.Contains(t, w.History.PlayerReputations, "p1")
	require.NotContains(t, w.History.PlayerReputations, "ghost")
}

func TestStagePanicIsContained(t *testing.T) {
	p := NewPipeline(panicCaller{})
	w := testWorld()

	out, _ := p.RunAnalyst(context.Background(), w)
	require.Zero(t, out.Confidence) // fell back instead of crashing the tick
}

type panicCaller struct{}

func (panicCaller) Complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	panic("transport bug")
}
