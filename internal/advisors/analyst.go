// Analyst stage — reads the macro state and produces trends, risks, and
// numeric projections consumed by later stages. Never mutates state.
package advisors

import (
	"context"

	"github.com/talgya/statecraft/internal/state"
)

// AnalystInput is the stage-specific slice of state sent to the analyst.
type AnalystInput struct {
	Tick           int64              `json:"tick"`
	GDP            float64            `json:"gdp"`
	GDPDelta       float64            `json:"gdp_delta"`
	Inflation      float64            `json:"inflation"`
	Unemployment   float64            `json:"unemployment"`
	Reserves       float64            `json:"reserves"`
	Deficit        float64            `json:"deficit"`
	PriceIndex     float64            `json:"price_index"`
	Shortage       bool               `json:"shortage"`
	Stability      float64            `json:"stability"`
	PublicTrust    float64            `json:"public_trust"`
	Satisfaction   float64            `json:"satisfaction"`
	Radicalization float64            `json:"radicalization"`
	Protest        float64            `json:"protest_pressure"`
	ActiveLaws     int                `json:"active_law_count"`
	Allocation     map[string]float64 `json:"budget_allocation"`
}

// AnalystOutput is the validated analyst result.
type AnalystOutput struct {
	Trends      []string           `json:"trends"`
	Risks       []string           `json:"risks"`
	Projections map[string]float64 `json:"projections"`
	Confidence  float64            `json:"confidence"`
}

var analystRequired = []string{"trends", "risks", "projections", "confidence"}

const analystSystem = `You are the chief state analyst of a simulated nation. You receive the current macroeconomic and social indicators as JSON. Identify the 2-4 most important trends, the 2-4 gravest risks, and project next-tick values for gdp, inflation, unemployment, and stability. Respond ONLY with JSON: {"trends": [...], "risks": [...], "projections": {"gdp": n, "inflation": n, "unemployment": n, "stability": n}, "confidence": 0..1}.`

// BuildAnalystInput marshals the analyst's slice of the state.
func BuildAnalystInput(w *state.WorldState) AnalystInput {
	return AnalystInput{
		Tick:           w.Meta.Tick,
		GDP:            w.Economy.GDP,
		GDPDelta:       w.Economy.GDPDelta,
		Inflation:      w.Economy.Inflation,
		Unemployment:   w.Economy.Unemployment,
		Reserves:       w.Economy.Budget.Reserves,
		Deficit:        w.Economy.Budget.Deficit,
		PriceIndex:     w.Economy.Market.PriceIndex,
		Shortage:       w.Economy.Market.Shortage,
		Stability:      w.Society.Stability,
		PublicTrust:    w.Society.PublicTrust,
		Satisfaction:   w.Society.Satisfaction,
		Radicalization: w.Society.Radicalization,
		Protest:        w.Society.ProtestPressure,
		ActiveLaws:     w.Government.ActiveLawCount,
		Allocation:     w.Government.BudgetAllocation,
	}
}

// analystFallback passes current values through as projections with zero
// confidence, so downstream stages still receive a well-formed record.
func analystFallback(in AnalystInput) AnalystOutput {
	return AnalystOutput{
		Trends: []string{},
		Risks:  []string{},
		Projections: map[string]float64{
			"gdp":          in.GDP,
			"inflation":    in.Inflation,
			"unemployment": in.Unemployment,
			"stability":    in.Stability,
		},
		Confidence: 0,
	}
}

// RunAnalyst executes the analyst stage. The output never mutates state; it
// is forwarded to later stages and kept in the audit log.
func (p *Pipeline) RunAnalyst(ctx context.Context, w *state.WorldState) (AnalystOutput, string) {
	in := BuildAnalystInput(w)

	cleaned, raw, err := p.call(ctx, StageAnalyst, analystSystem, in, 800)
	if err != nil {
		logFallback(StageAnalyst, err)
		return analystFallback(in), truncateRaw(raw)
	}

	var out AnalystOutput
	if err := decodeChecked(cleaned, analystRequired, &out); err != nil {
		logFallback(StageAnalyst, err)
		return analystFallback(in), truncateRaw(raw)
	}
	if out.Confidence < 0 || out.Confidence > 1 {
		out.Confidence = 0
	}
	return out, truncateRaw(raw)
}
