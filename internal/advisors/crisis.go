// Crisis stage — may inject one emergency event per tick, or legitimately
// decline with a literal null. The injected event goes through the normal
// event processor, so its modifiers are still batch-atomic and clamped.
package advisors

import (
	"context"
	"fmt"

	"github.com/talgya/statecraft/internal/state"
)

// CrisisInput is the risk briefing for the crisis advisor. The stability and
// GDP history repeat the current value — preserved from the original engine's
// behavior so advisor inputs stay comparable.
type CrisisInput struct {
	Tick             int64     `json:"tick"`
	Stability        float64   `json:"stability"`
	StabilityHistory []float64 `json:"stability_history"`
	GDP              float64   `json:"gdp"`
	GDPHistory       []float64 `json:"gdp_history"`
	Inflation        float64   `json:"inflation"`
	Unemployment     float64   `json:"unemployment"`
	Protest          float64   `json:"protest_pressure"`
	Radicalization   float64   `json:"radicalization"`
	Reserves         float64   `json:"reserves"`
	Risks            []string  `json:"analyst_risks"`
}

// CrisisOutput is a validated crisis injection.
type CrisisOutput struct {
	EventType     string           `json:"event_type"`
	Severity      int              `json:"severity"`
	Modifiers     []state.Modifier `json:"modifiers"`
	NarrativeHook string           `json:"narrative_hook"`
	DurationTicks *int64           `json:"duration_ticks"`
}

var crisisRequired = []string{"event_type", "severity", "modifiers", "narrative_hook", "duration_ticks"}

const crisisSystem = `You are the crisis director of a simulated nation. Most ticks nothing happens: respond with the literal text null. When indicators genuinely warrant it, inject ONE crisis as JSON: {"event_type": "...", "severity": 1-5, "modifiers": [{"variable": "path", "operation": "set|add|multiply", "value": n}], "narrative_hook": "...", "duration_ticks": n or null}. Severity 4-5 is reserved for existential threats.`

// BuildCrisisInput assembles the risk briefing.
func BuildCrisisInput(w *state.WorldState, analyst AnalystOutput) CrisisInput {
	repeat := func(v float64) []float64 { return []float64{v, v, v, v, v} }
	return CrisisInput{
		Tick:             w.Meta.Tick,
		Stability:        w.Society.Stability,
		StabilityHistory: repeat(w.Society.Stability),
		GDP:              w.Economy.GDP,
		GDPHistory:       repeat(w.Economy.GDP),
		Inflation:        w.Economy.Inflation,
		Unemployment:     w.Economy.Unemployment,
		Protest:          w.Society.ProtestPressure,
		Radicalization:   w.Society.Radicalization,
		Reserves:         w.Economy.Budget.Reserves,
		Risks:            analyst.Risks,
	}
}

// RunCrisis executes the crisis stage. A non-null output is pushed as a
// pending event for the same tick's event processor pass. The fallback is to
// inject nothing.
func (p *Pipeline) RunCrisis(ctx context.Context, w *state.WorldState, analyst AnalystOutput) string {
	in := BuildCrisisInput(w, analyst)

	cleaned, raw, err := p.call(ctx, StageCrisis, crisisSystem, in, 800)
	if err != nil {
		logFallback(StageCrisis, err)
		return truncateRaw(raw)
	}
	if IsNull(cleaned) {
		return truncateRaw(raw)
	}

	var out CrisisOutput
	if derr := decodeChecked(cleaned, crisisRequired, &out); derr != nil {
		logFallback(StageCrisis, derr)
		return truncateRaw(raw)
	}
	if out.Severity < 1 || out.Severity > 5 {
		logFallback(StageCrisis, fmt.Errorf("severity %d out of range", out.Severity))
		return truncateRaw(raw)
	}

	w.Events = append(w.Events, state.GameEvent{
		ID:            w.NewEventID(),
		Source:        state.SourceCrisis,
		Tick:          w.Meta.Tick,
		Type:          out.EventType,
		Severity:      out.Severity,
		Status:        state.EventPending,
		Description:   out.EventType,
		Modifiers:     out.Modifiers,
		DurationTicks: out.DurationTicks,
		NarrativeHook: out.NarrativeHook,
	})
	return truncateRaw(raw)
}
