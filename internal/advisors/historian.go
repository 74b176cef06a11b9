// Historian stage — the last word of every tick. May open a new era and
// revise player reputations; never touches gameplay state.
package advisors

import (
	"context"

	"github.com/talgya/statecraft/internal/state"
)

// HistorianInput summarizes the tick for the record.
type HistorianInput struct {
	Tick           int64    `json:"tick"`
	CurrentEra     string   `json:"current_era"`
	EraStartTick   int64    `json:"era_start_tick"`
	Stability      float64  `json:"stability"`
	GDP            float64  `json:"gdp"`
	ActiveLaws     int      `json:"active_law_count"`
	EventsThisTick []string `json:"events_this_tick"`
	PlayerIDs      []string `json:"player_ids"`
}

// EraTransition describes a new era opened by the historian.
type EraTransition struct {
	NewEra  bool   `json:"new_era"`
	Name    string `json:"name"`
	Summary string `json:"summary"`
}

// HistorianOutput is the validated historical record.
type HistorianOutput struct {
	EraTransition     *EraTransition                    `json:"era_transition"`
	Summary           string                            `json:"summary"`
	PlayerReputations map[string]state.ReputationRecord `json:"player_reputations"`
}

var historianRequired = []string{"era_transition", "summary", "player_reputations"}

const historianSystem = `You are the court historian of a simulated nation. Judge whether this tick closes an era (rare — only on regime change, catastrophe, or transformation) and record reputations for notable players. Respond ONLY with JSON: {"era_transition": {"new_era": bool, "name": "...", "summary": "..."} or null, "summary": "...", "player_reputations": {"player_id": {"title": "...", "summary": "...", "score": n}}}.`

// BuildHistorianInput assembles the record briefing.
func BuildHistorianInput(w *state.WorldState) HistorianInput {
	in := HistorianInput{
		Tick:       w.Meta.Tick,
		Stability:  w.Society.Stability,
		GDP:        w.Economy.GDP,
		ActiveLaws: w.Government.ActiveLawCount,
		PlayerIDs:  w.PlayerIDs(),
	}
	if n := len(w.History.Eras); n > 0 {
		in.CurrentEra = w.History.Eras[n-1].Name
		in.EraStartTick = w.History.Eras[n-1].TickStart
	}
	for i := range w.Events {
		if w.Events[i].Tick == w.Meta.Tick {
			in.EventsThisTick = append(in.EventsThisTick, w.Events[i].Description)
		}
	}
	return in
}

// RunHistorian executes the historian stage. The fallback skips the history
// update entirely.
func (p *Pipeline) RunHistorian(ctx context.Context, w *state.WorldState) string {
	in := BuildHistorianInput(w)

	cleaned, raw, err := p.call(ctx, StageHistorian, historianSystem, in, 1000)
	if err != nil {
		logFallback(StageHistorian, err)
		return truncateRaw(raw)
	}

	var out HistorianOutput
	if derr := decodeChecked(cleaned, historianRequired, &out); derr != nil {
		logFallback(StageHistorian, derr)
		return truncateRaw(raw)
	}

	if out.EraTransition != nil && out.EraTransition.NewEra && out.EraTransition.Name != "" {
		if n := len(w.History.Eras); n > 0 && w.History.Eras[n-1].TickEnd == nil {
			end := w.Meta.Tick
			w.History.Eras[n-1].TickEnd = &end
		}
		w.History.Eras = append(w.History.Eras, state.Era{
			Name:      out.EraTransition.Name,
			TickStart: w.Meta.Tick,
			Summary:   out.EraTransition.Summary,
		})
	}
	for id, rec := range out.PlayerReputations {
		if _, ok := w.Players[id]; ok {
			w.History.PlayerReputations[id] = rec
		}
	}
	return truncateRaw(raw)
}
