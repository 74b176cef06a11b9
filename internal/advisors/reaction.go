// Reaction stage — models how the public responds to the tick: approval
// deltas, protest probability, and movement directives.
package advisors

import (
	"context"
	"log/slog"

	"github.com/talgya/statecraft/internal/state"
)

// ReactionInput is the public-opinion briefing.
type ReactionInput struct {
	Tick         int64              `json:"tick"`
	Approval     state.Approval     `json:"approval"`
	Satisfaction float64            `json:"satisfaction"`
	Protest      float64            `json:"protest_pressure"`
	Stability    float64            `json:"stability"`
	Trends       []string           `json:"analyst_trends"`
	Risks        []string           `json:"analyst_risks"`
	Headlines    []string           `json:"headlines"`
	Movements    []MovementSnapshot `json:"movements"`
}

// MovementSnapshot summarizes one movement for the advisor.
type MovementSnapshot struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Strength float64 `json:"strength"`
	Members  int     `json:"members"`
}

// MovementDirective instructs a create/strengthen/dissolve change.
type MovementDirective struct {
	Directive     string   `json:"directive"` // create, strengthen, dissolve
	MovementID    string   `json:"movement_id,omitempty"`
	Name          string   `json:"name,omitempty"`
	Type          string   `json:"type,omitempty"`
	StrengthDelta float64  `json:"strength_delta,omitempty"`
	Demands       []string `json:"demands,omitempty"`
}

// ReactionOutput is the validated public-reaction result.
type ReactionOutput struct {
	ApprovalDelta      map[string]float64  `json:"approval_delta"`
	ProtestProb        float64             `json:"protest_prob"`
	Movements          []MovementDirective `json:"movements"`
	SuppressedWarnings []string            `json:"suppressed_warnings"`
}

var reactionRequired = []string{"approval_delta", "protest_prob", "movements", "suppressed_warnings"}

const reactionSystem = `You are the aggregated public opinion of a simulated nation. From the tick data, decide how approval shifts (deltas between -10 and +10 for overall, economic, social, foreign), the probability of protest (0-1), and whether movements form, strengthen, or dissolve. Respond ONLY with JSON: {"approval_delta": {"overall": n, "economic": n, "social": n, "foreign": n}, "protest_prob": n, "movements": [{"directive": "create|strengthen|dissolve", "movement_id": "...", "name": "...", "type": "reform|populist|radical|separatist|labor|business", "strength_delta": n, "demands": [...]}], "suppressed_warnings": [...]}.`

// BuildReactionInput assembles the opinion briefing.
func BuildReactionInput(w *state.WorldState, analyst AnalystOutput) ReactionInput {
	in := ReactionInput{
		Tick:         w.Meta.Tick,
		Approval:     w.Government.Approval,
		Satisfaction: w.Society.Satisfaction,
		Protest:      w.Society.ProtestPressure,
		Stability:    w.Society.Stability,
		Trends:       analyst.Trends,
		Risks:        analyst.Risks,
	}
	for _, h := range w.Media.Headlines {
		in.Headlines = append(in.Headlines, h.Text)
	}
	for i := range w.Society.Movements {
		m := &w.Society.Movements[i]
		in.Movements = append(in.Movements, MovementSnapshot{
			ID:       m.ID,
			Name:     m.Name,
			Type:     string(m.Type),
			Strength: m.Strength,
			Members:  len(m.MemberPlayerIDs),
		})
	}
	return in
}

// reactionFallback: a uniform -1 to all four approvals and a small protest
// bump. The public is mildly displeased when it cannot be heard.
func reactionFallback() ReactionOutput {
	return ReactionOutput{
		ApprovalDelta: map[string]float64{
			"overall": -1, "economic": -1, "social": -1, "foreign": -1,
		},
		ProtestProb:        -1, // sentinel: apply the fixed +0.02 bump instead of the ratchet
		Movements:          nil,
		SuppressedWarnings: nil,
	}
}

// RunReaction executes the reaction stage and applies its output.
func (p *Pipeline) RunReaction(ctx context.Context, w *state.WorldState, analyst AnalystOutput) string {
	in := BuildReactionInput(w, analyst)

	out := reactionFallback()
	fellBack := true
	cleaned, raw, err := p.call(ctx, StageReaction, reactionSystem, in, 1000)
	if err != nil {
		logFallback(StageReaction, err)
	} else {
		var parsed ReactionOutput
		if derr := decodeChecked(cleaned, reactionRequired, &parsed); derr != nil {
			logFallback(StageReaction, derr)
		} else {
			out = parsed
			fellBack = false
		}
	}

	applyReaction(w, out, fellBack)
	return truncateRaw(raw)
}

func applyReaction(w *state.WorldState, out ReactionOutput, fellBack bool) {
	approvalPaths := map[string]string{
		"overall":  "government.approval.overall",
		"economic": "government.approval.economic",
		"social":   "government.approval.social",
		"foreign":  "government.approval.foreign",
	}
	for key, path := range approvalPaths {
		if delta, ok := out.ApprovalDelta[key]; ok {
			state.Apply(w, state.Modifier{Variable: path, Operation: state.OpAdd, Value: delta})
		}
	}

	if fellBack {
		state.Apply(w, state.Modifier{
			Variable: "society.protest_pressure", Operation: state.OpAdd, Value: 0.02,
		})
	} else if out.ProtestProb > w.Society.ProtestPressure {
		// One-way ratchet: reaction can only push protest pressure up.
		// Downward motion comes from the recalculator's decay.
		blended := 0.5*w.Society.ProtestPressure + 0.5*state.ClampValue(out.ProtestProb, 0, 1)
		state.Apply(w, state.Modifier{
			Variable: "society.protest_pressure", Operation: state.OpSet, Value: blended,
		})
	}

	for _, d := range out.Movements {
		applyMovementDirective(w, d)
	}
}

func applyMovementDirective(w *state.WorldState, d MovementDirective) {
	switch d.Directive {
	case "create":
		mt := state.MovementType(d.Type)
		if d.Name == "" || !state.ValidMovementType(mt) {
			slog.Warn("movement create directive dropped", "name", d.Name, "type", d.Type)
			return
		}
		w.Society.Movements = append(w.Society.Movements, state.Movement{
			ID:          w.NewMovementID(),
			Name:        d.Name,
			Type:        mt,
			Strength:    state.ClampValue(d.StrengthDelta, 0, 1),
			Demands:     d.Demands,
			CreatedTick: w.Meta.Tick,
		})
	case "strengthen":
		m := w.MovementByID(d.MovementID)
		if m == nil {
			return
		}
		m.Strength = state.ClampValue(m.Strength+d.StrengthDelta, 0, 1)
	case "dissolve":
		movements := w.Society.Movements[:0]
		for i := range w.Society.Movements {
			m := &w.Society.Movements[i]
			if m.ID != d.MovementID {
				movements = append(movements, *m)
				continue
			}
			for _, pid := range m.MemberPlayerIDs {
				if p := w.Players[pid]; p != nil && p.Visible.MovementID == m.ID {
					p.Visible.MovementID = ""
				}
			}
		}
		w.Society.Movements = movements
	default:
		slog.Warn("unknown movement directive", "directive", d.Directive)
	}
}
