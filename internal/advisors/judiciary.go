// Judiciary stage — binds each newly activated law's free text to a concrete
// modifier batch. The batch is attempted immediately through the kernel; a
// rejection flags the interpretation dead and leaves the law active with no
// effect.
package advisors

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/talgya/statecraft/internal/state"
)

// JudiciaryInput is one law presented for interpretation.
type JudiciaryInput struct {
	Tick         int64    `json:"tick"`
	LawID        string   `json:"law_id"`
	LawText      string   `json:"law_text"`
	Proposer     string   `json:"proposer"`
	VotesFor     int      `json:"votes_for"`
	VotesAgainst int      `json:"votes_against"`
	Variables    []string `json:"addressable_variables"`
}

// JudiciaryOutput is the validated interpretation of one law.
type JudiciaryOutput struct {
	LawID          string               `json:"law_id"`
	Interpretation string               `json:"interpretation"`
	Ambiguities    []string             `json:"ambiguities"`
	Implementation state.Implementation `json:"implementation"`
}

var judiciaryRequired = []string{"law_id", "interpretation", "ambiguities", "implementation"}

const judiciarySystem = `You are the constitutional court of a simulated nation. You receive one newly enacted law as free text plus the list of addressable state variables. Translate the law into concrete numeric modifiers. Respond ONLY with JSON: {"law_id": "...", "interpretation": "...", "ambiguities": [...], "implementation": {"affected_variables": [...], "modifiers": [{"variable": "path", "operation": "set|add|multiply|clamp", "value": n}]}}. Use small, plausible magnitudes; an absurd law still gets a minimal good-faith reading.`

// addressableVariables lists the dot-paths the judiciary may target.
func addressableVariables() []string {
	vars := make([]string, 0, len(state.HardConstraints))
	for path := range state.HardConstraints {
		vars = append(vars, path)
	}
	return vars
}

// noopInterpretation is the fallback binding: the law is formally interpreted
// but carries no modifiers.
func noopInterpretation() *state.Interpretation {
	return &state.Interpretation{
		Interpretation: "The court could not produce a binding reading; the law stands without operative effect.",
		Ambiguities:    []string{"interpretation unavailable"},
		Implementation: state.Implementation{},
	}
}

// RunJudiciary interprets every newly activated law, binds the result, and
// applies the modifier batch through the kernel. Returns raw outputs keyed by
// law id for the audit log.
func (p *Pipeline) RunJudiciary(ctx context.Context, w *state.WorldState, newLaws []*state.Law) map[string]string {
	raws := make(map[string]string, len(newLaws))

	for _, law := range newLaws {
		in := JudiciaryInput{
			Tick:         w.Meta.Tick,
			LawID:        law.ID,
			LawText:      law.OriginalText,
			Proposer:     law.Proposer,
			VotesFor:     law.Votes.For,
			VotesAgainst: law.Votes.Against,
			Variables:    addressableVariables(),
		}

		interp := noopInterpretation()
		cleaned, raw, err := p.call(ctx, StageJudiciary, judiciarySystem, in, 1000)
		raws[law.ID] = truncateRaw(raw)
		if err != nil {
			logFallback(StageJudiciary, err)
		} else {
			var out JudiciaryOutput
			if derr := decodeChecked(cleaned, judiciaryRequired, &out); derr != nil {
				logFallback(StageJudiciary, derr)
			} else if out.LawID != law.ID {
				logFallback(StageJudiciary, fmt.Errorf("law_id mismatch: got %q want %q", out.LawID, law.ID))
			} else {
				interp = &state.Interpretation{
					Interpretation: out.Interpretation,
					Ambiguities:    out.Ambiguities,
					Implementation: out.Implementation,
				}
			}
		}

		law.Interpretation = interp
		if len(interp.Implementation.Modifiers) == 0 {
			continue
		}
		if res := state.ApplyLawBatch(w, interp.Implementation.Modifiers, law.ID); !res.OK() {
			interp.RejectedByCore = true
			slog.Warn("judiciary modifiers rejected by core",
				"law", law.ID,
				"variable", res.Rejected.Variable,
				"reason", res.Reason,
			)
		}
	}
	return raws
}
