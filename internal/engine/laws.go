// Law lifecycle — each law moves at most one hop per tick along
// proposed → voting → active/rejected, and active laws with a bound,
// non-rejected interpretation apply their modifier batch each tick.
package engine

import (
	"log/slog"

	"github.com/talgya/statecraft/internal/state"
)

// stepLaws advances law statuses. Returns the laws newly activated this tick
// (they still need a judiciary interpretation) and the count rejected.
func stepLaws(w *state.WorldState) (activated []*state.Law, rejected int) {
	for i := range w.Laws {
		law := &w.Laws[i]
		switch law.Status {
		case state.LawProposed:
			if w.Meta.Tick > law.ProposedTick {
				law.Status = state.LawVoting
			}
		case state.LawVoting:
			total := law.Votes.For + law.Votes.Against
			if total == 0 {
				continue // no quorum yet, wait one more tick
			}
			if law.Votes.For > law.Votes.Against {
				law.Status = state.LawActive
				tick := w.Meta.Tick
				law.ActivatedTick = &tick
				w.Government.ActiveLawCount++
				if prop := w.Players[law.Proposer]; prop != nil && prop.Politician != nil {
					prop.Politician.LawsPassed++
				}
				activated = append(activated, law)
				slog.Info("law activated", "law", law.ID, "for", law.Votes.For, "against", law.Votes.Against)
			} else {
				law.Status = state.LawRejected
				rejected++
				slog.Info("law rejected", "law", law.ID, "for", law.Votes.For, "against", law.Votes.Against)
			}
		}
	}
	return activated, rejected
}

// applyActiveLaws runs the modifier batch of every active law with a bound
// interpretation. A kernel rejection rolls the batch back and flags the
// interpretation rejected_by_core; the law stays active with no effect.
func applyActiveLaws(w *state.WorldState) {
	for i := range w.Laws {
		law := &w.Laws[i]
		if law.Status != state.LawActive || law.Interpretation == nil || law.Interpretation.RejectedByCore {
			continue
		}
		mods := law.Interpretation.Implementation.Modifiers
		if len(mods) == 0 {
			continue
		}
		if res := state.ApplyLawBatch(w, mods, law.ID); !res.OK() {
			law.Interpretation.RejectedByCore = true
			slog.Warn("law interpretation rejected by core",
				"law", law.ID,
				"variable", res.Rejected.Variable,
				"reason", res.Reason,
			)
		}
	}
}

// resetVoteFlags clears the per-tick voted markers after resolution.
func resetVoteFlags(w *state.WorldState) {
	for _, p := range w.Players {
		if p.Citizen != nil {
			p.Citizen.VotedThisTick = false
		}
	}
}
