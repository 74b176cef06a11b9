// Event processor — priority-ordered application of pending events with
// all-or-nothing modifier batches, plus expiry of applied events.
package engine

import (
	"log/slog"
	"sort"

	"github.com/talgya/statecraft/internal/state"
)

// processEvents expires stale applied events, then applies pending events in
// descending source priority (ties broken by id for determinism). Returns
// (applied, rejected, expired) counts for the tick log.
func processEvents(w *state.WorldState) (applied, rejected, expired int) {
	// Expiry sweep first: applied events whose window has closed.
	for i := range w.Events {
		e := &w.Events[i]
		if e.Status == state.EventApplied && e.ExpiresTick != nil && *e.ExpiresTick <= w.Meta.Tick {
			e.Status = state.EventExpired
			expired++
		}
	}

	pending := make([]*state.GameEvent, 0)
	for i := range w.Events {
		if w.Events[i].Status == state.EventPending {
			pending = append(pending, &w.Events[i])
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		pi, pj := state.SourcePriority(pending[i].Source), state.SourcePriority(pending[j].Source)
		if pi != pj {
			return pi > pj
		}
		return pending[i].ID < pending[j].ID
	})

	for _, e := range pending {
		if len(e.Modifiers) == 0 {
			e.Status = state.EventApplied
			setExpiry(e, w.Meta.Tick)
			applied++
			continue
		}
		if res := state.ApplyEventBatch(w, e.Modifiers, string(e.Source)); !res.OK() {
			e.Status = state.EventRejected
			rejected++
			slog.Warn("event batch rejected",
				"event", e.ID,
				"source", e.Source,
				"variable", res.Rejected.Variable,
				"reason", res.Reason,
			)
			continue
		}
		e.Status = state.EventApplied
		setExpiry(e, w.Meta.Tick)
		applied++
	}
	return applied, rejected, expired
}

func setExpiry(e *state.GameEvent, tick int64) {
	if e.DurationTicks == nil {
		return
	}
	exp := tick + *e.DurationTicks
	e.ExpiresTick = &exp
}
