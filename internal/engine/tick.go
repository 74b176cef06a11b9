// Tick orchestration. One tick runs the fixed phase sequence — actions,
// recalculation, law lifecycle, advisor pipeline, threshold scan, event
// processing, historian — then finalizes: tick and seed advance by exactly
// one, the phase rotates back to accepting_actions, and an audit entry with a
// content hash is appended. No single failure along the way aborts a tick.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/talgya/statecraft/internal/advisors"
	"github.com/talgya/statecraft/internal/metrics"
	"github.com/talgya/statecraft/internal/state"
)

// Orchestrator drives tick execution for one game instance.
type Orchestrator struct {
	Pipeline *advisors.Pipeline
	Watchdog *Watchdog
}

// NewOrchestrator wires an orchestrator around an advisor pipeline.
func NewOrchestrator(p *advisors.Pipeline) *Orchestrator {
	return &Orchestrator{
		Pipeline: p,
		Watchdog: NewWatchdog(),
	}
}

// ProcessTick advances the world by exactly one tick. The caller owns the
// state exclusively for the duration and commits it to storage afterwards;
// if the host tears down mid-tick, the uncommitted state is simply discarded.
func (o *Orchestrator) ProcessTick(ctx context.Context, w *state.WorldState, now time.Time) {
	start := time.Now()
	w.Meta.Phase = state.PhaseProcessing

	actionsTotal, actionsSkipped := resolveActions(w)
	metrics.ActionsResolved.WithLabelValues("resolved").Add(float64(actionsTotal - actionsSkipped))
	metrics.ActionsResolved.WithLabelValues("skipped").Add(float64(actionsSkipped))

	recalculate(w)

	activated, lawsRejected := stepLaws(w)
	applyActiveLaws(w)
	resetVoteFlags(w)

	w.Meta.Phase = state.PhaseAIEvaluation
	advisorRaw := make(map[string]string)

	analyst, raw := o.Pipeline.RunAnalyst(ctx, w)
	advisorRaw[advisors.StageAnalyst] = raw
	for lawID, lawRaw := range o.Pipeline.RunJudiciary(ctx, w, activated) {
		advisorRaw[advisors.StageJudiciary+":"+lawID] = lawRaw
	}
	advisorRaw[advisors.StageMedia] = o.Pipeline.RunMedia(ctx, w, analyst)
	advisorRaw[advisors.StageReaction] = o.Pipeline.RunReaction(ctx, w, analyst)
	advisorRaw[advisors.StageCrisis] = o.Pipeline.RunCrisis(ctx, w, analyst)

	o.Watchdog.Scan(w)
	eventsApplied, eventsRejected, eventsExpired := processEvents(w)

	advisorRaw[advisors.StageHistorian] = o.Pipeline.RunHistorian(ctx, w)

	w.Meta.Phase = state.PhaseResolved
	finalize(w, now, state.TickLogEntry{
		Tick:           w.Meta.Tick,
		ActionsTotal:   actionsTotal,
		ActionsSkipped: actionsSkipped,
		EventsApplied:  eventsApplied,
		EventsRejected: eventsRejected,
		EventsExpired:  eventsExpired,
		LawsActivated:  len(activated),
		LawsRejected:   lawsRejected,
		AdvisorRaw:     advisorRaw,
	})

	metrics.TicksProcessed.Inc()
	metrics.TickDuration.Observe(time.Since(start).Seconds())
	slog.Info("tick resolved",
		"server", w.Meta.ServerID,
		"tick", w.Meta.Tick,
		"actions", actionsTotal,
		"events_applied", eventsApplied,
		"laws_activated", len(activated),
		"duration", time.Since(start),
	)
}

// finalize always runs: advance tick and seed, rotate the phase, recompute
// the deadline, and append the audit entry with the post-finalize hash.
func finalize(w *state.WorldState, now time.Time, entry state.TickLogEntry) {
	w.Meta.Tick++
	w.Meta.Seed++
	w.Meta.Phase = state.PhaseAcceptingActions
	w.Meta.TickDeadline = now.Add(time.Duration(w.Meta.TickIntervalHours) * time.Hour).Unix()

	entry.ContentHash = state.ContentHash(w)
	w.TickLog = append(w.TickLog, entry)
	if len(w.TickLog) > state.MaxTickLogEntries {
		w.TickLog = w.TickLog[len(w.TickLog)-state.MaxTickLogEntries:]
	}
}
