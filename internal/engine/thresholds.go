// Threshold watchdog — static rules that emit narrative events when a
// monitored scalar crosses a configured bound. Cooldowns are an anti-spam
// heuristic tracked in memory, reconstructed best-effort on restart.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/statecraft/internal/state"
)

// thresholdCondition is the comparison direction for a trigger.
type thresholdCondition int

const (
	condBelow thresholdCondition = iota
	condAbove
)

// thresholdTrigger is one entry in the static trigger table.
type thresholdTrigger struct {
	Variable      string
	Condition     thresholdCondition
	Value         float64
	EventType     string
	Severity      int
	CooldownTicks int64
}

// thresholdTable is the full static trigger configuration.
var thresholdTable = []thresholdTrigger{
	{"economy.gdp", condBelow, 100, "economic_crisis", 5, 10},
	{"economy.inflation", condAbove, 50, "hyperinflation", 4, 5},
	{"economy.unemployment", condAbove, 25, "protest", 3, 3},
	{"society.stability", condBelow, 20, "revolution", 5, 20},
	{"society.stability", condAbove, 90, "scandal", 2, 5},
	{"society.radicalization", condAbove, 80, "revolution", 4, 15},
	{"society.radicalization", condAbove, 60, "movement_formed", 2, 5},
	{"economy.budget.reserves", condBelow, 0, "budget_crisis", 3, 5},
}

// Watchdog tracks last-trigger ticks per event type.
type Watchdog struct {
	lastTriggered map[string]int64
}

// NewWatchdog creates a watchdog with empty cooldown state.
func NewWatchdog() *Watchdog {
	return &Watchdog{lastTriggered: make(map[string]int64)}
}

// Scan checks every trigger against the current state and emits pre-validated
// narrative events (status applied, no modifiers) for those off cooldown.
// Entries fire independently; several may fire in one tick.
func (wd *Watchdog) Scan(w *state.WorldState) int {
	fired := 0
	for _, t := range thresholdTable {
		cur, ok := state.GetPath(w, t.Variable)
		if !ok {
			continue
		}
		met := false
		switch t.Condition {
		case condBelow:
			met = cur < t.Value
		case condAbove:
			met = cur > t.Value
		}
		if !met {
			continue
		}
		if last, seen := wd.lastTriggered[t.EventType]; seen && w.Meta.Tick-last <= t.CooldownTicks {
			continue
		}
		wd.lastTriggered[t.EventType] = w.Meta.Tick

		w.Events = append(w.Events, state.GameEvent{
			ID:       w.NewEventID(),
			Source:   state.SourceCoreEngine,
			Tick:     w.Meta.Tick,
			Type:     t.EventType,
			Severity: t.Severity,
			Status:   state.EventApplied,
			Description: fmt.Sprintf("%s: %s crossed %.1f (now %.1f)",
				t.EventType, t.Variable, t.Value, cur),
			NarrativeHook: t.EventType,
		})
		fired++
		slog.Info("threshold trigger fired",
			"type", t.EventType,
			"variable", t.Variable,
			"value", cur,
			"severity", t.Severity,
		)
	}
	return fired
}
