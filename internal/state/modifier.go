// Modifier kernel — the only sanctioned mutation path outside the action
// handlers and the recalculator. Batches from events are all-or-nothing;
// batches from laws leave the law active but flagged dead on rejection.
package state

import (
	"fmt"
	"log/slog"
	"math"
)

// ModifierOp is the operation a modifier performs on its target leaf.
type ModifierOp string

const (
	OpSet      ModifierOp = "set"
	OpAdd      ModifierOp = "add"
	OpMultiply ModifierOp = "multiply"
	OpClamp    ModifierOp = "clamp"
)

// Modifier is a typed instruction to change a single state leaf.
type Modifier struct {
	Variable  string     `json:"variable"`
	Operation ModifierOp `json:"operation"`
	Value     float64    `json:"value"`
	Min       *float64   `json:"min,omitempty"`
	Max       *float64   `json:"max,omitempty"`
}

// Rejection reasons reported by Apply.
const (
	RejectVariableNotFound = "variable_not_found"
	RejectNotFinite        = "not_finite"
	RejectUnknownOperation = "unknown_operation"
)

// Apply runs a single modifier against the state. On success the prior value
// is returned so callers can roll the write back. On failure the state is
// untouched and a rejection reason is returned.
func Apply(w *WorldState, m Modifier) (prior float64, reason string, ok bool) {
	cur, found := GetPath(w, m.Variable)
	if !found {
		return 0, RejectVariableNotFound, false
	}

	var next float64
	switch m.Operation {
	case OpSet:
		next = m.Value
	case OpAdd:
		next = cur + m.Value
	case OpMultiply:
		next = cur * m.Value
	case OpClamp:
		lo := math.Inf(-1)
		hi := math.Inf(1)
		if m.Min != nil {
			lo = *m.Min
		}
		if m.Max != nil {
			hi = *m.Max
		}
		next = ClampValue(cur, lo, hi)
	default:
		return 0, RejectUnknownOperation, false
	}

	if math.IsNaN(next) || math.IsInf(next, 0) {
		return 0, RejectNotFinite, false
	}

	setPath(w, m.Variable, next)
	return cur, "", true
}

// BatchResult reports the outcome of a batch application.
type BatchResult struct {
	Applied  int
	Rejected *Modifier // first rejected modifier, nil when fully applied
	Reason   string
}

// OK reports whether every modifier in the batch was applied.
func (r BatchResult) OK() bool { return r.Rejected == nil }

// applyBatch attempts each modifier in order, recording prior values. When
// rollback is true and any modifier is rejected, every already-written leaf is
// restored before returning.
func applyBatch(w *WorldState, mods []Modifier, source string, rollback bool) BatchResult {
	type write struct {
		path  string
		prior float64
	}
	writes := make([]write, 0, len(mods))

	for i := range mods {
		prior, reason, ok := Apply(w, mods[i])
		if !ok {
			slog.Warn("modifier rejected",
				"source", source,
				"variable", mods[i].Variable,
				"operation", mods[i].Operation,
				"reason", reason,
			)
			if rollback {
				// Restore in reverse so repeated writes to one path unwind correctly.
				for j := len(writes) - 1; j >= 0; j-- {
					pathRegistry[writes[j].path].set(w, writes[j].prior)
				}
			}
			return BatchResult{Applied: i, Rejected: &mods[i], Reason: reason}
		}
		writes = append(writes, write{mods[i].Variable, prior})
	}
	return BatchResult{Applied: len(mods)}
}

// ApplyEventBatch applies an event-sourced batch atomically: any rejection
// rolls back the whole batch.
func ApplyEventBatch(w *WorldState, mods []Modifier, source string) BatchResult {
	return applyBatch(w, mods, source, true)
}

// ApplyLawBatch applies a law-sourced batch. Law batches roll back on
// rejection too, but the caller flags the interpretation rejected_by_core
// instead of failing the law.
func ApplyLawBatch(w *WorldState, mods []Modifier, lawID string) BatchResult {
	return applyBatch(w, mods, fmt.Sprintf("law:%s", lawID), true)
}
