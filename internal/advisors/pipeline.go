// Pipeline plumbing. The six stages run strictly in order inside the tick;
// each stage call is bounded by a timeout and an isolation boundary, so a
// transport failure, bad JSON, or panic degrades to the stage fallback.
package advisors

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/talgya/statecraft/internal/metrics"
)

// Stage names, used for logging and the audit log.
const (
	StageAnalyst   = "analyst"
	StageJudiciary = "judiciary"
	StageMedia     = "media"
	StageReaction  = "reaction"
	StageCrisis    = "crisis"
	StageHistorian = "historian"
)

// DefaultTimeout bounds one advisor call.
const DefaultTimeout = 45 * time.Second

// Pipeline holds the transport shared by all stages.
type Pipeline struct {
	Caller  Caller
	Timeout time.Duration
}

// NewPipeline wires a pipeline around a transport. A nil caller means every
// stage runs its fallback, which keeps the engine fully functional offline.
func NewPipeline(c Caller) *Pipeline {
	return &Pipeline{Caller: c, Timeout: DefaultTimeout}
}

// call performs one guarded advisor invocation: marshal the stage input,
// issue the transport call under a deadline, and clean the response. Any
// error (or panic in a test stub) surfaces as err; callers fall back.
func (p *Pipeline) call(ctx context.Context, stage, system string, input interface{}, maxTokens int) (cleaned, raw string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("advisor %s panicked: %v", stage, r)
		}
	}()

	if p.Caller == nil {
		return "", "", fmt.Errorf("advisor transport not configured")
	}

	user, err := buildUserMessage(input)
	if err != nil {
		return "", "", err
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw, err = p.Caller.Complete(cctx, system, user, maxTokens)
	if err != nil {
		return "", raw, fmt.Errorf("advisor %s: %w", stage, err)
	}
	return CleanResponse(raw), raw, nil
}

// logFallback records why a stage fell back; the tick continues regardless.
func logFallback(stage string, err error) {
	metrics.AdvisorFallbacks.WithLabelValues(stage).Inc()
	slog.Warn("advisor stage fell back", "stage", stage, "error", err)
}
