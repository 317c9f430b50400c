// Package oracle integrates the external decision service that turns a
// described garden condition into a structured irrigation decision. The
// reasoning itself is opaque; this package only owns the request/response
// contract and its failure discipline.
package oracle

import (
	"context"
	"time"

	"growthai-backend/internal/model"
)

// Oracle decides what to do about a condition. Implementations never return
// an error: any failure degrades into a Decision with the "error" verb so the
// monitoring loop can carry on.
type Oracle interface {
	Decide(ctx context.Context, condition string, dctx model.DecisionContext) model.Decision
}

// Disabled is the no-op oracle used when no upstream is configured.
type Disabled struct{}

// NewDisabled returns an oracle that always reports no_action.
func NewDisabled() Disabled {
	return Disabled{}
}

func (Disabled) Decide(_ context.Context, _ string, dctx model.DecisionContext) model.Decision {
	return model.Decision{
		Decision:    model.DecisionNoAction,
		PlantID:     dctx.PlantID,
		GardenID:    dctx.GardenID,
		Explanation: "decision oracle not configured",
		Priority:    model.PriorityLow,
		Timestamp:   time.Now().UTC(),
	}
}
