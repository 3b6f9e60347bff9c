package reconcile

import (
	"context"

	"github.com/angelmondragon/packfinderz-cartfee/pkg/enums"
)

type triggerKey struct{}

// WithTrigger tags ctx with the trigger that started a pass.
func WithTrigger(ctx context.Context, trigger enums.TriggerKind) context.Context {
	return context.WithValue(ctx, triggerKey{}, trigger)
}

// TriggerFromContext returns the trigger stored by WithTrigger.
func TriggerFromContext(ctx context.Context) enums.TriggerKind {
	if ctx == nil {
		return ""
	}
	if t, ok := ctx.Value(triggerKey{}).(enums.TriggerKind); ok {
		return t
	}
	return ""
}
