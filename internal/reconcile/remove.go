package reconcile

import (
	"context"

	"github.com/angelmondragon/packfinderz-cartfee/internal/cart"
	"github.com/angelmondragon/packfinderz-cartfee/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-cartfee/pkg/errors"
)

// RemoveResult reports an explicit fee removal.
type RemoveResult struct {
	Session  string        `json:"session_id"`
	Snapshot cart.Snapshot `json:"snapshot"`
	Removed  []string      `json:"removed_keys"`
}

// Remove deletes every fee line from the session's cart, bypassing the
// decision table. It serializes with passes for the same session.
func (e *Engine) Remove(ctx context.Context, session string) (RemoveResult, error) {
	if session == "" {
		return RemoveResult{}, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	unlock := e.locks.lock(session)
	defer unlock()

	ctx = e.logg.WithSessionID(ctx, session)
	snap, err := e.reader.Read(ctx, session)
	if err != nil {
		e.metrics.IncFailure("removal_read", string(pkgerrors.CodeOf(err)))
		return RemoveResult{Session: session}, err
	}

	out := RemoveResult{Session: session, Snapshot: snap}
	if snap.FeeLine == nil {
		return out, nil
	}

	lines := append([]cart.FeeLine{*snap.FeeLine}, snap.DuplicateFeeLines...)
	mutateCtx := context.WithoutCancel(ctx)
	for _, line := range lines {
		action := Action{Kind: enums.FeeActionRemove, Key: line.Key}
		if err := e.apply(mutateCtx, session, action); err != nil {
			e.metrics.IncFailure("removal_apply", string(pkgerrors.CodeOf(err)))
			return out, err
		}
		out.Removed = append(out.Removed, line.Key)
		e.metrics.IncAction(action.Kind.String(), true)
		e.record(ctx, enums.AdjustmentSourceRemoval, "", session, action, snap)
	}
	e.logg.Info(e.logg.WithField(ctx, "removed", len(out.Removed)), "fee line removed on request")
	return out, nil
}
