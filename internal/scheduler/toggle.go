package scheduler

import (
	"context"
	"fmt"

	"github.com/angelmondragon/packfinderz-cartfee/internal/preference"
	"github.com/angelmondragon/packfinderz-cartfee/internal/reconcile"
	"github.com/angelmondragon/packfinderz-cartfee/internal/uisync"
	"github.com/angelmondragon/packfinderz-cartfee/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-cartfee/pkg/errors"
)

// Toggle records the checkbox intent and reconciles. On success the page
// reloads; on failure the preference is restored and the checkbox reverted.
func (s *Scheduler) Toggle(ctx context.Context, session string, checked bool, controlID string) (Outcome, error) {
	if session == "" {
		return Outcome{}, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if controlID == "" {
		controlID = uisync.ControlCart
	}
	if !uisync.IsControl(controlID) {
		return Outcome{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown fee control %q", controlID))
	}

	trigger := enums.TriggerCheckboxToggled
	ctx = s.logg.WithTrigger(s.logg.WithSessionID(ctx, session), trigger.String())

	previous, err := s.prefs.Get(ctx, session)
	if err != nil {
		return s.rollback(ctx, session, trigger, checked, controlID, nil, err), nil
	}

	next := preference.Unset
	if checked {
		next = preference.WantsFee
	}
	if err := s.prefs.Set(ctx, session, next); err != nil {
		return s.rollback(ctx, session, trigger, checked, controlID, nil, err), nil
	}

	res, err := s.engine.Reconcile(reconcile.WithTrigger(ctx, trigger), session)
	if err != nil {
		return s.rollback(ctx, session, trigger, checked, controlID, &previous, err), nil
	}

	out := Outcome{
		Trigger: trigger,
		Result:  &res,
		Instructions: uisync.Instructions{
			Reload:   true,
			Checkbox: &uisync.CheckboxState{ControlID: controlID, Checked: checked, Disabled: true},
		},
	}
	if res.Applied {
		out.Instructions.Emit(uisync.EventCartUpdated, uisync.EventFeeChanged)
	}
	return out, nil
}

func (s *Scheduler) rollback(ctx context.Context, session string, trigger enums.TriggerKind, checked bool, controlID string, previous *preference.Value, cause error) Outcome {
	if previous != nil {
		if err := s.prefs.Set(context.WithoutCancel(ctx), session, *previous); err != nil {
			s.logg.Error(ctx, "failed to restore fee preference after toggle failure", err)
		}
	}
	failure := uisync.FailureFrom(cause)
	s.logg.Warn(s.logg.WithField(ctx, "code", string(failure.Code)), fmt.Sprintf("fee toggle rolled back: %v", cause))
	return Outcome{
		Trigger: trigger,
		Failure: failure,
		Instructions: uisync.Instructions{
			Checkbox: &uisync.CheckboxState{ControlID: controlID, Checked: !checked, Disabled: false},
			Message:  failure.Message,
		},
	}
}
