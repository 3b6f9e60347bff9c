// Package removal implements the explicit remove-fee confirmation dialog.
package removal

import (
	"context"
	"fmt"
	"sync"

	"github.com/angelmondragon/packfinderz-cartfee/internal/preference"
	"github.com/angelmondragon/packfinderz-cartfee/internal/reconcile"
	"github.com/angelmondragon/packfinderz-cartfee/internal/uisync"
	"github.com/angelmondragon/packfinderz-cartfee/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-cartfee/pkg/errors"
	"github.com/angelmondragon/packfinderz-cartfee/pkg/logger"
)

// Remover deletes every fee line regardless of preference.
type Remover interface {
	Remove(ctx context.Context, session string) (reconcile.RemoveResult, error)
}

// Refresher re-renders the cart fragment.
type Refresher interface {
	Refresh(ctx context.Context, session string) uisync.Instructions
}

// Outcome is the result of a dialog operation.
type Outcome struct {
	State        enums.RemovalState  `json:"state"`
	Instructions uisync.Instructions `json:"instructions"`
	Removed      []string            `json:"removed_keys,omitempty"`
	Failure      *uisync.Failure     `json:"failure,omitempty"`
}

// FlowParams wires a Flow.
type FlowParams struct {
	Remover     Remover
	Preferences preference.Store
	UI          Refresher
	Logger      *logger.Logger
}

type dialog struct {
	confirming bool
}

// Flow tracks the dialog state per session. Absent sessions are closed.
type Flow struct {
	remover Remover
	prefs   preference.Store
	ui      Refresher
	logg    *logger.Logger

	mu   sync.Mutex
	open map[string]*dialog
}

// NewFlow validates params and returns a Flow.
func NewFlow(p FlowParams) (*Flow, error) {
	if p.Remover == nil {
		return nil, fmt.Errorf("fee remover required")
	}
	if p.Preferences == nil {
		return nil, fmt.Errorf("preference store required")
	}
	if p.UI == nil {
		return nil, fmt.Errorf("ui refresher required")
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Flow{
		remover: p.Remover,
		prefs:   p.Preferences,
		ui:      p.UI,
		logg:    logg,
		open:    make(map[string]*dialog),
	}, nil
}

// State returns the dialog state for session.
func (f *Flow) State(session string) enums.RemovalState {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.open[session]; ok {
		return enums.RemovalStateOpen
	}
	return enums.RemovalStateClosed
}

// Open shows the dialog and locks page scroll. Opening twice is a no-op.
func (f *Flow) Open(ctx context.Context, session string) (Outcome, error) {
	if session == "" {
		return Outcome{}, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	f.mu.Lock()
	if _, ok := f.open[session]; !ok {
		f.open[session] = &dialog{}
	}
	f.mu.Unlock()

	return Outcome{
		State: enums.RemovalStateOpen,
		Instructions: uisync.Instructions{
			Dialog:     &uisync.DialogState{Open: true},
			ScrollLock: uisync.Bool(true),
		},
	}, nil
}

// Cancel closes the dialog without touching the cart or preference.
func (f *Flow) Cancel(ctx context.Context, session string, reason enums.RemovalCancelReason) (Outcome, error) {
	if !reason.IsValid() {
		return Outcome{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown cancel reason %q", reason))
	}
	f.mu.Lock()
	d, ok := f.open[session]
	if !ok || d.confirming {
		f.mu.Unlock()
		return Outcome{}, conflict(session, ok)
	}
	delete(f.open, session)
	f.mu.Unlock()

	f.logg.Debug(f.logg.WithFields(ctx, map[string]any{"session_id": session, "reason": reason.String()}), "fee removal cancelled")
	return Outcome{State: enums.RemovalStateClosed, Instructions: closedInstructions()}, nil
}

// Confirm clears the preference, removes every fee line and closes the
// dialog. Failures restore the prior preference and keep the dialog open
// so the shopper can retry.
func (f *Flow) Confirm(ctx context.Context, session string) (Outcome, error) {
	f.mu.Lock()
	d, ok := f.open[session]
	if !ok || d.confirming {
		f.mu.Unlock()
		return Outcome{}, conflict(session, ok)
	}
	d.confirming = true
	f.mu.Unlock()

	ctx = f.logg.WithSessionID(ctx, session)

	previous, err := f.prefs.Get(ctx, session)
	if err != nil {
		return f.failed(ctx, session, d, nil, err), nil
	}
	if err := f.prefs.Clear(ctx, session); err != nil {
		return f.failed(ctx, session, d, nil, err), nil
	}
	removed, err := f.remover.Remove(ctx, session)
	if err != nil {
		return f.failed(ctx, session, d, &previous, err), nil
	}

	ins := f.ui.Refresh(ctx, session)
	ins.Merge(closedInstructions())
	ins.UncheckControls = uisync.Controls()
	if len(removed.Removed) > 0 {
		ins.Emit(uisync.EventCartUpdated, uisync.EventFeeChanged)
	}

	f.mu.Lock()
	delete(f.open, session)
	f.mu.Unlock()

	f.logg.Info(f.logg.WithField(ctx, "removed", len(removed.Removed)), "fee removal confirmed")
	return Outcome{State: enums.RemovalStateClosed, Instructions: ins, Removed: removed.Removed}, nil
}

func (f *Flow) failed(ctx context.Context, session string, d *dialog, previous *preference.Value, err error) Outcome {
	if previous != nil {
		if rerr := f.prefs.Set(context.WithoutCancel(ctx), session, *previous); rerr != nil {
			f.logg.Error(ctx, "failed to restore fee preference after removal failure", rerr)
		}
	}

	f.mu.Lock()
	d.confirming = false
	f.mu.Unlock()

	failure := uisync.FailureFrom(err)
	f.logg.Warn(f.logg.WithField(ctx, "code", string(failure.Code)), fmt.Sprintf("fee removal failed: %v", err))
	ins := uisync.Instructions{Message: failure.Message}
	if previous != nil && previous.WantsFee() {
		ins.Checkbox = &uisync.CheckboxState{ControlID: uisync.ControlCart, Checked: true}
	}
	return Outcome{
		State:        enums.RemovalStateOpen,
		Instructions: ins,
		Failure:      failure,
	}
}

func closedInstructions() uisync.Instructions {
	return uisync.Instructions{
		Dialog:     &uisync.DialogState{Open: false},
		ScrollLock: uisync.Bool(false),
	}
}

func conflict(session string, open bool) error {
	msg := "removal dialog is not open"
	if open {
		msg = "removal is already being confirmed"
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, msg).
		WithDetails(map[string]any{"session_id": session})
}
