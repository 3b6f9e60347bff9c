// Package scheduler turns page triggers into reconciliation passes.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/packfinderz-cartfee/internal/preference"
	"github.com/angelmondragon/packfinderz-cartfee/internal/reconcile"
	"github.com/angelmondragon/packfinderz-cartfee/internal/uisync"
	"github.com/angelmondragon/packfinderz-cartfee/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-cartfee/pkg/errors"
	"github.com/angelmondragon/packfinderz-cartfee/pkg/logger"
	"github.com/angelmondragon/packfinderz-cartfee/pkg/metrics"
)

// DefaultWindow is the quiescence window for debounced triggers.
const DefaultWindow = 600 * time.Millisecond

// ErrStopped is returned for triggers scheduled after or cancelled by Stop.
var ErrStopped = errors.New("scheduler stopped")

// Reconciler runs one pass for a session.
type Reconciler interface {
	Reconcile(ctx context.Context, session string) (reconcile.Result, error)
}

// Refresher re-renders the cart fragment.
type Refresher interface {
	Refresh(ctx context.Context, session string) uisync.Instructions
}

// Timer is the cancellable handle returned by AfterFunc.
type Timer interface {
	Stop() bool
}

// AfterFunc calls f once d has elapsed.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Outcome is what a trigger produced.
type Outcome struct {
	Trigger      enums.TriggerKind   `json:"trigger"`
	Result       *reconcile.Result   `json:"result,omitempty"`
	Instructions uisync.Instructions `json:"instructions"`
	Failure      *uisync.Failure     `json:"failure,omitempty"`
	Ignored      bool                `json:"ignored,omitempty"`
	Superseded   bool                `json:"superseded,omitempty"`
}

// Params wires a Scheduler.
type Params struct {
	Engine      Reconciler
	Preferences preference.Store
	UI          Refresher
	Bindings    *uisync.Bindings
	Window      time.Duration
	Logger      *logger.Logger
	Metrics     *metrics.ReconcileMetrics
	AfterFunc   AfterFunc
}

type entry struct {
	seq     uint64
	ctx     context.Context
	trigger enums.TriggerKind
	timer   Timer
	handle  *Pending
}

// Scheduler owns the per-session debounce timers.
type Scheduler struct {
	engine   Reconciler
	prefs    preference.Store
	ui       Refresher
	bindings *uisync.Bindings
	window   time.Duration
	logg     *logger.Logger
	metrics  *metrics.ReconcileMetrics
	after    AfterFunc

	mu      sync.Mutex
	seq     uint64
	pending map[string]*entry
	stopped bool
}

// New validates params and returns a Scheduler.
func New(p Params) (*Scheduler, error) {
	if p.Engine == nil {
		return nil, fmt.Errorf("reconciler required")
	}
	if p.Preferences == nil {
		return nil, fmt.Errorf("preference store required")
	}
	if p.UI == nil {
		return nil, fmt.Errorf("ui refresher required")
	}
	s := &Scheduler{
		engine:   p.Engine,
		prefs:    p.Preferences,
		ui:       p.UI,
		bindings: p.Bindings,
		window:   p.Window,
		logg:     p.Logger,
		metrics:  p.Metrics,
		after:    p.AfterFunc,
		pending:  make(map[string]*entry),
	}
	if s.bindings == nil {
		s.bindings = uisync.NewBindings()
	}
	if s.window <= 0 {
		s.window = DefaultWindow
	}
	if s.logg == nil {
		s.logg = logger.Nop()
	}
	if s.after == nil {
		s.after = realAfterFunc
	}
	return s, nil
}

// Window returns the debounce window in use.
func (s *Scheduler) Window() time.Duration {
	return s.window
}

// Trigger runs an immediate trigger synchronously. Debounced kinds are
// scheduled and the call waits until the pass runs or is superseded.
// Events tagged with a stale binding generation are ignored.
func (s *Scheduler) Trigger(ctx context.Context, session string, trigger enums.TriggerKind, generation uint64) (Outcome, error) {
	if session == "" {
		return Outcome{}, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if !trigger.IsValid() {
		return Outcome{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown trigger %q", trigger))
	}
	if s.bindings.IsStale(session, generation) {
		s.logg.Debug(s.logg.WithTrigger(s.logg.WithSessionID(ctx, session), trigger.String()), "ignoring event from replaced controls")
		return Outcome{Trigger: trigger, Ignored: true}, nil
	}
	if trigger.IsDebounced() {
		return s.Schedule(ctx, session, trigger).Wait(ctx)
	}
	return s.run(ctx, session, trigger), nil
}

func (s *Scheduler) run(ctx context.Context, session string, trigger enums.TriggerKind) Outcome {
	ctx = s.logg.WithTrigger(s.logg.WithSessionID(ctx, session), trigger.String())
	ctx = reconcile.WithTrigger(ctx, trigger)
	res, err := s.engine.Reconcile(ctx, session)
	out := Outcome{Trigger: trigger}
	if err != nil {
		out.Failure = uisync.FailureFrom(err)
		// store outages are retried by the next trigger; the rest need the shopper
		if out.Failure.Code != pkgerrors.CodeStoreUnavailable {
			out.Instructions.Message = out.Failure.Message
		}
		s.logg.Warn(s.logg.WithField(ctx, "code", string(out.Failure.Code)), fmt.Sprintf("reconciliation pass failed: %v", err))
		return out
	}

	out.Result = &res
	if res.Applied {
		out.Instructions = s.ui.Refresh(ctx, session)
		out.Instructions.Emit(uisync.EventCartUpdated, uisync.EventFeeChanged)
	}
	if res.PreferenceCleared {
		out.Instructions.UncheckControls = uisync.Controls()
	}
	return out
}
