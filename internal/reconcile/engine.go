package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/packfinderz-cartfee/internal/cart"
	"github.com/angelmondragon/packfinderz-cartfee/internal/ledger"
	"github.com/angelmondragon/packfinderz-cartfee/internal/preference"
	"github.com/angelmondragon/packfinderz-cartfee/pkg/db/models"
	"github.com/angelmondragon/packfinderz-cartfee/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-cartfee/pkg/errors"
	"github.com/angelmondragon/packfinderz-cartfee/pkg/logger"
	"github.com/angelmondragon/packfinderz-cartfee/pkg/metrics"
)

// SnapshotReader reads a cart snapshot for a session.
type SnapshotReader interface {
	Read(ctx context.Context, session string) (cart.Snapshot, error)
}

// Recorder persists applied adjustments.
type Recorder interface {
	Record(ctx context.Context, input ledger.RecordAdjustmentInput) (*models.FeeAdjustment, error)
}

// Result describes one reconciliation pass.
type Result struct {
	Session           string           `json:"session_id"`
	Snapshot          cart.Snapshot    `json:"snapshot"`
	Preference        preference.Value `json:"preference"`
	Desired           int64            `json:"desired_fee"`
	Action            Action           `json:"action"`
	Applied           bool             `json:"applied"`
	PreferenceCleared bool             `json:"preference_cleared"`
}

// FeeChanged reports whether the pass mutated the fee line.
func (r Result) FeeChanged() bool {
	return r.Applied
}

// EngineParams wires an Engine.
type EngineParams struct {
	Reader        SnapshotReader
	Store         cart.Store
	Preferences   preference.Store
	Calculator    Calculator
	FeeVariantID  int64
	FeeProperties map[string]any
	Ledger        Recorder
	Metrics       *metrics.ReconcileMetrics
	Logger        *logger.Logger
}

// Engine runs reconciliation passes.
type Engine struct {
	reader     SnapshotReader
	store      cart.Store
	prefs      preference.Store
	calc       Calculator
	variantID  int64
	properties map[string]any
	ledger     Recorder
	metrics    *metrics.ReconcileMetrics
	logg       *logger.Logger

	flights *flights
	locks   sessionLocks
	now     func() time.Time
}

// NewEngine validates params and returns an Engine.
func NewEngine(p EngineParams) (*Engine, error) {
	if p.Reader == nil {
		return nil, fmt.Errorf("snapshot reader required")
	}
	if p.Store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if p.Preferences == nil {
		return nil, fmt.Errorf("preference store required")
	}
	if p.Calculator == nil {
		return nil, fmt.Errorf("fee calculator required")
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}

	e := &Engine{
		reader:     p.Reader,
		store:      p.Store,
		prefs:      p.Preferences,
		calc:       p.Calculator,
		variantID:  p.FeeVariantID,
		properties: p.FeeProperties,
		ledger:     p.Ledger,
		metrics:    p.Metrics,
		logg:       logg,
		now:        time.Now,
	}
	e.flights = newFlights(e.pass, p.Metrics.IncCoalesced)
	return e, nil
}

// Reconcile runs one pass for session through the per-session single flight.
func (e *Engine) Reconcile(ctx context.Context, session string) (Result, error) {
	if session == "" {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	return e.flights.do(ctx, session)
}

// Running reports whether a pass for session is in flight.
func (e *Engine) Running(session string) bool {
	return e.flights.active(session)
}

// Inspect returns what a pass would do without mutating anything.
func (e *Engine) Inspect(ctx context.Context, session string) (Result, error) {
	if session == "" {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	snap, err := e.reader.Read(ctx, session)
	if err != nil {
		return Result{}, err
	}
	pref, err := e.prefs.Get(ctx, session)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Session:    session,
		Snapshot:   snap,
		Preference: pref,
		Desired:    e.desired(snap, pref),
		Action:     Decide(snap, pref, e.calc),
	}, nil
}

func (e *Engine) pass(ctx context.Context, session string) (Result, error) {
	unlock := e.locks.lock(session)
	defer unlock()

	trigger := TriggerFromContext(ctx)
	ctx = e.logg.WithSessionID(ctx, session)
	ctx = e.logg.WithTrigger(ctx, trigger.String())
	start := e.now()
	defer func() { e.metrics.ObservePass(trigger.String(), e.now().Sub(start)) }()

	snap, err := e.reader.Read(ctx, session)
	if err != nil {
		e.metrics.IncFailure("read", string(pkgerrors.CodeOf(err)))
		return Result{Session: session}, err
	}
	pref, err := e.prefs.Get(ctx, session)
	if err != nil {
		e.metrics.IncFailure("preference", string(pkgerrors.CodeOf(err)))
		return Result{Session: session, Snapshot: snap}, err
	}

	action := Decide(snap, pref, e.calc)
	res := Result{
		Session:    session,
		Snapshot:   snap,
		Preference: pref,
		Desired:    e.desired(snap, pref),
		Action:     action,
	}
	ctx = e.logg.WithField(ctx, "action", action.Kind.String())

	if action.Kind.Mutates() {
		// the mutation must finish once issued, so it ignores caller cancellation
		if err := e.apply(context.WithoutCancel(ctx), session, action); err != nil {
			e.metrics.IncFailure("apply", string(pkgerrors.CodeOf(err)))
			e.metrics.IncAction(action.Kind.String(), false)
			return res, err
		}
		res.Applied = true
		e.record(ctx, enums.AdjustmentSourceReconcile, trigger, session, action, snap)
	}
	e.metrics.IncAction(action.Kind.String(), res.Applied)

	if snap.SubtotalExcludingFee <= 0 && pref.WantsFee() {
		if err := e.prefs.Clear(ctx, session); err != nil {
			e.logg.Error(ctx, "failed to clear fee preference for empty cart", err)
		} else {
			res.Preference = preference.Unset
			res.PreferenceCleared = true
		}
	}

	if res.Applied {
		e.logg.Info(e.logg.WithFields(ctx, map[string]any{
			"amount":   action.Amount,
			"subtotal": snap.SubtotalExcludingFee,
		}), "fee line reconciled")
	} else {
		e.logg.Debug(ctx, "fee line already converged")
	}
	return res, nil
}

func (e *Engine) desired(snap cart.Snapshot, pref preference.Value) int64 {
	if !pref.WantsFee() {
		return 0
	}
	return e.calc.Calculate(snap.SubtotalExcludingFee)
}

func (e *Engine) apply(ctx context.Context, session string, action Action) error {
	var err error
	switch action.Kind {
	case enums.FeeActionAdd:
		if e.variantID == 0 {
			return pkgerrors.New(pkgerrors.CodeConfigurationMissing, "fee variant id is not configured").
				WithDetails(map[string]any{"setting": "CARTFEE_FEE_VARIANT_ID"})
		}
		err = e.store.AddLineItem(ctx, session, cart.AddLineItemInput{
			VariantID:  e.variantID,
			Quantity:   action.Amount,
			Properties: e.properties,
		})
	case enums.FeeActionSetQuantity:
		err = e.store.ChangeLineItem(ctx, session, cart.ChangeLineItemInput{Key: action.Key, Quantity: action.Amount})
	case enums.FeeActionRemove:
		err = e.store.ChangeLineItem(ctx, session, cart.ChangeLineItemInput{Key: action.Key, Quantity: 0})
	default:
		return nil
	}
	if err != nil && pkgerrors.As(err) == nil {
		return pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "apply fee action")
	}
	return err
}

func (e *Engine) record(ctx context.Context, source enums.AdjustmentSource, trigger enums.TriggerKind, session string, action Action, snap cart.Snapshot) {
	if e.ledger == nil {
		return
	}
	previous := snap.FeeAmount()
	if action.Key != "" && snap.FeeLine != nil && action.Key != snap.FeeLine.Key {
		for _, dup := range snap.DuplicateFeeLines {
			if dup.Key == action.Key {
				previous = dup.Quantity
			}
		}
	}
	_, err := e.ledger.Record(ctx, ledger.RecordAdjustmentInput{
		SessionID:      session,
		Source:         source,
		Action:         action.Kind,
		Trigger:        trigger,
		LineKey:        action.Key,
		Amount:         action.Amount,
		PreviousAmount: previous,
		Subtotal:       snap.SubtotalExcludingFee,
	})
	if err != nil {
		e.logg.Warn(ctx, fmt.Sprintf("failed to record fee adjustment: %v", err))
	}
}
