package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/packfinderz-cartfee/api/middleware"
	"github.com/angelmondragon/packfinderz-cartfee/api/responses"
	"github.com/angelmondragon/packfinderz-cartfee/api/validators"
	"github.com/angelmondragon/packfinderz-cartfee/internal/ledger"
	"github.com/angelmondragon/packfinderz-cartfee/internal/reconcile"
	"github.com/angelmondragon/packfinderz-cartfee/internal/scheduler"
	"github.com/angelmondragon/packfinderz-cartfee/internal/uisync"
	"github.com/angelmondragon/packfinderz-cartfee/pkg/enums"
	"github.com/angelmondragon/packfinderz-cartfee/pkg/logger"
)

// TriggerService routes page triggers into reconciliation.
type TriggerService interface {
	Trigger(ctx context.Context, session string, trigger enums.TriggerKind, generation uint64) (scheduler.Outcome, error)
	Toggle(ctx context.Context, session string, checked bool, controlID string) (scheduler.Outcome, error)
}

// Inspector computes the decision for a session without applying it.
type Inspector interface {
	Inspect(ctx context.Context, session string) (reconcile.Result, error)
}

// FragmentRefresher re-renders the cart section.
type FragmentRefresher interface {
	Refresh(ctx context.Context, session string) uisync.Instructions
}

// GenerationReader reports the live control generation of a session.
type GenerationReader interface {
	Current(session string) uint64
}

// AdjustmentLister lists the ledger for a session.
type AdjustmentLister interface {
	ListBySession(ctx context.Context, params ledger.ListParams) (*ledger.ListResult, error)
}

type initResponse struct {
	scheduler.Outcome
	Generation uint64 `json:"generation"`
}

type eventRequest struct {
	Type       string `json:"type" validate:"required,trigger"`
	Generation uint64 `json:"generation"`
}

type toggleRequest struct {
	Checked   *bool  `json:"checked" validate:"required"`
	ControlID string `json:"control_id" validate:"omitempty,max=64"`
}

// SessionInit runs the page_init trigger and returns the live generation.
func SessionInit(svc TriggerService, gens GenerationReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := middleware.SessionIDFromContext(r.Context())
		out, err := svc.Trigger(r.Context(), session, enums.TriggerPageInit, 0)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, initResponse{Outcome: out, Generation: gens.Current(session)})
	}
}

// SessionEvent forwards a page event. Debounced kinds block until their pass
// runs or a newer event supersedes them.
func SessionEvent(svc TriggerService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req eventRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session := middleware.SessionIDFromContext(r.Context())
		out, err := svc.Trigger(r.Context(), session, enums.TriggerKind(req.Type), req.Generation)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := http.StatusOK
		if out.Ignored || out.Superseded {
			status = http.StatusAccepted
		}
		responses.WriteSuccessStatus(w, status, out)
	}
}

func SessionToggle(svc TriggerService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req toggleRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session := middleware.SessionIDFromContext(r.Context())
		out, err := svc.Toggle(r.Context(), session, *req.Checked, req.ControlID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

func SessionFee(svc Inspector, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.Inspect(r.Context(), middleware.SessionIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, res)
	}
}

func SessionFragmentRefresh(ui FragmentRefresher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, ui.Refresh(r.Context(), middleware.SessionIDFromContext(r.Context())))
	}
}

// SessionAdjustments pages through the ledger with ?limit and ?cursor.
func SessionAdjustments(svc AdjustmentLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParsePageQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		res, err := svc.ListBySession(r.Context(), ledger.ListParams{
			SessionID: middleware.SessionIDFromContext(r.Context()),
			Params:    page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, res)
	}
}
