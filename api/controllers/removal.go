package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/packfinderz-cartfee/api/middleware"
	"github.com/angelmondragon/packfinderz-cartfee/api/responses"
	"github.com/angelmondragon/packfinderz-cartfee/api/validators"
	"github.com/angelmondragon/packfinderz-cartfee/internal/removal"
	"github.com/angelmondragon/packfinderz-cartfee/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-cartfee/pkg/errors"
	"github.com/angelmondragon/packfinderz-cartfee/pkg/logger"
)

// RemovalService drives the remove-fee confirmation dialog.
type RemovalService interface {
	Open(ctx context.Context, session string) (removal.Outcome, error)
	Cancel(ctx context.Context, session string, reason enums.RemovalCancelReason) (removal.Outcome, error)
	Confirm(ctx context.Context, session string) (removal.Outcome, error)
}

type cancelRequest struct {
	Reason string `json:"reason" validate:"omitempty,oneof=cancel_button overlay escape"`
}

func RemovalOpen(svc RemovalService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := svc.Open(r.Context(), middleware.SessionIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

func RemovalCancel(svc RemovalService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req cancelRequest
		if err := validators.DecodeOptionalJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reason, err := enums.ParseRemovalCancelReason(req.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cancel reason"))
			return
		}

		out, err := svc.Cancel(r.Context(), middleware.SessionIDFromContext(r.Context()), reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

// RemovalConfirm removes the fee. A failed removal still answers 200 with the
// failure attached and the dialog left open.
func RemovalConfirm(svc RemovalService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := svc.Confirm(r.Context(), middleware.SessionIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}
