package middleware

import (
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/packfinderz-cartfee/api/responses"
	pkgerrors "github.com/angelmondragon/packfinderz-cartfee/pkg/errors"
	"github.com/angelmondragon/packfinderz-cartfee/pkg/logger"
)

// SessionParam is the route parameter carrying the cart session token.
const SessionParam = "sessionID"

var sessionPattern = regexp.MustCompile(`^[A-Za-z0-9_\-:?=]{1,128}$`)

// Session resolves the cart session from the route and stores it on the context.
func Session(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := chi.URLParam(r, SessionParam)
			if !sessionPattern.MatchString(sessionID) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid session id").
					WithDetails(map[string]any{"field": SessionParam}))
				return
			}

			ctx := WithSessionID(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
