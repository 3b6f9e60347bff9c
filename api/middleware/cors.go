package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS lets storefront pages on the allowed origins call the fee API.
// Preflights are answered here, before routing.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", requestIDHeader, "X-Requested-With"},
		ExposedHeaders:   []string{requestIDHeader, "X-CartFee-Env"},
		AllowCredentials: false,
		MaxAge:           300,
	}).Handler
}
