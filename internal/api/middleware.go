package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/vehicletag/registration-node/internal/log"
)

// LogMiddleware copies the configured logger into each request context and
// tags it with the request id.
func LogMiddleware(ctx context.Context) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			reqCtx := log.CopyFromContext(ctx, r.Context())
			reqCtx = log.With(reqCtx, "req-id", middleware.GetReqID(r.Context()))
			next.ServeHTTP(w, r.WithContext(reqCtx))
		}
		return http.HandlerFunc(fn)
	}
}
