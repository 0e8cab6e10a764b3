package log

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// ChiMiddleware returns an http middleware that writes one access-log line per
// request with the chi request id, outcome and timing.
func ChiMiddleware(ctx context.Context) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			//nolint:contextcheck
			defer func() {
				Info(ctx,
					"http req",
					"req-id", middleware.GetReqID(r.Context()),
					"method", r.Method,
					"uri", r.RequestURI,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"ua", r.Header.Get("User-Agent"),
					"d", time.Since(start))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
