package middleware

import (
	"log/slog"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/tracing"
)

// Trace opens a root span per request and logs the span tree once the
// request is served. It belongs inside RequestID so the trace id is the
// request id.
func Trace(next http.Handler) http.Handler {
	l := slog.Default().With("component", "tracing")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracing.StartSpan(r.Context(), r.Method+" "+normalizePath(r.URL.Path))
		next.ServeHTTP(w, r.WithContext(ctx))
		span.End()
		span.Log(ctx, l)
	})
}
