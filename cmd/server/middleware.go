package main

import (
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"github.com/blueberrycongee/paramsecret/internal/metrics"
	"github.com/blueberrycongee/paramsecret/internal/observability"
)

// buildMiddlewareStack wraps the mux. Metrics sits directly on the mux so it
// can read the matched route pattern.
func buildMiddlewareStack(tracer trace.Tracer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		handler := metrics.Middleware(next)
		handler = observability.TracingMiddleware(tracer, handler)
		handler = observability.RequestIDMiddleware(handler)
		return handler
	}
}
