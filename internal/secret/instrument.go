package secret

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/blueberrycongee/paramsecret/internal/metrics"
)

// InstrumentedLookup decorates a ParameterLookup with metrics, tracing and logging.
// Parameter names are recorded; values never are.
type InstrumentedLookup struct {
	inner   ParameterLookup
	backend string
	logger  *slog.Logger
	tracer  trace.Tracer
}

// Instrument wraps inner. A nil logger or tracer falls back to the defaults.
func Instrument(inner ParameterLookup, backend string, logger *slog.Logger, tracer trace.Tracer) *InstrumentedLookup {
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = otel.Tracer("paramsecret")
	}
	return &InstrumentedLookup{
		inner:   inner,
		backend: backend,
		logger:  logger,
		tracer:  tracer,
	}
}

// Lookup delegates to the wrapped lookup.
func (l *InstrumentedLookup) Lookup(ctx context.Context, name string) (string, error) {
	ctx, span := l.tracer.Start(ctx, "secret.lookup",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("secret.backend", l.backend),
			attribute.String("secret.parameter", name),
		),
	)
	defer span.End()

	start := time.Now()
	val, err := l.inner.Lookup(ctx, name)
	latency := time.Since(start)

	if err != nil {
		metrics.RecordLookup(l.backend, "error", latency)
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		l.logger.WarnContext(ctx, "parameter lookup failed",
			"backend", l.backend,
			"parameter", name,
			"latency_ms", latency.Milliseconds(),
			"error", err,
		)
		return "", err
	}

	metrics.RecordLookup(l.backend, "success", latency)
	l.logger.DebugContext(ctx, "parameter lookup succeeded",
		"backend", l.backend,
		"parameter", name,
		"latency_ms", latency.Milliseconds(),
	)
	return val, nil
}

// Close closes the wrapped lookup when it holds resources.
func (l *InstrumentedLookup) Close() error {
	if c, ok := l.inner.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
