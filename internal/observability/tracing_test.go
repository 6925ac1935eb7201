package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestInitTracing_Disabled(t *testing.T) {
	tp, err := InitTracing(context.Background(), TracingConfig{Enabled: false})
	if err != nil {
		t.Fatalf("InitTracing failed: %v", err)
	}
	defer tp.Shutdown(context.Background())

	if tp.Tracer() == nil {
		t.Error("expected non-nil tracer even when disabled")
	}
	if err := tp.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestDefaultTracingConfig(t *testing.T) {
	cfg := DefaultTracingConfig()

	if cfg.Enabled {
		t.Error("expected Enabled to be false by default")
	}
	if cfg.Endpoint != "localhost:4317" {
		t.Errorf("expected endpoint localhost:4317, got %s", cfg.Endpoint)
	}
	if cfg.ServiceName != "paramsecret" {
		t.Errorf("expected service name paramsecret, got %s", cfg.ServiceName)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected sample rate 1.0, got %f", cfg.SampleRate)
	}
}

func TestSamplerFor(t *testing.T) {
	if got := samplerFor(1).Description(); got != sdktrace.AlwaysSample().Description() {
		t.Errorf("samplerFor(1) = %s", got)
	}
	if got := samplerFor(0).Description(); got != sdktrace.NeverSample().Description() {
		t.Errorf("samplerFor(0) = %s", got)
	}
	if got := samplerFor(0.5).Description(); got == sdktrace.AlwaysSample().Description() {
		t.Errorf("samplerFor(0.5) should be ratio based, got %s", got)
	}
}

func TestTracingMiddleware_StartsServerSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer provider.Shutdown(context.Background())

	var inner trace.SpanContext
	handler := TracingMiddleware(provider.Tracer("test"), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = trace.SpanContextFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(ContextWithRequestID(req.Context(), "req-1"))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !inner.IsValid() {
		t.Fatal("expected a span in the handler context")
	}
	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "HTTP GET" {
		t.Errorf("span name = %q, want %q", spans[0].Name(), "HTTP GET")
	}
	if spans[0].SpanKind() != trace.SpanKindServer {
		t.Errorf("span kind = %v, want server", spans[0].SpanKind())
	}
}

func TestTracingMiddleware_SpanNameIsBounded(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer provider.Shutdown(context.Background())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {})
	handler := TracingMiddleware(provider.Tracer("test"), mux)

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/", nil),
		httptest.NewRequest(http.MethodGet, "/random/8c1e2f", nil),
		httptest.NewRequest("X-RANDOM-7f3a", "/", nil),
	} {
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	spans := recorder.Ended()
	if len(spans) != 3 {
		t.Fatalf("expected 3 spans, got %d", len(spans))
	}
	want := []string{"GET /{$}", "HTTP GET", "HTTP other"}
	for i, span := range spans {
		if span.Name() != want[i] {
			t.Errorf("span %d name = %q, want %q", i, span.Name(), want[i])
		}
	}
}

func TestNewExporter_Protocols(t *testing.T) {
	ctx := context.Background()
	for _, protocol := range []string{"", "grpc", "http"} {
		exp, err := newExporter(ctx, TracingConfig{Endpoint: "localhost:4317", Protocol: protocol, Insecure: true})
		if err != nil {
			t.Fatalf("newExporter(%q) error = %v", protocol, err)
		}
		_ = exp.Shutdown(ctx)
	}

	if _, err := newExporter(ctx, TracingConfig{Protocol: "thrift"}); err == nil {
		t.Error("expected error for unsupported protocol")
	}
}
