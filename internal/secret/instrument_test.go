package secret

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/blueberrycongee/paramsecret/internal/metrics"
)

func TestInstrument_PassesThroughValue(t *testing.T) {
	store := newFakeStore(map[string]string{"db/password": "s3cr3t"})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	l := Instrument(store, "test-ok", logger, noop.NewTracerProvider().Tracer("test"))

	before := testutil.ToFloat64(metrics.LookupsTotal.WithLabelValues("test-ok", "success"))

	got, err := l.Lookup(context.Background(), "db/password")
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", got)
	assert.Equal(t, []string{"db/password"}, store.Calls())

	after := testutil.ToFloat64(metrics.LookupsTotal.WithLabelValues("test-ok", "success"))
	assert.Equal(t, before+1, after)
}

func TestInstrument_PassesThroughError(t *testing.T) {
	cause := &LookupError{Name: "missing", Code: "ParameterNotFound", Err: errors.New("not found")}
	inner := LookupFunc(func(context.Context, string) (string, error) { return "", cause })
	l := Instrument(inner, "test-err", nil, nil)

	before := testutil.ToFloat64(metrics.LookupsTotal.WithLabelValues("test-err", "error"))

	_, err := l.Lookup(context.Background(), "missing")
	require.Error(t, err)
	assert.Same(t, cause, err)

	after := testutil.ToFloat64(metrics.LookupsTotal.WithLabelValues("test-err", "error"))
	assert.Equal(t, before+1, after)
}

type closingStore struct {
	fakeStore
	closed bool
}

func (c *closingStore) Close() error {
	c.closed = true
	return nil
}

func TestInstrument_Close(t *testing.T) {
	inner := &closingStore{}
	require.NoError(t, Instrument(inner, "test", nil, nil).Close())
	assert.True(t, inner.closed)

	require.NoError(t, Instrument(newFakeStore(nil), "test", nil, nil).Close())
}

func TestResolver_RecordsResolutionKind(t *testing.T) {
	store := newFakeStore(map[string]string{"db/password": "s3cr3t"})
	r, err := NewResolver(Config{}, store)
	require.NoError(t, err)

	literal := testutil.ToFloat64(metrics.ResolutionsTotal.WithLabelValues("literal"))
	reference := testutil.ToFloat64(metrics.ResolutionsTotal.WithLabelValues("reference"))

	_, err = r.Resolve(context.Background(), "plain")
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), "ssm_sdk://db/password")
	require.NoError(t, err)

	assert.Equal(t, literal+1, testutil.ToFloat64(metrics.ResolutionsTotal.WithLabelValues("literal")))
	assert.Equal(t, reference+1, testutil.ToFloat64(metrics.ResolutionsTotal.WithLabelValues("reference")))
}
