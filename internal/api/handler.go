// Package api provides the HTTP handlers that render resolved secrets.
package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/blueberrycongee/paramsecret/internal/observability"
	"github.com/blueberrycongee/paramsecret/internal/secret"
)

// Response body labels.
const (
	SDKLabel = "SDK decrypted: "
	EnvLabel = "Ssn-env decrypted: "
)

// Handler serves the secret endpoint.
type Handler struct {
	backends *refSwap[*Backend]
	logger   *observability.Logger
}

// NewHandler creates a new API handler.
func NewHandler(backend *Backend, logger *observability.Logger) *Handler {
	return &Handler{
		backends: newRefSwap(backend),
		logger:   logger,
	}
}

// Swap replaces the backend used for new requests. The previous backend is
// closed once in-flight requests finish with it.
func (h *Handler) Swap(backend *Backend) {
	h.backends.swap(backend)
}

// Close closes the current backend.
func (h *Handler) Close() {
	h.backends.close()
}

// Secret handles GET /.
// Configuration presence is checked before the primary value is looked up,
// so a missing value never triggers a remote call.
func (h *Handler) Secret(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.WithRequestID(ctx)

	backend, release := h.backends.acquire()
	defer release()

	secondary, err := backend.Resolver.Secondary()
	if err != nil {
		h.fail(w, logger, err)
		return
	}

	primary, err := backend.Resolver.Primary(ctx)
	if err != nil {
		h.fail(w, logger, err)
		return
	}

	if redactor := h.logger.Redactor(); redactor != nil {
		redactor.AddSecret(primary)
		redactor.AddSecret(secondary)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(SDKLabel + primary + EnvLabel + secondary))
}

func (h *Handler) fail(w http.ResponseWriter, logger *observability.Logger, err error) {
	logger.RedactedError("secret resolution failed",
		"error", err,
		"missing_configuration", errors.Is(err, secret.ErrMissingConfiguration),
		"lookup_failure", errors.Is(err, secret.ErrLookupFailure),
	)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// HealthCheck handles GET /health/live and /health/ready.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
