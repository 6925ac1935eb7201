package main

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blueberrycongee/paramsecret/internal/config"
)

type secretHandler interface {
	Secret(http.ResponseWriter, *http.Request)
	HealthCheck(http.ResponseWriter, *http.Request)
}

var errNilConfig = errors.New("config is required")

func buildMux(cfg *config.Config, handler secretHandler) (*http.ServeMux, error) {
	if cfg == nil {
		return nil, errNilConfig
	}
	if handler == nil {
		return nil, errors.New("handler is required")
	}

	mux := http.NewServeMux()

	// "{$}" limits the route to exactly "/".
	mux.HandleFunc("GET /{$}", handler.Secret)

	mux.HandleFunc("GET /health/live", handler.HealthCheck)
	mux.HandleFunc("GET /health/ready", handler.HealthCheck)

	if cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path, promhttp.Handler())
	}

	return mux, nil
}
