// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package daemon

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/chuck/internal/log"
)

// statusRequestLimit caps requests per client IP per minute on the status
// surface.
const statusRequestLimit = 600

// Status is the /status document.
type Status struct {
	Instance     string `json:"instance"`
	Version      string `json:"version,omitempty"`
	Mode         string `json:"mode"`
	Connected    bool   `json:"connected"`
	Controller   string `json:"controller,omitempty"`
	SceneCount   int    `json:"sceneCount"`
	ProfileCount int    `json:"profileCount"`
	ChaseDelayMs int64  `json:"chaseDelayMs"`
	DMXHolder    string `json:"dmxHolder,omitempty"`
}

func (m *manager) status() Status {
	s := Status{
		Instance:     m.instance,
		Version:      m.cfg.Version,
		Mode:         m.controller.Mode().String(),
		Connected:    m.heartbeat.Connected(),
		SceneCount:   m.scenes.Count(),
		ProfileCount: m.profiles.Count(),
		ChaseDelayMs: m.controller.ChaseDelay().Milliseconds(),
		DMXHolder:    m.arbiter.Holder(),
	}
	if addr, ok := m.heartbeat.Address(); ok {
		s.Controller = addr.String()
	}
	return s
}

func (m *manager) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(httprate.LimitByIP(statusRequestLimit, time.Minute))

	r.Get("/healthz", m.health.ServeHealth)
	r.Get("/readyz", m.health.ServeReady)
	r.Get("/status", m.serveStatus)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func (m *manager) serveStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(m.status()); err != nil {
		logger := log.WithComponentFromContext(r.Context(), "status")
		logger.Error().Err(err).Str(log.FieldEvent, "status.encode_error").Msg("failed to encode status response")
	}
}
