// Package server implements a chaos-injecting target service.
//
// The handler reads a chaos directive from the "chaos" query parameter
// (falling back to the X-Chaos header), burns CPU, sleeps, and fails a
// fraction of requests accordingly, then echoes the applied values back
// as JSON. It exists so a driver run has something real to push against.
package server

import (
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"chaosdrive/internal/chaos"
)

// Response is the JSON body returned on success.
type Response struct {
	Status string     `json:"status"`
	Chaos  ChaosEcho  `json:"chaos"`
	Served ServedInfo `json:"served"`
}

// ChaosEcho reports the injection values that were applied.
type ChaosEcho struct {
	LatencyMs   int64   `json:"lat_ms"`
	ErrorRate   float64 `json:"err_pct"`
	CPUBurnMs   int64   `json:"cpu_ms"`
	DirectiveOK bool    `json:"directive_ok"`
}

// ServedInfo carries basic request handling details.
type ServedInfo struct {
	Path       string `json:"path"`
	DurationMs int64  `json:"duration_ms"`
}

// Handler serves the chaos endpoint.
type Handler struct {
	log  *logrus.Logger
	rand func() float64
}

// NewHandler creates a Handler logging through log. A nil log disables
// request logging.
func NewHandler(log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Handler{log: log, rand: rand.Float64}
}

// ServeHTTP applies the request's chaos directive and responds.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	directive := r.URL.Query().Get("chaos")
	if directive == "" {
		directive = r.Header.Get("X-Chaos")
	}

	inj, err := chaos.Parse(directive)
	if err != nil {
		h.log.WithFields(logrus.Fields{
			"directive": directive,
			"error":     err,
		}).Warn("rejecting malformed chaos directive")
		http.Error(w, "malformed chaos directive: "+err.Error(), http.StatusBadRequest)
		return
	}

	cpuSpin(inj.CPUBurn)
	if inj.Latency > 0 {
		time.Sleep(inj.Latency)
	}
	if inj.ErrorRate > 0 && h.rand() < inj.ErrorRate {
		h.log.WithField("path", r.URL.Path).Info("injected failure")
		http.Error(w, "injected failure from chaos directive", http.StatusInternalServerError)
		return
	}

	resp := Response{
		Status: "ok",
		Chaos: ChaosEcho{
			LatencyMs:   inj.Latency.Milliseconds(),
			ErrorRate:   inj.ErrorRate,
			CPUBurnMs:   inj.CPUBurn.Milliseconds(),
			DirectiveOK: directive != "",
		},
		Served: ServedInfo{
			Path:       r.URL.Path,
			DurationMs: time.Since(start).Milliseconds(),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)

	h.log.WithFields(logrus.Fields{
		"path":        r.URL.Path,
		"duration_ms": time.Since(start).Milliseconds(),
		"lat_ms":      inj.Latency.Milliseconds(),
		"err_pct":     inj.ErrorRate,
		"cpu_ms":      inj.CPUBurn.Milliseconds(),
	}).Info("served")
}

// cpuSpin busy-loops for roughly d.
func cpuSpin(d time.Duration) {
	if d <= 0 {
		return
	}
	end := time.Now().Add(d)
	for time.Now().Before(end) {
	}
}

// ListenAndServe runs the chaos target on addr until it fails. A nil
// log disables logging, as in NewHandler.
func ListenAndServe(addr string, log *logrus.Logger) error {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewHandler(log),
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.WithField("addr", addr).Info("starting chaos target server")
	return srv.ListenAndServe()
}
