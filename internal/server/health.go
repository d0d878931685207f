package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

const (
	healthStatusOK           = "ok"
	healthStatusNotReady     = "not ready"
	healthStatusShuttingDown = "shutting down"
	healthStatusIndexMissing = "index missing"
)

// HealthChecker serves the liveness and readiness probes of the HTTP transports.
type HealthChecker struct {
	ready         atomic.Bool
	serverContext *ServerContext
	startTime     time.Time
}

// NewHealthChecker returns a checker that starts out ready. sc may be nil.
func NewHealthChecker(sc *ServerContext) *HealthChecker {
	h := &HealthChecker{
		serverContext: sc,
		startTime:     time.Now(),
	}
	h.ready.Store(true)
	return h
}

// SetReady flips the readiness state, e.g. while draining connections.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports the readiness state set by SetReady.
func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

// HealthResponse is the body of /healthz and /readyz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DetailedHealthResponse is the body of /healthz/detailed.
type DetailedHealthResponse struct {
	Status        string `json:"status"`
	Uptime        string `json:"uptime"`
	StoreRoot     string `json:"store_root,omitempty"`
	IndexPath     string `json:"index_path,omitempty"`
	IndexPresent  bool   `json:"index_present"`
	AttachmentDir string `json:"attachment_dir,omitempty"`
}

// readinessCheck returns "ok" or the reason the server cannot take traffic.
type readinessCheck struct {
	name string
	run  func() string
}

func (h *HealthChecker) readinessChecks() []readinessCheck {
	return []readinessCheck{
		{"ready", func() string {
			if !h.ready.Load() {
				return healthStatusNotReady
			}
			return healthStatusOK
		}},
		{"shutdown", func() string {
			if h.shuttingDown() {
				return healthStatusShuttingDown
			}
			return healthStatusOK
		}},
		// Nothing resolves without the Envelope Index.
		{"index", func() string {
			if !h.indexAvailable() {
				return healthStatusIndexMissing
			}
			return healthStatusOK
		}},
	}
}

func (h *HealthChecker) shuttingDown() bool {
	return h.serverContext != nil && h.serverContext.IsShutdown()
}

func (h *HealthChecker) indexAvailable() bool {
	if h.serverContext == nil || h.serverContext.Client() == nil {
		return true
	}
	return h.serverContext.Client().IndexAvailable()
}

func writeHealth(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// LivenessHandler serves /healthz. It only reports that the process is up.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeHealth(w, http.StatusOK, HealthResponse{Status: healthStatusOK})
	})
}

// ReadinessHandler serves /readyz with the result of every readiness check.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		response := HealthResponse{Status: healthStatusOK, Checks: map[string]string{}}
		code := http.StatusOK
		for _, c := range h.readinessChecks() {
			result := c.run()
			response.Checks[c.name] = result
			if result != healthStatusOK {
				response.Status = healthStatusNotReady
				code = http.StatusServiceUnavailable
			}
		}
		writeHealth(w, code, response)
	})
}

// DetailedHealthHandler serves /healthz/detailed: uptime and the store locations.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		response := DetailedHealthResponse{
			Status:       healthStatusOK,
			Uptime:       time.Since(h.startTime).Truncate(time.Second).String(),
			IndexPresent: h.indexAvailable(),
		}
		if h.serverContext != nil && h.serverContext.Client() != nil {
			client := h.serverContext.Client()
			response.StoreRoot = client.Config().Store.Root
			response.IndexPath = client.Config().Store.Index
			response.AttachmentDir = client.AttachmentDir()
		}

		code := http.StatusOK
		switch {
		case !h.ready.Load():
			response.Status = healthStatusNotReady
			code = http.StatusServiceUnavailable
		case h.shuttingDown():
			response.Status = healthStatusShuttingDown
			code = http.StatusServiceUnavailable
		}
		writeHealth(w, code, response)
	})
}

// RegisterHealthEndpoints mounts the three probes on mux.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle("/healthz", h.LivenessHandler())
	mux.Handle("/readyz", h.ReadinessHandler())
	mux.Handle("/healthz/detailed", h.DetailedHealthHandler())
}
