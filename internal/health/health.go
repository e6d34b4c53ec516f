// Package health serves liveness and readiness probes for the process.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

const checkTimeout = 5 * time.Second

// Check probes one dependency. A nil error means healthy.
type Check func(ctx context.Context) error

// probeResult is the per-check entry in the /healthz payload.
type probeResult struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// report is the /healthz response body.
type report struct {
	Status  string                 `json:"status"`
	Version string                 `json:"version,omitempty"`
	Uptime  string                 `json:"uptime"`
	Checks  map[string]probeResult `json:"checks,omitempty"`
}

// Server exposes /healthz, /readyz and /livez on its own port so probes
// stay reachable when the main workload saturates.
type Server struct {
	addr      string
	version   string
	startedAt time.Time

	mu     sync.RWMutex
	checks map[string]Check

	srv *http.Server
}

// NewServer builds a probe server listening on the given port.
func NewServer(port int, version string) *Server {
	return &Server{
		addr:      fmt.Sprintf(":%d", port),
		version:   version,
		startedAt: time.Now(),
		checks:    make(map[string]Check),
	}
}

// RegisterCheck adds a named dependency probe. Re-registering a name
// replaces the previous check.
func (s *Server) RegisterCheck(name string, check Check) {
	s.mu.Lock()
	s.checks[name] = check
	s.mu.Unlock()
}

// Start begins serving probes in the background.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/readyz", s.handleReadyz)
	mux.HandleFunc("/livez", s.handleLivez)
	// legacy paths kept for existing probe configs
	mux.HandleFunc("/health", s.handleHealthz)
	mux.HandleFunc("/ready", s.handleReadyz)
	mux.HandleFunc("/live", s.handleLivez)

	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: checkTimeout,
	}

	// probes are best effort, a bind failure never stops the workload
	go func() { _ = s.srv.ListenAndServe() }()
	return nil
}

// Stop shuts the probe server down, waiting for in-flight requests.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) snapshotChecks() map[string]Check {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Check, len(s.checks))
	for name, check := range s.checks {
		out[name] = check
	}
	return out
}

func (s *Server) runChecks(ctx context.Context) (map[string]probeResult, bool) {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	results := make(map[string]probeResult)
	healthy := true
	for name, check := range s.snapshotChecks() {
		if err := check(ctx); err != nil {
			results[name] = probeResult{Status: "fail", Error: err.Error()}
			healthy = false
			continue
		}
		results[name] = probeResult{Status: "pass"}
	}
	return results, healthy
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	results, healthy := s.runChecks(r.Context())

	body := report{
		Status:  "pass",
		Version: s.version,
		Uptime:  time.Since(s.startedAt).Round(time.Second).String(),
		Checks:  results,
	}
	code := http.StatusOK
	if !healthy {
		body.Status = "fail"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if _, healthy := s.runChecks(r.Context()); !healthy {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	fmt.Fprintln(w, "ready")
}

func (s *Server) handleLivez(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintln(w, "alive")
}
