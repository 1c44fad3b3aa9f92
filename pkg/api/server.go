// Package api exposes the daemon's local HTTP surface: the snapshot query
// used by popup clients, settings management, and operational endpoints.
package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reviewbadge/reviewbadge/pkg/badge"
	"github.com/reviewbadge/reviewbadge/pkg/engine"
)

type contextKey string

const traceIDKey contextKey = "trace_id"

// SettingsInterface is the slice of the settings store the API needs.
// An interface so tests can substitute an in-memory fake.
type SettingsInterface interface {
	UpdateIntervalMinutes() int
	SetUpdateIntervalMinutes(minutes int) error
	Credentials() map[string]string
	SetCredential(providerID, value string) error
}

// Cycler triggers update cycles without exposing the whole orchestrator.
type Cycler interface {
	Trigger()
}

// Server encapsulates the HTTP API server
type Server struct {
	agg      *engine.Aggregate
	cycler   Cycler
	settings SettingsInterface
	server   *http.Server
}

// NewServer creates a new API server instance
func NewServer(agg *engine.Aggregate, cycler Cycler, settings SettingsInterface, addr string) *Server {
	s := &Server{
		agg:      agg,
		cycler:   cycler,
		settings: settings,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/health", handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/v1/reviews", s.handleReviews)
	mux.HandleFunc("/v1/badge", s.handleBadge)
	mux.HandleFunc("/v1/refresh", s.handleRefresh)
	mux.HandleFunc("/v1/settings", s.handleSettings)

	handler := withLogging(withRecovery(mux))

	if addr == "" {
		addr = "127.0.0.1:8730"
	}

	s.server = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	return s
}

// Start runs the HTTP server (blocking)
func (s *Server) Start() error {
	fmt.Printf(`{"level":"info","msg":"server_starting","addr":"%s"}`+"\n", s.server.Addr)
	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	fmt.Println(`{"level":"info","msg":"server_stopping"}`)
	return s.server.Shutdown(ctx)
}

// handleReviews returns the per-provider snapshot. It reads only the
// committed aggregate: a query during an in-flight cycle sees the previous
// counts and never waits on a provider call.
func (s *Server) handleReviews(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, `{"error":"method_not_allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	snapshot := s.agg.Snapshot()
	counts := make(map[string]int, len(snapshot))
	for id, count := range snapshot {
		counts[string(id)] = count
	}

	writeJSON(w, r, counts)
}

func (s *Server) handleBadge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, `{"error":"method_not_allowed"}`, http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, r, BadgeResponse{Text: badge.Text(s.agg.Total())})
}

// handleRefresh triggers an immediate cycle. The cycle runs asynchronously;
// 202 only acknowledges the trigger.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, `{"error":"method_not_allowed"}`, http.StatusMethodNotAllowed)
		return
	}
	s.cycler.Trigger()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	w.Write([]byte(`{"status":"triggered"}`))
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.getSettings(w, r)
	case http.MethodPut:
		s.putSettings(w, r)
	default:
		http.Error(w, `{"error":"method_not_allowed"}`, http.StatusMethodNotAllowed)
	}
}

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	configured := make(map[string]bool)
	for id := range s.settings.Credentials() {
		configured[id] = true
	}
	writeJSON(w, r, SettingsResponse{
		UpdateIntervalMinutes: s.settings.UpdateIntervalMinutes(),
		Configured:            configured,
	})
}

func (s *Server) putSettings(w http.ResponseWriter, r *http.Request) {
	var update SettingsUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, `{"error":"invalid_json_body"}`, http.StatusBadRequest)
		return
	}

	if update.UpdateIntervalMinutes != nil {
		if err := s.settings.SetUpdateIntervalMinutes(*update.UpdateIntervalMinutes); err != nil {
			http.Error(w, `{"error":"invalid_interval"}`, http.StatusBadRequest)
			return
		}
	}
	for id, value := range update.Credentials {
		if err := s.settings.SetCredential(id, value); err != nil {
			fmt.Printf(`{"level":"error","msg":"failed_to_store_credential","trace_id":"%s","provider":"%s","error":"%v"}`+"\n",
				getTraceID(r.Context()), id, err)
			http.Error(w, `{"error":"settings_write_failed"}`, http.StatusInternalServerError)
			return
		}
	}

	s.getSettings(w, r)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func writeJSON(w http.ResponseWriter, r *http.Request, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		fmt.Printf(`{"level":"error","msg":"failed_to_encode_response","trace_id":"%s","error":"%v"}`+"\n",
			getTraceID(r.Context()), err)
	}
}

// --- Middleware ---

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		traceID := r.Header.Get("X-Trace-ID")
		if traceID == "" {
			traceID = generateTraceID()
		}
		ctx := context.WithValue(r.Context(), traceIDKey, traceID)
		r = r.WithContext(ctx)

		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		w.Header().Set("X-Trace-ID", traceID)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		fmt.Printf(`{"level":"info","msg":"http_request","trace_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`+"\n",
			traceID, r.Method, r.URL.Path, ww.status, duration.Milliseconds())
	})
}

func withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				fmt.Printf(`{"level":"error","msg":"panic_recovered","error":"%v","path":"%s"}`+"\n", err, r.URL.Path)
				http.Error(w, `{"error":"internal_server_error"}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func generateTraceID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

func getTraceID(ctx context.Context) string {
	if v, ok := ctx.Value(traceIDKey).(string); ok {
		return v
	}
	return ""
}
