package reporting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"deauthwatch/internal/analysis"
	"deauthwatch/internal/log"
)

// HTTPSink serves the latest snapshot and the alert history as JSON.
type HTTPSink struct {
	mu        sync.RWMutex
	latest    analysis.Snapshot
	reported  bool
	anomalies *analysis.AnomalyDetector
	router    *mux.Router
}

// NewHTTPSink creates the sink. anomalies may be nil, in which case /alerts
// returns an empty list.
func NewHTTPSink(anomalies *analysis.AnomalyDetector) *HTTPSink {
	h := &HTTPSink{anomalies: anomalies, router: mux.NewRouter()}
	h.router.HandleFunc("/stats", h.handleStats).Methods(http.MethodGet)
	h.router.HandleFunc("/alerts", h.handleAlerts).Methods(http.MethodGet)
	h.router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	return h
}

// Report stores the snapshot for subsequent requests.
func (h *HTTPSink) Report(s analysis.Snapshot) error {
	h.mu.Lock()
	h.latest = s
	h.reported = true
	h.mu.Unlock()
	return nil
}

// Handler returns the router.
func (h *HTTPSink) Handler() http.Handler {
	return h.router
}

// Serve listens on addr until ctx is canceled.
func (h *HTTPSink) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithComponent("reporting").Infof("HTTP status endpoint listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	}
}

func (h *HTTPSink) handleStats(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	snap, ok := h.latest, h.reported
	h.mu.RUnlock()

	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no interval rolled yet"})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *HTTPSink) handleAlerts(w http.ResponseWriter, r *http.Request) {
	limit := -1
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	alerts := []analysis.Alert{}
	if h.anomalies != nil {
		alerts = h.anomalies.GetRecentAlerts(limit)
	}
	writeJSON(w, http.StatusOK, alerts)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithComponent("reporting").WithError(err).Debug("Failed to write response")
	}
}
