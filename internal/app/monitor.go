package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/zhangsongtt/rlop/internal/ctxlog"
	"github.com/zhangsongtt/rlop/internal/experiment"
)

// healthHandler reports process liveness.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// statusHandler serves a JSON snapshot of every experiment's run progress.
func (a *App) statusHandler(w http.ResponseWriter, r *http.Request) {
	snapshot := make(map[string][]experiment.RunStatus, len(a.trackers))
	for name, tracker := range a.trackers {
		snapshot[name] = tracker.Snapshot()
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		a.logger.Error("Failed to encode status snapshot.", "error", err)
	}
}

// startMonitorServer runs the progress HTTP server in the background.
func (a *App) startMonitorServer(port int) {
	a.logger.Debug("Configuring monitor server.")
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	mux.HandleFunc("/status", a.statusHandler)

	addr := fmt.Sprintf(":%d", port)
	a.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		a.logger.Info("🩺 Monitor server starting", "address", fmt.Sprintf("http://localhost%s/status", addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Monitor server failed unexpectedly", "error", err)
		}
	}()
}

// closeMonitorServer shuts the progress server down gracefully.
func (a *App) closeMonitorServer(ctx context.Context) {
	if a.httpServer == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	logger := ctxlog.FromContext(ctx)
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Monitor server shutdown failed", "error", err)
		return
	}
	logger.Debug("Monitor server shut down gracefully.")
}
