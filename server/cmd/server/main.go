package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/torstats/torstats/pkg/logging"
	"github.com/torstats/torstats/server/internal/alerts"
	"github.com/torstats/torstats/server/internal/api"
	"github.com/torstats/torstats/server/internal/auth"
	"github.com/torstats/torstats/server/internal/config"
	"github.com/torstats/torstats/server/internal/store"
	"github.com/torstats/torstats/server/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	uiDir := flag.String("ui-dir", "", "serve static UI files from this directory; leave empty to disable")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	if err := logging.Setup(cfg.Server.Log.Level, cfg.Server.Log.Format); err != nil {
		slog.Error("failed to set up logging", "err", err)
		os.Exit(1)
	}

	slog.Info("torstats-server starting", "config", *configPath)
	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"stats_dir", cfg.Server.StatsDir,
		"auth_mode", cfg.Server.Auth.Mode,
		"alert_rules", len(cfg.Server.Alerts.Rules),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st := store.New(cfg.Server.StatsDir)

	// Alerts engine: evaluates rules on every loaded summary.
	alertEngine := alerts.New(cfg.Server.Alerts)
	st.OnUpdate(func(e *store.Entry) { alertEngine.Evaluate(e.Summary) })

	// WebSocket hub: broadcasts the summary every interval and on reload.
	hub := ws.New(st, cfg.Server.BroadcastInterval)
	st.OnUpdate(hub.Notify)
	go hub.Run(ctx)

	// Subscribers are registered before the first load.
	go st.Run(ctx, cfg.Server.ReloadInterval)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           newHandler(cfg.Server, st, alertEngine, hub, *uiDir),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("torstats-server shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	httpSrv.Shutdown(shutdownCtx) //nolint:errcheck
	alertEngine.Wait()
}

// newHandler builds the HTTP routes. Health stays open so probes work
// without a key; everything else goes through the API key middleware.
func newHandler(cfg config.ServerConfig, st *store.Store, al api.AlertSource, hub http.Handler, uiDir string) http.Handler {
	protect := auth.Middleware(cfg.Auth.Mode, cfg.Auth.EffectiveHeader(), cfg.Auth.Key())
	apiH := api.New(st, al)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/health", apiH)
	mux.Handle("/api/", protect(apiH))
	mux.Handle("/metrics", protect(apiH))
	mux.Handle("/stats/", protect(apiH))
	mux.Handle("/ws", protect(hub))

	// Optional: serve a pre-built UI from a local directory.
	// The "/" catch-all serves index.html for any unknown path (SPA routing).
	if uiDir != "" {
		fs := http.FileServer(http.Dir(uiDir))
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			path := filepath.Join(uiDir, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))
			if _, err := os.Stat(path); os.IsNotExist(err) {
				http.ServeFile(w, r, filepath.Join(uiDir, "index.html"))
				return
			}
			fs.ServeHTTP(w, r)
		})
		slog.Info("serving UI static files", "dir", uiDir)
	}
	return mux
}
