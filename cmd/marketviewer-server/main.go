package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketviewer/internal/config"
	"marketviewer/internal/domain"
	"marketviewer/internal/httpapi"
	"marketviewer/internal/store"
	"marketviewer/internal/util"
	"marketviewer/internal/viewer"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Fatalf("loading .env: %v", err)
	}

	// Load config.
	cfgPath := "config/marketviewer.yaml"
	if p := os.Getenv("MARKETVIEWER_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	// Setup logging.
	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	loc, err := cfg.Viewer.Location()
	if err != nil {
		log.Fatalf("resolving timezone: %v", err)
	}

	// Create viewer and server.
	v := viewer.New(logger,
		viewer.WithLocation(loc),
		viewer.WithLabels(map[domain.Instrument]string{
			domain.InstrumentNasdaq: cfg.Viewer.NasdaqLabel,
			domain.InstrumentSPX:    cfg.Viewer.SPXLabel,
		}),
	)
	srv := httpapi.NewDashboardServer(v, store.NewParquetStore(cfg.Export.Dir), cfg.Server.MaxUploadBytes(), logger)

	// Start HTTP server.
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		logger.Info("market viewer listening", "addr", httpServer.Addr, "timezone", loc.String())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down market viewer")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
