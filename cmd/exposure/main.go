package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/floodscope/flood-exposure-service/internal/adapter/census"
	httpadapter "github.com/floodscope/flood-exposure-service/internal/adapter/http"
	"github.com/floodscope/flood-exposure-service/internal/adapter/overpass"
	"github.com/floodscope/flood-exposure-service/internal/adapter/wfs"
	"github.com/floodscope/flood-exposure-service/internal/adapter/wms"
	"github.com/floodscope/flood-exposure-service/internal/config"
	"github.com/floodscope/flood-exposure-service/internal/observability"
	"github.com/floodscope/flood-exposure-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	policy := overpass.DefaultPolicy(cfg.OverpassEndpoints)
	elements := overpass.NewClient(policy, cfg.OverpassTimeout, clock, logger, metrics)
	rasters := wms.NewClient(cfg.WMSBaseURL, cfg.WMSTimeout, clock, logger, metrics)
	parcels := wfs.NewClient(cfg.WFSBaseURL, cfg.WFSTypeName, cfg.WFSTimeout, clock, logger, metrics)
	communes := census.NewCache(cfg.CensusPath, logger)

	analyzer := pipeline.NewAnalyzer(elements, rasters, parcels, communes, logger, metrics, clock)

	srv := httpadapter.NewServer(cfg.HTTPAddr, analyzer, analyzer, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
