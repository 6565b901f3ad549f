// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"careplan-workers/internal/bootstrap"
	"careplan-workers/internal/common/camunda"
	"careplan-workers/internal/common/config"
	"careplan-workers/internal/common/logger"
	"careplan-workers/internal/common/observability"
	ap "careplan-workers/internal/workers/triage/assemble-plan"
	bcr "careplan-workers/internal/workers/triage/build-catalog-resources"
	ci "careplan-workers/internal/workers/triage/classify-intake"
	fnr "careplan-workers/internal/workers/triage/fetch-nearby-resources"
	gcp "careplan-workers/internal/workers/triage/generate-care-plan"
	ge "careplan-workers/internal/workers/triage/generate-exercises"
	rr "careplan-workers/internal/workers/triage/rerank-resources"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...", zap.String("environment", cfg.App.Environment))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}

	res, err := bootstrap.Build(ctx, cfg, obs, log)
	if err != nil {
		zapLog.Fatal("collaborator init failed", zap.Error(err))
	}
	defer res.Close()

	zeebe, err := camunda.NewClient(ctx, cfg.Camunda.BrokerAddress)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully", zap.String("gateway", cfg.Camunda.BrokerAddress))

	stages := bootstrap.StageConfig(cfg)
	deps := res.Deps

	handlers := []struct {
		taskType string
		handle   worker.JobHandler
	}{
		{ci.TaskType, ci.NewHandler(stages.Classify, deps.LLM, log).Handle},
		{bcr.TaskType, bcr.NewHandler(stages.Catalog, log).Handle},
		{fnr.TaskType, fnr.NewHandler(stages.Fetch, deps.Directory, deps.Cache, log).Handle},
		{rr.TaskType, rr.NewHandler(stages.Rerank, deps.LLM, log).Handle},
		{ge.TaskType, ge.NewHandler(stages.Exercises, deps.LLM, log).Handle},
		{ap.TaskType, ap.NewHandler(stages.Assemble, deps.Store, deps.Notifier, log).Handle},
		{gcp.TaskType, gcp.NewHandler(stages, deps, log).Handle},
	}

	var workers []*camunda.Worker
	for _, h := range handlers {
		if !config.IsWorkerEnabled(cfg, h.taskType) {
			zapLog.Info("worker disabled", zap.String("taskType", h.taskType))
			continue
		}
		wcfg := config.GetWorkerConfig(cfg, h.taskType)
		workers = append(workers, camunda.StartWorker(zeebe.GetClient(), h.taskType, camunda.WorkerOptions{
			MaxJobsActive: wcfg.MaxJobsActive,
			Timeout:       config.GetDuration(wcfg.Timeout),
		}, h.handle, log))
	}
	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := zeebe.HealthCheck(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error flushing telemetry", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	})
}
