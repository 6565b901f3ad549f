// cmd/tools/plan-runner/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"careplan-workers/internal/bootstrap"
	"careplan-workers/internal/common/config"
	apperrors "careplan-workers/internal/common/errors"
	"careplan-workers/internal/common/llm"
	"careplan-workers/internal/common/logger"
	"careplan-workers/internal/models"
	fetchnearbyresources "careplan-workers/internal/workers/triage/fetch-nearby-resources"
	generatecareplan "careplan-workers/internal/workers/triage/generate-care-plan"
)

// offlineDirectory finds nothing.
type offlineDirectory struct{}

func (offlineDirectory) Nearby(context.Context, fetchnearbyresources.Query) ([]models.GeoCandidate, error) {
	return []models.GeoCandidate{}, nil
}

var errOffline = errors.New("offline mode")

func main() {
	intakePath := flag.String("intake", "", "path to an intake JSON file (required)")
	subjectID := flag.String("subject", "", "optional subject id stored with the assessment")
	offline := flag.Bool("offline", false, "run without external services; every stage takes its fallback")
	configPath := flag.String("config", "", "config file (default: configs/config.yaml lookup)")
	flag.Parse()

	if *intakePath == "" {
		fmt.Fprintln(os.Stderr, "Usage: plan-runner -intake intake.json [-offline] [-subject id] [-config path]")
		os.Exit(2)
	}

	raw, err := os.ReadFile(*intakePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read intake: %v\n", err)
		os.Exit(1)
	}
	var intake models.IntakeRecord
	if err := json.Unmarshal(raw, &intake); err != nil {
		fmt.Fprintf(os.Stderr, "parse intake: %v\n", err)
		os.Exit(1)
	}

	zapLog, err := logger.New("info", "console")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var (
		stages = generatecareplan.LoadConfig()
		deps   generatecareplan.Dependencies
	)
	if *offline {
		deps.LLM = llm.ClientFunc(func(context.Context, llm.Request) ([]byte, error) {
			return nil, apperrors.NewTransportFailureError("genai", errOffline)
		})
		deps.Directory = offlineDirectory{}
	} else {
		cfg, err := loadConfig(*configPath)
		if err != nil {
			zapLog.Fatal("config load failed", zap.Error(err))
		}
		res, err := bootstrap.Build(ctx, cfg, nil, log)
		if err != nil {
			zapLog.Fatal("collaborator init failed", zap.Error(err))
		}
		defer res.Close()
		stages, deps = bootstrap.StageConfig(cfg), res.Deps
	}

	out, err := generatecareplan.NewHandler(stages, deps, log).Execute(ctx, &generatecareplan.Input{
		SubjectID: *subjectID,
		Intake:    intake,
	})
	if err != nil {
		zapLog.Error("plan generation failed", zap.String("errorCode", string(apperrors.CodeOf(err))), zap.Error(err))
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		zapLog.Fatal("write plan", zap.Error(err))
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}
