// Package bootstrap builds the pipeline collaborators from configuration. Each
// one is created once per process and shared by every worker.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"careplan-workers/internal/common/aws"
	"careplan-workers/internal/common/camunda"
	"careplan-workers/internal/common/config"
	"careplan-workers/internal/common/database"
	"careplan-workers/internal/common/llm"
	"careplan-workers/internal/common/logger"
	"careplan-workers/internal/common/observability"
	"careplan-workers/internal/common/places"
	fetchnearbyresources "careplan-workers/internal/workers/triage/fetch-nearby-resources"
	generatecareplan "careplan-workers/internal/workers/triage/generate-care-plan"
)

var connectRetry = &camunda.RetryConfig{
	MaxRetries: 10,
	BaseDelay:  2 * time.Second,
	MaxDelay:   30 * time.Second,
}

// Resources owns the collaborators and the connections behind them.
type Resources struct {
	Deps    generatecareplan.Dependencies
	closers []func() error
}

// Close releases connections in reverse order of creation.
func (r *Resources) Close() error {
	var first error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// StageConfig maps the file configuration onto per-stage settings.
func StageConfig(cfg *config.Config) *generatecareplan.Config {
	sc := generatecareplan.LoadConfig()

	genaiTimeout := config.GetDuration(cfg.APIs.GenAI.Timeout)
	sc.Classify.Timeout = genaiTimeout
	sc.Rerank.Timeout = genaiTimeout
	sc.Exercises.Timeout = genaiTimeout

	sc.Fetch.Timeout = config.GetDuration(cfg.APIs.Places.Timeout)
	sc.Fetch.RadiusMeters = cfg.APIs.Places.RadiusMeters
	sc.Fetch.MaxResults = cfg.APIs.Places.MaxResults
	sc.Fetch.CacheTTL = config.GetDuration(cfg.APIs.Places.CacheTTL)
	return sc
}

// Build connects every configured collaborator. Optional collaborators that are
// disabled stay nil.
func Build(ctx context.Context, cfg *config.Config, obs *observability.Observability, log logger.Logger) (*Resources, error) {
	res := &Resources{}
	res.Deps.Observability = obs

	client, err := llm.NewGeminiClient(ctx, llm.GeminiConfig{
		APIKey:      cfg.APIs.GenAI.APIKey,
		Model:       cfg.APIs.GenAI.Model,
		Temperature: cfg.APIs.GenAI.Temperature,
		Timeout:     config.GetDuration(cfg.APIs.GenAI.Timeout),
	}, log)
	if err != nil {
		return nil, err
	}
	res.Deps.LLM = client
	log.Info("reasoning client ready", map[string]interface{}{"model": client.Name()})

	if err := res.buildDirectory(ctx, cfg, log); err != nil {
		res.Close()
		return nil, err
	}
	if err := res.buildCache(ctx, cfg, log); err != nil {
		res.Close()
		return nil, err
	}
	if err := res.buildStore(ctx, cfg, log); err != nil {
		res.Close()
		return nil, err
	}
	if err := res.buildNotifier(ctx, cfg, log); err != nil {
		res.Close()
		return nil, err
	}
	return res, nil
}

func (r *Resources) buildDirectory(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	pc := cfg.APIs.Places
	switch pc.Provider {
	case config.PlacesProviderElasticsearch:
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		err = camunda.Retry(ctx, connectRetry, alwaysRetry, func(ctx context.Context) error {
			return es.Ping(ctx)
		})
		if err != nil {
			return fmt.Errorf("elasticsearch unavailable: %w", err)
		}
		r.Deps.Directory = fetchnearbyresources.NewElasticsearchDirectory(es.Client, pc.Index)
		log.Info("elasticsearch directory ready", map[string]interface{}{"index": pc.Index})
	default:
		if pc.APIKey == "" {
			log.Warn("places api key not set, nearby searches will degrade", map[string]interface{}{
				"setting": "apis.places.api_key",
			})
		}
		r.Deps.Directory = fetchnearbyresources.NewPlacesDirectory(places.NewClient(pc.BaseURL, pc.APIKey, config.GetDuration(pc.Timeout)))
		log.Info("places directory ready", map[string]interface{}{"baseUrl": pc.BaseURL})
	}
	return nil
}

func (r *Resources) buildCache(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	if !cfg.Database.Redis.Enabled || cfg.APIs.Places.CacheTTL <= 0 {
		return nil
	}
	rc := database.NewRedis(cfg.Database.Redis)
	r.closers = append(r.closers, rc.Close)

	if err := rc.Ping(ctx); err != nil {
		log.Warn("redis not reachable, nearby cache will miss until it is", map[string]interface{}{
			"error": err.Error(),
		})
	}
	r.Deps.Cache = fetchnearbyresources.NewCache(rc.Client, config.GetDuration(cfg.APIs.Places.CacheTTL))
	return nil
}

func (r *Resources) buildStore(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	if !cfg.Database.Postgres.Enabled {
		log.Info("assessment persistence disabled", nil)
		return nil
	}
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return err
	}
	r.closers = append(r.closers, pg.Close)

	err = camunda.Retry(ctx, connectRetry, alwaysRetry, func(ctx context.Context) error {
		return pg.Ping(ctx)
	})
	if err != nil {
		return fmt.Errorf("postgres unavailable: %w", err)
	}

	store := database.NewAssessmentStore(pg.DB)
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}
	r.Deps.Store = store
	log.Info("assessment store ready", nil)
	return nil
}

func (r *Resources) buildNotifier(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	cc := cfg.Notifications.Crisis
	if !cc.Enabled {
		return nil
	}
	client, err := aws.NewSNSClient(ctx, cc.Region)
	if err != nil {
		return err
	}
	r.Deps.Notifier = aws.NewCrisisNotifier(client, cc.TopicARN)
	log.Info("crisis notifier ready", map[string]interface{}{"region": cc.Region})
	return nil
}

func alwaysRetry(error) bool { return true }
