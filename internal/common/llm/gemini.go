package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"

	apperrors "careplan-workers/internal/common/errors"
)

var ErrEmptyResponse = errors.New("llm: model returned no content")

type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// GeminiClient is a thin wrapper around the official genai client.
type GeminiClient struct {
	cli         *genai.Client
	model       string
	temperature float32
	timeout     time.Duration
	logger      Logger
}

func NewGeminiClient(ctx context.Context, cfg GeminiConfig, log Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, apperrors.NewConfigurationMissingError("apis.genai.api_key")
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiClient{
		cli:         cli,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		logger:      log,
	}, nil
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.model }

// GenerateJSON sends one request with application/json output and no retry.
func (g *GeminiClient) GenerateJSON(ctx context.Context, req Request) ([]byte, error) {
	prompt, err := req.Prompt()
	if err != nil {
		return nil, err
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	temperature := g.temperature
	start := time.Now()
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			Temperature:      &temperature,
		},
	)
	if err != nil {
		g.logger.Warn("Model request failed", map[string]interface{}{
			"stage":      req.Stage,
			"model":      g.model,
			"durationMs": time.Since(start).Milliseconds(),
			"error":      err.Error(),
		})
		return nil, apperrors.NewTransportFailureError("genai", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, apperrors.NewParseFailureError(req.Stage, ErrEmptyResponse)
	}

	var text string
	for _, p := range resp.Candidates[0].Content.Parts {
		text += p.Text
	}

	g.logger.Debug("Model request completed", map[string]interface{}{
		"stage":         req.Stage,
		"model":         g.model,
		"promptBytes":   len(prompt),
		"responseBytes": len(text),
		"durationMs":    time.Since(start).Milliseconds(),
	})
	return []byte(text), nil
}
