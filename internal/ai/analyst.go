// Package ai wraps the external reasoning capability used by the
// overlap, reasoning, and consolidation stages. All structured
// requests and schema validation of responses live here; callers only
// see typed results or a capability error.
package ai

import (
	"context"
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Model selection. Overlap comparison and finding generation need the
// stronger model; merge-description synthesis is a simple rewrite task
// and runs on the cheap one.
const (
	ModelDefault = "claude-sonnet-4-5-20250929"
	ModelSimple  = "claude-3-5-haiku-20241022"
)

// GetDefaultModel returns the default model, honoring DEALSCOPE_MODEL
func GetDefaultModel() string {
	if model := os.Getenv("DEALSCOPE_MODEL"); model != "" {
		return model
	}
	return ModelDefault
}

// GetSimpleTaskModel returns the model for simple tasks, honoring DEALSCOPE_MODEL_SIMPLE
func GetSimpleTaskModel() string {
	if model := os.Getenv("DEALSCOPE_MODEL_SIMPLE"); model != "" {
		return model
	}
	return ModelSimple
}

// Analyst is the client for the reasoning capability.
//
// Responsibilities are split across files:
// - analyst.go: struct and constructor (this file)
// - retry.go: circuit breaker, backoff, rate limiting
// - json_parser.go: resilient parsing of capability JSON output
// - overlap.go: batched fact-pair comparison
// - findings.go: per-domain finding generation
// - synthesis.go: merged-description synthesis for consolidation
type Analyst struct {
	client         *anthropic.Client
	model          string
	retry          RetryConfig
	circuitBreaker *CircuitBreaker
	concurrencySem *semaphore.Weighted // bounds concurrent capability calls
	limiter        *rate.Limiter       // smooths request bursts across domains
}

// Config holds analyst configuration
type Config struct {
	APIKey string  // Anthropic API key (if empty, reads from ANTHROPIC_API_KEY env var)
	Model  string  // Model to use (default: claude-sonnet-4-5-20250929)
	Retry  RetryConfig
	// RequestsPerSecond caps the steady-state call rate (0 = default 2/s).
	RequestsPerSecond float64
}

// NewAnalyst creates a client for the reasoning capability.
func NewAnalyst(cfg *Config) (*Analyst, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
	}

	model := cfg.Model
	if model == "" {
		model = GetDefaultModel()
	}

	retry := cfg.Retry
	if retry.MaxRetries == 0 {
		retry = DefaultRetryConfig()
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2.0
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	var circuitBreaker *CircuitBreaker
	if retry.CircuitBreakerEnabled {
		circuitBreaker = NewCircuitBreaker(retry.FailureThreshold, retry.SuccessThreshold, retry.OpenTimeout)
	}

	var concurrencySem *semaphore.Weighted
	if retry.MaxConcurrentCalls > 0 {
		concurrencySem = semaphore.NewWeighted(int64(retry.MaxConcurrentCalls))
	}

	return &Analyst{
		client:         &client,
		model:          model,
		retry:          retry,
		circuitBreaker: circuitBreaker,
		concurrencySem: concurrencySem,
		limiter:        rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

// HealthCheck reports whether the analyst can currently accept calls.
func (a *Analyst) HealthCheck(ctx context.Context) error {
	if a.circuitBreaker != nil {
		state, failures, _ := a.circuitBreaker.GetMetrics()
		if state == CircuitOpen {
			return fmt.Errorf("reasoning capability unavailable: %w (failures=%d, retry in %v)",
				ErrCircuitOpen, failures, a.retry.OpenTimeout)
		}
	}
	return nil
}

// call makes one capability request and returns the concatenated text
// blocks of the response. Retry, circuit breaking, and rate limiting
// are applied here so every typed call shares the same failure policy.
func (a *Analyst) call(ctx context.Context, prompt, operation, model string, maxTokens int) (string, error) {
	if model == "" {
		model = a.model
	}
	if maxTokens == 0 {
		maxTokens = 4096
	}

	var response *anthropic.Message
	err := a.retryWithBackoff(ctx, operation, func(attemptCtx context.Context) error {
		resp, apiErr := a.client.Messages.New(attemptCtx, anthropic.MessageNewParams{
			Model:     anthropic.Model(model),
			MaxTokens: int64(maxTokens),
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if apiErr != nil {
			return apiErr
		}
		response = resp
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("capability call failed: %w", err)
	}

	var text string
	for _, block := range response.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, nil
}

// truncateString truncates a string to maxLen characters for log lines
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
