package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tubedigest/internal/config"
)

// ErrEmptyResponse is returned when the model answers with no text.
var ErrEmptyResponse = errors.New("llm: empty response")

// Generator turns a prompt into generated text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Options are the fixed generation parameters applied to every call.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxTokens <= 0 {
		o.MaxTokens = 4000
	}
	if o.Timeout <= 0 {
		o.Timeout = 60 * time.Second
	}
	return o
}

// New picks the backend named by cfg.AI.Provider.
func New(ctx context.Context, cfg config.AppConfig) (Generator, error) {
	opts := Options{
		Model:       cfg.AI.Model,
		MaxTokens:   cfg.AI.MaxTokens,
		Temperature: cfg.AI.Temperature,
		Timeout:     cfg.AITimeout(),
	}
	switch cfg.AI.Provider {
	case "gemini":
		return NewGemini(ctx, cfg.AI.APIKey, cfg.AI.BaseURL, opts)
	case "openai", "":
		if cfg.AI.BaseURL == "" {
			return nil, fmt.Errorf("AI base URL is not configured")
		}
		return NewOpenAI(cfg.AI.BaseURL, cfg.AI.APIKey, opts), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.AI.Provider)
	}
}
