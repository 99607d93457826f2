package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// OpenAIGenerator talks to any OpenAI-compatible chat completions endpoint,
// including Gemini's /v1beta/openai surface.
type OpenAIGenerator struct {
	client openai.Client
	opts   Options
}

func NewOpenAI(baseURL, apiKey string, opts Options, extra ...option.RequestOption) *OpenAIGenerator {
	reqOpts := []option.RequestOption{option.WithBaseURL(baseURL), option.WithMaxRetries(0)}
	if apiKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(apiKey))
	}
	reqOpts = append(reqOpts, extra...)
	return &OpenAIGenerator{client: openai.NewClient(reqOpts...), opts: opts.withDefaults()}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	chatCompletion, err := g.client.Chat.Completions.New(timeoutCtx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model:       g.opts.Model,
		MaxTokens:   openai.Int(int64(g.opts.MaxTokens)),
		Temperature: openai.Float(g.opts.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get AI completion: %w", err)
	}
	if len(chatCompletion.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrEmptyResponse)
	}
	content := strings.TrimSpace(chatCompletion.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}
