package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"tubedigest/internal/llm"
)

// Summarizer reduces a transcript of any length to one summary.
type Summarizer struct {
	gen      llm.Generator
	prompts  *Prompts
	maxChars int
	logger   *slog.Logger
}

func New(gen llm.Generator, prompts *Prompts, maxChars int, logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{gen: gen, prompts: prompts, maxChars: maxChars, logger: logger}
}

// Summarize never fails. A transcript within the limit takes one call; a
// longer one takes a call per chunk plus one final pass over the partial
// summaries. A failed call contributes an error line instead of a summary.
func (s *Summarizer) Summarize(ctx context.Context, transcript string) string {
	if charLen(transcript) <= s.maxChars {
		return s.reduce(ctx, "item", func() (string, error) { return s.prompts.Item(transcript) })
	}

	chunks := Split(transcript, s.maxChars)
	s.logger.Info("chunking transcript", "chars", charLen(transcript), "chunks", len(chunks))

	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		c := c
		summary := s.reduce(ctx, fmt.Sprintf("chunk %d/%d", c.Index, len(chunks)), func() (string, error) {
			return s.prompts.Chunk(c, len(chunks))
		})
		parts = append(parts, fmt.Sprintf("Part %d: %s", c.Index, summary))
	}

	combined := strings.Join(parts, "\n")
	return s.reduce(ctx, "final", func() (string, error) { return s.prompts.Item(combined) })
}

func (s *Summarizer) reduce(ctx context.Context, step string, prompt func() (string, error)) string {
	p, err := prompt()
	if err == nil {
		var out string
		out, err = s.gen.Generate(ctx, p)
		if err == nil {
			return out
		}
	}
	s.logger.Warn("summary call failed", "step", step, "error", err)
	return FailureText(err)
}

// FailureText is the marker stored in place of a failed summary.
func FailureText(err error) string {
	return fmt.Sprintf("Summary failed: %v", err)
}
