package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tubedigest/internal/logging"
)

type recordingGenerator struct {
	mu      sync.Mutex
	prompts []string
	failOn  func(call int, prompt string) error
}

func (g *recordingGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	n := len(g.prompts)
	if g.failOn != nil {
		if err := g.failOn(n, prompt); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("summary#%d", n), nil
}

func sentences(n, width int) string {
	unit := strings.Repeat("a", width-len(sentenceDelimiter)) + sentenceDelimiter
	return strings.Repeat(unit, n)
}

func joinChunks(chunks []Chunk) string {
	var sb strings.Builder
	for _, c := range chunks {
		sb.WriteString(c.Text)
	}
	return sb.String()
}

func TestSplitCoverageAndBounds(t *testing.T) {
	inputs := []string{
		"Eins. Zwei. Drei. Vier. Fünf.",
		"no delimiter at all but quite a long line of words",
		"ends with delimiter. ",
		"Ümlaute zählen als ein Zeichen. Äpfel. Öl. Übermut. ",
		sentences(37, 13) + "tail",
		"short. " + strings.Repeat("x", 40) + ". after",
	}
	for _, max := range []int{5, 10, 25, 64} {
		for _, in := range inputs {
			chunks := Split(in, max)
			require.Equal(t, in, joinChunks(chunks), "max=%d", max)
			for i, c := range chunks {
				assert.Equal(t, i+1, c.Index)
				assert.NotEmpty(t, c.Text)
				if charLen(c.Text) > max {
					// only a lone over-length unit may exceed the limit
					assert.Len(t, strings.SplitAfter(strings.TrimSuffix(c.Text, sentenceDelimiter), sentenceDelimiter), 1,
						"oversized chunk %q holds more than one unit", c.Text)
				}
			}
		}
	}
}

func TestSplitIsDeterministicAndGreedy(t *testing.T) {
	text := "aaaa. bbbb. cccc. dddd. "
	first := Split(text, 12)
	second := Split(text, 12)
	assert.Equal(t, first, second)
	assert.Equal(t, []Chunk{
		{Index: 1, Text: "aaaa. bbbb. "},
		{Index: 2, Text: "cccc. dddd. "},
	}, first)
}

func TestSplitOversizedUnitStandsAlone(t *testing.T) {
	long := strings.Repeat("z", 30)
	chunks := Split("a. "+long+". b. ", 10)
	require.Len(t, chunks, 3)
	assert.Equal(t, "a. ", chunks[0].Text)
	assert.Equal(t, long+". ", chunks[1].Text)
	assert.Equal(t, "b. ", chunks[2].Text)
}

func TestSplitEmpty(t *testing.T) {
	assert.Nil(t, Split("", 10))
}

func newTestSummarizer(t *testing.T, gen *recordingGenerator, max int) *Summarizer {
	t.Helper()
	prompts, err := NewPrompts("de", "ITEM {{.Language}}\n{{.Transcript}}", "CHUNK {{.Index}}/{{.Total}}\n{{.Text}}", "")
	require.NoError(t, err)
	return New(gen, prompts, max, logging.Discard())
}

func TestSummarizeShortTranscriptIsOneCall(t *testing.T) {
	gen := &recordingGenerator{}
	s := newTestSummarizer(t, gen, 100)

	out := s.Summarize(context.Background(), "Kurzer Text.")
	assert.Equal(t, "summary#1", out)
	require.Len(t, gen.prompts, 1)
	assert.Equal(t, "ITEM German\nKurzer Text.", gen.prompts[0])
}

func TestSummarizeLongTranscriptMakesChunkPlusOneCalls(t *testing.T) {
	gen := &recordingGenerator{}
	s := newTestSummarizer(t, gen, 30000)

	transcript := sentences(720, 100)
	require.Equal(t, 72000, len(transcript))
	require.Len(t, Split(transcript, 30000), 3)

	out := s.Summarize(context.Background(), transcript)
	assert.Equal(t, "summary#4", out)
	require.Len(t, gen.prompts, 4)
	assert.True(t, strings.HasPrefix(gen.prompts[0], "CHUNK 1/3\n"))
	assert.True(t, strings.HasPrefix(gen.prompts[1], "CHUNK 2/3\n"))
	assert.True(t, strings.HasPrefix(gen.prompts[2], "CHUNK 3/3\n"))
	assert.Equal(t, "ITEM German\nPart 1: summary#1\nPart 2: summary#2\nPart 3: summary#3", gen.prompts[3])
}

func TestSummarizeDegradesFailedChunk(t *testing.T) {
	gen := &recordingGenerator{failOn: func(call int, _ string) error {
		if call == 2 {
			return errors.New("deadline exceeded")
		}
		return nil
	}}
	s := newTestSummarizer(t, gen, 10)

	out := s.Summarize(context.Background(), "aaaa. bbbb. cccc. ")
	assert.Equal(t, "summary#4", out)
	require.Len(t, gen.prompts, 4)
	assert.Contains(t, gen.prompts[3], "Part 2: Summary failed: deadline exceeded")
}

func TestSummarizeFinalFailureReturnsMarker(t *testing.T) {
	gen := &recordingGenerator{failOn: func(int, string) error { return errors.New("boom") }}
	s := newTestSummarizer(t, gen, 100)

	assert.Equal(t, "Summary failed: boom", s.Summarize(context.Background(), "x"))
}

func TestDefaultPromptsRender(t *testing.T) {
	p, err := NewPrompts("en", "", "", "")
	require.NoError(t, err)

	item, err := p.Item("the transcript")
	require.NoError(t, err)
	assert.Contains(t, item, "in English")
	assert.Contains(t, item, "the transcript")

	chunk, err := p.Chunk(Chunk{Index: 2, Text: "body"}, 5)
	require.NoError(t, err)
	assert.Contains(t, chunk, "part 2 of 5")

	digest, err := p.Digest("2026-10-18", 3, "content")
	require.NoError(t, err)
	assert.Contains(t, digest, "2026-10-18 (3 videos)")
}

func TestNewPromptsRejectsBadTemplate(t *testing.T) {
	_, err := NewPrompts("de", "{{.Oops", "", "")
	assert.Error(t, err)
}
