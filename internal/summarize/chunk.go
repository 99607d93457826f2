package summarize

import (
	"strings"
	"unicode/utf8"
)

const sentenceDelimiter = ". "

// Chunk is a contiguous slice of a transcript. Index is 1-based.
type Chunk struct {
	Index int
	Text  string
}

// Split cuts text into chunks of at most maxChars characters, breaking only
// after a sentence delimiter. Units keep their delimiter, so joining the chunk
// texts gives back text unchanged. A single unit longer than maxChars becomes
// a chunk of its own.
func Split(text string, maxChars int) []Chunk {
	if text == "" {
		return nil
	}
	if maxChars <= 0 {
		return []Chunk{{Index: 1, Text: text}}
	}

	var (
		chunks []Chunk
		cur    strings.Builder
		curLen int
	)
	flush := func() {
		if curLen == 0 {
			return
		}
		chunks = append(chunks, Chunk{Index: len(chunks) + 1, Text: cur.String()})
		cur.Reset()
		curLen = 0
	}
	for _, unit := range strings.SplitAfter(text, sentenceDelimiter) {
		if unit == "" {
			continue
		}
		n := charLen(unit)
		if curLen+n <= maxChars {
			cur.WriteString(unit)
			curLen += n
			continue
		}
		flush()
		if n > maxChars {
			chunks = append(chunks, Chunk{Index: len(chunks) + 1, Text: unit})
			continue
		}
		cur.WriteString(unit)
		curLen = n
	}
	flush()
	return chunks
}

func charLen(s string) int {
	return utf8.RuneCountInString(s)
}
