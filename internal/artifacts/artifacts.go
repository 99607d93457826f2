package artifacts

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Kind groups artifacts into folders.
type Kind string

const (
	KindTranscript Kind = "transcript"
	KindSummary    Kind = "summary"
	KindDigest     Kind = "digest"
)

// MaxTitleChars caps the title part of a file name.
const MaxTitleChars = 100

// Store is the secondary, best-effort copy of transcripts, summaries and digests.
type Store interface {
	// Put saves content under name in the folder for kind and returns the store's id for it.
	Put(ctx context.Context, kind Kind, name, content string) (string, error)
	Name() string
}

// Replacer is implemented by stores whose ids outlive a name, so a file can be
// rewritten in place instead of uploaded again.
type Replacer interface {
	Replace(ctx context.Context, kind Kind, id, name, content string) (string, error)
}

// Noop is used when no mirror is configured.
type Noop struct{}

func (Noop) Put(context.Context, Kind, string, string) (string, error) { return "", nil }

func (Noop) Name() string { return "none" }

var invalidFileChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// SafeTitle strips characters that are invalid in file names, collapses
// whitespace and caps the result at max characters.
func SafeTitle(title string, max int) string {
	s := invalidFileChars.ReplaceAllString(title, "")
	s = strings.Join(strings.Fields(s), " ")
	if max > 0 && utf8.RuneCountInString(s) > max {
		s = string([]rune(s)[:max])
	}
	s = strings.Trim(s, " .")
	if s == "" {
		return "untitled"
	}
	return s
}

// ItemFileName names a per-video artifact, e.g. "Title [abc123] summary.txt".
func ItemFileName(title, videoID string, kind Kind) string {
	return fmt.Sprintf("%s [%s] %s.txt", SafeTitle(title, MaxTitleChars), videoID, kind)
}

// DigestFileName names the artifact for one day's digest.
func DigestFileName(date string) string {
	return fmt.Sprintf("Daily summary %s.txt", date)
}
