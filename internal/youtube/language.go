package youtube

import (
	"errors"
	"fmt"
	"strings"
)

// ResultKind tags the outcome of a transcript fetch.
type ResultKind int

const (
	Found ResultKind = iota + 1
	NotFound
	Transient
)

func (k ResultKind) String() string {
	switch k {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	case Transient:
		return "transient"
	default:
		return "unknown"
	}
}

// Result is what Fetch returns. Text and Language are set only for Found,
// Err only for NotFound and Transient.
type Result struct {
	Kind      ResultKind
	Text      string
	Language  string
	Generated bool
	Err       error
}

func foundResult(text string, t Track) Result {
	return Result{Kind: Found, Text: text, Language: t.LanguageCode, Generated: t.Generated}
}

func notFoundResult(err error) Result {
	return Result{Kind: NotFound, Err: err}
}

func transientResult(err error) Result {
	return Result{Kind: Transient, Err: err}
}

// Track is one caption track listed by the player.
type Track struct {
	BaseURL      string
	LanguageCode string
	Name         string
	Generated    bool
}

// tier picks a track from the list or reports ErrTranscriptNotFound.
type tier struct {
	name string
	pick func(tracks []Track) (Track, error)
}

// fallbackTiers builds the ordered selection policy: a track in each
// preferred language in turn, manual before generated, then a generated track
// in any of them.
func fallbackTiers(languages []string) []tier {
	tiers := make([]tier, 0, len(languages)+1)
	for _, lang := range languages {
		lang := lang
		tiers = append(tiers, tier{
			name: "language:" + lang,
			pick: func(tracks []Track) (Track, error) {
				if t, err := findTrack(tracks, []string{lang}, false); err == nil {
					return t, nil
				}
				return findTrack(tracks, []string{lang}, true)
			},
		})
	}
	tiers = append(tiers, tier{
		name: "generated:" + strings.Join(languages, ","),
		pick: func(tracks []Track) (Track, error) { return findTrack(tracks, languages, true) },
	})
	return tiers
}

func findTrack(tracks []Track, languages []string, generated bool) (Track, error) {
	for _, lang := range languages {
		for _, t := range tracks {
			if t.Generated == generated && strings.EqualFold(t.LanguageCode, lang) {
				return t, nil
			}
		}
	}
	return Track{}, ErrTranscriptNotFound
}

// SelectTrack walks the tiers in order. Only ErrTranscriptNotFound falls
// through to the next tier; any other error stops the walk.
func SelectTrack(tracks []Track, languages []string) (Track, error) {
	for _, t := range fallbackTiers(languages) {
		track, err := t.pick(tracks)
		if err == nil {
			return track, nil
		}
		if !errors.Is(err, ErrTranscriptNotFound) {
			return Track{}, fmt.Errorf("tier %s: %w", t.name, err)
		}
	}
	return Track{}, fmt.Errorf("%w (wanted %s, available %s)", ErrTranscriptNotFound,
		strings.Join(languages, ","), describeTracks(tracks))
}

func describeTracks(tracks []Track) string {
	if len(tracks) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(tracks))
	for _, t := range tracks {
		if t.Generated {
			parts = append(parts, t.LanguageCode+"(auto)")
		} else {
			parts = append(parts, t.LanguageCode)
		}
	}
	return strings.Join(parts, ",")
}
