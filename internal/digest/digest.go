// Package digest condenses one day's processed videos into a single summary.
package digest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tubedigest/internal/llm"
	"tubedigest/internal/persist"
	"tubedigest/internal/summarize"
	"tubedigest/internal/tubedb"
)

const DateLayout = "2006-01-02"

type Store interface {
	ItemsProcessedBetween(ctx context.Context, start, end time.Time) ([]tubedb.Item, error)
}

type Sink interface {
	CommitDigest(ctx context.Context, d tubedb.Digest) (persist.CommitResult, error)
}

type Notifier interface {
	NotifyDigest(ctx context.Context, count int, summary string)
}

// Result describes one RunFor call. Empty means no videos were processed that
// day and nothing was generated, stored or sent.
type Result struct {
	Date      string `json:"date"`
	Empty     bool   `json:"empty"`
	Count     int    `json:"count"`
	Summary   string `json:"summary,omitempty"`
	MirrorErr error  `json:"-"`
}

type Aggregator struct {
	store    Store
	gen      llm.Generator
	prompts  *summarize.Prompts
	sink     Sink
	notifier Notifier
	loc      *time.Location
	logger   *slog.Logger
}

// New builds an aggregator. Days are cut at midnight in loc (UTC when nil).
func New(store Store, gen llm.Generator, prompts *summarize.Prompts, sink Sink, notifier Notifier, loc *time.Location, logger *slog.Logger) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{store: store, gen: gen, prompts: prompts, sink: sink, notifier: notifier, loc: loc, logger: logger}
}

// ParseDate reads YYYY-MM-DD in loc. An empty string means today.
func ParseDate(s string, now time.Time, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if strings.TrimSpace(s) == "" {
		return now.In(loc), nil
	}
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return d, nil
}

// DayBounds returns [midnight, next midnight) of the day containing t in loc.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// BuildContent renders the reducer input: one block per item in the given order.
func BuildContent(items []tubedb.Item) string {
	var sb strings.Builder
	for _, it := range items {
		fmt.Fprintf(&sb, "\n**%s - %s**\n%s\n\n", it.ChannelName, it.Title, it.Summary)
	}
	return sb.String()
}

// RunFor builds, stores and announces the digest for the day containing date.
// Running it twice for the same day replaces the stored digest.
func (a *Aggregator) RunFor(ctx context.Context, date time.Time) (Result, error) {
	start, end := DayBounds(date, a.loc)
	res := Result{Date: start.Format(DateLayout)}
	logger := a.logger.With("date", res.Date)

	items, err := a.store.ItemsProcessedBetween(ctx, start, end)
	if err != nil {
		return res, fmt.Errorf("load items for %s: %w", res.Date, err)
	}
	res.Count = len(items)
	if len(items) == 0 {
		logger.Info("no videos processed, skipping digest")
		res.Empty = true
		return res, nil
	}

	prompt, err := a.prompts.Digest(res.Date, len(items), BuildContent(items))
	if err != nil {
		return res, fmt.Errorf("render digest prompt: %w", err)
	}
	summary, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		return res, fmt.Errorf("generate digest for %s: %w", res.Date, err)
	}
	res.Summary = summary

	cr, err := a.sink.CommitDigest(ctx, tubedb.Digest{Date: res.Date, Summary: summary, VideoCount: len(items)})
	if err != nil {
		return res, err
	}
	res.MirrorErr = cr.MirrorErr

	a.notifier.NotifyDigest(ctx, len(items), summary)
	logger.Info("digest created", "videos", len(items))
	return res, nil
}
