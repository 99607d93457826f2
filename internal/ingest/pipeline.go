package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tubedigest/internal/config"
	"tubedigest/internal/persist"
	"tubedigest/internal/tubedb"
	"tubedigest/internal/youtube"
)

// Outcome is what happened to one discovered video.
type Outcome string

const (
	OutcomeProcessed       Outcome = "processed"
	OutcomeSkippedExisting Outcome = "skipped_existing"
	OutcomeNoTranscript    Outcome = "no_transcript"
	OutcomeFailed          Outcome = "failed"
)

// DedupStore is the ledger of committed video ids.
type DedupStore interface {
	Exists(ctx context.Context, videoID string) (bool, error)
	MarkProcessed(ctx context.Context, videoID string) error
}

type Summarizer interface {
	Summarize(ctx context.Context, transcript string) string
}

type Committer interface {
	Commit(ctx context.Context, it tubedb.Item) (persist.CommitResult, error)
}

type Notifier interface {
	NotifyItem(ctx context.Context, channelName, videoTitle, summary string)
}

// Deps are the collaborators of a Pipeline.
type Deps struct {
	Config     config.AppConfig
	Poller     *Poller
	Store      DedupStore
	Fetcher    youtube.TranscriptFetcher
	Summarizer Summarizer
	Sink       Committer
	Notifier   Notifier
	Lock       *CycleLock
	Logger     *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Pipeline runs one discover, transcribe, summarize and commit pass.
// Scheduling is left to cron, launchd or systemd timers.
type Pipeline struct {
	Deps
}

func NewPipeline(d Deps) *Pipeline {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Lock == nil {
		d.Lock = NewCycleLock("")
	}
	return &Pipeline{Deps: d}
}

// ItemReport describes one discovered video.
type ItemReport struct {
	VideoID string  `json:"video_id"`
	Channel string  `json:"channel"`
	Title   string  `json:"title"`
	Outcome Outcome `json:"outcome"`
	Detail  string  `json:"detail,omitempty"`
}

// CycleReport summarises one RunPollCycle call.
type CycleReport struct {
	RunID         string       `json:"run_id"`
	StartedAt     time.Time    `json:"started_at"`
	OutsideWindow bool         `json:"outside_window"`
	Discovered    int          `json:"discovered"`
	Processed     int          `json:"processed"`
	Items         []ItemReport `json:"items"`
}

// ProcessedItems returns the reports for newly committed videos.
func (r CycleReport) ProcessedItems() []ItemReport {
	var out []ItemReport
	for _, it := range r.Items {
		if it.Outcome == OutcomeProcessed {
			out = append(out, it)
		}
	}
	return out
}

// RunPollCycle discovers recent uploads and processes each unseen video in
// order. Per-item failures are reported, not returned; the error is non-nil
// only when ctx ends the cycle early.
func (p *Pipeline) RunPollCycle(ctx context.Context) (CycleReport, error) {
	now := p.Now()
	report := CycleReport{RunID: uuid.NewString(), StartedAt: now}
	logger := p.Logger.With("run_id", report.RunID)
	p.Poller.BeginRun()

	if !p.Poller.InWindow(now) {
		report.OutsideWindow = true
	}
	found, err := p.Poller.Poll(ctx, now)
	report.Discovered = len(found)
	if err != nil {
		return report, err
	}
	logger.Info("poll cycle started", "discovered", len(found))

	for _, d := range found {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		item := p.processOne(ctx, logger.With("channel", d.Channel.Key, "video_id", d.Video.ID), d)
		if item.Outcome == OutcomeProcessed {
			report.Processed++
		}
		report.Items = append(report.Items, item)
	}
	logger.Info("poll cycle finished", "discovered", report.Discovered, "processed", report.Processed)
	return report, nil
}

func (p *Pipeline) processOne(ctx context.Context, logger *slog.Logger, d Discovered) ItemReport {
	rep := ItemReport{VideoID: d.Video.ID, Channel: d.Channel.Name, Title: d.Video.Title}
	fail := func(stage string, err error) ItemReport {
		logger.Warn("item failed", "stage", stage, "error", err)
		rep.Outcome = OutcomeFailed
		rep.Detail = fmt.Sprintf("%s: %v", stage, err)
		return rep
	}

	exists, err := p.lockedExists(ctx, d.Video.ID)
	if err != nil {
		return fail("dedup", err)
	}
	if exists {
		logger.Debug("already processed")
		rep.Outcome = OutcomeSkippedExisting
		return rep
	}

	res := p.Fetcher.Fetch(ctx, d.Video.ID)
	switch res.Kind {
	case youtube.NotFound:
		logger.Info("no transcript", "error", res.Err)
		rep.Outcome = OutcomeNoTranscript
		return rep
	case youtube.Transient:
		return fail("transcript", res.Err)
	}
	logger.Debug("transcript fetched", "language", res.Language, "generated", res.Generated, "chars", len(res.Text))

	summary := p.Summarizer.Summarize(ctx, res.Text)

	item := tubedb.Item{
		VideoID:     d.Video.ID,
		ChannelKey:  d.Channel.Key,
		ChannelName: d.Channel.Name,
		Title:       d.Video.Title,
		PublishedAt: d.Video.PublishedAt,
		ProcessedAt: p.Now(),
		Language:    res.Language,
		Transcript:  res.Text,
		Summary:     summary,
	}
	committed, err := p.commit(ctx, logger, item)
	if err != nil {
		return fail("commit", err)
	}
	if !committed {
		logger.Info("dropped concurrent duplicate")
		rep.Outcome = OutcomeSkippedExisting
		rep.Detail = "committed concurrently"
		return rep
	}

	p.Notifier.NotifyItem(ctx, d.Channel.Name, d.Video.Title, summary)
	logger.Info("video processed", "title", d.Video.Title)
	rep.Outcome = OutcomeProcessed
	return rep
}

func (p *Pipeline) lockedExists(ctx context.Context, id string) (bool, error) {
	if err := p.Lock.Lock(ctx); err != nil {
		return false, err
	}
	defer p.Lock.Unlock()
	return p.Store.Exists(ctx, id)
}

// commit re-checks the ledger under the lock, then writes and marks the
// item. It reports false when another runner committed the id in between.
func (p *Pipeline) commit(ctx context.Context, logger *slog.Logger, it tubedb.Item) (bool, error) {
	if err := p.Lock.Lock(ctx); err != nil {
		return false, err
	}
	defer func() {
		if err := p.Lock.Unlock(); err != nil {
			logger.Warn("unlock failed", "error", err)
		}
	}()

	exists, err := p.Store.Exists(ctx, it.VideoID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	res, err := p.Sink.Commit(ctx, it)
	if err != nil {
		return false, err
	}
	if res.MirrorErr != nil {
		logger.Warn("stored without complete mirror", "error", res.MirrorErr)
	}
	if err := p.Store.MarkProcessed(ctx, it.VideoID); err != nil {
		return false, fmt.Errorf("mark processed: %w", err)
	}
	return true, nil
}

// InspectedVideo is one video seen by Inspect.
type InspectedVideo struct {
	VideoID     string    `json:"video_id"`
	Title       string    `json:"title"`
	PublishedAt time.Time `json:"published_at"`
	URL         string    `json:"url"`
	Processed   bool      `json:"processed"`
}

type InspectReport struct {
	Channel  config.Channel   `json:"channel"`
	Since    time.Time        `json:"since"`
	Videos   []InspectedVideo `json:"videos"`
	NewCount int              `json:"new_count"`
}

// Inspect lists one channel's uploads over the inspection lookback with their
// dedup status. It ignores the polling window and processes nothing.
func (p *Pipeline) Inspect(ctx context.Context, channelKey string) (InspectReport, error) {
	ch, err := p.Config.Channel(channelKey)
	if err != nil {
		return InspectReport{}, err
	}
	p.Poller.BeginRun()
	now := p.Now()
	lookback := p.Config.InspectLookback()
	rep := InspectReport{Channel: ch, Since: now.Add(-lookback).UTC()}

	found, err := p.Poller.PollChannel(ctx, ch, now, lookback)
	if err != nil {
		return rep, fmt.Errorf("discover %s: %w", ch.Key, err)
	}
	for _, d := range found {
		exists, err := p.Store.Exists(ctx, d.Video.ID)
		if err != nil {
			return rep, fmt.Errorf("check %s: %w", d.Video.ID, err)
		}
		if !exists {
			rep.NewCount++
		}
		rep.Videos = append(rep.Videos, InspectedVideo{
			VideoID:     d.Video.ID,
			Title:       d.Video.Title,
			PublishedAt: d.Video.PublishedAt,
			URL:         youtube.WatchURL(d.Video.ID),
			Processed:   exists,
		})
	}
	return rep, nil
}

// IsCanceled reports whether err only says the cycle was interrupted.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
