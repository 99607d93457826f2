package ingest

import (
	"context"
	"log/slog"
	"time"

	"tubedigest/internal/config"
	"tubedigest/internal/youtube"
)

// Discovered is a video found on a configured channel.
type Discovered struct {
	Channel config.Channel
	Video   youtube.Video
}

// Poller asks the discovery source for recent uploads on each channel.
type Poller struct {
	disc       youtube.Discoverer
	cfg        config.AppConfig
	maxResults int
	logger     *slog.Logger
}

func NewPoller(cfg config.AppConfig, disc youtube.Discoverer, logger *slog.Logger) *Poller {
	max := cfg.YouTube.MaxResults
	if max <= 0 {
		max = 5
	}
	return &Poller{disc: disc, cfg: cfg, maxResults: max, logger: logger}
}

// BeginRun clears quota state left over from an earlier run, so a quota
// error only short-circuits the run that saw it.
func (p *Poller) BeginRun() {
	if r, ok := p.disc.(youtube.QuotaResetter); ok {
		r.ResetQuota()
	}
}

// InWindow reports whether routine polling may run at now. Both bounds are
// inclusive and compared against the UTC hour.
func (p *Poller) InWindow(now time.Time) bool {
	h := now.UTC().Hour()
	return h >= p.cfg.Schedule.StartHour && h <= p.cfg.Schedule.EndHour
}

// Poll discovers uploads on every configured channel within the routine
// lookback. Outside the polling window it returns nothing without calling
// the discovery source. A failing channel is logged and skipped.
func (p *Poller) Poll(ctx context.Context, now time.Time) ([]Discovered, error) {
	if !p.InWindow(now) {
		p.logger.Info("outside polling window, skipping discovery",
			"hour_utc", now.UTC().Hour(), "start_hour", p.cfg.Schedule.StartHour, "end_hour", p.cfg.Schedule.EndHour)
		return nil, nil
	}
	var out []Discovered
	for _, ch := range p.cfg.Channels {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		found, err := p.PollChannel(ctx, ch, now, p.cfg.Lookback())
		if err != nil {
			p.logger.Warn("discovery failed", "channel", ch.Key, "error", err)
			continue
		}
		out = append(out, found...)
	}
	return out, nil
}

// PollChannel discovers uploads on one channel published after now-lookback.
func (p *Poller) PollChannel(ctx context.Context, ch config.Channel, now time.Time, lookback time.Duration) ([]Discovered, error) {
	since := now.Add(-lookback)
	videos, err := p.disc.Recent(ctx, ch.ChannelID, since, p.maxResults)
	if err != nil {
		return nil, err
	}
	out := make([]Discovered, 0, len(videos))
	for _, v := range videos {
		out = append(out, Discovered{Channel: ch, Video: v})
	}
	p.logger.Debug("channel polled", "channel", ch.Key, "since", since.UTC().Format(time.RFC3339), "found", len(out))
	return out, nil
}
