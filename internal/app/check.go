package app

import (
	"context"
	"errors"
	"time"

	"tubedigest/internal/youtube"
)

// CheckReport is the outcome of a health check.
type CheckReport struct {
	Database      string          `json:"database"`
	Discovery     string          `json:"discovery"`
	SampleChannel string          `json:"sample_channel,omitempty"`
	RecentVideos  int             `json:"recent_videos"`
	Integrations  map[string]bool `json:"integrations"`
	Healthy       bool            `json:"healthy"`
}

// Check pings the database and asks discovery for the first channel's uploads
// over the last day. It never processes anything.
func (a *App) Check(ctx context.Context) CheckReport {
	cfg := a.Config
	rep := CheckReport{
		Database:  "ok",
		Discovery: "ok",
		Integrations: map[string]bool{
			"youtube_api_key": cfg.YouTube.APIKey != "",
			"ai_api_key":      cfg.AI.APIKey != "",
			"webhook":         cfg.Notifications.WebhookURL != "",
			"ntfy":            cfg.Notifications.NtfyTopic != "",
			"drive":           cfg.Drive.Enabled,
		},
		Healthy: true,
	}
	if err := a.DB.Ping(ctx); err != nil {
		rep.Database = err.Error()
		rep.Healthy = false
	}
	if len(cfg.Channels) == 0 {
		rep.Discovery = "no channels configured"
		rep.Healthy = false
		return rep
	}
	ch := cfg.Channels[0]
	rep.SampleChannel = ch.Key
	videos, err := a.Discoverer.Recent(ctx, ch.ChannelID, time.Now().Add(-24*time.Hour), cfg.YouTube.MaxResults)
	if err != nil {
		rep.Discovery = err.Error()
		if errors.Is(err, youtube.ErrQuotaExceeded) {
			rep.Discovery = "quota exceeded"
		}
		rep.Healthy = false
		return rep
	}
	rep.RecentVideos = len(videos)
	return rep
}
