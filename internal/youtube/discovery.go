package youtube

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"
)

// Video is one search hit from a discovery source.
type Video struct {
	ID          string
	ChannelID   string
	Title       string
	PublishedAt time.Time
}

// Discoverer lists videos a channel published after since, newest first, at most max.
type Discoverer interface {
	Recent(ctx context.Context, channelID string, since time.Time, max int) ([]Video, error)
}

// QuotaResetter is implemented by discoverers that stop calling out after a
// quota error. ResetQuota is called once at the start of every run.
type QuotaResetter interface {
	ResetQuota()
}

// APIDiscoverer queries the YouTube Data API search endpoint.
type APIDiscoverer struct {
	svc     *ytapi.Service
	limiter *RateLimiter
}

// NewAPIDiscoverer builds a Data API client. Extra options are appended after the key,
// which lets tests point the client at a local endpoint.
func NewAPIDiscoverer(ctx context.Context, apiKey string, limiter *RateLimiter, opts ...option.ClientOption) (*APIDiscoverer, error) {
	if apiKey == "" && len(opts) == 0 {
		return nil, fmt.Errorf("%w: missing YouTube API key", ErrUnauthorized)
	}
	all := make([]option.ClientOption, 0, len(opts)+1)
	if apiKey != "" {
		all = append(all, option.WithAPIKey(apiKey))
	}
	all = append(all, opts...)
	svc, err := ytapi.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return &APIDiscoverer{svc: svc, limiter: limiter}, nil
}

// ResetQuota forgets a quota error seen in an earlier run.
func (d *APIDiscoverer) ResetQuota() { d.limiter.Reset() }

func (d *APIDiscoverer) Recent(ctx context.Context, channelID string, since time.Time, max int) ([]Video, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := d.svc.Search.List([]string{"snippet"}).
		ChannelId(channelID).
		PublishedAfter(since.UTC().Format(time.RFC3339)).
		MaxResults(int64(max)).
		Order("date").
		Type("video").
		Context(ctx).
		Do()
	if err != nil {
		err = WrapAPIError(err)
		if errors.Is(err, ErrQuotaExceeded) {
			d.limiter.RecordQuotaError(0)
		}
		return nil, fmt.Errorf("search channel %s: %w", channelID, err)
	}

	out := make([]Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}
		published, _ := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
		out = append(out, Video{
			ID:          item.Id.VideoId,
			ChannelID:   channelID,
			Title:       html.UnescapeString(item.Snippet.Title),
			PublishedAt: published.UTC(),
		})
	}
	return out, nil
}
