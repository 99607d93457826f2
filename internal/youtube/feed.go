package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const defaultFeedURL = "https://www.youtube.com/feeds/videos.xml?channel_id=%s"

// FeedDiscoverer reads the public channel Atom feed. It needs no API key and
// costs no quota, but only ever sees the latest ~15 uploads.
type FeedDiscoverer struct {
	parser  *gofeed.Parser
	urlFmt  string
	limiter *RateLimiter
}

func NewFeedDiscoverer(client *http.Client, limiter *RateLimiter) *FeedDiscoverer {
	fp := gofeed.NewParser()
	if client != nil {
		fp.Client = client
	}
	fp.UserAgent = userAgent
	return &FeedDiscoverer{parser: fp, urlFmt: defaultFeedURL, limiter: limiter}
}

// WithURLFormat overrides the feed URL; the format receives the channel id.
func (d *FeedDiscoverer) WithURLFormat(f string) *FeedDiscoverer {
	d.urlFmt = f
	return d
}

// ResetQuota forgets a quota error seen in an earlier run.
func (d *FeedDiscoverer) ResetQuota() { d.limiter.Reset() }

func (d *FeedDiscoverer) Recent(ctx context.Context, channelID string, since time.Time, max int) ([]Video, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	feed, err := d.parser.ParseURLWithContext(fmt.Sprintf(d.urlFmt, channelID), ctx)
	if err != nil {
		var herr gofeed.HTTPError
		if errors.As(err, &herr) {
			switch herr.StatusCode {
			case http.StatusNotFound:
				return nil, fmt.Errorf("feed for %s: %w", channelID, ErrChannelNotFound)
			case http.StatusTooManyRequests:
				return nil, fmt.Errorf("feed for %s: %w", channelID, ErrQuotaExceeded)
			}
		}
		return nil, fmt.Errorf("feed for %s: %w", channelID, err)
	}

	var out []Video
	for _, item := range feed.Items {
		if item == nil || item.PublishedParsed == nil {
			continue
		}
		published := item.PublishedParsed.UTC()
		if !published.After(since) {
			continue
		}
		id := feedVideoID(item)
		if id == "" {
			continue
		}
		out = append(out, Video{ID: id, ChannelID: channelID, Title: strings.TrimSpace(item.Title), PublishedAt: published})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PublishedAt.After(out[j].PublishedAt) })
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out, nil
}

func feedVideoID(item *gofeed.Item) string {
	if yt, ok := item.Extensions["yt"]; ok {
		if ids := yt["videoId"]; len(ids) > 0 && ids[0].Value != "" {
			return ids[0].Value
		}
	}
	if strings.HasPrefix(item.GUID, "yt:video:") {
		return strings.TrimPrefix(item.GUID, "yt:video:")
	}
	return ExtractYouTubeID(item.Link)
}
