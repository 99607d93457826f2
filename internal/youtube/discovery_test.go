package youtube

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func newTestAPIDiscoverer(t *testing.T, handler http.HandlerFunc) *APIDiscoverer {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	d, err := NewAPIDiscoverer(context.Background(), "", NewRateLimiter(100, 10),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return d
}

func TestAPIDiscovererSendsSearchParameters(t *testing.T) {
	since := time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)
	d := newTestAPIDiscoverer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/youtube/v3/search", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "UCxyz", q.Get("channelId"))
		assert.Equal(t, "2026-10-18T08:00:00Z", q.Get("publishedAfter"))
		assert.Equal(t, "5", q.Get("maxResults"))
		assert.Equal(t, "date", q.Get("order"))
		assert.Equal(t, "video", q.Get("type"))
		assert.Equal(t, "snippet", q.Get("part"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"items":[
			{"id":{"kind":"youtube#video","videoId":"vid00000002"},"snippet":{"title":"Bitcoin &amp; Ether","publishedAt":"2026-10-18T09:30:00Z"}},
			{"id":{"kind":"youtube#channel"},"snippet":{"title":"skip me","publishedAt":"2026-10-18T09:00:00Z"}},
			{"id":{"kind":"youtube#video","videoId":"vid00000001"},"snippet":{"title":"Morning","publishedAt":"2026-10-18T08:15:00Z"}}
		]}`)
	})

	videos, err := d.Recent(context.Background(), "UCxyz", since, 5)
	require.NoError(t, err)
	require.Len(t, videos, 2)
	assert.Equal(t, "vid00000002", videos[0].ID)
	assert.Equal(t, "Bitcoin & Ether", videos[0].Title)
	assert.Equal(t, time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC), videos[0].PublishedAt)
	assert.Equal(t, "UCxyz", videos[1].ChannelID)
}

func TestAPIDiscovererQuotaErrorBacksOff(t *testing.T) {
	var calls int32
	d := newTestAPIDiscoverer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"code":403,"message":"The request cannot be completed because you have exceeded your quota.","errors":[{"reason":"quotaExceeded","domain":"youtube.quota"}]}}`)
	})

	_, err := d.Recent(context.Background(), "UCxyz", time.Now(), 5)
	require.ErrorIs(t, err, ErrQuotaExceeded)

	_, err = d.Recent(context.Background(), "UCother", time.Now(), 5)
	require.ErrorIs(t, err, ErrQuotaExceeded)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls), "second call is refused locally")
}

func TestAPIDiscovererResetQuotaEndsHold(t *testing.T) {
	var calls int32
	d := newTestAPIDiscoverer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"error":{"code":403,"message":"quota","errors":[{"reason":"quotaExceeded","domain":"youtube.quota"}]}}`)
			return
		}
		fmt.Fprint(w, `{"items":[]}`)
	})

	_, err := d.Recent(context.Background(), "UCxyz", time.Now(), 5)
	require.ErrorIs(t, err, ErrQuotaExceeded)
	_, err = d.Recent(context.Background(), "UCxyz", time.Now(), 5)
	require.ErrorIs(t, err, ErrQuotaExceeded)

	d.ResetQuota()
	videos, err := d.Recent(context.Background(), "UCxyz", time.Now(), 5)
	require.NoError(t, err)
	assert.Empty(t, videos)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestRateLimiterReset(t *testing.T) {
	l := NewRateLimiter(100, 1)
	l.RecordQuotaError(0)
	assert.ErrorIs(t, l.Wait(context.Background()), ErrQuotaExceeded)
	l.Reset()
	assert.NoError(t, l.Wait(context.Background()))

	var nilLimiter *RateLimiter
	nilLimiter.Reset()
}

func TestAPIDiscovererRequiresKey(t *testing.T) {
	_, err := NewAPIDiscoverer(context.Background(), "", nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

const channelFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns="http://www.w3.org/2005/Atom">
 <title>Demo</title>
 <entry>
  <id>yt:video:old00000000</id>
  <yt:videoId>old00000000</yt:videoId>
  <title>Old</title>
  <link rel="alternate" href="https://www.youtube.com/watch?v=old00000000"/>
  <published>2026-10-10T08:00:00+00:00</published>
 </entry>
 <entry>
  <id>yt:video:new00000001</id>
  <yt:videoId>new00000001</yt:videoId>
  <title>First new</title>
  <link rel="alternate" href="https://www.youtube.com/watch?v=new00000001"/>
  <published>2026-10-18T08:30:00+00:00</published>
 </entry>
 <entry>
  <id>yt:video:new00000002</id>
  <yt:videoId>new00000002</yt:videoId>
  <title>Second new</title>
  <link rel="alternate" href="https://www.youtube.com/watch?v=new00000002"/>
  <published>2026-10-18T09:30:00+00:00</published>
 </entry>
</feed>`

func TestFeedDiscovererFiltersAndOrders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("channel_id") != "UCdemo" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/atom+xml")
		fmt.Fprint(w, channelFeed)
	}))
	defer srv.Close()

	d := NewFeedDiscoverer(srv.Client(), nil).WithURLFormat(srv.URL + "/feeds/videos.xml?channel_id=%s")
	since := time.Date(2026, 10, 18, 7, 0, 0, 0, time.UTC)

	videos, err := d.Recent(context.Background(), "UCdemo", since, 5)
	require.NoError(t, err)
	require.Len(t, videos, 2)
	assert.Equal(t, "new00000002", videos[0].ID)
	assert.Equal(t, "First new", videos[1].Title)

	capped, err := d.Recent(context.Background(), "UCdemo", since, 1)
	require.NoError(t, err)
	assert.Len(t, capped, 1)

	_, err = d.Recent(context.Background(), "UCmissing", since, 5)
	assert.ErrorIs(t, err, ErrChannelNotFound)
}

func TestExtractYouTubeID(t *testing.T) {
	assert.Equal(t, "dQw4w9WgXcQ", ExtractYouTubeID("https://www.youtube.com/watch?v=dQw4w9WgXcQ"))
	assert.Equal(t, "dQw4w9WgXcQ", ExtractYouTubeID("https://youtu.be/dQw4w9WgXcQ"))
	assert.Equal(t, "dQw4w9WgXcQ", ExtractYouTubeID("dQw4w9WgXcQ"))
	assert.Equal(t, "", ExtractYouTubeID("https://example.com/watch?v=x"))
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", WatchURL("abc"))
}
