package notifications

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tubedigest/internal/config"
	"tubedigest/internal/httpclient"
	"tubedigest/internal/logging"
)

func TestNewServiceReturnsNoopWhenUnconfigured(t *testing.T) {
	d := NewService(config.NotificationsConfig{}, httpclient.New(time.Second), logging.Discard())
	assert.Equal(t, "none", d.Backend())
	d.Notify(context.Background(), "t", "b")
	assert.ErrorIs(t, d.Test(context.Background()), ErrNotConfigured)
}

func TestWebhookPayload(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := NewService(config.NotificationsConfig{WebhookURL: srv.URL, NtfyTopic: "ignored"}, httpclient.Wrap(srv.Client()), logging.Discard())
	assert.Equal(t, "webhook", d.Backend())

	d.NotifyItem(context.Background(), "Demo Kanal", "Video Titel", strings.Repeat("s", 400))
	want := "**New video processed: Demo Kanal**\n**Video Titel**\n\n" + strings.Repeat("s", 300) + "..."
	assert.Equal(t, want, got["text"])
}

func TestDigestNotificationTruncates(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	d := NewService(config.NotificationsConfig{WebhookURL: srv.URL}, httpclient.Wrap(srv.Client()), logging.Discard())
	d.NotifyDigest(context.Background(), 3, strings.Repeat("ü", 800))
	assert.Equal(t, "**Daily summary - 3 videos**\n"+strings.Repeat("ü", 500), got["text"])
}

type ntfyRequest struct {
	path, title, tags, contentType, body string
}

func TestNtfyHeaders(t *testing.T) {
	var (
		mu   sync.Mutex
		reqs []ntfyRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		defer mu.Unlock()
		reqs = append(reqs, ntfyRequest{
			path:        r.URL.Path,
			title:       r.Header.Get("Title"),
			tags:        r.Header.Get("Tags"),
			contentType: r.Header.Get("Content-Type"),
			body:        string(b),
		})
	}))
	defer srv.Close()

	d := NewService(config.NotificationsConfig{NtfyURL: srv.URL + "/", NtfyTopic: "market"}, httpclient.Wrap(srv.Client()), logging.Discard())
	assert.Equal(t, "ntfy", d.Backend())
	d.NotifyDigest(context.Background(), 2, "digest body")
	require.NoError(t, d.Test(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, reqs, 2)
	assert.Equal(t, ntfyRequest{
		path:        "/market",
		title:       "Daily summary - 2 videos",
		tags:        "tubedigest,digest",
		contentType: "text/plain; charset=utf-8",
		body:        "digest body",
	}, reqs[0])
	assert.Equal(t, "/market", reqs[1].path)
	assert.Equal(t, "tubedigest", reqs[1].title)
	assert.Equal(t, "Test notification", reqs[1].body)
}

func TestFailuresAreSwallowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	d := NewService(config.NotificationsConfig{WebhookURL: srv.URL}, httpclient.Wrap(srv.Client()), logging.Discard())
	d.Notify(context.Background(), "t", "b")

	err := d.Test(context.Background())
	var se *httpclient.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.StatusCode)
}
