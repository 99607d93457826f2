// Package notifications delivers short messages about processed videos and
// daily digests to a chat webhook or an ntfy topic.
package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"tubedigest/internal/config"
	"tubedigest/internal/httpclient"
)

const (
	itemPreviewChars   = 300
	digestPreviewChars = 500
)

var ErrNotConfigured = errors.New("notifications: no backend configured")

// Message is one notification.
type Message struct {
	Title    string
	Body     string
	Tags     []string
	Priority string
}

// Sender delivers a message to one backend.
type Sender interface {
	Send(ctx context.Context, msg Message) error
	Name() string
}

// Dispatcher sends through its backend and logs failures. Delivery is
// fire-and-forget: callers never see an error.
type Dispatcher struct {
	sender Sender
	logger *slog.Logger
}

// NewService picks the backend from config: webhook first, then ntfy, else noop.
func NewService(cfg config.NotificationsConfig, client *httpclient.Client, logger *slog.Logger) *Dispatcher {
	return NewDispatcher(newSender(cfg, client), logger)
}

func NewDispatcher(sender Sender, logger *slog.Logger) *Dispatcher {
	if sender == nil {
		sender = noopSender{}
	}
	return &Dispatcher{sender: sender, logger: logger}
}

func newSender(cfg config.NotificationsConfig, client *httpclient.Client) Sender {
	if u := strings.TrimSpace(cfg.WebhookURL); u != "" {
		return &webhookSender{url: u, client: client}
	}
	if topic := strings.TrimSpace(cfg.NtfyTopic); topic != "" {
		base := strings.TrimRight(strings.TrimSpace(cfg.NtfyURL), "/")
		if base == "" {
			base = "https://ntfy.sh"
		}
		return &ntfySender{endpoint: base + "/" + topic, client: client}
	}
	return noopSender{}
}

// Backend names the active sender, "none" when unconfigured.
func (d *Dispatcher) Backend() string { return d.sender.Name() }

func (d *Dispatcher) Notify(ctx context.Context, title, body string) {
	d.send(ctx, Message{Title: title, Body: body})
}

// NotifyItem announces one processed video.
func (d *Dispatcher) NotifyItem(ctx context.Context, channelName, videoTitle, summary string) {
	d.send(ctx, Message{
		Title: "New video processed: " + channelName,
		Body:  fmt.Sprintf("**%s**\n\n%s...", videoTitle, truncate(summary, itemPreviewChars)),
		Tags:  []string{"tubedigest", "video"},
	})
}

// NotifyDigest announces the daily digest.
func (d *Dispatcher) NotifyDigest(ctx context.Context, count int, summary string) {
	d.send(ctx, Message{
		Title: fmt.Sprintf("Daily summary - %d videos", count),
		Body:  truncate(summary, digestPreviewChars),
		Tags:  []string{"tubedigest", "digest"},
	})
}

// Test sends a test message and, unlike the other methods, reports the error.
func (d *Dispatcher) Test(ctx context.Context) error {
	if _, ok := d.sender.(noopSender); ok {
		return ErrNotConfigured
	}
	return d.sender.Send(ctx, Message{Title: "tubedigest", Body: "Test notification"})
}

func (d *Dispatcher) send(ctx context.Context, msg Message) {
	if err := d.sender.Send(ctx, msg); err != nil {
		d.logger.Warn("notification failed", "backend", d.sender.Name(), "title", msg.Title, "error", err)
		return
	}
	if _, ok := d.sender.(noopSender); !ok {
		d.logger.Debug("notification sent", "backend", d.sender.Name(), "title", msg.Title)
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

type webhookSender struct {
	url    string
	client *httpclient.Client
}

func (w *webhookSender) Name() string { return "webhook" }

// Send posts {"text": "**title**\nbody"}, which Slack, Discord and Mattermost accept.
func (w *webhookSender) Send(ctx context.Context, msg Message) error {
	b, err := json.Marshal(map[string]string{"text": fmt.Sprintf("**%s**\n%s", msg.Title, msg.Body)})
	if err != nil {
		return err
	}
	resp, err := w.client.Post(ctx, w.url, bytes.NewReader(b), nil)
	if err != nil {
		return fmt.Errorf("send webhook notification: %w", err)
	}
	defer resp.Body.Close()
	if err := httpclient.CheckStatus(resp); err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type ntfySender struct {
	endpoint string
	client   *httpclient.Client
}

func (n *ntfySender) Name() string { return "ntfy" }

func (n *ntfySender) Send(ctx context.Context, msg Message) error {
	headers := map[string]string{"Content-Type": "text/plain; charset=utf-8"}
	if msg.Title != "" {
		headers["Title"] = msg.Title
	}
	if len(msg.Tags) > 0 {
		headers["Tags"] = strings.Join(msg.Tags, ",")
	}
	if msg.Priority != "" && msg.Priority != "default" {
		headers["Priority"] = msg.Priority
	}
	resp, err := n.client.Post(ctx, n.endpoint, strings.NewReader(msg.Body), headers)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()
	if err := httpclient.CheckStatus(resp); err != nil {
		return fmt.Errorf("ntfy: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopSender struct{}

func (noopSender) Send(context.Context, Message) error { return nil }
func (noopSender) Name() string                        { return "none" }
