package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tubedigest/internal/app"
	"tubedigest/internal/config"
	"tubedigest/internal/ingest"
)

func TestPrintCycle(t *testing.T) {
	var buf bytes.Buffer
	printCycle(&buf, ingest.CycleReport{OutsideWindow: true, StartedAt: time.Date(2026, 10, 18, 23, 5, 0, 0, time.UTC)})
	assert.Contains(t, buf.String(), "Outside polling window (23:05 UTC)")

	buf.Reset()
	printCycle(&buf, ingest.CycleReport{
		Discovered: 2,
		Processed:  1,
		Items: []ingest.ItemReport{
			{VideoID: "vid00000001", Channel: "Demo", Title: "Morning", Outcome: ingest.OutcomeProcessed},
			{VideoID: "vid00000002", Channel: "Demo", Title: "Noon", Outcome: ingest.OutcomeNoTranscript},
		},
	})
	out := buf.String()
	assert.Contains(t, out, "vid00000001")
	assert.Contains(t, out, "no_transcript")
	assert.Contains(t, out, "1/2 processed")
}

func TestPrintInspect(t *testing.T) {
	var buf bytes.Buffer
	printInspect(&buf, ingest.InspectReport{
		Channel:  config.Channel{Key: "demo", ChannelID: "UCdemo", Name: "Demo"},
		Since:    time.Date(2026, 10, 11, 9, 0, 0, 0, time.UTC),
		NewCount: 1,
		Videos: []ingest.InspectedVideo{
			{VideoID: "a", Title: "Done", PublishedAt: time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC), Processed: true},
			{VideoID: "b", Title: "Fresh", PublishedAt: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)},
		},
	})
	out := buf.String()
	assert.Contains(t, out, "Demo (UCdemo) since 2026-10-11 09:00 UTC")
	assert.Contains(t, out, "Fresh")
	assert.Contains(t, out, "1 new")
}

func TestPrintCheck(t *testing.T) {
	var buf bytes.Buffer
	printCheck(&buf, app.CheckReport{
		Database:     "ok",
		Discovery:    "ok",
		Integrations: map[string]bool{"drive": false, "notifications": true},
		Healthy:      true,
	})
	out := buf.String()
	assert.Contains(t, out, "not configured")
	assert.Contains(t, out, "healthy")
}

func TestChannelKeys(t *testing.T) {
	cfg := config.AppConfig{Channels: []config.Channel{{Key: "a"}, {Key: "b"}}}
	assert.Equal(t, "a, b", channelKeys(cfg))
}
