package server

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tubedigest/internal/config"
	"tubedigest/internal/ingest"
	"tubedigest/internal/logging"
	"tubedigest/internal/tubedb"
)

type stubInspector struct {
	rep ingest.InspectReport
	err error
}

func (s stubInspector) Inspect(context.Context, string) (ingest.InspectReport, error) {
	return s.rep, s.err
}

func newTestServer(t *testing.T, inspector Inspector) (*Server, *tubedb.DB) {
	t.Helper()
	db, err := tubedb.Open(tubedb.DriverSQLite, filepath.Join(t.TempDir(), "s.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()
	require.NoError(t, db.InitSchema(ctx))

	base := time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)
	for i, id := range []string{"aaaaaaaaaaa", "bbbbbbbbbbb", "ccccccccccc"} {
		key := "alpha"
		if i == 1 {
			key = "beta"
		}
		require.NoError(t, db.UpsertItem(ctx, tubedb.Item{
			VideoID:     id,
			ChannelKey:  key,
			ChannelName: key,
			Title:       "Video " + id,
			ProcessedAt: base.Add(time.Duration(i) * time.Hour),
			Transcript:  "transcript " + id,
			Summary:     "summary " + id,
		}))
	}
	require.NoError(t, db.UpsertDigest(ctx, tubedb.Digest{Date: "2026-10-17", Summary: "older", VideoCount: 1}))
	require.NoError(t, db.UpsertDigest(ctx, tubedb.Digest{Date: "2026-10-18", Summary: "newest", VideoCount: 3}))
	return New(db, inspector, logging.Discard()), db
}

func TestListVideos(t *testing.T) {
	s, _ := newTestServer(t, nil)
	ctx := context.Background()

	_, out, err := s.handleListVideos(ctx, nil, ListVideosInput{})
	require.NoError(t, err)
	require.Equal(t, 3, out.Count)
	assert.Equal(t, "ccccccccccc", out.Videos[0].VideoID)
	assert.Equal(t, "https://www.youtube.com/watch?v=ccccccccccc", out.Videos[0].URL)
	assert.Equal(t, "summary ccccccccccc", out.Videos[0].SummaryPreview)

	_, out, err = s.handleListVideos(ctx, nil, ListVideosInput{Channel: "Alpha", Limit: 1})
	require.NoError(t, err)
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "alpha", out.Videos[0].ChannelKey)
}

func TestGetVideo(t *testing.T) {
	s, _ := newTestServer(t, nil)
	ctx := context.Background()

	_, out, err := s.handleGetVideo(ctx, nil, GetVideoInput{ID: "https://youtu.be/bbbbbbbbbbb", IncludeTranscript: true})
	require.NoError(t, err)
	require.True(t, out.Found)
	assert.Equal(t, "summary bbbbbbbbbbb", out.Summary)
	assert.Equal(t, "transcript bbbbbbbbbbb", out.Transcript)

	_, out, err = s.handleGetVideo(ctx, nil, GetVideoInput{ID: "zzzzzzzzzzz"})
	require.NoError(t, err)
	assert.False(t, out.Found)

	_, _, err = s.handleGetVideo(ctx, nil, GetVideoInput{})
	assert.Error(t, err)
}

func TestGetDigest(t *testing.T) {
	s, _ := newTestServer(t, nil)
	ctx := context.Background()

	_, out, err := s.handleGetDigest(ctx, nil, GetDigestInput{})
	require.NoError(t, err)
	assert.True(t, out.Found)
	assert.Equal(t, "2026-10-18", out.Date)
	assert.Equal(t, 3, out.VideoCount)

	_, out, err = s.handleGetDigest(ctx, nil, GetDigestInput{Date: "2026-10-17"})
	require.NoError(t, err)
	assert.Equal(t, "older", out.Summary)

	_, out, err = s.handleGetDigest(ctx, nil, GetDigestInput{Date: "2026-01-01"})
	require.NoError(t, err)
	assert.False(t, out.Found)

	_, _, err = s.handleGetDigest(ctx, nil, GetDigestInput{Date: "yesterday"})
	assert.Error(t, err)
}

func TestInspectChannel(t *testing.T) {
	rep := ingest.InspectReport{
		Channel:  config.Channel{Key: "alpha", Name: "Alpha"},
		Since:    time.Date(2026, 10, 11, 9, 0, 0, 0, time.UTC),
		NewCount: 1,
		Videos: []ingest.InspectedVideo{
			{VideoID: "v1", Title: "one", URL: "u1", Processed: false},
			{VideoID: "v2", Title: "two", URL: "u2", Processed: true},
		},
	}
	s, _ := newTestServer(t, stubInspector{rep: rep})

	_, out, err := s.handleInspectChannel(context.Background(), nil, InspectChannelInput{Channel: "alpha"})
	require.NoError(t, err)
	assert.Equal(t, "2026-10-11T09:00:00Z", out.Since)
	require.Len(t, out.Videos, 2)
	assert.True(t, out.Videos[1].Processed)
	assert.Equal(t, "", out.Videos[0].PublishedAt)

	s, _ = newTestServer(t, stubInspector{err: config.ErrUnknownChannel})
	_, _, err = s.handleInspectChannel(context.Background(), nil, InspectChannelInput{Channel: "x"})
	assert.True(t, errors.Is(err, config.ErrUnknownChannel))
}
