package list

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tubedigest/internal/tubedb"
)

type stubStore struct {
	items   []tubedb.Item
	digests []tubedb.Digest
	err     error
	limit   int
}

func (s *stubStore) ListRecent(_ context.Context, limit int) ([]tubedb.Item, error) {
	s.limit = limit
	return s.items, s.err
}

func (s *stubStore) ListDigests(_ context.Context, limit int) ([]tubedb.Digest, error) {
	s.limit = limit
	return s.digests, s.err
}

func TestListVideosTable(t *testing.T) {
	store := &stubStore{items: []tubedb.Item{{
		VideoID:     "abc123",
		ChannelName: "Demo",
		Title:       "Marktupdate",
		ProcessedAt: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC),
		Summary:     "Zeile eins\nZeile zwei " + strings.Repeat("x", 300),
	}}}
	var buf bytes.Buffer
	require.NoError(t, Run(context.Background(), &buf, store, Options{Wide: true}))

	out := buf.String()
	assert.Equal(t, DefaultLimit, store.limit)
	assert.Contains(t, out, "Marktupdate")
	assert.Contains(t, out, "abc123")
	assert.Contains(t, out, "1 videos")
	assert.Contains(t, out, "Zeile eins Zeile zwei")
}

func TestListEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Run(context.Background(), &buf, &stubStore{}, Options{}))
	assert.Contains(t, buf.String(), "No videos processed yet.")

	buf.Reset()
	require.NoError(t, Run(context.Background(), &buf, &stubStore{}, Options{Digests: true, Limit: 7}))
	assert.Contains(t, buf.String(), "No daily digests yet.")
}

func TestListDigests(t *testing.T) {
	store := &stubStore{digests: []tubedb.Digest{{Date: "2026-10-18", VideoCount: 4, Summary: "Überblick"}}}
	var buf bytes.Buffer
	require.NoError(t, Run(context.Background(), &buf, store, Options{Digests: true, Limit: 3}))
	assert.Equal(t, 3, store.limit)
	assert.Contains(t, buf.String(), "2026-10-18")
	assert.Contains(t, buf.String(), "Überblick")
}

func TestListError(t *testing.T) {
	err := Run(context.Background(), &bytes.Buffer{}, &stubStore{err: errors.New("locked")}, Options{})
	assert.ErrorContains(t, err, "locked")
}
