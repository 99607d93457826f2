// Package server exposes the processed videos and digests over MCP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"tubedigest/internal/ingest"
	"tubedigest/internal/tubedb"
	"tubedigest/internal/version"
	"tubedigest/internal/youtube"
)

const (
	defaultListLimit = 50
	previewChars     = 200
)

// Store is the read side of the database.
type Store interface {
	ListRecent(ctx context.Context, limit int) ([]tubedb.Item, error)
	GetItem(ctx context.Context, videoID string) (*tubedb.Item, error)
	GetDigest(ctx context.Context, date string) (*tubedb.Digest, error)
	ListDigests(ctx context.Context, limit int) ([]tubedb.Digest, error)
}

type Inspector interface {
	Inspect(ctx context.Context, channelKey string) (ingest.InspectReport, error)
}

type Server struct {
	store     Store
	inspector Inspector
	logger    *slog.Logger
	server    *mcp.Server
}

// New registers the tools. inspector may be nil, which disables inspect_channel.
func New(store Store, inspector Inspector, logger *slog.Logger) *Server {
	s := &Server{
		store:     store,
		inspector: inspector,
		logger:    logger,
		server:    mcp.NewServer(&mcp.Implementation{Name: "tubedigest", Version: version.Version}, nil),
	}
	mcp.AddTool(s.server, &mcp.Tool{Name: "list_videos", Description: "List recently processed YouTube videos with summary previews"}, s.handleListVideos)
	mcp.AddTool(s.server, &mcp.Tool{Name: "get_video", Description: "Get the transcript and summary of one processed video by id or URL"}, s.handleGetVideo)
	mcp.AddTool(s.server, &mcp.Tool{Name: "get_digest", Description: "Get the daily digest for a date (YYYY-MM-DD), or the latest one"}, s.handleGetDigest)
	if inspector != nil {
		mcp.AddTool(s.server, &mcp.Tool{Name: "inspect_channel", Description: "List a channel's uploads from the last week and whether each was processed"}, s.handleInspectChannel)
	}
	return s
}

// Run serves over stdio until ctx ends.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Handler serves the streamable HTTP transport.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.server }, nil)
}

// ServeHTTP listens on addr until ctx ends.
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	s.logger.Info("mcp server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type ListVideosInput struct {
	Limit   int    `json:"limit,omitempty" jsonschema:"maximum number of videos (default 50)"`
	Channel string `json:"channel,omitempty" jsonschema:"only videos from this channel key"`
}

type VideoSummary struct {
	VideoID        string `json:"video_id"`
	Channel        string `json:"channel"`
	ChannelKey     string `json:"channel_key"`
	Title          string `json:"title"`
	URL            string `json:"url"`
	PublishedAt    string `json:"published_at"`
	ProcessedAt    string `json:"processed_at"`
	SummaryPreview string `json:"summary_preview"`
}

type ListVideosOutput struct {
	Count  int            `json:"count"`
	Videos []VideoSummary `json:"videos"`
}

func (s *Server) handleListVideos(ctx context.Context, _ *mcp.CallToolRequest, in ListVideosInput) (*mcp.CallToolResult, ListVideosOutput, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	channel := strings.ToLower(strings.TrimSpace(in.Channel))
	fetch := limit
	if channel != "" {
		fetch = 0
	}
	items, err := s.store.ListRecent(ctx, fetch)
	if err != nil {
		return nil, ListVideosOutput{}, fmt.Errorf("list videos: %w", err)
	}
	out := ListVideosOutput{Videos: []VideoSummary{}}
	for _, it := range items {
		if channel != "" && it.ChannelKey != channel {
			continue
		}
		out.Videos = append(out.Videos, summarizeItem(it))
		if len(out.Videos) == limit {
			break
		}
	}
	out.Count = len(out.Videos)
	return nil, out, nil
}

func summarizeItem(it tubedb.Item) VideoSummary {
	return VideoSummary{
		VideoID:        it.VideoID,
		Channel:        it.ChannelName,
		ChannelKey:     it.ChannelKey,
		Title:          it.Title,
		URL:            youtube.WatchURL(it.VideoID),
		PublishedAt:    formatTime(it.PublishedAt),
		ProcessedAt:    formatTime(it.ProcessedAt),
		SummaryPreview: tubedb.Preview(it.Summary, previewChars),
	}
}

type GetVideoInput struct {
	ID                string `json:"id" jsonschema:"video id or YouTube URL"`
	IncludeTranscript bool   `json:"include_transcript,omitempty" jsonschema:"include the full transcript"`
}

type GetVideoOutput struct {
	Found      bool          `json:"found"`
	Video      *VideoSummary `json:"video,omitempty"`
	Language   string        `json:"language,omitempty"`
	Summary    string        `json:"summary,omitempty"`
	Transcript string        `json:"transcript,omitempty"`
}

func (s *Server) handleGetVideo(ctx context.Context, _ *mcp.CallToolRequest, in GetVideoInput) (*mcp.CallToolResult, GetVideoOutput, error) {
	id := youtube.ExtractYouTubeID(strings.TrimSpace(in.ID))
	if id == "" {
		id = strings.TrimSpace(in.ID)
	}
	if id == "" {
		return nil, GetVideoOutput{}, errors.New("id is required")
	}
	it, err := s.store.GetItem(ctx, id)
	if err != nil {
		return nil, GetVideoOutput{}, fmt.Errorf("get video %s: %w", id, err)
	}
	if it == nil {
		return nil, GetVideoOutput{Found: false}, nil
	}
	sum := summarizeItem(*it)
	out := GetVideoOutput{Found: true, Video: &sum, Language: it.Language, Summary: it.Summary}
	if in.IncludeTranscript {
		out.Transcript = it.Transcript
	}
	return nil, out, nil
}

type GetDigestInput struct {
	Date string `json:"date,omitempty" jsonschema:"day in YYYY-MM-DD; latest digest when empty"`
}

type GetDigestOutput struct {
	Found      bool   `json:"found"`
	Date       string `json:"date,omitempty"`
	VideoCount int    `json:"video_count,omitempty"`
	Summary    string `json:"summary,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

func (s *Server) handleGetDigest(ctx context.Context, _ *mcp.CallToolRequest, in GetDigestInput) (*mcp.CallToolResult, GetDigestOutput, error) {
	var d *tubedb.Digest
	date := strings.TrimSpace(in.Date)
	if date == "" {
		ds, err := s.store.ListDigests(ctx, 1)
		if err != nil {
			return nil, GetDigestOutput{}, fmt.Errorf("list digests: %w", err)
		}
		if len(ds) > 0 {
			d = &ds[0]
		}
	} else {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return nil, GetDigestOutput{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", date)
		}
		var err error
		if d, err = s.store.GetDigest(ctx, date); err != nil {
			return nil, GetDigestOutput{}, fmt.Errorf("get digest %s: %w", date, err)
		}
	}
	if d == nil {
		return nil, GetDigestOutput{Found: false, Date: date}, nil
	}
	return nil, GetDigestOutput{
		Found:      true,
		Date:       d.Date,
		VideoCount: d.VideoCount,
		Summary:    d.Summary,
		CreatedAt:  formatTime(d.CreatedAt),
	}, nil
}

type InspectChannelInput struct {
	Channel string `json:"channel" jsonschema:"configured channel key"`
}

type InspectedVideo struct {
	VideoID     string `json:"video_id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	PublishedAt string `json:"published_at"`
	Processed   bool   `json:"processed"`
}

type InspectChannelOutput struct {
	Channel  string           `json:"channel"`
	Name     string           `json:"name"`
	Since    string           `json:"since"`
	NewCount int              `json:"new_count"`
	Videos   []InspectedVideo `json:"videos"`
}

func (s *Server) handleInspectChannel(ctx context.Context, _ *mcp.CallToolRequest, in InspectChannelInput) (*mcp.CallToolResult, InspectChannelOutput, error) {
	rep, err := s.inspector.Inspect(ctx, in.Channel)
	if err != nil {
		return nil, InspectChannelOutput{}, err
	}
	out := InspectChannelOutput{
		Channel:  rep.Channel.Key,
		Name:     rep.Channel.Name,
		Since:    formatTime(rep.Since),
		NewCount: rep.NewCount,
		Videos:   []InspectedVideo{},
	}
	for _, v := range rep.Videos {
		out.Videos = append(out.Videos, InspectedVideo{
			VideoID:     v.VideoID,
			Title:       v.Title,
			URL:         v.URL,
			PublishedAt: formatTime(v.PublishedAt),
			Processed:   v.Processed,
		})
	}
	return nil, out, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
