package persist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tubedigest/internal/artifacts"
	"tubedigest/internal/tubedb"
)

// Store is the part of the primary database the sink writes to.
type Store interface {
	UpsertItem(ctx context.Context, it tubedb.Item) error
	SetArtifactIDs(ctx context.Context, videoID, transcriptFileID, summaryFileID string) error
	UpsertDigest(ctx context.Context, d tubedb.Digest) error
	GetDigest(ctx context.Context, date string) (*tubedb.Digest, error)
	SetDigestFileID(ctx context.Context, date, fileID string) error
}

// CommitResult reports what happened to the mirror copies. The primary row is
// always written when Commit returns a nil error.
type CommitResult struct {
	TranscriptFileID string
	SummaryFileID    string
	MirrorErr        error
}

// Sink writes processed items to the primary store and mirrors them.
type Sink struct {
	db     Store
	mirror artifacts.Store
	logger *slog.Logger
}

func NewSink(db Store, mirror artifacts.Store, logger *slog.Logger) *Sink {
	if mirror == nil {
		mirror = artifacts.Noop{}
	}
	return &Sink{db: db, mirror: mirror, logger: logger}
}

func (s *Sink) Commit(ctx context.Context, it tubedb.Item) (CommitResult, error) {
	var res CommitResult
	if err := s.db.UpsertItem(ctx, it); err != nil {
		return res, fmt.Errorf("store item %s: %w", it.VideoID, err)
	}
	if _, ok := s.mirror.(artifacts.Noop); ok {
		return res, nil
	}

	var errs []error
	var err error
	res.TranscriptFileID, err = s.mirror.Put(ctx, artifacts.KindTranscript,
		artifacts.ItemFileName(it.Title, it.VideoID, artifacts.KindTranscript), it.Transcript)
	if err != nil {
		errs = append(errs, fmt.Errorf("mirror transcript: %w", err))
	}
	res.SummaryFileID, err = s.mirror.Put(ctx, artifacts.KindSummary,
		artifacts.ItemFileName(it.Title, it.VideoID, artifacts.KindSummary), it.Summary)
	if err != nil {
		errs = append(errs, fmt.Errorf("mirror summary: %w", err))
	}
	if res.TranscriptFileID != "" || res.SummaryFileID != "" {
		if err := s.db.SetArtifactIDs(ctx, it.VideoID, res.TranscriptFileID, res.SummaryFileID); err != nil {
			errs = append(errs, fmt.Errorf("record artifact ids: %w", err))
		}
	}
	res.MirrorErr = errors.Join(errs...)
	if res.MirrorErr != nil {
		s.logger.Warn("mirror incomplete", "video_id", it.VideoID, "store", s.mirror.Name(), "error", res.MirrorErr)
	}
	return res, nil
}

// CommitDigest upserts the digest for its date and mirrors it. A date that was
// mirrored before keeps its file id, and the file is rewritten in place when
// the mirror supports it.
func (s *Sink) CommitDigest(ctx context.Context, d tubedb.Digest) (CommitResult, error) {
	var res CommitResult
	prev, err := s.db.GetDigest(ctx, d.Date)
	if err != nil {
		return res, fmt.Errorf("load digest %s: %w", d.Date, err)
	}
	if prev != nil && d.FileID == "" {
		d.FileID = prev.FileID
	}
	if err := s.db.UpsertDigest(ctx, d); err != nil {
		return res, fmt.Errorf("store digest %s: %w", d.Date, err)
	}
	if _, ok := s.mirror.(artifacts.Noop); ok {
		return res, nil
	}
	name := artifacts.DigestFileName(d.Date)
	var id string
	if r, ok := s.mirror.(artifacts.Replacer); ok && d.FileID != "" {
		id, err = r.Replace(ctx, artifacts.KindDigest, d.FileID, name, d.Summary)
	} else {
		id, err = s.mirror.Put(ctx, artifacts.KindDigest, name, d.Summary)
	}
	if err != nil {
		res.MirrorErr = fmt.Errorf("mirror digest: %w", err)
	} else if id != d.FileID {
		if err := s.db.SetDigestFileID(ctx, d.Date, id); err != nil {
			res.MirrorErr = fmt.Errorf("record digest file id: %w", err)
		}
	}
	res.SummaryFileID = id
	if res.MirrorErr != nil {
		s.logger.Warn("digest mirror incomplete", "date", d.Date, "store", s.mirror.Name(), "error", res.MirrorErr)
	}
	return res, nil
}
