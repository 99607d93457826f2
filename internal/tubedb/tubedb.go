package tubedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Timestamps are stored as fixed-width UTC text so ordering and range
// comparisons behave the same on both drivers.
const tsLayout = "2006-01-02T15:04:05.000000Z"

// DB is the primary store: processed videos, the dedup ledger and daily digests.
type DB struct {
	sql    *sql.DB
	driver string
}

// Item is one processed video.
type Item struct {
	VideoID          string
	ChannelKey       string
	ChannelName      string
	Title            string
	PublishedAt      time.Time
	ProcessedAt      time.Time
	Language         string
	Transcript       string
	Summary          string
	TranscriptFileID string
	SummaryFileID    string
}

// Digest is the summary of one calendar day.
type Digest struct {
	Date       string // YYYY-MM-DD
	Summary    string
	VideoCount int
	FileID     string
	CreatedAt  time.Time
}

// Open connects to the store. For sqlite target is a file path, for postgres a DSN.
func Open(driver, target string) (*DB, error) {
	switch driver {
	case DriverSQLite, "":
		dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", target)
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		return &DB{sql: db, driver: DriverSQLite}, nil
	case DriverPostgres:
		db, err := sql.Open("pgx", target)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(4)
		return &DB{sql: db, driver: DriverPostgres}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func (db *DB) Close() error { return db.sql.Close() }

func (db *DB) Driver() string { return db.driver }

func (db *DB) Ping(ctx context.Context) error {
	var one int
	return db.sql.QueryRowContext(ctx, `SELECT 1`).Scan(&one)
}

// rebind rewrites ? placeholders to $n for postgres.
func (db *DB) rebind(q string) string {
	if db.driver != DriverPostgres {
		return q
	}
	var sb strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (db *DB) exec(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return db.sql.ExecContext(ctx, db.rebind(q), args...)
}

func (db *DB) query(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	return db.sql.QueryContext(ctx, db.rebind(q), args...)
}

func (db *DB) queryRow(ctx context.Context, q string, args ...any) *sql.Row {
	return db.sql.QueryRowContext(ctx, db.rebind(q), args...)
}

// Exists reports whether videoID has already been committed.
func (db *DB) Exists(ctx context.Context, videoID string) (bool, error) {
	var one int
	err := db.queryRow(ctx, `SELECT 1 FROM processed_items WHERE video_id = ?`, videoID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// MarkProcessed records videoID in the dedup ledger. Repeated calls keep the first timestamp.
func (db *DB) MarkProcessed(ctx context.Context, videoID string) error {
	if strings.TrimSpace(videoID) == "" {
		return errors.New("missing video id")
	}
	_, err := db.exec(ctx, `INSERT INTO processed_items (video_id, processed_at) VALUES (?, ?)
        ON CONFLICT(video_id) DO NOTHING`, videoID, formatTS(time.Now()))
	return err
}

// UpsertItem writes the item, replacing any prior row with the same video id.
func (db *DB) UpsertItem(ctx context.Context, it Item) error {
	if strings.TrimSpace(it.VideoID) == "" {
		return errors.New("missing video id")
	}
	if it.ProcessedAt.IsZero() {
		it.ProcessedAt = time.Now()
	}
	_, err := db.exec(ctx, `INSERT INTO videos
        (video_id, channel_key, channel_name, title, published_at, processed_at, language, transcript, summary, transcript_file_id, summary_file_id)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(video_id) DO UPDATE SET
           channel_key=excluded.channel_key,
           channel_name=excluded.channel_name,
           title=excluded.title,
           published_at=excluded.published_at,
           processed_at=excluded.processed_at,
           language=excluded.language,
           transcript=excluded.transcript,
           summary=excluded.summary,
           transcript_file_id=excluded.transcript_file_id,
           summary_file_id=excluded.summary_file_id
        `,
		it.VideoID, it.ChannelKey, it.ChannelName, it.Title, formatTS(it.PublishedAt), formatTS(it.ProcessedAt),
		it.Language, it.Transcript, it.Summary, nullIfEmpty(it.TranscriptFileID), nullIfEmpty(it.SummaryFileID),
	)
	return err
}

// SetArtifactIDs records mirror file ids on an existing row. Empty ids leave the column untouched.
func (db *DB) SetArtifactIDs(ctx context.Context, videoID, transcriptFileID, summaryFileID string) error {
	_, err := db.exec(ctx, `UPDATE videos SET
            transcript_file_id = COALESCE(?, transcript_file_id),
            summary_file_id = COALESCE(?, summary_file_id)
        WHERE video_id = ?`, nullIfEmpty(transcriptFileID), nullIfEmpty(summaryFileID), videoID)
	return err
}

const itemColumns = `video_id, channel_key, channel_name, title, published_at, processed_at, language, transcript, summary, transcript_file_id, summary_file_id`

// GetItem returns nil, nil when the video is unknown.
func (db *DB) GetItem(ctx context.Context, videoID string) (*Item, error) {
	row := db.queryRow(ctx, `SELECT `+itemColumns+` FROM videos WHERE video_id = ?`, videoID)
	it, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &it, nil
}

// ListRecent returns the latest processed items, newest first.
func (db *DB) ListRecent(ctx context.Context, limit int) ([]Item, error) {
	q := `SELECT ` + itemColumns + ` FROM videos ORDER BY processed_at DESC`
	var args []any
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	return db.listItems(ctx, q, args...)
}

// ItemsProcessedBetween returns items with start <= processed_at < end, oldest first.
func (db *DB) ItemsProcessedBetween(ctx context.Context, start, end time.Time) ([]Item, error) {
	return db.listItems(ctx, `SELECT `+itemColumns+` FROM videos
        WHERE processed_at >= ? AND processed_at < ?
        ORDER BY processed_at ASC, video_id ASC`, formatTS(start), formatTS(end))
}

func (db *DB) listItems(ctx context.Context, q string, args ...any) ([]Item, error) {
	rows, err := db.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (Item, error) {
	var (
		it                   Item
		published, processed string
		tFile, sFile         sql.NullString
	)
	if err := s.Scan(&it.VideoID, &it.ChannelKey, &it.ChannelName, &it.Title, &published, &processed,
		&it.Language, &it.Transcript, &it.Summary, &tFile, &sFile); err != nil {
		return it, err
	}
	it.PublishedAt = parseTS(published)
	it.ProcessedAt = parseTS(processed)
	it.TranscriptFileID = tFile.String
	it.SummaryFileID = sFile.String
	return it, nil
}

// UpsertDigest writes the digest for d.Date, overwriting an earlier one.
func (db *DB) UpsertDigest(ctx context.Context, d Digest) error {
	if strings.TrimSpace(d.Date) == "" {
		return errors.New("missing digest date")
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	_, err := db.exec(ctx, `INSERT INTO daily_summaries (date, summary, video_count, file_id, created_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(date) DO UPDATE SET
           summary=excluded.summary,
           video_count=excluded.video_count,
           file_id=excluded.file_id,
           created_at=excluded.created_at`,
		d.Date, d.Summary, d.VideoCount, nullIfEmpty(d.FileID), formatTS(d.CreatedAt))
	return err
}

func (db *DB) SetDigestFileID(ctx context.Context, date, fileID string) error {
	_, err := db.exec(ctx, `UPDATE daily_summaries SET file_id = ? WHERE date = ?`, nullIfEmpty(fileID), date)
	return err
}

// GetDigest returns nil, nil when no digest exists for date.
func (db *DB) GetDigest(ctx context.Context, date string) (*Digest, error) {
	row := db.queryRow(ctx, `SELECT date, summary, video_count, file_id, created_at FROM daily_summaries WHERE date = ?`, date)
	d, err := scanDigest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

// ListDigests returns digests newest day first.
func (db *DB) ListDigests(ctx context.Context, limit int) ([]Digest, error) {
	q := `SELECT date, summary, video_count, file_id, created_at FROM daily_summaries ORDER BY date DESC`
	var args []any
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := db.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Digest
	for rows.Next() {
		d, err := scanDigest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanDigest(s scanner) (Digest, error) {
	var (
		d       Digest
		fileID  sql.NullString
		created string
	)
	if err := s.Scan(&d.Date, &d.Summary, &d.VideoCount, &fileID, &created); err != nil {
		return d, err
	}
	d.FileID = fileID.String
	d.CreatedAt = parseTS(created)
	return d, nil
}

func formatTS(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

func parseTS(s string) time.Time {
	t, err := time.Parse(tsLayout, s)
	if err != nil {
		if t2, err2 := time.Parse(time.RFC3339Nano, s); err2 == nil {
			return t2.UTC()
		}
		return time.Time{}
	}
	return t
}

func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

// Preview shortens s to n characters, marking the cut with "...".
func Preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
