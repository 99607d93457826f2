package tubedb

import (
	"context"
	"fmt"
)

// InitSchema ensures the tables exist. The statements are portable between sqlite and postgres.
func (db *DB) InitSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS videos (
            video_id TEXT PRIMARY KEY,
            channel_key TEXT NOT NULL DEFAULT '',
            channel_name TEXT NOT NULL,
            title TEXT NOT NULL,
            published_at TEXT NOT NULL,
            processed_at TEXT NOT NULL,
            language TEXT NOT NULL DEFAULT '',
            transcript TEXT NOT NULL,
            summary TEXT NOT NULL,
            transcript_file_id TEXT,
            summary_file_id TEXT
        )`,
		`CREATE INDEX IF NOT EXISTS idx_videos_processed_at ON videos(processed_at)`,
		`CREATE INDEX IF NOT EXISTS idx_videos_channel_key ON videos(channel_key)`,
		`CREATE TABLE IF NOT EXISTS processed_items (
            video_id TEXT PRIMARY KEY,
            processed_at TEXT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS daily_summaries (
            date TEXT PRIMARY KEY,
            summary TEXT NOT NULL,
            video_count INTEGER NOT NULL DEFAULT 0,
            file_id TEXT,
            created_at TEXT NOT NULL
        )`,
	}
	for _, s := range stmts {
		if _, err := db.sql.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
