// Package store archives closed transcript segments in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"live-transcript-service/internal/models"
	"live-transcript-service/internal/observability/metrics"
)

// ErrNotFound is returned when no archived segment has the requested id.
var ErrNotFound = errors.New("segment not found")

const schema = `
CREATE TABLE IF NOT EXISTS segments (
	segment_id        TEXT PRIMARY KEY,
	channel_id        TEXT NOT NULL,
	closed_at         INTEGER NOT NULL,
	sentence_count    INTEGER NOT NULL,
	highlighted_count INTEGER NOT NULL,
	sentiment         REAL,
	payload           TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_segments_channel ON segments (channel_id, closed_at);
`

// Record is the summary row of one archived segment.
type Record struct {
	SegmentID        string
	ChannelID        string
	ClosedAt         time.Time
	SentenceCount    int
	HighlightedCount int
	Sentiment        *float64
}

// Archive stores closed segments. Open segment updates are ignored.
type Archive struct {
	db      *sql.DB
	metrics *metrics.Metrics
}

// Open opens or creates the archive database at path and applies the schema.
func Open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=rwc&_journal_mode=WAL&_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create archive schema: %w", err)
	}
	return &Archive{db: db, metrics: metrics.DefaultMetrics}, nil
}

// PublishSegment archives update if the segment is closed. Re-archiving a segment
// replaces the earlier row.
func (a *Archive) PublishSegment(ctx context.Context, update models.SegmentUpdate) error {
	if !update.Closed {
		return nil
	}
	err := a.put(ctx, update)
	a.metrics.RecordArchiveWrite(err)
	return err
}

func (a *Archive) put(ctx context.Context, update models.SegmentUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("encode segment %s: %w", update.SegmentID, err)
	}
	highlighted := 0
	for _, s := range update.Sentences {
		if s.Important && s.Recognized != "" {
			highlighted++
		}
	}

	_, err = a.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO segments
			(segment_id, channel_id, closed_at, sentence_count, highlighted_count, sentiment, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		update.SegmentID, update.ChannelID, update.Timestamp, len(update.Sentences), highlighted,
		update.Sentiment, string(payload),
	)
	if err != nil {
		return fmt.Errorf("archive segment %s: %w", update.SegmentID, err)
	}
	return nil
}

// Get returns the archived snapshot of a segment.
func (a *Archive) Get(ctx context.Context, segmentId string) (models.SegmentUpdate, error) {
	var payload string
	err := a.db.QueryRowContext(ctx, `SELECT payload FROM segments WHERE segment_id = ?`, segmentId).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SegmentUpdate{}, ErrNotFound
	}
	if err != nil {
		return models.SegmentUpdate{}, fmt.Errorf("load segment %s: %w", segmentId, err)
	}

	var update models.SegmentUpdate
	if err := json.Unmarshal([]byte(payload), &update); err != nil {
		return models.SegmentUpdate{}, fmt.Errorf("decode segment %s: %w", segmentId, err)
	}
	return update, nil
}

// ListByChannel returns up to limit archived segments of a channel, most recent first.
func (a *Archive) ListByChannel(ctx context.Context, channelId string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := a.db.QueryContext(ctx,
		`SELECT segment_id, channel_id, closed_at, sentence_count, highlighted_count, sentiment
		FROM segments WHERE channel_id = ? ORDER BY closed_at DESC, segment_id DESC LIMIT ?`,
		channelId, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list segments: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r         Record
			closedAt  int64
			sentiment sql.NullFloat64
		)
		if err := rows.Scan(&r.SegmentID, &r.ChannelID, &closedAt, &r.SentenceCount, &r.HighlightedCount, &sentiment); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		r.ClosedAt = time.UnixMilli(closedAt)
		if sentiment.Valid {
			v := sentiment.Float64
			r.Sentiment = &v
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (a *Archive) Close() error {
	return a.db.Close()
}
