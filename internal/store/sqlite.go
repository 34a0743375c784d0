package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"campaignterm/internal/model"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Preference keys.
const (
	PrefCampaign  = "campaign"
	PrefEmailType = "email_type"
	PrefPageSize  = "page_size"
	PrefTab       = "tab"
)

// SQLiteStore keeps upload history and UI preferences in a local SQLite
// database. Report data is never stored.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at the given path and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS uploads (
	id                     TEXT PRIMARY KEY,
	file_name              TEXT NOT NULL DEFAULT '',
	size_bytes             INTEGER NOT NULL DEFAULT 0,
	campaign               TEXT NOT NULL DEFAULT '',
	email_type             TEXT NOT NULL DEFAULT '',
	phase                  TEXT NOT NULL,
	reason                 TEXT NOT NULL DEFAULT '',
	message                TEXT NOT NULL DEFAULT '',
	total_rows             INTEGER NOT NULL DEFAULT 0,
	inserted               INTEGER NOT NULL DEFAULT 0,
	updated                INTEGER NOT NULL DEFAULT 0,
	skipped                INTEGER NOT NULL DEFAULT 0,
	duplicates_no_change   INTEGER NOT NULL DEFAULT 0,
	unsubscribed_overrides INTEGER NOT NULL DEFAULT 0,
	created_at             INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS uploads_created_at ON uploads (created_at);

CREATE TABLE IF NOT EXISTS preferences (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL DEFAULT ''
);
`
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RecordUpload inserts rec, or replaces the row with the same id. An empty
// id gets a fresh uuid.
func (s *SQLiteStore) RecordUpload(ctx context.Context, rec model.UploadRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO uploads (
			id, file_name, size_bytes, campaign, email_type, phase, reason, message,
			total_rows, inserted, updated, skipped, duplicates_no_change, unsubscribed_overrides, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			phase                  = excluded.phase,
			reason                 = excluded.reason,
			message                = excluded.message,
			total_rows             = excluded.total_rows,
			inserted               = excluded.inserted,
			updated                = excluded.updated,
			skipped                = excluded.skipped,
			duplicates_no_change   = excluded.duplicates_no_change,
			unsubscribed_overrides = excluded.unsubscribed_overrides
	`,
		rec.ID, rec.FileName, rec.SizeBytes, string(rec.Campaign), string(rec.EmailType), rec.Phase, rec.Reason, rec.Summary.Message,
		rec.Summary.TotalRowsInFile, rec.Summary.Inserted, rec.Summary.Updated, rec.Summary.Skipped,
		rec.Summary.DuplicatesNoChange, rec.Summary.UnsubscribedOverrides,
		rec.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("record upload %s: %w", rec.ID, err)
	}
	return nil
}

// ListUploads returns the most recent uploads first. limit <= 0 means all.
func (s *SQLiteStore) ListUploads(ctx context.Context, limit int) ([]model.UploadRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file_name, size_bytes, campaign, email_type, phase, reason, message,
			total_rows, inserted, updated, skipped, duplicates_no_change, unsubscribed_overrides, created_at
		FROM uploads
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []model.UploadRecord
	for rows.Next() {
		var (
			r                   model.UploadRecord
			campaign, emailType string
			created             int64
		)
		if err := rows.Scan(&r.ID, &r.FileName, &r.SizeBytes, &campaign, &emailType, &r.Phase, &r.Reason, &r.Summary.Message,
			&r.Summary.TotalRowsInFile, &r.Summary.Inserted, &r.Summary.Updated, &r.Summary.Skipped,
			&r.Summary.DuplicatesNoChange, &r.Summary.UnsubscribedOverrides, &created); err != nil {
			return nil, err
		}
		r.Campaign = model.Campaign(campaign)
		r.EmailType = model.EmailType(emailType)
		r.Summary.EmailType = emailType
		r.CreatedAt = time.Unix(0, created).UTC()
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// GetPreference returns the stored value for key, or "" when unset.
func (s *SQLiteStore) GetPreference(ctx context.Context, key string) (string, error) {
	var val string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM preferences WHERE key = ?", key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return val, err
}

func (s *SQLiteStore) SetPreference(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}
