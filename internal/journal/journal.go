// Package journal persists upload batch results to a local SQLite
// database. Every finished batch is recorded with its per-file outcomes,
// so a later `upload retry` can re-drive exactly the files that did not
// reach confirmed — with fresh grants and a fresh batch key, since the
// old grants were single-use.
package journal

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/prooflab/prooflab-go/internal/upload"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNoBatches is returned when a gallery has no recorded upload batches.
var ErrNoBatches = errors.New("journal: no recorded batches")

// FileRecord is one file's outcome as stored in the journal.
type FileRecord struct {
	BatchKey         string
	Path             string
	OriginalFilename string
	PhotoID          string
	State            upload.State
	ErrorMsg         string
}

// BatchRecord summarizes one recorded batch.
type BatchRecord struct {
	BatchKey  string
	GalleryID string
	CreatedAt time.Time
}

// Journal records upload results in SQLite. The connection is capped at a
// single open conn (sole-writer), which sidesteps SQLITE_BUSY under
// concurrent use.
type Journal struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the journal database at path and applies
// pending schema migrations.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Journal, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: opening database: %w", err)
	}

	db.SetMaxOpenConns(1)

	if err := runMigrations(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	return &Journal{db: db, logger: logger}, nil
}

// Close releases the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// runMigrations applies all pending schema migrations to the database.
// Uses the goose v3 Provider API (no global state, context-aware).
func runMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	subFS, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("journal: creating migration sub-filesystem: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, subFS)
	if err != nil {
		return fmt.Errorf("journal: creating migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("journal: running migrations: %w", err)
	}

	for _, r := range results {
		logger.Info("applied migration",
			slog.String("source", r.Source.Path),
			slog.Int64("duration_ms", r.Duration.Milliseconds()),
		)
	}

	return nil
}

// RecordResult writes a batch and all its per-file outcomes in a single
// transaction.
func (j *Journal) RecordResult(ctx context.Context, result *upload.Result) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("journal: begin record: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO upload_batches (batch_key, gallery_id, created_at) VALUES (?, ?, ?)`,
		result.BatchKey, result.GalleryID, time.Now().Unix(),
	); err != nil {
		return fmt.Errorf("journal: inserting batch %s: %w", result.BatchKey, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO upload_files
			(batch_key, path, original_filename, photo_id, state, error_msg)
			VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("journal: prepare file insert: %w", err)
	}
	defer stmt.Close()

	for i := range result.Outcomes {
		out := &result.Outcomes[i]

		var errMsg sql.NullString
		if out.Err != nil {
			errMsg = sql.NullString{String: out.Err.Error(), Valid: true}
		}

		if _, err := stmt.ExecContext(ctx,
			result.BatchKey, out.Path, out.OriginalFilename,
			nullString(out.PhotoID), string(out.State), errMsg,
		); err != nil {
			return fmt.Errorf("journal: inserting file %s: %w", out.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("journal: commit record: %w", err)
	}

	j.logger.Debug("batch recorded",
		slog.String("batch_key", result.BatchKey),
		slog.String("gallery_id", result.GalleryID),
		slog.Int("files", len(result.Outcomes)),
	)

	return nil
}

// LatestBatch returns the most recently recorded batch for a gallery, or
// ErrNoBatches.
func (j *Journal) LatestBatch(ctx context.Context, galleryID string) (*BatchRecord, error) {
	row := j.db.QueryRowContext(ctx,
		`SELECT batch_key, gallery_id, created_at FROM upload_batches
			WHERE gallery_id = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		galleryID,
	)

	var rec BatchRecord

	var createdAt int64

	if err := row.Scan(&rec.BatchKey, &rec.GalleryID, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: gallery %s", ErrNoBatches, galleryID)
		}

		return nil, fmt.Errorf("journal: reading latest batch: %w", err)
	}

	rec.CreatedAt = time.Unix(createdAt, 0)

	return &rec, nil
}

// UnconfirmedPaths returns the file paths from a batch that never reached
// confirmed. These are the retry candidates: failed files need a full
// re-upload, and uploaded-but-unconfirmed files are re-driven through the
// whole pipeline since their grants are spent.
func (j *Journal) UnconfirmedPaths(ctx context.Context, batchKey string) ([]string, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT path FROM upload_files WHERE batch_key = ? AND state != ? ORDER BY id`,
		batchKey, string(upload.StateConfirmed),
	)
	if err != nil {
		return nil, fmt.Errorf("journal: reading unconfirmed files: %w", err)
	}
	defer rows.Close()

	var paths []string

	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("journal: scanning file row: %w", err)
		}

		paths = append(paths, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: iterating file rows: %w", err)
	}

	return paths, nil
}

// Files returns all file records for a batch in insertion order.
func (j *Journal) Files(ctx context.Context, batchKey string) ([]FileRecord, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT batch_key, path, original_filename, photo_id, state, error_msg
			FROM upload_files WHERE batch_key = ? ORDER BY id`,
		batchKey,
	)
	if err != nil {
		return nil, fmt.Errorf("journal: reading batch files: %w", err)
	}
	defer rows.Close()

	var records []FileRecord

	for rows.Next() {
		var (
			rec      FileRecord
			photoID  sql.NullString
			errMsg   sql.NullString
			stateStr string
		)

		if err := rows.Scan(&rec.BatchKey, &rec.Path, &rec.OriginalFilename,
			&photoID, &stateStr, &errMsg); err != nil {
			return nil, fmt.Errorf("journal: scanning file row: %w", err)
		}

		rec.PhotoID = photoID.String
		rec.State = upload.State(stateStr)
		rec.ErrorMsg = errMsg.String
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: iterating file rows: %w", err)
	}

	return records, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}

	return sql.NullString{String: s, Valid: true}
}
