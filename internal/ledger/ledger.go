// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger records conversion outcomes in a SQLite database so batch
// runs can skip sources that have not changed since their last conversion.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/qmd2colab/pkg/types"
)

// FileName is the ledger file created in the output directory when no
// explicit path is configured.
const FileName = ".qmd2colab.db"

// Disabled is the ledger path value that turns the ledger off.
const Disabled = "-"

// Store manages the conversion ledger database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the ledger at path, creating its parent directory
// and schema as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS conversions (
			source_path TEXT PRIMARY KEY,
			source_hash TEXT NOT NULL,
			settings_hash TEXT NOT NULL DEFAULT '',
			output_path TEXT,
			status TEXT NOT NULL,
			cells INTEGER,
			message TEXT,
			converted_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_status ON conversions(status)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at TEXT NOT NULL,
			input_dir TEXT,
			output_dir TEXT,
			converted INTEGER,
			skipped INTEGER,
			failed INTEGER
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return s.addSettingsColumn()
}

// addSettingsColumn upgrades ledgers created before settings_hash existed.
func (s *Store) addSettingsColumn() error {
	var n int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM pragma_table_info('conversions') WHERE name = 'settings_hash'`,
	).Scan(&n); err != nil {
		return fmt.Errorf("checking conversions columns: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := s.db.Exec(`ALTER TABLE conversions ADD COLUMN settings_hash TEXT NOT NULL DEFAULT ''`); err != nil {
		return fmt.Errorf("adding settings_hash column: %w", err)
	}
	return nil
}

// Lookup returns the record for sourcePath. The boolean is false when the
// source has never been recorded.
func (s *Store) Lookup(ctx context.Context, sourcePath string) (types.ConversionRecord, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT source_path, source_hash, settings_hash, output_path, status, cells, message, converted_at
		 FROM conversions WHERE source_path = ?`, sourcePath)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ConversionRecord{}, false, nil
	}
	if err != nil {
		return types.ConversionRecord{}, false, fmt.Errorf("looking up %s: %w", sourcePath, err)
	}
	return rec, true, nil
}

// Unchanged reports whether want.SourcePath was last converted
// successfully from the same content with the same settings into
// want.OutputPath, and that notebook is still on disk.
func (s *Store) Unchanged(ctx context.Context, want types.ConversionRecord) (bool, error) {
	rec, ok, err := s.Lookup(ctx, want.SourcePath)
	if err != nil || !ok {
		return false, err
	}
	if rec.Status != types.ConversionDone ||
		rec.SourceHash != want.SourceHash ||
		rec.SettingsHash != want.SettingsHash ||
		rec.OutputPath != want.OutputPath {
		return false, nil
	}
	if _, err := os.Stat(rec.OutputPath); err != nil {
		return false, nil
	}
	return true, nil
}

// Record upserts rec. A zero ConvertedAt is replaced with the current time.
func (s *Store) Record(ctx context.Context, rec types.ConversionRecord) error {
	if rec.ConvertedAt.IsZero() {
		rec.ConvertedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversions (source_path, source_hash, settings_hash, output_path, status, cells, message, converted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(source_path) DO UPDATE SET
			source_hash=excluded.source_hash, settings_hash=excluded.settings_hash,
			output_path=excluded.output_path,
			status=excluded.status, cells=excluded.cells,
			message=excluded.message, converted_at=excluded.converted_at`,
		rec.SourcePath, rec.SourceHash, rec.SettingsHash, rec.OutputPath, string(rec.Status),
		rec.Cells, rec.Message, rec.ConvertedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording %s: %w", rec.SourcePath, err)
	}
	return nil
}

// List returns every record ordered by source path. A non-empty status
// filters the rows.
func (s *Store) List(ctx context.Context, status types.ConversionStatus) ([]types.ConversionRecord, error) {
	query := `SELECT source_path, source_hash, settings_hash, output_path, status, cells, message, converted_at
		FROM conversions`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY source_path`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing conversions: %w", err)
	}
	defer rows.Close()

	var out []types.ConversionRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning conversion: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Run summarises one batch invocation.
type Run struct {
	StartedAt time.Time
	InputDir  string
	OutputDir string
	Converted int
	Skipped   int
	Failed    int
}

// RecordRun appends a batch summary.
func (s *Store) RecordRun(ctx context.Context, r Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (started_at, input_dir, output_dir, converted, skipped, failed)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.StartedAt.UTC().Format(time.RFC3339Nano), r.InputDir, r.OutputDir,
		r.Converted, r.Skipped, r.Failed,
	)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

// LastRun returns the most recent batch summary, if any.
func (s *Store) LastRun(ctx context.Context) (Run, bool, error) {
	var (
		r       Run
		started string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT started_at, input_dir, output_dir, converted, skipped, failed
		 FROM runs ORDER BY id DESC LIMIT 1`,
	).Scan(&started, &r.InputDir, &r.OutputDir, &r.Converted, &r.Skipped, &r.Failed)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, fmt.Errorf("reading last run: %w", err)
	}
	r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
	return r, true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (types.ConversionRecord, error) {
	var (
		rec                   types.ConversionRecord
		status                string
		output, message, when sql.NullString
		cells                 sql.NullInt64
	)
	if err := row.Scan(&rec.SourcePath, &rec.SourceHash, &rec.SettingsHash, &output, &status, &cells, &message, &when); err != nil {
		return types.ConversionRecord{}, err
	}
	rec.OutputPath = output.String
	rec.Status = types.ConversionStatus(status)
	rec.Cells = int(cells.Int64)
	rec.Message = message.String
	if when.Valid {
		rec.ConvertedAt, _ = time.Parse(time.RFC3339Nano, when.String)
	}
	return rec, nil
}
