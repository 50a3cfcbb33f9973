// Package store handles SQLite persistence of conversion runs.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/appdef/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// timeLayout keeps timestamps fixed width so they sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps SQLite access for run history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			source_path TEXT NOT NULL,
			digest TEXT NOT NULL,
			app_name TEXT NOT NULL,
			output_path TEXT NOT NULL,
			format TEXT NOT NULL,
			pretty INTEGER NOT NULL DEFAULT 0,
			output_size INTEGER NOT NULL,
			warnings INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS run_sections (
			run_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			section TEXT NOT NULL,
			count INTEGER NOT NULL,
			PRIMARY KEY (run_id, position)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ended_at ON runs(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_source_path ON runs(source_path);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return s.addColumnIfMissing("runs", "pretty", "INTEGER NOT NULL DEFAULT 0")
}

// addColumnIfMissing upgrades databases created before the column existed.
func (s *Store) addColumnIfMissing(table, column, decl string) error {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return err
	}
	found := false
	for rows.Next() {
		var (
			cid       int
			name      string
			typ       string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dfltValue, &pk); err != nil {
			_ = rows.Close()
			return err
		}
		if name == column {
			found = true
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	if err := rows.Close(); err != nil {
		return err
	}
	if found {
		return nil
	}
	_, err = s.db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, decl))
	return err
}

// InsertRun stores a completed run and its section counts. A run without an ID
// gets a time-ordered UUID, which is returned.
func (s *Store) InsertRun(ctx context.Context, run model.Run, sections []model.RunSection) (string, error) {
	if run.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return "", fmt.Errorf("failed to generate run id: %w", err)
		}
		run.ID = id.String()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, source_path, digest, app_name, output_path, format, pretty, output_size, warnings, started_at, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.SourcePath,
		run.Digest,
		run.AppName,
		run.OutputPath,
		run.Format,
		run.Pretty,
		run.OutputSize,
		run.Warnings,
		run.StartedAt.UTC().Format(timeLayout),
		run.EndedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return "", err
	}

	if len(sections) > 0 {
		var stmt *sql.Stmt
		stmt, err = tx.PrepareContext(ctx,
			`INSERT INTO run_sections (run_id, position, section, count) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return "", err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for i, sec := range sections {
			if _, err = stmt.ExecContext(ctx, run.ID, i, sec.Section, sec.Count); err != nil {
				return "", err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}
	return run.ID, nil
}

const runColumns = `id, source_path, digest, app_name, output_path, format, pretty, output_size, warnings, started_at, ended_at`

// LatestRunForSource returns the most recent run for a source file, or nil.
func (s *Store) LatestRunForSource(ctx context.Context, sourcePath string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE source_path = ? ORDER BY ended_at DESC LIMIT 1`,
		sourcePath)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns runs filtered by the history config, newest first.
func (s *Store) ListRuns(ctx context.Context, cfg model.HistoryConfig) ([]model.Run, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Source != "" {
		clauses = append(clauses, "source_path = ?")
		args = append(args, cfg.Source)
	}
	query := fmt.Sprintf(`SELECT %s FROM runs WHERE %s ORDER BY ended_at DESC`,
		runColumns, strings.Join(clauses, " AND "))
	if cfg.Last > 0 {
		query += " LIMIT ?"
		args = append(args, cfg.Last)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var runs []model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// ListSectionCounts returns the section counts of each run, in recorded order.
func (s *Store) ListSectionCounts(ctx context.Context, runIDs []string) (map[string][]model.RunSection, error) {
	result := map[string][]model.RunSection{}
	if len(runIDs) == 0 {
		return result, nil
	}
	placeholders := make([]string, len(runIDs))
	args := make([]any, len(runIDs))
	for i, id := range runIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT run_id, section, count
		FROM run_sections
		WHERE run_id IN (%s)
		ORDER BY run_id, position`, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	for rows.Next() {
		var runID string
		var sec model.RunSection
		if err := rows.Scan(&runID, &sec.Section, &sec.Count); err != nil {
			return nil, err
		}
		result[runID] = append(result[runID], sec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (model.Run, error) {
	var run model.Run
	var startedAt, endedAt string
	if err := row.Scan(&run.ID, &run.SourcePath, &run.Digest, &run.AppName, &run.OutputPath,
		&run.Format, &run.Pretty, &run.OutputSize, &run.Warnings, &startedAt, &endedAt); err != nil {
		return model.Run{}, err
	}
	var err error
	if run.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
		return model.Run{}, err
	}
	if run.EndedAt, err = time.Parse(timeLayout, endedAt); err != nil {
		return model.Run{}, err
	}
	return run, nil
}
