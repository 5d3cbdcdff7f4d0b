package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	apperrors "github.com/ShagReza/DataCuration-EASMS/internal/errors"
	"github.com/ShagReza/DataCuration-EASMS/internal/labeling"
)

//go:embed sql/schema.sql
var schema string

// timeLayout sorts lexically in chronological order for UTC times.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DefaultListLimit caps ListRuns when no limit is given.
const DefaultListLimit = 50

// Run statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run is one recorded curation run.
type Run struct {
	ID         string       `json:"id"`
	Mode       string       `json:"mode"`
	InputDir   string       `json:"input_dir"`
	Status     string       `json:"status"`
	Error      string       `json:"error,omitempty"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Datasets   []DatasetRun `json:"datasets,omitempty"`
}

// DatasetRun holds the counts one dataset produced in a run.
type DatasetRun struct {
	Dataset           string                `json:"dataset"`
	Source            string                `json:"source,omitempty"`
	Output            string                `json:"output,omitempty"`
	RowsIn            int                   `json:"rows_in"`
	RowsOut           int                   `json:"rows_out"`
	PValueMissing     int                   `json:"pvalue_missing"`
	DuplicatesDropped int                   `json:"duplicates_dropped"`
	ConflictGroups    int                   `json:"conflict_groups"`
	GroupsDropped     int                   `json:"groups_dropped"`
	Labels            labeling.Distribution `json:"labels,omitempty"`
}

// Store is the SQLite run ledger.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens or creates the ledger at path and applies the schema.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		return nil, apperrors.NewStorageError("database path not specified", nil)
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, apperrors.NewStorageError("create database directory", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperrors.NewStorageError("open sqlite", err)
	}
	// a single connection keeps :memory: databases shared and writes serialised
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, apperrors.NewStorageError("ping sqlite", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, apperrors.NewStorageError("enable foreign keys", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, apperrors.NewStorageError("create schema", err)
	}

	s := &Store{
		db:     db,
		path:   path,
		logger: logger.With(slog.String("component", "run_store")),
	}
	s.logger.Debug("run ledger opened", slog.String("path", path))
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// SaveRun inserts or replaces run together with its dataset rows.
func (s *Store) SaveRun(ctx context.Context, run *Run) (retErr error) {
	if run == nil || run.ID == "" {
		return apperrors.NewAppValidationError("run id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStorageError("begin transaction", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_datasets WHERE run_id = ?`, run.ID); err != nil {
		return apperrors.NewStorageError("clear run datasets", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (id, mode, input_dir, status, error, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Mode, run.InputDir, run.Status, run.Error,
		formatTime(run.StartedAt), formatTime(run.FinishedAt),
	); err != nil {
		return apperrors.NewStorageError("insert run", err)
	}

	for i, d := range run.Datasets {
		labels, err := json.Marshal(d.Labels)
		if err != nil {
			return apperrors.NewStorageError("encode label distribution", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_datasets (run_id, position, dataset, source, output, rows_in, rows_out,
			 pvalue_missing, duplicates_dropped, conflict_groups, groups_dropped, labels)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, i, d.Dataset, d.Source, d.Output, d.RowsIn, d.RowsOut,
			d.PValueMissing, d.DuplicatesDropped, d.ConflictGroups, d.GroupsDropped, string(labels),
		); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("insert dataset %s", d.Dataset), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStorageError("commit run", err)
	}

	s.logger.InfoContext(ctx, "run recorded",
		slog.String("run_id", run.ID),
		slog.String("status", run.Status),
		slog.Int("datasets", len(run.Datasets)))
	return nil
}

// GetRun returns the run with the given id and its datasets.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, mode, input_dir, status, error, started_at, finished_at FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("run %s", id))
	}
	if err != nil {
		return nil, err
	}

	datasets, err := s.datasets(ctx, id)
	if err != nil {
		return nil, err
	}
	run.Datasets = datasets
	return run, nil
}

// ListRuns returns the most recent runs first, without their datasets.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, mode, input_dir, status, error, started_at, finished_at
		 FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, apperrors.NewStorageError("list runs", err)
	}
	defer func() { _ = rows.Close() }()

	runs := []*Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("list runs", err)
	}
	return runs, nil
}

func (s *Store) datasets(ctx context.Context, runID string) ([]DatasetRun, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT dataset, source, output, rows_in, rows_out, pvalue_missing,
		 duplicates_dropped, conflict_groups, groups_dropped, labels
		 FROM run_datasets WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, apperrors.NewStorageError("select run datasets", err)
	}
	defer func() { _ = rows.Close() }()

	var out []DatasetRun
	for rows.Next() {
		var (
			d      DatasetRun
			labels string
		)
		if err := rows.Scan(&d.Dataset, &d.Source, &d.Output, &d.RowsIn, &d.RowsOut, &d.PValueMissing,
			&d.DuplicatesDropped, &d.ConflictGroups, &d.GroupsDropped, &labels); err != nil {
			return nil, apperrors.NewStorageError("scan run dataset", err)
		}
		if err := json.Unmarshal([]byte(labels), &d.Labels); err != nil {
			return nil, apperrors.NewStorageError("decode label distribution", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("select run datasets", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var (
		run               Run
		started, finished string
	)
	if err := sc.Scan(&run.ID, &run.Mode, &run.InputDir, &run.Status, &run.Error, &started, &finished); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperrors.NewStorageError("scan run", err)
	}

	var err error
	if run.StartedAt, err = parseTime(started); err != nil {
		return nil, apperrors.NewStorageError("parse started_at", err)
	}
	if run.FinishedAt, err = parseTime(finished); err != nil {
		return nil, apperrors.NewStorageError("parse finished_at", err)
	}
	return &run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
