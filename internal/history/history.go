// Package history keeps a sqlite log of finished dispatches and diffs
// rendered outputs against each other.
package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/raysh454/formfetch/internal/dispatch"
	"github.com/raysh454/formfetch/internal/logging"
)

//go:embed schema.sql
var schemaFS embed.FS

var ErrNotFound = errors.New("dispatch record not found")

// Record is one finished dispatch.
type Record struct {
	ID          string    `json:"id"`
	Method      string    `json:"method"`
	Target      string    `json:"target"`
	URL         string    `json:"url"`
	RequestBody string    `json:"request_body,omitempty"`
	StatusCode  int       `json:"status_code"`
	Text        string    `json:"text"`
	Error       string    `json:"error,omitempty"`
	Written     bool      `json:"written"`
	Stale       bool      `json:"stale"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at"`
}

// FromTask builds a Record from a finished task and its result.
func FromTask(task *dispatch.Task, res dispatch.Result) Record {
	rec := Record{
		ID:         task.ID,
		Method:     task.Method,
		Target:     task.Target,
		StatusCode: res.StatusCode,
		Text:       res.Text,
		Written:    res.Written,
		Stale:      res.Stale,
		StartedAt:  task.StartedAt,
		EndedAt:    res.EndedAt,
	}
	if res.Request != nil {
		rec.URL = res.Request.URL
		rec.RequestBody = string(res.Request.Body)
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	return rec
}

// Store is safe for concurrent use.
type Store struct {
	db     *sql.DB
	logger logging.Logger
}

// Open opens (creating if needed) the sqlite database at path and applies
// the schema.
func Open(path string, logger logging.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("history path is required")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure history dir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	db.SetMaxOpenConns(1)
	s, err := New(db, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an already opened database.
func New(db *sql.DB, logger logging.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if err := applySchema(db); err != nil {
		return nil, err
	}
	return &Store{
		db:     db,
		logger: logger.With(logging.Field{Key: "component", Value: "history"}),
	}, nil
}

func applySchema(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// Save inserts rec, replacing any record with the same ID.
func (s *Store) Save(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		return fmt.Errorf("record id is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO dispatches
		  (id, method, target, url, request_body, status_code, text, error, written, stale, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Method, rec.Target, rec.URL, rec.RequestBody, rec.StatusCode,
		rec.Text, rec.Error, rec.Written, rec.Stale,
		rec.StartedAt.UnixNano(), rec.EndedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert dispatch %s: %w", rec.ID, err)
	}
	return nil
}

const selectColumns = `id, method, target, url, request_body, status_code, text, error, written, stale, started_at, ended_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec              Record
		started, ended   int64
		written, isStale bool
	)
	err := row.Scan(&rec.ID, &rec.Method, &rec.Target, &rec.URL, &rec.RequestBody,
		&rec.StatusCode, &rec.Text, &rec.Error, &written, &isStale, &started, &ended)
	if err != nil {
		return Record{}, err
	}
	rec.Written = written
	rec.Stale = isStale
	rec.StartedAt = time.Unix(0, started)
	rec.EndedAt = time.Unix(0, ended)
	return rec, nil
}

// Get returns the record with id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM dispatches WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Record{}, fmt.Errorf("get dispatch %s: %w", id, err)
	}
	return rec, nil
}

// List returns up to limit records, newest first. limit <= 0 means 50.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM dispatches ORDER BY ended_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list dispatches: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan dispatch: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dispatches: %w", err)
	}
	return out, nil
}

// Observer returns a dispatch observer that saves every finished task.
// Save failures are logged, never returned to the dispatcher.
func (s *Store) Observer() dispatch.Observer {
	return func(ctx context.Context, task *dispatch.Task, res dispatch.Result) {
		if err := s.Save(ctx, FromTask(task, res)); err != nil {
			s.logger.Warn("saving dispatch",
				logging.Field{Key: "task_id", Value: task.ID},
				logging.Field{Key: "error", Value: err.Error()})
		}
	}
}

func (s *Store) Close() error {
	return s.db.Close()
}
