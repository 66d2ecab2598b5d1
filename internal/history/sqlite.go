// Package history records operation runs and their structured results in a
// local SQLite database.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/urban-mobility/trips-cli/internal/aggregate"
)

// Run is one recorded operation invocation.
type Run struct {
	ID        string
	Operation string
	Params    map[string]string
	Result    *aggregate.Result
	CreatedAt time.Time
}

// Store persists runs using modernc.org/sqlite.
type Store struct {
	db *sql.DB
}

// Open opens the database at the given path, configures WAL mode and
// applies the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "history: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "history: exec %s", pragma)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	operation  TEXT NOT NULL,
	params     TEXT NOT NULL,
	result     TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_operation ON runs(operation);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "history: migrate")
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts one completed run.
func (s *Store) Record(ctx context.Context, operation string, params map[string]string, result *aggregate.Result) (*Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	if params == nil {
		params = map[string]string{}
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, eris.Wrap(err, "history: marshal params")
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, eris.Wrap(err, "history: marshal result")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, operation, params, result, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, operation, string(paramsJSON), string(resultJSON), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "history: insert run")
	}

	return &Run{ID: id, Operation: operation, Params: params, Result: result, CreatedAt: now}, nil
}

// Filter narrows List.
type Filter struct {
	Operation string
	Limit     int
	Offset    int
}

// List returns recorded runs, newest first.
func (s *Store) List(ctx context.Context, filter Filter) ([]Run, error) {
	query := `SELECT id, operation, params, result, created_at FROM runs WHERE 1=1`
	var args []any

	if filter.Operation != "" {
		query += ` AND operation = ?`
		args = append(args, filter.Operation)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "history: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "history: list runs iterate")
}

// Get returns one run by ID.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, operation, params, result, created_at FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*Run, error) {
	var r Run
	var paramsJSON string
	var resultJSON sql.NullString

	err := row.Scan(&r.ID, &r.Operation, &paramsJSON, &resultJSON, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("history: run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "history: scan run")
	}

	if err := json.Unmarshal([]byte(paramsJSON), &r.Params); err != nil {
		return nil, eris.Wrap(err, "history: unmarshal params")
	}
	if resultJSON.Valid {
		r.Result = &aggregate.Result{}
		if err := json.Unmarshal([]byte(resultJSON.String), r.Result); err != nil {
			return nil, eris.Wrap(err, "history: unmarshal result")
		}
	}
	return &r, nil
}
