// Package history persists per-search accounting to a local SQLite database
// so past runs can be reviewed and API spend audited.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/placefinder/internal/search"
)

// Run is one recorded search run.
type Run struct {
	ID          string      `json:"id"`
	Query       string      `json:"query"`
	Strategy    string      `json:"strategy"`
	ResultCount int         `json:"resultCount"`
	APICalls    int         `json:"apiCalls"`
	DurationMS  int64       `json:"durationMs"`
	Error       string      `json:"error,omitempty"`
	Meta        search.Meta `json:"meta"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// Store implements search.Recorder on modernc.org/sqlite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path and applies
// the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
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
CREATE TABLE IF NOT EXISTS search_runs (
	id           TEXT PRIMARY KEY,
	query        TEXT NOT NULL,
	strategy     TEXT NOT NULL,
	result_count INTEGER NOT NULL,
	api_calls    INTEGER NOT NULL,
	duration_ms  INTEGER NOT NULL,
	error        TEXT,
	meta         TEXT NOT NULL,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_search_runs_created_at ON search_runs(created_at);
CREATE INDEX IF NOT EXISTS idx_search_runs_query ON search_runs(query);
`

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "history: migrate")
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts one run. It satisfies search.Recorder.
func (s *Store) Record(ctx context.Context, query, strategy string, resp *search.Response, elapsed time.Duration) error {
	metaJSON, err := json.Marshal(resp.Meta)
	if err != nil {
		return eris.Wrap(err, "history: marshal meta")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO search_runs (id, query, strategy, result_count, api_calls, duration_ms, error, meta, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(),
		query,
		strategy,
		len(resp.Results),
		resp.APICallsUsed,
		elapsed.Milliseconds(),
		nullIfEmpty(resp.Meta.Error),
		string(metaJSON),
		time.Now().UTC(),
	)
	return eris.Wrap(err, "history: insert run")
}

// List returns the most recent runs, newest first. A non-positive limit
// defaults to 50.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query, strategy, result_count, api_calls, duration_ms, error, meta, created_at
		 FROM search_runs ORDER BY created_at DESC, id LIMIT ?`,
		limit,
	)
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

// Get returns one run by id.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, query, strategy, result_count, api_calls, duration_ms, error, meta, created_at
		 FROM search_runs WHERE id = ?`,
		id,
	)
	return scanRun(row)
}

// Prune deletes runs older than the cutoff and reports how many were
// removed.
func (s *Store) Prune(ctx context.Context, olderThan time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM search_runs WHERE created_at < ?`,
		olderThan.UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "history: prune runs")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "history: rows affected")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*Run, error) {
	var r Run
	var errStr sql.NullString
	var metaJSON string

	err := row.Scan(&r.ID, &r.Query, &r.Strategy, &r.ResultCount, &r.APICalls, &r.DurationMS, &errStr, &metaJSON, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("history: run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "history: scan run")
	}

	if errStr.Valid {
		r.Error = errStr.String
	}
	if err := json.Unmarshal([]byte(metaJSON), &r.Meta); err != nil {
		return nil, eris.Wrap(err, "history: unmarshal meta")
	}
	return &r, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
