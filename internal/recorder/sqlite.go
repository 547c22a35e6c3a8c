package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists the audit trail to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboard reads don't block the service's writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS refresh_events (
			id           TEXT PRIMARY KEY,
			timestamp    INTEGER NOT NULL,
			symbol       TEXT NOT NULL,
			trigger_type TEXT,
			trend        TEXT,
			lower_limit  TEXT,
			upper_limit  TEXT,
			trend_failed INTEGER,
			lower_failed INTEGER,
			upper_failed INTEGER,
			duration_ms  INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_refresh_ts ON refresh_events(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_refresh_symbol ON refresh_events(symbol)`,

		`CREATE TABLE IF NOT EXISTS query_events (
			id          TEXT PRIMARY KEY,
			timestamp   INTEGER NOT NULL,
			symbol      TEXT NOT NULL,
			query       TEXT,
			answer_len  INTEGER,
			duration_ms INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_query_ts ON query_events(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRefresh(evt *RefreshEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO refresh_events
		(id, timestamp, symbol, trigger_type, trend, lower_limit, upper_limit,
		 trend_failed, lower_failed, upper_failed, duration_ms)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		evt.ID, time.Now().Unix(), evt.Symbol, evt.Trigger,
		evt.Trend, evt.LowerLimit, evt.UpperLimit,
		boolToInt(evt.TrendFailed), boolToInt(evt.LowerFailed), boolToInt(evt.UpperFailed),
		evt.Duration.Milliseconds(),
	)
	return err
}

func (r *SQLiteRecorder) RecordQuery(evt *QueryEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO query_events
		(id, timestamp, symbol, query, answer_len, duration_ms)
		VALUES (?,?,?,?,?,?)`,
		evt.ID, time.Now().Unix(), evt.Symbol, evt.Query,
		evt.AnswerLen, evt.Duration.Milliseconds(),
	)
	return err
}

// PruneBefore deletes audit rows older than the given instant and returns
// the total number of rows removed.
func (r *SQLiteRecorder) PruneBefore(t time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := t.Unix()
	var total int64
	for _, table := range []string{"refresh_events", "query_events"} {
		res, err := r.db.Exec(fmt.Sprintf("DELETE FROM %s WHERE timestamp < ?", table), cutoff)
		if err != nil {
			return total, fmt.Errorf("prune %s: %w", table, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			total += n
		}
	}
	return total, nil
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
