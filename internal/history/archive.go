package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/heycatch/wirewizard/internal/activity"
)

const schema = `
CREATE TABLE IF NOT EXISTS activity_log (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp INTEGER NOT NULL,
	command   TEXT NOT NULL,
	stdout    TEXT NOT NULL DEFAULT '',
	stderr    TEXT NOT NULL DEFAULT '',
	exit_ok   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_activity_log_timestamp ON activity_log(timestamp);
`

// Record is a row in the activity_log table.
type Record struct {
	ID        int64
	Timestamp time.Time
	Command   string
	Stdout    string
	Stderr    string
	ExitOK    bool
}

// Archive is an optional on-disk archive of activation commands. The
// in-memory activity log stays authoritative for the current run; the
// archive only exists when the operator configures a path for it.
type Archive struct {
	conn   *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the archive database at path and configures
// WAL mode and busy timeout.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Archive, error) {
	if path == "" {
		return nil, fmt.Errorf("history: open: path is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("history: open: logger is required")
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}

	// Single writer connection for SQLite.
	conn.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := conn.ExecContext(ctx, p); err != nil {
			conn.Close()
			return nil, fmt.Errorf("history: exec %q: %w", p, err)
		}
	}

	if _, err := conn.ExecContext(ctx, schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: create schema: %w", err)
	}

	logger.Info("history_opened", "path", path, "component", "history")

	return &Archive{
		conn:   conn,
		logger: logger.With("component", "history"),
	}, nil
}

// Close closes the underlying database connection.
func (a *Archive) Close() error {
	return a.conn.Close()
}

// Record inserts one activation command outcome.
func (a *Archive) Record(ctx context.Context, e activity.Entry, exitOK bool) error {
	ts := e.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := a.conn.ExecContext(ctx, `
		INSERT INTO activity_log (timestamp, command, stdout, stderr, exit_ok)
		VALUES (?, ?, ?, ?, ?)`,
		ts.UnixNano(), strings.Join(e.Command, " "), e.Stdout, e.Stderr, boolToInt(exitOK),
	)
	if err != nil {
		return fmt.Errorf("history: insert record: %w", err)
	}
	return nil
}

// List returns the most recent limit records, newest first.
func (a *Archive) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := a.conn.QueryContext(ctx, `
		SELECT id, timestamp, command, stdout, stderr, exit_ok
		FROM activity_log
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var ts int64
		var ok int
		if err := rows.Scan(&r.ID, &ts, &r.Command, &r.Stdout, &r.Stderr, &ok); err != nil {
			return nil, fmt.Errorf("history: scan record: %w", err)
		}
		r.Timestamp = time.Unix(0, ts)
		r.ExitOK = ok != 0
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate records: %w", err)
	}
	return records, nil
}

// Prune deletes records older than before and returns how many went.
func (a *Archive) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := a.conn.ExecContext(ctx,
		`DELETE FROM activity_log WHERE timestamp < ?`, before.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("history: prune: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("history: prune rows affected: %w", err)
	}
	if n > 0 {
		a.logger.Info("history_pruned", "deleted", n, "before", before)
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
