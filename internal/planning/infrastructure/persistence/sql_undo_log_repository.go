package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/ganttline/internal/planning/domain"
	"github.com/felixgeelhaar/ganttline/internal/shared/infrastructure/database"
)

// SQLUndoLogRepository keeps undo logs in the undo_logs table.
type SQLUndoLogRepository struct {
	conn database.Connection
	now  func() time.Time
}

// NewSQLUndoLogRepository creates a new SQL undo log repository.
func NewSQLUndoLogRepository(conn database.Connection) *SQLUndoLogRepository {
	return &SQLUndoLogRepository{conn: conn, now: time.Now}
}

func (r *SQLUndoLogRepository) exec(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

func (r *SQLUndoLogRepository) q(query string) string {
	return database.Rebind(r.conn.Driver(), query)
}

// Save stores log under token until ttl elapses.
func (r *SQLUndoLogRepository) Save(ctx context.Context, token string, log domain.UndoLog, ttl time.Duration) error {
	if token == "" {
		return domain.ErrUndoLogUnspecified
	}
	entries, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("encode undo log: %w", err)
	}
	now := r.now()
	_, err = r.exec(ctx).Exec(ctx, r.q(`INSERT INTO undo_logs (token, entries, created_at, expires_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (token) DO UPDATE SET
	entries = excluded.entries,
	created_at = excluded.created_at,
	expires_at = excluded.expires_at`),
		token, string(entries), database.FormatTime(now), database.FormatTime(now.Add(ttl)))
	if err != nil {
		return fmt.Errorf("save undo log: %w", err)
	}
	return nil
}

// Take returns and deletes the log stored under token. Expired logs are
// deleted and reported as missing.
func (r *SQLUndoLogRepository) Take(ctx context.Context, token string) (domain.UndoLog, error) {
	if token == "" {
		return nil, domain.ErrUndoLogUnspecified
	}
	exec := r.exec(ctx)

	var entries, expiresAt string
	err := exec.QueryRow(ctx, r.q(`SELECT entries, expires_at FROM undo_logs WHERE token = ?`), token).
		Scan(&entries, &expiresAt)
	if database.IsNoRows(err) {
		return nil, domain.ErrUndoLogNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load undo log: %w", err)
	}

	if _, err := exec.Exec(ctx, r.q(`DELETE FROM undo_logs WHERE token = ?`), token); err != nil {
		return nil, fmt.Errorf("delete undo log: %w", err)
	}

	expires, err := database.ParseTime(expiresAt)
	if err != nil {
		return nil, err
	}
	if !r.now().Before(expires) {
		return nil, domain.ErrUndoLogNotFound
	}

	log := domain.UndoLog{}
	if err := json.Unmarshal([]byte(entries), &log); err != nil {
		return nil, fmt.Errorf("decode undo log: %w", err)
	}
	return log, nil
}

// DeleteExpired removes logs whose ttl has elapsed.
func (r *SQLUndoLogRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.exec(ctx).Exec(ctx, r.q(`DELETE FROM undo_logs WHERE expires_at <= ?`), database.FormatTime(r.now()))
	if err != nil {
		return 0, fmt.Errorf("delete expired undo logs: %w", err)
	}
	return result.RowsAffected()
}
