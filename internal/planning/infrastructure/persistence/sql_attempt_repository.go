package persistence

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/ganttline/internal/planning/domain"
	"github.com/felixgeelhaar/ganttline/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// SQLRescheduleAttemptRepository stores the reschedule audit trail.
type SQLRescheduleAttemptRepository struct {
	conn database.Connection
}

// NewSQLRescheduleAttemptRepository creates a new SQL attempt repository.
func NewSQLRescheduleAttemptRepository(conn database.Connection) *SQLRescheduleAttemptRepository {
	return &SQLRescheduleAttemptRepository{conn: conn}
}

const selectAttempt = `SELECT id, model, master_id, slave_id, trigger_id, related_id,
	direction, mode, result_type, message, moved_count, attempted_at
FROM reschedule_attempts`

// Create stores a new reschedule attempt.
func (r *SQLRescheduleAttemptRepository) Create(ctx context.Context, a domain.RescheduleAttempt) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err := exec.Exec(ctx, database.Rebind(r.conn.Driver(), `INSERT INTO reschedule_attempts
	(id, model, master_id, slave_id, trigger_id, related_id, direction, mode, result_type, message, moved_count, attempted_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		a.ID.String(), a.Model,
		a.MasterID.String(), a.SlaveID.String(), a.TriggerID.String(), a.RelatedID.String(),
		string(a.Direction), string(a.Mode), string(a.ResultType), a.Message, a.MovedCount,
		database.FormatTime(a.AttemptedAt),
	)
	if err != nil {
		return fmt.Errorf("save reschedule attempt: %w", err)
	}
	return nil
}

// List returns the latest attempts first; an empty model lists all.
func (r *SQLRescheduleAttemptRepository) List(ctx context.Context, model string, limit int) ([]domain.RescheduleAttempt, error) {
	if limit <= 0 {
		limit = 50
	}

	query := selectAttempt
	args := []any{}
	if model != "" {
		query += ` WHERE model = ?`
		args = append(args, model)
	}
	query += ` ORDER BY attempted_at DESC, id LIMIT ?`
	args = append(args, limit)

	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, database.Rebind(r.conn.Driver(), query), args...)
	if err != nil {
		return nil, fmt.Errorf("list reschedule attempts: %w", err)
	}
	defer rows.Close()

	var out []domain.RescheduleAttempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAttempt(row database.Row) (domain.RescheduleAttempt, error) {
	var (
		a                                           domain.RescheduleAttempt
		id, masterID, slaveID, triggerID, relatedID string
		direction, mode, resultType, attemptedAt    string
		movedCount                                  int64
	)
	if err := row.Scan(&id, &a.Model, &masterID, &slaveID, &triggerID, &relatedID,
		&direction, &mode, &resultType, &a.Message, &movedCount, &attemptedAt); err != nil {
		return a, fmt.Errorf("scan reschedule attempt: %w", err)
	}

	ids := []struct {
		raw string
		dst *uuid.UUID
	}{
		{id, &a.ID}, {masterID, &a.MasterID}, {slaveID, &a.SlaveID},
		{triggerID, &a.TriggerID}, {relatedID, &a.RelatedID},
	}
	for _, v := range ids {
		parsed, err := uuid.Parse(v.raw)
		if err != nil {
			return a, fmt.Errorf("attempt id %q: %w", v.raw, err)
		}
		*v.dst = parsed
	}

	attempted, err := database.ParseTime(attemptedAt)
	if err != nil {
		return a, err
	}
	a.AttemptedAt = attempted
	a.Direction = domain.Direction(direction)
	a.Mode = domain.Mode(mode)
	a.ResultType = domain.ResultType(resultType)
	a.MovedCount = int(movedCount)
	return a, nil
}
