package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/ganttline/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// SQLRepository implements Repository on any database.Connection.
type SQLRepository struct {
	conn database.Connection
	now  func() time.Time
}

// NewSQLRepository creates a new SQL outbox repository.
func NewSQLRepository(conn database.Connection) *SQLRepository {
	return &SQLRepository{conn: conn, now: time.Now}
}

const insertMessage = `INSERT INTO outbox
	(event_id, aggregate_type, aggregate_id, event_type, routing_key, payload, metadata, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id`

const selectMessage = `SELECT id, event_id, aggregate_type, aggregate_id, event_type, routing_key,
	payload, metadata, created_at, published_at, next_retry_at, retry_count, last_error,
	dead_lettered_at, dead_letter_reason
FROM outbox`

func (r *SQLRepository) q(query string) string {
	return database.Rebind(r.conn.Driver(), query)
}

func (r *SQLRepository) exec(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

// Save stores a new outbox message.
func (r *SQLRepository) Save(ctx context.Context, msg *Message) error {
	return r.insert(ctx, r.exec(ctx), msg)
}

// SaveBatch stores multiple outbox messages, in a transaction of its own
// when the context carries none.
func (r *SQLRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	if len(msgs) == 0 {
		return nil
	}

	if database.TxFromContext(ctx) != nil {
		for _, msg := range msgs {
			if err := r.insert(ctx, r.exec(ctx), msg); err != nil {
				return err
			}
		}
		return nil
	}

	tx, err := r.conn.BeginTx(ctx)
	if err != nil {
		return err
	}
	for _, msg := range msgs {
		if err := r.insert(ctx, tx, msg); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *SQLRepository) insert(ctx context.Context, exec database.Executor, msg *Message) error {
	metadata := string(msg.Metadata)
	if metadata == "" {
		metadata = "{}"
	}
	err := exec.QueryRow(ctx, r.q(insertMessage),
		msg.EventID.String(),
		msg.AggregateType,
		msg.AggregateID.String(),
		msg.EventType,
		msg.RoutingKey,
		string(msg.Payload),
		metadata,
		database.FormatTime(msg.CreatedAt),
	).Scan(&msg.ID)
	if err != nil {
		return fmt.Errorf("insert outbox message %s: %w", msg.EventID, err)
	}
	return nil
}

// GetUnpublished retrieves messages ready to publish, oldest first.
func (r *SQLRepository) GetUnpublished(ctx context.Context, limit int) ([]*Message, error) {
	query := selectMessage + `
WHERE published_at IS NULL AND dead_lettered_at IS NULL
	AND (next_retry_at IS NULL OR next_retry_at <= ?)
ORDER BY created_at, id
LIMIT ?`

	rows, err := r.exec(ctx).Query(ctx, r.q(query), database.FormatTime(r.now()), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []*Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// MarkPublished marks a message as successfully published.
func (r *SQLRepository) MarkPublished(ctx context.Context, id int64) error {
	_, err := r.exec(ctx).Exec(ctx, r.q(`UPDATE outbox SET published_at = ? WHERE id = ?`),
		database.FormatTime(r.now()), id)
	return err
}

// MarkFailed records a publish failure with error message.
func (r *SQLRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	_, err := r.exec(ctx).Exec(ctx,
		r.q(`UPDATE outbox SET retry_count = retry_count + 1, last_error = ?, next_retry_at = ? WHERE id = ?`),
		errMsg, database.FormatTime(nextRetryAt), id)
	return err
}

// MarkDead marks a message as dead-lettered.
func (r *SQLRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	_, err := r.exec(ctx).Exec(ctx,
		r.q(`UPDATE outbox SET retry_count = retry_count + 1, dead_lettered_at = ?, dead_letter_reason = ? WHERE id = ?`),
		database.FormatTime(r.now()), reason, id)
	return err
}

// DeleteOld removes published messages older than the retention period.
func (r *SQLRepository) DeleteOld(ctx context.Context, olderThanDays int) (int64, error) {
	cutoff := r.now().AddDate(0, 0, -olderThanDays)
	result, err := r.exec(ctx).Exec(ctx,
		r.q(`DELETE FROM outbox WHERE published_at IS NOT NULL AND published_at < ?`),
		database.FormatTime(cutoff))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanMessage(row database.Row) (*Message, error) {
	var (
		msg                                    Message
		eventID, aggregateID                   string
		payload, metadata, createdAt           string
		publishedAt, nextRetryAt, deadLettered *string
	)
	err := row.Scan(&msg.ID, &eventID, &msg.AggregateType, &aggregateID, &msg.EventType, &msg.RoutingKey,
		&payload, &metadata, &createdAt, &publishedAt, &nextRetryAt, &msg.RetryCount, &msg.LastError,
		&deadLettered, &msg.DeadLetterReason)
	if err != nil {
		return nil, err
	}

	if msg.EventID, err = uuid.Parse(eventID); err != nil {
		return nil, fmt.Errorf("outbox %d event_id: %w", msg.ID, err)
	}
	if msg.AggregateID, err = uuid.Parse(aggregateID); err != nil {
		return nil, fmt.Errorf("outbox %d aggregate_id: %w", msg.ID, err)
	}
	msg.Payload = []byte(payload)
	msg.Metadata = []byte(metadata)
	if msg.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return nil, err
	}
	if msg.PublishedAt, err = database.ParseNullTime(publishedAt); err != nil {
		return nil, err
	}
	if msg.NextRetryAt, err = database.ParseNullTime(nextRetryAt); err != nil {
		return nil, err
	}
	if msg.DeadLetteredAt, err = database.ParseNullTime(deadLettered); err != nil {
		return nil, err
	}
	return &msg, nil
}
