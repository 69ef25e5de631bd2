package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/ganttline/internal/planning/domain"
	"github.com/redis/go-redis/v9"
)

const undoKeyPrefix = "ganttline:undo:"

// RedisUndoLogRepository keeps undo logs in Redis and lets the server
// expire them.
type RedisUndoLogRepository struct {
	client *redis.Client
}

// NewRedisUndoLogRepository creates a new Redis undo log repository.
func NewRedisUndoLogRepository(client *redis.Client) *RedisUndoLogRepository {
	return &RedisUndoLogRepository{client: client}
}

func undoKey(token string) string {
	return undoKeyPrefix + token
}

// Save stores log under token for ttl.
func (r *RedisUndoLogRepository) Save(ctx context.Context, token string, log domain.UndoLog, ttl time.Duration) error {
	if token == "" {
		return domain.ErrUndoLogUnspecified
	}
	data, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("encode undo log: %w", err)
	}
	if err := r.client.Set(ctx, undoKey(token), data, ttl).Err(); err != nil {
		return fmt.Errorf("save undo log: %w", err)
	}
	return nil
}

// Take returns and deletes the log stored under token.
func (r *RedisUndoLogRepository) Take(ctx context.Context, token string) (domain.UndoLog, error) {
	if token == "" {
		return nil, domain.ErrUndoLogUnspecified
	}
	data, err := r.client.GetDel(ctx, undoKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrUndoLogNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load undo log: %w", err)
	}

	log := domain.UndoLog{}
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, fmt.Errorf("decode undo log: %w", err)
	}
	return log, nil
}
