// Package feedback persists user corrections and hands full batches to the
// out-of-band retraining worker. The request path only writes a row and, at
// the batch threshold, enqueues a job — training itself never runs inside a
// handler.
package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueKey is the Redis list the retraining worker consumes.
const DefaultQueueKey = "phishsense:retrain:jobs"

// RetrainJob describes one batch of corrections ready for retraining.
type RetrainJob struct {
	ID         string    `json:"id"`
	BatchSize  int64     `json:"batch_size"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// RetrainQueue publishes retrain jobs onto a Redis list.
type RetrainQueue struct {
	rdb *redis.Client
	key string
}

// NewRetrainQueue wraps the Redis client. An empty key uses DefaultQueueKey.
func NewRetrainQueue(rdb *redis.Client, key string) *RetrainQueue {
	if key == "" {
		key = DefaultQueueKey
	}
	return &RetrainQueue{rdb: rdb, key: key}
}

// Enqueue pushes one job and returns its id.
func (q *RetrainQueue) Enqueue(ctx context.Context, batchSize int64) (string, error) {
	job := RetrainJob{
		ID:         uuid.NewString(),
		BatchSize:  batchSize,
		EnqueuedAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("failed to marshal retrain job: %w", err)
	}

	if err := q.rdb.LPush(ctx, q.key, payload).Err(); err != nil {
		return "", fmt.Errorf("failed to enqueue retrain job: %w", err)
	}
	return job.ID, nil
}

// Pending returns the number of jobs waiting on the list.
func (q *RetrainQueue) Pending(ctx context.Context) (int64, error) {
	n, err := q.rdb.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read queue length: %w", err)
	}
	return n, nil
}
