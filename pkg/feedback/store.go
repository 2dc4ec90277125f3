package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultRetrainThreshold is how many pending corrections accumulate before
// a retrain job is enqueued.
const DefaultRetrainThreshold = 500

// Correction is one user-submitted label correction, together with the
// feature vector extracted at prediction time so the training job never has
// to re-derive it.
type Correction struct {
	URL           string          `json:"url"`
	UserLabel     string          `json:"user_label"`     // "safe" or "phishing"
	PredictionWas string          `json:"prediction_was"` // the verdict the user is correcting
	Features      map[string]int8 `json:"features"`
}

// Store persists corrections to Postgres and triggers the retrain queue when
// a full batch is pending.
type Store struct {
	pool      *pgxpool.Pool
	queue     *RetrainQueue
	threshold int64
}

// NewStore wires the Postgres pool and the retrain queue. A nil queue
// disables job publishing; threshold <= 0 uses DefaultRetrainThreshold.
func NewStore(pool *pgxpool.Pool, queue *RetrainQueue, threshold int64) *Store {
	if threshold <= 0 {
		threshold = DefaultRetrainThreshold
	}
	return &Store{pool: pool, queue: queue, threshold: threshold}
}

// EnsureSchema creates the feedback table if missing. Idempotent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS feedback_corrections (
			id             UUID PRIMARY KEY,
			url            TEXT NOT NULL,
			user_label     TEXT NOT NULL,
			prediction_was TEXT NOT NULL,
			features       JSONB NOT NULL,
			consumed       BOOLEAN NOT NULL DEFAULT FALSE,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("failed to ensure feedback schema: %w", err)
	}
	return nil
}

// Record inserts one correction and returns the pending (unconsumed) count.
// When the count reaches the threshold, the pending batch is marked consumed
// and a retrain job is enqueued for the out-of-band worker.
func (s *Store) Record(ctx context.Context, c Correction) (int64, error) {
	features, err := json.Marshal(c.Features)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal features: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO feedback_corrections (id, url, user_label, prediction_was, features)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), c.URL, c.UserLabel, c.PredictionWas, features)
	if err != nil {
		return 0, fmt.Errorf("failed to insert correction: %w", err)
	}

	var pending int64
	err = s.pool.QueryRow(ctx,
		`SELECT count(*) FROM feedback_corrections WHERE NOT consumed`).Scan(&pending)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending corrections: %w", err)
	}

	if pending >= s.threshold && s.queue != nil {
		if err := s.consumeBatch(ctx, pending); err != nil {
			// The correction itself is stored; losing the trigger is
			// recoverable on the next insert.
			log.Printf("WARNING: retrain trigger failed: %v", err)
		}
	}
	return pending, nil
}

func (s *Store) consumeBatch(ctx context.Context, pending int64) error {
	jobID, err := s.queue.Enqueue(ctx, pending)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx,
		`UPDATE feedback_corrections SET consumed = TRUE WHERE NOT consumed`)
	if err != nil {
		return fmt.Errorf("failed to mark batch consumed: %w", err)
	}

	log.Printf("retrain job %s enqueued (%d corrections)", jobID, pending)
	return nil
}
