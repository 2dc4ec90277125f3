package feedback

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestQueue(t *testing.T, key string) (*RetrainQueue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRetrainQueue(rdb, key), mr
}

func TestEnqueueWritesJob(t *testing.T) {
	q, mr := newTestQueue(t, "")
	ctx := context.Background()

	id, err := q.Enqueue(ctx, 500)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if id == "" {
		t.Error("expected a non-empty job id")
	}

	payload, err := mr.Lpop(DefaultQueueKey)
	if err != nil {
		t.Fatalf("Lpop: %v", err)
	}

	var job RetrainJob
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		t.Fatalf("job payload is not valid JSON: %v", err)
	}
	if job.ID != id {
		t.Errorf("job id = %q, want %q", job.ID, id)
	}
	if job.BatchSize != 500 {
		t.Errorf("batch size = %d, want 500", job.BatchSize)
	}
	if job.EnqueuedAt.IsZero() {
		t.Error("enqueued-at timestamp is zero")
	}
}

func TestEnqueueUsesCustomKey(t *testing.T) {
	q, mr := newTestQueue(t, "custom:jobs")
	ctx := context.Background()

	if _, err := q.Enqueue(ctx, 10); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if !mr.Exists("custom:jobs") {
		t.Error("job not written to the custom key")
	}
	if mr.Exists(DefaultQueueKey) {
		t.Error("default key should stay empty when a custom key is set")
	}
}

func TestPendingCountsJobs(t *testing.T) {
	q, _ := newTestQueue(t, "")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := q.Enqueue(ctx, int64(i+1)); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	n, err := q.Pending(ctx)
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if n != 3 {
		t.Errorf("pending = %d, want 3", n)
	}
}

func TestEnqueueIDsAreUnique(t *testing.T) {
	q, _ := newTestQueue(t, "")
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		id, err := q.Enqueue(ctx, 1)
		if err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate job id %q", id)
		}
		seen[id] = true
	}
}
