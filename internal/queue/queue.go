// Package queue is a redis-backed, at-least-once task broker for
// optimization jobs (§4.1). No task-queue library (asynq, machinery,
// river, gocraft/work) exists anywhere in the retrieval pack this module
// was built from, so the broker is hand-written directly on the teacher's
// own go-redis client construction style.
package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"logistics/pkg/config"
)

// ErrEmpty is returned by Dequeue when no task became available before ctx
// or the poll timeout expired.
var ErrEmpty = errors.New("queue: no task available")

const (
	pendingKey    = "routing:jobs:pending"
	processingKey = "routing:jobs:processing"
	cancelledKey  = "routing:jobs:cancelled"
	retriesKey    = "routing:jobs:retries"
)

// Broker is a reliable-queue wrapper (LPUSH/BRPOPLPUSH) around a redis
// list: pendingKey holds not-yet-claimed job ids, processingKey holds ids a
// worker has claimed but not yet acknowledged, and cancelledKey is a set a
// worker consults to short-circuit a claimed-but-cancelled job.
type Broker struct {
	client *redis.Client
}

// New dials the broker's redis instance.
func New(cfg config.QueueConfig) (*Broker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("queue: redis ping failed: %w", err)
	}

	return &Broker{client: client}, nil
}

// Close releases the underlying redis connection pool.
func (b *Broker) Close() error {
	return b.client.Close()
}

// Enqueue pushes a job id onto the pending list (§4.1 submission).
func (b *Broker) Enqueue(ctx context.Context, jobID uuid.UUID) error {
	if err := b.client.LPush(ctx, pendingKey, jobID.String()).Err(); err != nil {
		return fmt.Errorf("queue: enqueue: %w", err)
	}
	return nil
}

// Dequeue blocks up to timeout for a job id to appear on the pending list,
// atomically moving it to the processing list so a worker crash before Ack
// leaves the id recoverable by Recover.
func (b *Broker) Dequeue(ctx context.Context, timeout time.Duration) (uuid.UUID, error) {
	raw, err := b.client.BRPopLPush(ctx, pendingKey, processingKey, timeout).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, ErrEmpty
		}
		return uuid.Nil, fmt.Errorf("queue: dequeue: %w", err)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("queue: dequeue: malformed job id %q: %w", raw, err)
	}
	return id, nil
}

// Ack removes a successfully-processed job id from the processing list.
func (b *Broker) Ack(ctx context.Context, jobID uuid.UUID) error {
	if err := b.client.LRem(ctx, processingKey, 1, jobID.String()).Err(); err != nil {
		return fmt.Errorf("queue: ack: %w", err)
	}
	return nil
}

// Recover moves every id still on the processing list back onto pending.
// Called at worker-pool startup to reclaim jobs orphaned by a prior crash.
func (b *Broker) Recover(ctx context.Context) (int, error) {
	n := 0
	for {
		raw, err := b.client.RPopLPush(ctx, processingKey, pendingKey).Result()
		if errors.Is(err, redis.Nil) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("queue: recover: %w", err)
		}
		_ = raw
		n++
	}
}

// Cancel marks a job id as cancelled; a worker that has already claimed it
// consults IsCancelled before committing solver results (§4.1/§5.2 race).
func (b *Broker) Cancel(ctx context.Context, jobID uuid.UUID) error {
	if err := b.client.SAdd(ctx, cancelledKey, jobID.String()).Err(); err != nil {
		return fmt.Errorf("queue: cancel: %w", err)
	}
	return nil
}

// IsCancelled reports whether Cancel was called for jobID.
func (b *Broker) IsCancelled(ctx context.Context, jobID uuid.UUID) (bool, error) {
	ok, err := b.client.SIsMember(ctx, cancelledKey, jobID.String()).Result()
	if err != nil {
		return false, fmt.Errorf("queue: is-cancelled: %w", err)
	}
	return ok, nil
}

// ClearCancelled removes the cancellation marker once a job has reached a
// terminal state, so the set does not grow unbounded.
func (b *Broker) ClearCancelled(ctx context.Context, jobID uuid.UUID) error {
	if err := b.client.SRem(ctx, cancelledKey, jobID.String()).Err(); err != nil {
		return fmt.Errorf("queue: clear-cancelled: %w", err)
	}
	return nil
}

// IncrementRetries bumps jobID's redelivery count and returns the new total,
// backing the §4.1 "retried up to the configured cap" rule: process() calls
// this when a task fails so the caller can compare against MaxRetries.
func (b *Broker) IncrementRetries(ctx context.Context, jobID uuid.UUID) (int64, error) {
	n, err := b.client.HIncrBy(ctx, retriesKey, jobID.String(), 1).Result()
	if err != nil {
		return 0, fmt.Errorf("queue: increment-retries: %w", err)
	}
	return n, nil
}

// ClearRetries forgets jobID's redelivery count once it reaches a terminal
// state, so the hash does not grow unbounded.
func (b *Broker) ClearRetries(ctx context.Context, jobID uuid.UUID) error {
	if err := b.client.HDel(ctx, retriesKey, jobID.String()).Err(); err != nil {
		return fmt.Errorf("queue: clear-retries: %w", err)
	}
	return nil
}

// Depth reports the number of jobs waiting to be claimed.
func (b *Broker) Depth(ctx context.Context) (int64, error) {
	n, err := b.client.LLen(ctx, pendingKey).Result()
	if err != nil {
		return 0, fmt.Errorf("queue: depth: %w", err)
	}
	return n, nil
}
