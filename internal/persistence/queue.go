package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrQueueEmpty is returned by Pop when the wait elapsed without a message.
var ErrQueueEmpty = errors.New("queue empty")

// Queue is a FIFO of opaque messages shared by producers and one consumer.
type Queue interface {
	Push(ctx context.Context, payload []byte) error
	Pop(ctx context.Context, wait time.Duration) ([]byte, error)
}

// RedisQueue stores messages in a Redis list: LPUSH to enqueue, BRPOP to dequeue.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue binds a queue to the list at key.
func NewRedisQueue(r *Redis, key string) *RedisQueue {
	return &RedisQueue{client: r.Client, key: key}
}

// Push appends payload to the list.
func (q *RedisQueue) Push(ctx context.Context, payload []byte) error {
	return q.client.LPush(ctx, q.key, payload).Err()
}

// Pop blocks up to wait for the oldest message.
func (q *RedisQueue) Pop(ctx context.Context, wait time.Duration) ([]byte, error) {
	res, err := q.client.BRPop(ctx, wait, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrQueueEmpty
	}
	if err != nil {
		return nil, err
	}
	// BRPOP replies with [key, value].
	if len(res) != 2 {
		return nil, errors.New("unexpected BRPOP reply")
	}
	return []byte(res[1]), nil
}

// MemoryQueue is a bounded in-process queue used when Redis is unavailable.
type MemoryQueue struct {
	ch chan []byte
}

// NewMemoryQueue returns a queue holding at most size messages.
func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 128
	}
	return &MemoryQueue{ch: make(chan []byte, size)}
}

// Push enqueues payload, blocking while the queue is full.
func (q *MemoryQueue) Push(ctx context.Context, payload []byte) error {
	select {
	case q.ch <- append([]byte(nil), payload...):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pop waits up to wait for a message.
func (q *MemoryQueue) Pop(ctx context.Context, wait time.Duration) ([]byte, error) {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case payload := <-q.ch:
		return payload, nil
	case <-timer.C:
		return nil, ErrQueueEmpty
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
