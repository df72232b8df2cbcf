package queue

import (
	"context"
	"log"
)

// MemoryQueue is a channel-backed Queue for single-process deployments
// and tests. Jobs do not survive a restart; use the Redis queue when that
// matters.
type MemoryQueue struct {
	jobs chan Job
}

// NewMemoryQueue creates an in-memory queue with the given capacity.
func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity <= 0 {
		capacity = 100
	}
	return &MemoryQueue{jobs: make(chan Job, capacity)}
}

// Enqueue adds a job, failing if the queue is full rather than blocking
// the watcher.
func (m *MemoryQueue) Enqueue(ctx context.Context, job Job) error {
	select {
	case m.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		log.Printf("Enqueue: memory queue full, dropping job id=%s", job.ID)
		return ErrQueueFull
	}
}

// Dequeue blocks until a job is available or the context is cancelled.
func (m *MemoryQueue) Dequeue(ctx context.Context) (Job, error) {
	select {
	case <-ctx.Done():
		return Job{}, ctx.Err()
	case job := <-m.jobs:
		return job, nil
	}
}
