package queue

import (
	"context"
	"testing"
	"time"
)

func TestMemoryQueueFIFO(t *testing.T) {
	q := NewMemoryQueue(10)
	ctx := context.Background()

	paths := []string{"/inbox/a.pdf", "/inbox/b.pdf"}
	for _, path := range paths {
		job, err := NewExtractJob(path)
		if err != nil {
			t.Fatalf("NewExtractJob failed: %v", err)
		}
		if err := q.Enqueue(ctx, job); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}

	for i := range paths {
		job, err := q.Dequeue(ctx)
		if err != nil {
			t.Fatalf("Dequeue failed: %v", err)
		}
		if job.Type != JobTypeExtract {
			t.Errorf("job %d: unexpected type %s", i, job.Type)
		}
	}
}

func TestMemoryQueueFull(t *testing.T) {
	q := NewMemoryQueue(1)
	ctx := context.Background()

	job, err := NewExtractJob("/inbox/a.pdf")
	if err != nil {
		t.Fatalf("NewExtractJob failed: %v", err)
	}
	if err := q.Enqueue(ctx, job); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if err := q.Enqueue(ctx, job); err != ErrQueueFull {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
}

func TestMemoryQueueDequeueCancel(t *testing.T) {
	q := NewMemoryQueue(1)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := q.Dequeue(ctx); err != context.DeadlineExceeded {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}
