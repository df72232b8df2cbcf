package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrQueueFull is returned when a bounded queue cannot accept more jobs.
var ErrQueueFull = errors.New("queue is full")

// JobTypeExtract is the only job type today; the field stays so replayed
// queues can be extended without a schema break.
const JobTypeExtract = "extract"

// Job represents a job in the queue.
type Job struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
}

// ExtractPayload is the payload for extraction jobs.
type ExtractPayload struct {
	Path string `json:"path"`
}

// NewExtractJob creates an extraction job for one document path.
func NewExtractJob(path string) (Job, error) {
	payload, err := json.Marshal(ExtractPayload{Path: path})
	if err != nil {
		return Job{}, fmt.Errorf("failed to marshal extract payload: %w", err)
	}
	return Job{
		ID:        uuid.New().String(),
		Type:      JobTypeExtract,
		Payload:   payload,
		CreatedAt: time.Now(),
	}, nil
}

// Queue defines the interface for job queues.
type Queue interface {
	// Enqueue adds a job to the queue.
	Enqueue(ctx context.Context, job Job) error

	// Dequeue blocks until a job is available, then returns it.
	// Returns an error if the context is cancelled or if the operation fails.
	Dequeue(ctx context.Context) (Job, error)
}
