// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package watch

import (
	"sync"
	"time"
)

// Event represents a document processing event
type Event struct {
	Type      string    `json:"type"` // "file_detected", "file_queued", "file_complete", "file_error", "tampering"
	Timestamp time.Time `json:"timestamp"`
	Path      string    `json:"path,omitempty"`
	Message   string    `json:"message"`
	Questions int       `json:"questions,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Broadcaster fans processing events out to status clients
type Broadcaster struct {
	subscribers map[chan Event]bool
	mu          sync.RWMutex
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[chan Event]bool),
	}
}

// Subscribe adds a new subscriber
func (b *Broadcaster) Subscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[ch] = true
}

// Unsubscribe removes a subscriber
func (b *Broadcaster) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribers, ch)
	close(ch)
}

// Broadcast sends an event to all subscribers
func (b *Broadcaster) Broadcast(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			// Channel is full, skip this subscriber
		}
	}
}
