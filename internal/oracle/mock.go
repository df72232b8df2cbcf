// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package oracle

import (
	"context"
	"sync"
)

// MockOracle is a deterministic oracle for tests. It returns a fixed reply,
// or the result of ReplyFunc when set, and records every prompt it was
// asked.
type MockOracle struct {
	Reply     string
	ReplyFunc func(prompt string) (string, error)
	Err       error

	mu      sync.Mutex
	Prompts []string
	Calls   int
}

// NewMockOracle creates a mock oracle with a fixed reply.
func NewMockOracle(reply string) *MockOracle {
	return &MockOracle{Reply: reply}
}

// Extract records the prompt and returns the configured reply.
func (m *MockOracle) Extract(ctx context.Context, image []byte, prompt string) (string, error) {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, prompt)
	m.Calls++
	m.mu.Unlock()

	if m.Err != nil {
		return "", m.Err
	}
	if m.ReplyFunc != nil {
		return m.ReplyFunc(prompt)
	}
	return m.Reply, nil
}
