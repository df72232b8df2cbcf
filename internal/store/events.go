// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package store

import "time"

// Event represents a processing event
type Event struct {
	ID           int64     `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	EventType    string    `json:"event_type"` // detected, extracted, verified, tampering, error
	DocumentName string    `json:"document_name"`
	Details      string    `json:"details"`
}

// LogEvent logs a new processing event
func (s *Store) LogEvent(eventType, documentName, details string) error {
	_, err := s.db.Exec(
		"INSERT INTO events (timestamp, event_type, document_name, details) VALUES (?, ?, ?, ?)",
		time.Now(),
		eventType,
		documentName,
		details,
	)
	return err
}

// GetRecentEvents returns the last N events, sorted by timestamp descending
func (s *Store) GetRecentEvents(limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.Query(
		"SELECT id, timestamp, event_type, document_name, details FROM events ORDER BY timestamp DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var event Event
		if err := rows.Scan(&event.ID, &event.Timestamp, &event.EventType, &event.DocumentName, &event.Details); err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, rows.Err()
}
