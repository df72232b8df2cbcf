// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/examtrace/internal/exam"
	"github.com/examtrace/internal/pipeline"
)

// Store persists extraction results and processing events to SQLite.
type Store struct {
	db *sql.DB
}

// ExamRecord is one processed document.
type ExamRecord struct {
	ID            int64     `json:"id"`
	SourcePath    string    `json:"source_path"`
	PageCount     int       `json:"page_count"`
	QuestionCount int       `json:"question_count"`
	PassRate      float64   `json:"pass_rate"`
	ProcessedAt   time.Time `json:"processed_at"`
}

// Open opens (or creates) the store at the given path.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS exams (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_path TEXT NOT NULL,
		page_count INTEGER NOT NULL,
		question_count INTEGER NOT NULL,
		pass_rate REAL NOT NULL DEFAULT 0,
		processed_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS questions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		exam_id INTEGER NOT NULL REFERENCES exams(id),
		question_number INTEGER NOT NULL,
		passage TEXT,
		question_text TEXT NOT NULL,
		options TEXT NOT NULL,
		first_page INTEGER,
		last_page INTEGER,
		re_extracted INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS verification_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		exam_id INTEGER NOT NULL REFERENCES exams(id),
		question_number INTEGER NOT NULL,
		match_score REAL NOT NULL,
		passed INTEGER NOT NULL,
		tampering_signatures TEXT,
		issues TEXT,
		error TEXT
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		event_type TEXT NOT NULL,
		document_name TEXT NOT NULL,
		details TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_questions_exam ON questions(exam_id);
	CREATE INDEX IF NOT EXISTS idx_verification_exam ON verification_results(exam_id);
	CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveResult persists one pipeline result atomically and returns the exam id.
func (s *Store) SaveResult(result *pipeline.Result) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		"INSERT INTO exams (source_path, page_count, question_count, pass_rate, processed_at) VALUES (?, ?, ?, ?, ?)",
		result.SourcePath, result.PageCount, len(result.Questions), result.Report.PassRate, time.Now(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert exam: %w", err)
	}
	examID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	reExtracted := make(map[int]bool, len(result.ReExtractedNumbers))
	for _, n := range result.ReExtractedNumbers {
		reExtracted[n] = true
	}

	for _, q := range result.Questions {
		options, err := json.Marshal(q.Options)
		if err != nil {
			return 0, fmt.Errorf("failed to encode options for question %d: %w", q.Number, err)
		}
		_, err = tx.Exec(
			"INSERT INTO questions (exam_id, question_number, passage, question_text, options, first_page, last_page, re_extracted) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			examID, q.Number, q.Passage, q.Text, string(options), q.Pages.First, q.Pages.Last, reExtracted[q.Number],
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert question %d: %w", q.Number, err)
		}
	}

	for _, r := range result.Report.DetailedResults {
		signatures, _ := json.Marshal(r.TamperingSignatures)
		issues, _ := json.Marshal(r.Issues)
		_, err = tx.Exec(
			"INSERT INTO verification_results (exam_id, question_number, match_score, passed, tampering_signatures, issues, error) VALUES (?, ?, ?, ?, ?, ?, ?)",
			examID, r.QuestionNumber, r.MatchScore, r.Passed, string(signatures), string(issues), r.Error,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert verification result for question %d: %w", r.QuestionNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return examID, nil
}

// GetQuestions returns the stored questions for an exam, ordered by number.
func (s *Store) GetQuestions(examID int64) ([]exam.QuestionStructure, error) {
	rows, err := s.db.Query(
		"SELECT question_number, passage, question_text, options, first_page, last_page FROM questions WHERE exam_id = ? ORDER BY question_number",
		examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []exam.QuestionStructure
	for rows.Next() {
		var q exam.QuestionStructure
		var options string
		if err := rows.Scan(&q.Number, &q.Passage, &q.Text, &options, &q.Pages.First, &q.Pages.Last); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
			return nil, fmt.Errorf("failed to decode options for question %d: %w", q.Number, err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// ListRecentExams returns the last N processed exams, newest first.
func (s *Store) ListRecentExams(limit int) ([]ExamRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(
		"SELECT id, source_path, page_count, question_count, pass_rate, processed_at FROM exams ORDER BY processed_at DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []ExamRecord
	for rows.Next() {
		var rec ExamRecord
		if err := rows.Scan(&rec.ID, &rec.SourcePath, &rec.PageCount, &rec.QuestionCount, &rec.PassRate, &rec.ProcessedAt); err != nil {
			return nil, err
		}
		exams = append(exams, rec)
	}
	return exams, rows.Err()
}
