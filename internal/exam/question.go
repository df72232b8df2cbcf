// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package exam

import (
	"strings"
	"unicode/utf8"
)

// MinQuestionTextLen is the minimum length for a question text to be
// considered a real question rather than extraction noise.
const MinQuestionTextLen = 5

// PageRange tracks the first and last page a question spans.
type PageRange struct {
	First int `json:"first"`
	Last  int `json:"last"`
}

// QuestionStructure is the reconstructed unit of work: one exam question
// with its optional shared passage and ordered answer options.
type QuestionStructure struct {
	Number   int       `json:"question_number"` // 0 = parse failure sentinel
	Passage  string    `json:"passage,omitempty"`
	Text     string    `json:"question_text"`
	Options  []string  `json:"options"` // presentation order, markers stripped
	Pages    PageRange `json:"page_range"`
}

// Valid reports whether the structure satisfies the structural invariants:
// a positive question number and a question text of at least
// MinQuestionTextLen characters.
func (q *QuestionStructure) Valid() bool {
	return q.Number > 0 && utf8.RuneCountInString(strings.TrimSpace(q.Text)) >= MinQuestionTextLen
}

// Profile holds the per-exam configuration. Question numbering bounds are
// exam-specific (a 45-question CSAT paper and a 60-question certification
// paper disagree), so they are configuration, not constants.
type Profile struct {
	MinQuestionNumber int `mapstructure:"min_question_number"`
	MaxQuestionNumber int `mapstructure:"max_question_number"`
}

// DefaultProfile covers the common single-exam case.
func DefaultProfile() Profile {
	return Profile{MinQuestionNumber: 1, MaxQuestionNumber: 60}
}

// InRange reports whether n is a plausible question number for this exam.
func (p Profile) InRange(n int) bool {
	return n >= p.MinQuestionNumber && n <= p.MaxQuestionNumber
}
