// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package classifier

import (
	"strings"
	"unicode/utf8"
)

// ElementType labels one classified line of page text.
type ElementType string

const (
	TypeQuestion ElementType = "question"
	TypeOption   ElementType = "option"
	TypePassage  ElementType = "passage"
	TypeText     ElementType = "text"
)

// Fixed per-family confidence constants. This is a deterministic heuristic
// classifier, not a statistical model: reproducibility relies on identical
// pattern sets and ordering, and the confidence values are advisory only.
const (
	ConfidenceQuestion = 0.9
	ConfidenceOption   = 0.85
	ConfidencePassage  = 0.7
	ConfidenceText     = 0.3
)

// MinLineLen is the minimum rune count for a line to carry structural
// signal; anything shorter is dropped before classification.
const MinLineLen = 3

// TextElement is one classified line of page text.
type TextElement struct {
	Content    string      `json:"content"`
	Type       ElementType `json:"type"`
	PageNumber int         `json:"page_number"`
	LineIndex  int         `json:"line_index"`
	Confidence float64     `json:"confidence"`
}

// PageKind describes a whole page after classification.
type PageKind string

const (
	// ProblemPage contains at least one question, option or passage element.
	ProblemPage PageKind = "problem_page"
	// TheoryPage yielded no structural elements. Informational, not an error:
	// exam booklets interleave instruction and formula-sheet pages.
	TheoryPage PageKind = "theory_page"
)

// Classify scans page text line by line and tags each non-trivial line with
// a structural type. Empty input returns an empty slice; Classify never
// fails. Running it twice over the same input yields identical output.
func Classify(pageText string, pageNumber int) []TextElement {
	elements := []TextElement{}
	if strings.TrimSpace(pageText) == "" {
		return elements
	}

	for idx, rawLine := range strings.Split(pageText, "\n") {
		line := strings.TrimSpace(rawLine)
		if utf8.RuneCountInString(line) < MinLineLen || punctuationOnly.MatchString(line) {
			continue
		}

		elem := TextElement{
			Content:    line,
			Type:       TypeText,
			PageNumber: pageNumber,
			LineIndex:  idx,
			Confidence: ConfidenceText,
		}

		// First matching family wins; family order is load-bearing.
		for _, family := range families {
			if utf8.RuneCountInString(line) < family.minLen {
				continue
			}
			if family.matches(line) {
				elem.Type = family.typ
				elem.Confidence = family.confidence
				break
			}
		}

		elements = append(elements, elem)
	}

	return elements
}

// KindOf reports whether the classified page carries question structure.
func KindOf(elements []TextElement) PageKind {
	for _, e := range elements {
		switch e.Type {
		case TypeQuestion, TypeOption, TypePassage:
			return ProblemPage
		}
	}
	return TheoryPage
}
