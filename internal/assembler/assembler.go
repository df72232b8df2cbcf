// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package assembler

import (
	"log"
	"strings"

	"github.com/examtrace/internal/classifier"
	"github.com/examtrace/internal/exam"
)

// Page pairs a page number with its raw text and classified elements.
// Pages must be supplied in page order: the pending-passage carry-over and
// the cross-page continuity merge depend on sequential state.
type Page struct {
	Number   int
	Text     string
	Elements []classifier.TextElement
}

// Assembler folds a classified element stream into question structures.
type Assembler struct {
	profile exam.Profile
}

// New creates an assembler for the given exam profile.
func New(profile exam.Profile) *Assembler {
	return &Assembler{profile: profile}
}

// Assemble consumes pages in order and reconstructs the exam's question
// structures. Parse-level failures (malformed numbers, too-short question
// text) are expected OCR noise and are dropped silently; questions left
// without options after the recovery pass are retained with empty options
// for the caller to escalate.
func (a *Assembler) Assemble(pages []Page) []exam.QuestionStructure {
	var (
		assembled []exam.QuestionStructure
		current   *exam.QuestionStructure
		pending   []string // passages seen before their question
	)

	for _, page := range pages {
		for _, elem := range page.Elements {
			switch elem.Type {
			case classifier.TypeQuestion:
				if current != nil {
					assembled = append(assembled, a.finalize(current, pages))
				}
				current = a.startQuestion(elem)
				if len(pending) > 0 {
					current.Passage = strings.Join(pending, "\n")
					pending = nil
				}

			case classifier.TypePassage:
				if current == nil {
					// Passages frequently precede their question in source
					// order; hold them for the next question started.
					pending = append(pending, elem.Content)
					continue
				}
				if current.Passage == "" {
					current.Passage = elem.Content
				} else {
					current.Passage += "\n" + elem.Content
				}
				current.Pages.Last = maxPage(current.Pages.Last, elem.PageNumber)

			case classifier.TypeOption:
				if current == nil {
					continue
				}
				// A single classified line may hold several inline options.
				parts := classifier.SplitOptions(elem.Content)
				if len(parts) == 0 {
					text, _ := classifier.StripOptionMarker(elem.Content)
					parts = []string{text}
				}
				current.Options = append(current.Options, parts...)
				current.Pages.Last = maxPage(current.Pages.Last, elem.PageNumber)
			}
			// Plain text elements carry no structure and are skipped.
		}
	}

	if current != nil {
		assembled = append(assembled, a.finalize(current, pages))
	}

	assembled = mergeContinuations(assembled)
	return a.validate(assembled)
}

// startQuestion opens a new question structure from a question element.
// An unparsable or out-of-range number is a parse failure: the number
// defaults to the invalid sentinel 0 and the validation pass drops it.
func (a *Assembler) startQuestion(elem classifier.TextElement) *exam.QuestionStructure {
	number, rest, ok := classifier.ParseQuestionMarker(elem.Content)
	if !ok || !a.profile.InRange(number) {
		if ok {
			log.Printf("Assemble: question number %d outside profile range [%d,%d], treating as parse failure",
				number, a.profile.MinQuestionNumber, a.profile.MaxQuestionNumber)
		}
		number = 0
	}
	return &exam.QuestionStructure{
		Number: number,
		Text:   rest,
		Pages:  exam.PageRange{First: elem.PageNumber, Last: elem.PageNumber},
	}
}

// finalize closes out the current question. A question that collected zero
// options gets one secondary recovery scan over its pages' raw text before
// it is emitted.
func (a *Assembler) finalize(q *exam.QuestionStructure, pages []Page) exam.QuestionStructure {
	if len(q.Options) == 0 && q.Number > 0 {
		if found := a.findMissingOptions(q, pages); len(found) > 0 {
			log.Printf("Assemble: recovered %d options for question %d", len(found), q.Number)
			q.Options = append(q.Options, found...)
		}
	}
	return *q
}

// mergeContinuations resolves the common PDF artifact of a question stem
// flowing onto the next page: an optionless question immediately followed
// by another optionless question is folded into its successor's passage
// rather than emitted as a stand-alone malformed record.
func mergeContinuations(questions []exam.QuestionStructure) []exam.QuestionStructure {
	merged := make([]exam.QuestionStructure, 0, len(questions))
	for i := 0; i < len(questions); i++ {
		q := questions[i]
		if len(q.Options) == 0 && i+1 < len(questions) && len(questions[i+1].Options) == 0 {
			next := &questions[i+1]
			fragment := q.Text
			if q.Passage != "" {
				fragment = q.Passage + "\n" + fragment
			}
			if next.Passage == "" {
				next.Passage = fragment
			} else {
				next.Passage = fragment + "\n" + next.Passage
			}
			if q.Pages.First < next.Pages.First {
				next.Pages.First = q.Pages.First
			}
			log.Printf("Assemble: folded optionless question %d into question %d as split passage", q.Number, next.Number)
			continue
		}
		merged = append(merged, q)
	}
	return merged
}

// validate applies the structural invariants before returning. A structure
// with exactly one option is not dropped: its options are reset to empty so
// the caller can re-attempt recovery instead of silently losing the
// question.
func (a *Assembler) validate(questions []exam.QuestionStructure) []exam.QuestionStructure {
	valid := make([]exam.QuestionStructure, 0, len(questions))
	for _, q := range questions {
		if !q.Valid() {
			log.Printf("Assemble: dropping invalid structure (number=%d, text=%q)", q.Number, q.Text)
			continue
		}
		if len(q.Options) == 1 {
			log.Printf("Assemble: question %d has a single option, resetting for re-recovery", q.Number)
			q.Options = nil
		}
		valid = append(valid, q)
	}
	return valid
}

func maxPage(a, b int) int {
	if b > a {
		return b
	}
	return a
}
