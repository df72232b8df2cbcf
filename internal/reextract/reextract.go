// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package reextract

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/examtrace/internal/classifier"
	"github.com/examtrace/internal/exam"
	"github.com/examtrace/internal/oracle"
)

// Preservation-quality gate bounds.
const (
	MinReExtractedOptions = 2
	MaxReExtractedOptions = 5
	MinReExtractedTextLen = 10
)

// PageImager renders one page as PNG bytes for the oracle.
type PageImager interface {
	PageImage(pageNumber int) ([]byte, error)
}

// ReExtractor issues targeted, preservation-guided extraction requests for
// questions that failed verification.
type ReExtractor struct {
	oracle oracle.Oracle
}

// New creates a re-extractor backed by the given oracle.
func New(o oracle.Oracle) *ReExtractor {
	return &ReExtractor{oracle: o}
}

// candidate is the JSON shape the preservation prompt asks for.
type candidate struct {
	QuestionNumber int      `json:"question_number"`
	QuestionText   string   `json:"question_text"`
	Options        []string `json:"options"`
}

// ReExtract re-extracts the flagged question numbers. Numbers sharing a
// page are batched into one oracle request, amortizing the external call
// across them. Per-page failures are logged and skipped; the prior
// structures stay untouched. The returned candidates are not yet merged:
// the caller applies VerifyPreservationQuality before replacing anything.
func (r *ReExtractor) ReExtract(ctx context.Context, numbers []int, pageOf map[int]int, images PageImager) []exam.QuestionStructure {
	byPage := make(map[int][]int)
	for _, n := range numbers {
		page, ok := pageOf[n]
		if !ok {
			log.Printf("ReExtract: no page location for question %d, skipping", n)
			continue
		}
		byPage[page] = append(byPage[page], n)
	}

	pages := make([]int, 0, len(byPage))
	for page := range byPage {
		pages = append(pages, page)
	}
	sort.Ints(pages)

	var candidates []exam.QuestionStructure
	for _, page := range pages {
		expected := byPage[page]
		extracted, err := r.extractPage(ctx, page, expected, images)
		if err != nil {
			log.Printf("ReExtract: page %d failed: %v", page, err)
			continue
		}
		candidates = append(candidates, extracted...)
	}
	return candidates
}

// extractPage performs one preservation-guided oracle call for a page and
// converts the reply into question structures.
func (r *ReExtractor) extractPage(ctx context.Context, page int, expected []int, images PageImager) ([]exam.QuestionStructure, error) {
	img, err := images.PageImage(page)
	if err != nil {
		return nil, fmt.Errorf("failed to render page image: %w", err)
	}

	reply, err := r.oracle.Extract(ctx, img, oracle.PreservationPrompt(expected))
	if err != nil {
		return nil, fmt.Errorf("oracle call failed: %w", err)
	}

	parsed, err := parseCandidates(reply)
	if err != nil {
		return nil, err
	}

	wanted := make(map[int]bool, len(expected))
	for _, n := range expected {
		wanted[n] = true
	}

	var out []exam.QuestionStructure
	for _, c := range parsed {
		if !wanted[c.QuestionNumber] {
			log.Printf("ReExtract: oracle returned unrequested question %d on page %d, ignoring", c.QuestionNumber, page)
			continue
		}
		out = append(out, exam.QuestionStructure{
			Number:  c.QuestionNumber,
			Text:    strings.TrimSpace(c.QuestionText),
			Options: c.Options,
			Pages:   exam.PageRange{First: page, Last: page},
		})
	}
	return out, nil
}

func parseCandidates(reply string) ([]candidate, error) {
	cleaned := oracle.StripCodeFence(reply)
	var parsed []candidate
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode re-extraction reply: %w", err)
	}
	return parsed, nil
}

// VerifyPreservationQuality is the acceptance checklist for a re-extracted
// candidate. A rejected candidate must not replace the prior structure: an
// unverifiable replacement is worse than a flagged-but-present original.
func VerifyPreservationQuality(q exam.QuestionStructure) error {
	if q.Number <= 0 {
		return fmt.Errorf("missing question number")
	}
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return fmt.Errorf("missing question text")
	}
	if utf8.RuneCountInString(text) < MinReExtractedTextLen {
		return fmt.Errorf("question text too short (%d chars)", utf8.RuneCountInString(text))
	}
	if len(q.Options) == 0 {
		return fmt.Errorf("no options extracted")
	}
	if len(q.Options) < MinReExtractedOptions || len(q.Options) > MaxReExtractedOptions {
		return fmt.Errorf("implausible option count %d", len(q.Options))
	}
	for i, opt := range q.Options {
		if !classifier.HasOptionMarker(opt) {
			return fmt.Errorf("option %d lost its marker glyph: %q", i+1, opt)
		}
	}
	return nil
}
