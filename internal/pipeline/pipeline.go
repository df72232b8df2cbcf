// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/examtrace/internal/assembler"
	"github.com/examtrace/internal/classifier"
	"github.com/examtrace/internal/exam"
	"github.com/examtrace/internal/logger"
	"github.com/examtrace/internal/oracle"
	"github.com/examtrace/internal/reextract"
	"github.com/examtrace/internal/source"
	"github.com/examtrace/internal/verifier"
)

// Result is the full outcome of processing one exam document.
type Result struct {
	SourcePath         string                   `json:"source_path"`
	PageCount          int                      `json:"page_count"`
	PageKinds          []classifier.PageKind    `json:"page_kinds"`
	Questions          []exam.QuestionStructure `json:"questions"`
	Report             verifier.BatchReport     `json:"verification_report"`
	ReExtractedNumbers []int                    `json:"re_extracted_numbers"`
}

// Pipeline runs the extraction stages end to end: classify pages, assemble
// question structures, verify against the oracle's raw capture, and
// re-extract what failed. A nil oracle runs extraction only.
type Pipeline struct {
	profile     exam.Profile
	oracle      oracle.Oracle
	concurrency int
}

// New creates a pipeline. concurrency bounds parallel oracle calls and
// page classification.
func New(profile exam.Profile, o oracle.Oracle, concurrency int) *Pipeline {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pipeline{profile: profile, oracle: o, concurrency: concurrency}
}

// Run processes one exam document.
func (p *Pipeline) Run(ctx context.Context, path string) (*Result, error) {
	src, err := source.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source: %w", err)
	}
	defer src.Close()

	pages, err := p.classifyPages(src)
	if err != nil {
		return nil, err
	}

	kinds := make([]classifier.PageKind, len(pages))
	theoryPages := 0
	for i, page := range pages {
		kinds[i] = classifier.KindOf(page.Elements)
		if kinds[i] == classifier.TheoryPage {
			theoryPages++
		}
	}

	questions := assembler.New(p.profile).Assemble(pages)
	logger.Printf("Run: %s: assembled %d questions from %d pages (%d theory)",
		path, len(questions), len(pages), theoryPages)

	result := &Result{
		SourcePath: path,
		PageCount:  src.PageCount(),
		PageKinds:  kinds,
		Questions:  questions,
	}

	if p.oracle == nil || len(questions) == 0 {
		return result, nil
	}

	capturer := &OracleCapturer{Oracle: p.oracle, Images: src}
	result.Report = verifier.BatchVerify(ctx, questions, capturer, p.concurrency)
	logger.Printf("Run: %s: verification pass rate %.2f (%d/%d)",
		path, result.Report.PassRate, result.Report.PassedCount, result.Report.Total)

	if len(result.Report.FailedQuestionNumbers) > 0 {
		result.ReExtractedNumbers = p.reExtractFailed(ctx, result, src)
	}

	return result, nil
}

// classifyPages reads page text sequentially (the PDF handle is not built
// for concurrent reads) and classifies pages in parallel.
func (p *Pipeline) classifyPages(src source.Source) ([]assembler.Page, error) {
	count := src.PageCount()
	if count == 0 {
		return nil, fmt.Errorf("document has no pages")
	}

	texts := make([]string, count)
	for i := 1; i <= count; i++ {
		text, err := src.PageText(i)
		if err != nil {
			logger.Warnf("classifyPages: page %d unreadable, skipping: %v", i, err)
			continue
		}
		texts[i-1] = text
	}

	pages := make([]assembler.Page, count)
	sem := make(chan struct{}, p.concurrency)
	var wg sync.WaitGroup
	for i := 1; i <= count; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(pageNumber int) {
			defer wg.Done()
			defer func() { <-sem }()
			text := texts[pageNumber-1]
			pages[pageNumber-1] = assembler.Page{
				Number:   pageNumber,
				Text:     text,
				Elements: classifier.Classify(text, pageNumber),
			}
		}(i)
	}
	wg.Wait()

	return pages, nil
}

// reExtractFailed re-extracts the failed questions and merges the
// candidates that survive the preservation gate. Returns the numbers that
// were actually replaced.
func (p *Pipeline) reExtractFailed(ctx context.Context, result *Result, images reextract.PageImager) []int {
	pageOf := make(map[int]int, len(result.Questions))
	for _, q := range result.Questions {
		pageOf[q.Number] = q.Pages.First
	}

	candidates := reextract.New(p.oracle).ReExtract(ctx, result.Report.FailedQuestionNumbers, pageOf, images)

	var replaced []int
	for _, c := range candidates {
		if err := reextract.VerifyPreservationQuality(c); err != nil {
			logger.Warnf("reExtractFailed: question %d candidate rejected: %v", c.Number, err)
			continue
		}
		if p.replaceQuestion(result, c) {
			replaced = append(replaced, c.Number)
		}
	}
	if len(replaced) > 0 {
		logger.Printf("reExtractFailed: replaced %d of %d failed questions", len(replaced), len(result.Report.FailedQuestionNumbers))
	}
	return replaced
}

// replaceQuestion swaps in a re-extracted candidate by question number.
// Candidate options keep their printed marker glyphs; markers are stripped
// on merge so the structured set stays uniform.
func (p *Pipeline) replaceQuestion(result *Result, c exam.QuestionStructure) bool {
	for i, q := range result.Questions {
		if q.Number != c.Number {
			continue
		}
		stripped := make([]string, len(c.Options))
		for j, opt := range c.Options {
			stripped[j], _ = classifier.StripOptionMarker(opt)
		}
		c.Options = stripped
		if c.Passage == "" {
			c.Passage = q.Passage // the text layer's passage is still the best we have
		}
		result.Questions[i] = c
		return true
	}
	return false
}
