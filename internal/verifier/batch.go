// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package verifier

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/examtrace/internal/exam"
	"github.com/examtrace/internal/oracle"
)

// RawCapturer independently obtains the verbatim baseline content for one
// question, typically by sending its page image to the vision oracle.
type RawCapturer interface {
	Capture(ctx context.Context, q exam.QuestionStructure) (oracle.RawPageContent, error)
}

// BatchReport aggregates a verification run over a whole exam.
type BatchReport struct {
	Total                   int                  `json:"total"`
	PassedCount             int                  `json:"passed_count"`
	PassRate                float64              `json:"pass_rate"`
	FailedQuestionNumbers   []int                `json:"failed_question_numbers"`
	TamperedQuestionNumbers []int                `json:"tampered_question_numbers"`
	DetailedResults         []VerificationResult `json:"detailed_results"`
}

// BatchVerify verifies every question, issuing raw captures concurrently
// under the given limit. Per-question failures degrade to failed results
// and never abort the batch; the aggregate is computed after all individual
// results are collected. Results keep input order.
func BatchVerify(ctx context.Context, questions []exam.QuestionStructure, capturer RawCapturer, concurrency int) BatchReport {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]VerificationResult, len(questions))

	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency)
	for i, q := range questions {
		wg.Add(1)
		go func(idx int, question exam.QuestionStructure) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[idx] = verifyOne(ctx, question, capturer)
		}(i, q)
	}
	wg.Wait()

	report := BatchReport{
		Total:                   len(questions),
		FailedQuestionNumbers:   []int{},
		TamperedQuestionNumbers: []int{},
		DetailedResults:         results,
	}
	for _, res := range results {
		if res.Passed {
			report.PassedCount++
		} else {
			report.FailedQuestionNumbers = append(report.FailedQuestionNumbers, res.QuestionNumber)
		}
		if len(res.TamperingSignatures) > 0 {
			report.TamperedQuestionNumbers = append(report.TamperedQuestionNumbers, res.QuestionNumber)
		}
	}
	if report.Total > 0 {
		report.PassRate = float64(report.PassedCount) / float64(report.Total)
	}

	log.Printf("BatchVerify: total=%d passed=%d failed=%d tampered=%d",
		report.Total, report.PassedCount, len(report.FailedQuestionNumbers), len(report.TamperedQuestionNumbers))
	return report
}

// verifyOne contains the per-question failure boundary: any error during
// raw-content acquisition degrades to a failed result carrying the message.
func verifyOne(ctx context.Context, q exam.QuestionStructure, capturer RawCapturer) VerificationResult {
	raw, err := capturer.Capture(ctx, q)
	if err != nil {
		log.Printf("BatchVerify: raw capture failed for question %d: %v", q.Number, err)
		return VerificationResult{
			QuestionNumber:      q.Number,
			TamperingSignatures: []string{},
			Issues:              []string{fmt.Sprintf("raw capture failed: %v", err)},
			Passed:              false,
			Error:               err.Error(),
		}
	}
	return Verify(q, raw)
}
