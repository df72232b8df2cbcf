// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package pipeline

import (
	"context"
	"fmt"

	"github.com/examtrace/internal/exam"
	"github.com/examtrace/internal/oracle"
	"github.com/examtrace/internal/reextract"
)

// OracleCapturer captures the raw printed content of a question's page
// region through the vision oracle. It is the verification baseline:
// independent of the text-layer extraction path.
type OracleCapturer struct {
	Oracle oracle.Oracle
	Images reextract.PageImager
}

// Capture renders the question's first page and asks the oracle for a
// verbatim transcription of the question.
func (c *OracleCapturer) Capture(ctx context.Context, q exam.QuestionStructure) (oracle.RawPageContent, error) {
	img, err := c.Images.PageImage(q.Pages.First)
	if err != nil {
		return oracle.RawPageContent{}, fmt.Errorf("failed to render page %d: %w", q.Pages.First, err)
	}

	reply, err := c.Oracle.Extract(ctx, img, oracle.RawCapturePrompt(q.Number))
	if err != nil {
		return oracle.RawPageContent{}, fmt.Errorf("oracle call failed for question %d: %w", q.Number, err)
	}

	return oracle.ParseRawPageContent(reply)
}
