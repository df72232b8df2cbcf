// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"

	"github.com/examtrace/internal/pipeline"
	"github.com/examtrace/internal/queue"
	"github.com/examtrace/internal/report"
	"github.com/examtrace/internal/store"
)

// ExtractHandler runs the extraction pipeline for queued documents and
// persists the outcome. Store, Reports and Notify are optional.
type ExtractHandler struct {
	Pipeline *pipeline.Pipeline
	Store    *store.Store
	Reports  *report.Writer
	Notify   func(result *pipeline.Result)
}

// Handle processes one extraction job.
func (h *ExtractHandler) Handle(ctx context.Context, job queue.Job) error {
	if job.Type != queue.JobTypeExtract {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	var payload queue.ExtractPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("failed to decode extract payload: %w", err)
	}

	docName := filepath.Base(payload.Path)
	h.logEvent("processing", docName, "extraction started")

	result, err := h.Pipeline.Run(ctx, payload.Path)
	if err != nil {
		h.logEvent("error", docName, err.Error())
		return fmt.Errorf("pipeline failed for %s: %w", payload.Path, err)
	}

	h.logEvent("extracted", docName, fmt.Sprintf("%d questions from %d pages", len(result.Questions), result.PageCount))

	if result.Report.Total > 0 {
		h.logEvent("verified", docName, fmt.Sprintf("pass rate %.2f (%d/%d)",
			result.Report.PassRate, result.Report.PassedCount, result.Report.Total))
		if len(result.Report.TamperedQuestionNumbers) > 0 {
			h.logEvent("tampering", docName, fmt.Sprintf("signatures on questions %v", result.Report.TamperedQuestionNumbers))
		}
	}

	if h.Store != nil {
		if _, err := h.Store.SaveResult(result); err != nil {
			log.Printf("Handle: failed to save result for %s: %v", docName, err)
		}
	}

	if h.Reports != nil {
		reportPath, err := h.Reports.WriteResult(result)
		if err != nil {
			log.Printf("Handle: failed to write report for %s: %v", docName, err)
		} else {
			log.Printf("Handle: report written to %s", reportPath)
		}
	}

	if h.Notify != nil {
		h.Notify(result)
	}

	return nil
}

func (h *ExtractHandler) logEvent(eventType, docName, details string) {
	if h.Store == nil {
		return
	}
	if err := h.Store.LogEvent(eventType, docName, details); err != nil {
		log.Printf("logEvent: failed to store %s event for %s: %v", eventType, docName, err)
	}
}
