// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package watch

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/gen2brain/beeep"

	"github.com/examtrace/internal/pipeline"
)

// NotifyResult raises a desktop alert when a processed document carries
// tamper signatures, and broadcasts the outcome either way.
func NotifyResult(broadcaster *Broadcaster, result *pipeline.Result) {
	docName := filepath.Base(result.SourcePath)

	if len(result.Report.TamperedQuestionNumbers) > 0 {
		message := fmt.Sprintf("%s: tamper signatures on questions %v", docName, result.Report.TamperedQuestionNumbers)
		broadcaster.Broadcast(Event{
			Type:    "tampering",
			Path:    result.SourcePath,
			Message: message,
		})
		if err := beeep.Alert("Exam tampering suspected", message, ""); err != nil {
			log.Printf("NotifyResult: failed to send desktop alert: %v", err)
		}
		return
	}

	broadcaster.Broadcast(Event{
		Type:      "file_complete",
		Path:      result.SourcePath,
		Message:   fmt.Sprintf("Processed %s: %d questions", docName, len(result.Questions)),
		Questions: len(result.Questions),
	})
}
