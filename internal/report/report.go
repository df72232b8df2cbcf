// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/examtrace/internal/pipeline"
)

// Writer renders pipeline results as XLSX workbooks, one per document:
// a Questions sheet with the extracted structures and a Verification sheet
// with per-question scores and tamper signatures.
type Writer struct {
	dir string
}

// NewWriter creates a report writer. The directory is created on demand.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// WriteResult writes one workbook and returns its path.
func (w *Writer) WriteResult(result *pipeline.Result) (string, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := w.writeQuestionsSheet(f, result); err != nil {
		return "", err
	}
	if result.Report.Total > 0 {
		if err := w.writeVerificationSheet(f, result); err != nil {
			return "", err
		}
	}

	// The default sheet excelize creates is replaced by Questions
	f.DeleteSheet("Sheet1")

	base := strings.TrimSuffix(filepath.Base(result.SourcePath), filepath.Ext(result.SourcePath))
	path := filepath.Join(w.dir, fmt.Sprintf("%s_%s.xlsx", base, time.Now().Format("20060102_150405")))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save report: %w", err)
	}
	return path, nil
}

func (w *Writer) writeQuestionsSheet(f *excelize.File, result *pipeline.Result) error {
	const sheet = "Questions"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	headers := []string{"Number", "Passage", "Question", "Options", "Option Count", "Pages", "Re-extracted"}
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	reExtracted := make(map[int]bool, len(result.ReExtractedNumbers))
	for _, n := range result.ReExtractedNumbers {
		reExtracted[n] = true
	}

	for i, q := range result.Questions {
		row := i + 2
		pages := fmt.Sprintf("%d", q.Pages.First)
		if q.Pages.Last != q.Pages.First {
			pages = fmt.Sprintf("%d-%d", q.Pages.First, q.Pages.Last)
		}
		values := []interface{}{
			q.Number,
			q.Passage,
			q.Text,
			strings.Join(q.Options, " | "),
			len(q.Options),
			pages,
			reExtracted[q.Number],
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *Writer) writeVerificationSheet(f *excelize.File, result *pipeline.Result) error {
	const sheet = "Verification"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	headers := []string{"Number", "Match Score", "Passed", "Tampering Signatures", "Issues", "Error"}
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	for i, r := range result.Report.DetailedResults {
		row := i + 2
		values := []interface{}{
			r.QuestionNumber,
			r.MatchScore,
			r.Passed,
			strings.Join(r.TamperingSignatures, "; "),
			strings.Join(r.Issues, "; "),
			r.Error,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	// Summary row below the details
	summaryRow := len(result.Report.DetailedResults) + 3
	cell, _ := excelize.CoordinatesToCellName(1, summaryRow)
	summary := fmt.Sprintf("Pass rate: %.2f (%d/%d), tampered: %v",
		result.Report.PassRate, result.Report.PassedCount, result.Report.Total, result.Report.TamperedQuestionNumbers)
	return f.SetCellValue(sheet, cell, summary)
}
