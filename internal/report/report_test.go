package report

import (
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/examtrace/internal/exam"
	"github.com/examtrace/internal/pipeline"
	"github.com/examtrace/internal/verifier"
)

func TestWriteResult(t *testing.T) {
	w := NewWriter(t.TempDir())

	result := &pipeline.Result{
		SourcePath: "/inbox/midterm.pdf",
		PageCount:  2,
		Questions: []exam.QuestionStructure{
			{Number: 1, Text: "첫 번째 문항의 본문", Options: []string{"가", "나", "다"}, Pages: exam.PageRange{First: 1, Last: 1}},
			{Number: 2, Text: "두 번째 문항의 본문", Options: []string{"라", "마"}, Pages: exam.PageRange{First: 1, Last: 2}},
		},
		Report: verifier.BatchReport{
			Total:       2,
			PassedCount: 1,
			PassRate:    0.5,
			DetailedResults: []verifier.VerificationResult{
				{QuestionNumber: 1, MatchScore: 0.95, Passed: true},
				{QuestionNumber: 2, MatchScore: 0.6, Passed: false, TamperingSignatures: []string{verifier.SigOptionCountIncrease}},
			},
			TamperedQuestionNumbers: []int{2},
		},
		ReExtractedNumbers: []int{2},
	}

	path, err := w.WriteResult(result)
	if err != nil {
		t.Fatalf("WriteResult failed: %v", err)
	}
	if !strings.Contains(path, "midterm_") || !strings.HasSuffix(path, ".xlsx") {
		t.Errorf("unexpected report path: %s", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("failed to reopen report: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Questions")
	if err != nil {
		t.Fatalf("failed to read Questions sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 question rows, got %d", len(rows))
	}
	if rows[1][0] != "1" || rows[2][0] != "2" {
		t.Errorf("unexpected question numbers: %v, %v", rows[1][0], rows[2][0])
	}
	if rows[2][5] != "1-2" {
		t.Errorf("expected page range 1-2, got %q", rows[2][5])
	}

	vrows, err := f.GetRows("Verification")
	if err != nil {
		t.Fatalf("failed to read Verification sheet: %v", err)
	}
	if len(vrows) < 3 {
		t.Fatalf("expected verification rows, got %d", len(vrows))
	}
	if !strings.Contains(vrows[2][3], "option count increase") {
		t.Errorf("expected tamper signature in row, got %v", vrows[2])
	}
}

func TestWriteResultWithoutVerification(t *testing.T) {
	w := NewWriter(t.TempDir())

	result := &pipeline.Result{
		SourcePath: "/inbox/quiz.txt",
		PageCount:  1,
		Questions: []exam.QuestionStructure{
			{Number: 1, Text: "검증 없이 추출만 된 문항", Options: []string{"가", "나"}, Pages: exam.PageRange{First: 1, Last: 1}},
		},
	}

	path, err := w.WriteResult(result)
	if err != nil {
		t.Fatalf("WriteResult failed: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("failed to reopen report: %v", err)
	}
	defer f.Close()

	if _, err := f.GetRows("Verification"); err == nil {
		t.Errorf("expected no Verification sheet for extraction-only results")
	}
}
