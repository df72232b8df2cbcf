package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/examtrace/internal/classifier"
	"github.com/examtrace/internal/exam"
	"github.com/examtrace/internal/oracle"
	"github.com/examtrace/internal/verifier"
)

const examFixture = `1. 다음 중 옳은 것은 무엇인가?
① 첫째 보기 ② 둘째 보기 ③ 셋째 보기

2. 두 번째 문항의 질문 본문은?
① 가나다 ② 라마바 ③ 사아자
`

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestRunExtractionOnly(t *testing.T) {
	path := writeFixture(t, "exam.txt", examFixture)

	p := New(exam.DefaultProfile(), nil, 2)
	result, err := p.Run(context.Background(), path)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.PageCount != 1 {
		t.Errorf("expected 1 page, got %d", result.PageCount)
	}
	if len(result.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(result.Questions))
	}
	if result.Questions[0].Number != 1 || result.Questions[1].Number != 2 {
		t.Errorf("unexpected question numbers: %d, %d", result.Questions[0].Number, result.Questions[1].Number)
	}
	if len(result.Questions[0].Options) != 3 {
		t.Errorf("expected 3 options for question 1, got %v", result.Questions[0].Options)
	}
	if result.Report.Total != 0 {
		t.Errorf("expected no verification without an oracle, got %+v", result.Report)
	}
	if len(result.PageKinds) != 1 || result.PageKinds[0] != classifier.ProblemPage {
		t.Errorf("expected one problem page, got %v", result.PageKinds)
	}
}

func TestRunReportsTheoryPages(t *testing.T) {
	// Instruction sheets carry no question structure; they must still show
	// up in the result, flagged as theory pages.
	path := writeFixture(t, "notice.txt",
		"시험 시간은 총 90분이며 계산기는 사용할 수 없습니다.\n답안은 컴퓨터용 사인펜으로 표기하시기 바랍니다.\n")

	p := New(exam.DefaultProfile(), nil, 1)
	result, err := p.Run(context.Background(), path)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(result.Questions) != 0 {
		t.Errorf("expected no questions on an instruction page, got %v", result.Questions)
	}
	if len(result.PageKinds) != 1 || result.PageKinds[0] != classifier.TheoryPage {
		t.Errorf("expected one theory page, got %v", result.PageKinds)
	}
}

func TestRunUnsupportedFile(t *testing.T) {
	p := New(exam.DefaultProfile(), nil, 1)
	if _, err := p.Run(context.Background(), "exam.pptx"); err == nil {
		t.Errorf("expected error for unsupported file type")
	}
}

func TestRunDegradesWhenPagesCannotBeRendered(t *testing.T) {
	// Text sources have no page images: every capture fails, so every
	// question must come back as a failed-but-present verification result
	// instead of aborting the run.
	path := writeFixture(t, "exam.txt", examFixture)

	p := New(exam.DefaultProfile(), oracle.NewMockOracle("{}"), 2)
	result, err := p.Run(context.Background(), path)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Report.Total != 2 {
		t.Fatalf("expected 2 verification results, got %d", result.Report.Total)
	}
	for _, r := range result.Report.DetailedResults {
		if r.Passed {
			t.Errorf("question %d passed without a capture baseline", r.QuestionNumber)
		}
		if r.Error == "" {
			t.Errorf("question %d missing degradation error", r.QuestionNumber)
		}
	}
	if len(result.ReExtractedNumbers) != 0 {
		t.Errorf("expected no replacements without page images, got %v", result.ReExtractedNumbers)
	}
}

type fakeImager struct {
	image []byte
	err   error
}

func (f *fakeImager) PageImage(pageNumber int) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.image, nil
}

func TestOracleCapturer(t *testing.T) {
	mock := oracle.NewMockOracle(`{
		"question_text_raw": "다음 중 옳은 것은 무엇인가?",
		"choices_raw": ["① 첫째 보기", "② 둘째 보기", "③ 셋째 보기"],
		"total_choices_found": 3
	}`)
	capturer := &OracleCapturer{Oracle: mock, Images: &fakeImager{image: []byte("png")}}

	q := exam.QuestionStructure{Number: 1, Text: "다음 중 옳은 것은 무엇인가?", Pages: exam.PageRange{First: 1, Last: 1}}
	raw, err := capturer.Capture(context.Background(), q)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if raw.TotalChoicesFound != 3 || len(raw.ChoicesRaw) != 3 {
		t.Errorf("unexpected capture: %+v", raw)
	}
}

func TestOracleCapturerImageFailure(t *testing.T) {
	capturer := &OracleCapturer{
		Oracle: oracle.NewMockOracle("{}"),
		Images: &fakeImager{err: fmt.Errorf("render broken")},
	}
	q := exam.QuestionStructure{Number: 4, Pages: exam.PageRange{First: 2, Last: 2}}
	if _, err := capturer.Capture(context.Background(), q); err == nil {
		t.Errorf("expected error when page render fails")
	}
}

func TestReplaceQuestionStripsMarkers(t *testing.T) {
	p := New(exam.DefaultProfile(), nil, 1)
	result := &Result{
		Questions: []exam.QuestionStructure{
			{Number: 3, Text: "교체 전 문항 본문", Passage: "공유 지문", Options: []string{"가", "나"}},
		},
		Report: verifier.BatchReport{},
	}

	candidate := exam.QuestionStructure{
		Number:  3,
		Text:    "재추출된 문항의 본문입니다",
		Options: []string{"① 첫째", "② 둘째", "③ 셋째"},
		Pages:   exam.PageRange{First: 2, Last: 2},
	}
	if !p.replaceQuestion(result, candidate) {
		t.Fatalf("expected replacement to happen")
	}

	got := result.Questions[0]
	if got.Text != "재추출된 문항의 본문입니다" {
		t.Errorf("text not replaced: %q", got.Text)
	}
	if len(got.Options) != 3 || got.Options[0] != "첫째" {
		t.Errorf("markers not stripped on merge: %v", got.Options)
	}
	if got.Passage != "공유 지문" {
		t.Errorf("expected prior passage to be kept, got %q", got.Passage)
	}

	unknown := exam.QuestionStructure{Number: 99}
	if p.replaceQuestion(result, unknown) {
		t.Errorf("expected no replacement for unknown question number")
	}
}
