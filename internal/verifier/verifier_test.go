package verifier

import (
	"strings"
	"testing"

	"github.com/examtrace/internal/exam"
	"github.com/examtrace/internal/oracle"
)

func TestVerifyFaithfulExtractionPasses(t *testing.T) {
	q := exam.QuestionStructure{
		Number:  6,
		Text:    "What is X?",
		Options: []string{"8.2", "8.4", "9.2", "9.4"},
	}
	raw := oracle.RawPageContent{
		QuestionTextRaw:   "What is X?",
		ChoicesRaw:        []string{"① 8.2", "② 8.4", "③ 9.2", "④ 9.4"},
		TotalChoicesFound: 4,
	}

	result := Verify(q, raw)

	if !result.Passed {
		t.Errorf("expected faithful extraction to pass, score=%v issues=%v", result.MatchScore, result.Issues)
	}
	if result.MatchScore < 0.89 || result.MatchScore > 0.91 {
		t.Errorf("expected score ~0.90 (40+20+30 of 100), got %v", result.MatchScore)
	}
	if len(result.TamperingSignatures) != 0 {
		t.Errorf("expected no tamper signatures, got %v", result.TamperingSignatures)
	}
}

func TestVerifyOptionCountIncrease(t *testing.T) {
	// A structured extraction reporting five options where the page prints
	// four is a fabrication suspect: the count component scores zero and
	// the increase signature is raised.
	q := exam.QuestionStructure{
		Number:  3,
		Text:    "다음 중 옳은 것은 무엇인가?",
		Options: []string{"하나", "둘", "셋", "넷", "다섯"},
	}
	raw := oracle.RawPageContent{
		QuestionTextRaw:   "다음 중 옳은 것은 무엇인가?",
		ChoicesRaw:        []string{"① 하나", "② 둘", "③ 셋", "④ 넷"},
		TotalChoicesFound: 4,
	}

	result := Verify(q, raw)

	if !hasSignature(result, SigOptionCountIncrease) {
		t.Errorf("expected %q signature, got %v", SigOptionCountIncrease, result.TamperingSignatures)
	}
	// 40 (text) + 0 (count) + 30 (content: all four raw choices matched).
	if result.MatchScore < 0.69 || result.MatchScore > 0.71 {
		t.Errorf("expected score ~0.70 with zero count component, got %v", result.MatchScore)
	}
	if result.Passed {
		t.Errorf("expected verification to fail")
	}
}

func TestVerifyOptionCountDecrease(t *testing.T) {
	q := exam.QuestionStructure{
		Number:  4,
		Text:    "누락이 의심되는 문항의 질문입니다",
		Options: []string{"하나", "둘"},
	}
	raw := oracle.RawPageContent{
		QuestionTextRaw:   "누락이 의심되는 문항의 질문입니다",
		ChoicesRaw:        []string{"① 하나", "② 둘", "③ 셋", "④ 넷"},
		TotalChoicesFound: 4,
	}

	result := Verify(q, raw)
	if !hasSignature(result, SigOptionCountDecrease) {
		t.Errorf("expected %q signature, got %v", SigOptionCountDecrease, result.TamperingSignatures)
	}
}

func TestVerifyCountSignatureSoundness(t *testing.T) {
	// Whenever structured and raw option counts disagree, some count
	// signature must be present.
	raw := oracle.RawPageContent{
		QuestionTextRaw:   "질문 본문",
		ChoicesRaw:        []string{"① 가", "② 나", "③ 다"},
		TotalChoicesFound: 3,
	}
	for _, optionCount := range []int{0, 1, 2, 4, 5} {
		q := exam.QuestionStructure{Number: 1, Text: "질문 본문", Options: make([]string, optionCount)}
		result := Verify(q, raw)
		if !hasSignature(result, SigOptionCountIncrease) && !hasSignature(result, SigOptionCountDecrease) {
			t.Errorf("count %d vs 3: expected a count tamper signature, got %v", optionCount, result.TamperingSignatures)
		}
	}
}

func TestVerifyQuestionTextMismatchIssue(t *testing.T) {
	q := exam.QuestionStructure{
		Number:  7,
		Text:    "완전히 바꿔 쓴 질문 텍스트입니다",
		Options: []string{"하나", "둘"},
	}
	raw := oracle.RawPageContent{
		QuestionTextRaw:   "원문에 인쇄된 전혀 다른 질문은 무엇인가?",
		ChoicesRaw:        []string{"① 하나", "② 둘"},
		TotalChoicesFound: 2,
	}

	result := Verify(q, raw)

	found := false
	for _, issue := range result.Issues {
		if strings.HasPrefix(issue, "question text mismatch") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected question text mismatch issue, got %v", result.Issues)
	}
}

func TestVerifyNumericTampering(t *testing.T) {
	q := exam.QuestionStructure{
		Number:  8,
		Text:    "수치가 바뀐 문항의 질문입니다",
		Options: []string{"10.5 그리고 3", "둘째 보기"},
	}
	raw := oracle.RawPageContent{
		QuestionTextRaw:   "수치가 바뀐 문항의 질문입니다",
		ChoicesRaw:        []string{"① 10.5", "② 둘째 보기"},
		TotalChoicesFound: 2,
	}

	result := Verify(q, raw)
	if !hasSignature(result, SigNumericTampering) {
		t.Errorf("expected %q signature, got %v", SigNumericTampering, result.TamperingSignatures)
	}
}

func TestVerifyMarkerFormatTampering(t *testing.T) {
	// Re-extracted structures keep their marker glyphs; if the glyph family
	// changed relative to the page, the content was reformatted.
	q := exam.QuestionStructure{
		Number:  9,
		Text:    "보기 마커 형식이 바뀐 문항입니다",
		Options: []string{"(1) 첫째 보기", "(2) 둘째 보기"},
	}
	raw := oracle.RawPageContent{
		QuestionTextRaw:   "보기 마커 형식이 바뀐 문항입니다",
		ChoicesRaw:        []string{"① 첫째 보기", "② 둘째 보기"},
		TotalChoicesFound: 2,
	}

	result := Verify(q, raw)
	if !hasSignature(result, SigMarkerFormat) {
		t.Errorf("expected %q signature, got %v", SigMarkerFormat, result.TamperingSignatures)
	}
}

func TestVerifyScoreBounds(t *testing.T) {
	cases := []struct {
		name string
		q    exam.QuestionStructure
		raw  oracle.RawPageContent
	}{
		{
			name: "empty everything",
			q:    exam.QuestionStructure{Number: 1},
			raw:  oracle.RawPageContent{},
		},
		{
			name: "full credit with specials",
			q:    exam.QuestionStructure{Number: 2, Text: "표가 포함된 문항", Options: []string{"가", "나"}},
			raw: oracle.RawPageContent{
				QuestionTextRaw:   "표가 포함된 문항",
				ChoicesRaw:        []string{"① 가", "② 나"},
				TotalChoicesFound: 2,
				TableRaw:          "행1 | 행2",
				CodeRaw:           "int main(void)",
			},
		},
		{
			name: "total mismatch",
			q:    exam.QuestionStructure{Number: 3, Text: "zzzz zzzz", Options: []string{"x"}},
			raw: oracle.RawPageContent{
				QuestionTextRaw:   "전혀 관련 없는 원문",
				ChoicesRaw:        []string{"① 가", "② 나", "③ 다"},
				TotalChoicesFound: 3,
			},
		},
	}

	for _, tc := range cases {
		result := Verify(tc.q, tc.raw)
		if result.MatchScore < 0 || result.MatchScore > 1 {
			t.Errorf("%s: score %v out of [0,1]", tc.name, result.MatchScore)
		}
		if result.Passed != (result.MatchScore > PassThreshold) {
			t.Errorf("%s: passed=%v inconsistent with score %v", tc.name, result.Passed, result.MatchScore)
		}
	}
}

func TestVerifyExactThresholdDoesNotPass(t *testing.T) {
	// 40 (text) + 20 (count) + 20 (2 of 3 options matched) + 5 (table)
	// lands exactly on 0.85; the pass policy is strictly greater-than.
	q := exam.QuestionStructure{
		Number:  5,
		Text:    "경계값 검증을 위한 질문입니다",
		Options: []string{"첫째 보기", "둘째 보기", "완전히 다른 내용"},
	}
	raw := oracle.RawPageContent{
		QuestionTextRaw:   "경계값 검증을 위한 질문입니다",
		ChoicesRaw:        []string{"① 첫째 보기", "② 둘째 보기", "③ 원래 인쇄된 보기"},
		TotalChoicesFound: 3,
		TableRaw:          "표 내용",
	}

	result := Verify(q, raw)
	if result.MatchScore < 0.849 || result.MatchScore > 0.851 {
		t.Fatalf("expected score 0.85, got %v", result.MatchScore)
	}
	if result.Passed {
		t.Errorf("score exactly at threshold must not pass")
	}
}

func hasSignature(result VerificationResult, signature string) bool {
	for _, s := range result.TamperingSignatures {
		if s == signature {
			return true
		}
	}
	return false
}
