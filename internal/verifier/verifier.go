// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package verifier

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/agext/levenshtein"

	"github.com/examtrace/internal/classifier"
	"github.com/examtrace/internal/exam"
	"github.com/examtrace/internal/oracle"
)

// Acceptance policy constants. These encode the policy, not incidental
// detail; deliberately not configurable.
const (
	// PassThreshold is the match score above which verification passes.
	PassThreshold = 0.85
	// QuestionTextIssueThreshold is the similarity below which a question
	// text mismatch issue is recorded.
	QuestionTextIssueThreshold = 0.9
	// OptionMatchThreshold is the per-option similarity above which an
	// option pair counts as matched.
	OptionMatchThreshold = 0.8
)

// Score weights; they sum to 100 before normalization.
const (
	questionTextPoints   = 40.0
	optionCountPoints    = 20.0
	optionContentPoints  = 30.0
	specialElementPoints = 5.0 // per present special element (table, code)
)

// Tamper signature tags. Machine-readable; the human diagnostics go into
// Issues instead.
const (
	SigNumericTampering    = "numeric count tampering suspected"
	SigOptionCountIncrease = "option count increase (fabrication suspected)"
	SigOptionCountDecrease = "option count decrease (omission suspected)"
	SigMarkerFormat        = "option marker format tampering"
)

// VerificationResult is the outcome of comparing one assembled question
// against the independently captured raw page content.
type VerificationResult struct {
	QuestionNumber      int      `json:"question_number"`
	MatchScore          float64  `json:"match_score"`
	TamperingSignatures []string `json:"tampering_signatures"`
	Issues              []string `json:"issues"`
	Passed              bool     `json:"verification_passed"`
	Error               string   `json:"error,omitempty"`
}

var digitRun = regexp.MustCompile(`\d+`)

// Verify scores an assembled question structure against the raw capture of
// the same page region and detects tamper signatures. It never fails: a
// comparison is always produced.
func Verify(q exam.QuestionStructure, raw oracle.RawPageContent) VerificationResult {
	result := VerificationResult{
		QuestionNumber:      q.Number,
		TamperingSignatures: []string{},
		Issues:              []string{},
	}

	score := 0.0

	// Question-text fidelity: 40 points, linear in the similarity ratio.
	qSim := similarity(q.Text, raw.QuestionTextRaw)
	score += qSim * questionTextPoints
	if qSim < QuestionTextIssueThreshold {
		result.Issues = append(result.Issues, fmt.Sprintf("question text mismatch (similarity: %.2f)", qSim))
	}

	// Option-count fidelity: all or nothing.
	if len(q.Options) == raw.TotalChoicesFound {
		score += optionCountPoints
	} else {
		result.Issues = append(result.Issues,
			fmt.Sprintf("option count mismatch: structured %d, raw reports %d", len(q.Options), raw.TotalChoicesFound))
	}

	// Option-content fidelity: pairwise by position against the raw capture.
	score += optionContentScore(q.Options, raw.ChoicesRaw, &result)

	// Special-element fidelity: coarse presence credit only. Structural
	// diffing of tables and code is out of scope for this score.
	if strings.TrimSpace(raw.TableRaw) != "" {
		score += specialElementPoints
	}
	if strings.TrimSpace(raw.CodeRaw) != "" {
		score += specialElementPoints
	}

	result.MatchScore = clamp01(score / 100.0)
	result.Passed = result.MatchScore > PassThreshold
	result.TamperingSignatures = detectTampering(q, raw)
	return result
}

// optionContentScore awards up to 30 points for positionally matched
// options, and records an issue for every non-matching pair.
func optionContentScore(structured []string, choicesRaw []string, result *VerificationResult) float64 {
	if len(choicesRaw) == 0 {
		// Nothing captured to compare against. Full credit only when the
		// structured side is empty too; otherwise the count component has
		// already flagged the divergence.
		if len(structured) == 0 {
			return optionContentPoints
		}
		return 0
	}

	matched := 0
	pairs := len(structured)
	if len(choicesRaw) < pairs {
		pairs = len(choicesRaw)
	}
	for i := 0; i < pairs; i++ {
		// Markers are stripped on both sides: content fidelity is judged on
		// the option text, marker drift has its own tamper signature.
		structuredText, _ := classifier.StripOptionMarker(structured[i])
		rawText, _ := classifier.StripOptionMarker(choicesRaw[i])
		sim := similarity(structuredText, rawText)
		if sim > OptionMatchThreshold {
			matched++
			continue
		}
		result.Issues = append(result.Issues,
			fmt.Sprintf("option %d mismatch: structured %q vs raw %q", i+1, structured[i], choicesRaw[i]))
	}

	return float64(matched) / float64(len(choicesRaw)) * optionContentPoints
}

// detectTampering runs the rule-based tamper checks. Separate from
// scoring and always computed, even for passing questions.
func detectTampering(q exam.QuestionStructure, raw oracle.RawPageContent) []string {
	signatures := []string{}

	// Reworded numbers survive similarity checks surprisingly well; a raw
	// digit-run count comparison catches them cheaply.
	structuredDigits := len(digitRun.FindAllString(strings.Join(q.Options, " "), -1))
	rawDigits := len(digitRun.FindAllString(strings.Join(stripMarkers(raw.ChoicesRaw), " "), -1))
	if structuredDigits != rawDigits {
		signatures = append(signatures, SigNumericTampering)
	}

	switch {
	case len(q.Options) > raw.TotalChoicesFound:
		signatures = append(signatures, SigOptionCountIncrease)
	case len(q.Options) < raw.TotalChoicesFound:
		signatures = append(signatures, SigOptionCountDecrease)
	}

	structuredStyles := markerStyles(q.Options)
	rawStyles := markerStyles(raw.ChoicesRaw)
	if len(structuredStyles) > 0 && len(rawStyles) > 0 && !sameStyleSet(structuredStyles, rawStyles) {
		signatures = append(signatures, SigMarkerFormat)
	}

	return signatures
}

func stripMarkers(options []string) []string {
	out := make([]string, len(options))
	for i, opt := range options {
		out[i], _ = classifier.StripOptionMarker(opt)
	}
	return out
}

func markerStyles(options []string) map[string]bool {
	styles := make(map[string]bool)
	for _, opt := range options {
		if style := classifier.MarkerStyle(opt); style != "" {
			styles[style] = true
		}
	}
	return styles
}

func sameStyleSet(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for style := range a {
		if !b[style] {
			return false
		}
	}
	return true
}

// similarity is the character-level sequence similarity in [0,1].
func similarity(a, b string) float64 {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" && b == "" {
		return 1.0
	}
	return levenshtein.Similarity(a, b, nil)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
