// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package classifier

import (
	"regexp"
	"strconv"
	"strings"
)

// family is one ordered pattern family: the line type it assigns, the
// minimum rune count a line must have to qualify, and the patterns tried.
// Classification correctness is entirely pattern-order dependent, so the
// ordering below is deliberate, explicit configuration.
type family struct {
	typ        ElementType
	minLen     int
	confidence float64
	patterns   []*regexp.Regexp
}

func (f family) matches(line string) bool {
	for _, re := range f.patterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

var (
	// Question markers: leading numerals ("12. ", "12) ") or an explicit
	// problem marker. The higher minimum length keeps bare page numbers and
	// section headers out of the question family.
	questionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\d{1,3}\.\s+`),
		regexp.MustCompile(`^\d{1,3}\)\s+`),
		regexp.MustCompile(`^문제\s*\d{1,3}`),
		regexp.MustCompile(`(?i)^problem\s+\d{1,3}`),
	}

	// Option markers: circled numerals, letters, numeric parenthesis.
	optionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^[①②③④⑤]`),
		regexp.MustCompile(`^[A-E][.)]\s*`),
		regexp.MustCompile(`^\([1-9]\d?\)\s*`),
		regexp.MustCompile(`^[1-9]\d?\)\s*`),
	}

	// Passage cues: "다음 ...을 읽고/보고/참고하여" style lead-ins, figure and
	// table reference tags, and program-source openings.
	passagePatterns = []*regexp.Regexp{
		regexp.MustCompile(`다음.{0,40}(읽고|보고|참고하여)`),
		regexp.MustCompile(`[<〈\[](표|그림|보기|지문)`),
		regexp.MustCompile(`^(class|def)\s`),
		regexp.MustCompile(`#include\s*<`),
		regexp.MustCompile(`int\s+main\s*\(`),
	}

	// Question family first: an option-like "3) ..." line that is long
	// enough to read as a question is treated as one, and the missing-option
	// recovery pass compensates on the rare page where that guess is wrong.
	families = []family{
		{typ: TypeQuestion, minLen: 8, confidence: ConfidenceQuestion, patterns: questionPatterns},
		{typ: TypeOption, minLen: 4, confidence: ConfidenceOption, patterns: optionPatterns},
		{typ: TypePassage, minLen: 5, confidence: ConfidencePassage, patterns: passagePatterns},
	}

	punctuationOnly = regexp.MustCompile(`^[\p{P}\p{S}\s]+$`)
)

var (
	questionNumber = regexp.MustCompile(`^(\d{1,3})[.)]\s*`)
	problemNumber  = regexp.MustCompile(`(?i)^(?:문제|problem)\s*(\d{1,3})`)

	optionMarker = regexp.MustCompile(`^([①②③④⑤]|\([1-9]\d?\)|[1-9]\d?\)|[A-E][.)])\s*`)

	// inlineOptionMarker splits option runs that share a single line, e.g.
	// "① 8.2 ② 8.4 ③ 9.2 ④ 9.4". The bare "N." numeral form is excluded
	// here; it is only trusted inside the recovery window.
	inlineOptionMarker = regexp.MustCompile(`[①②③④⑤]|\([1-9]\d?\)|[1-9]\d?\)|[A-E][.)]\s`)

	// WideOptionMarker is the recovery-pass marker family. It additionally
	// accepts the bare "N."/"N)" numeral forms that the question family would
	// have consumed during line classification. The numeric forms require a
	// trailing boundary so decimals like "8.2" are not split at the dot.
	WideOptionMarker = regexp.MustCompile(`[①②③④⑤]|\([1-9]\d?\)|[1-9]\d?[.)](?:\s|$)|[A-E][.)]\s`)
)

// ParseQuestionMarker extracts the leading question number from a
// question-classified line and returns the remaining text with the marker
// stripped. ok is false when no numeric marker is present.
func ParseQuestionMarker(line string) (number int, rest string, ok bool) {
	if m := questionNumber.FindStringSubmatch(line); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, line, false
		}
		return n, strings.TrimSpace(line[len(m[0]):]), true
	}
	if m := problemNumber.FindStringSubmatch(line); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, line, false
		}
		return n, strings.TrimSpace(line[len(m[0]):]), true
	}
	return 0, line, false
}

// StripOptionMarker removes a leading option marker glyph, returning the
// cleaned option text. ok is false when the line carries no marker.
func StripOptionMarker(line string) (text string, ok bool) {
	m := optionMarker.FindStringSubmatch(line)
	if m == nil {
		return line, false
	}
	return strings.TrimSpace(line[len(m[0]):]), true
}

// SplitOptions splits a line holding one or more marker-prefixed options
// into the option texts between consecutive markers. Returns nil when the
// line carries no marker.
func SplitOptions(line string) []string {
	locs := inlineOptionMarker.FindAllStringIndex(line, -1)
	if len(locs) == 0 {
		return nil
	}

	var options []string
	for i, loc := range locs {
		end := len(line)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		if text := strings.TrimSpace(line[loc[1]:end]); text != "" {
			options = append(options, text)
		}
	}
	return options
}

// HasOptionMarker reports whether the line begins with a recognized option
// marker glyph.
func HasOptionMarker(line string) bool {
	return optionMarker.MatchString(line)
}

// MarkerStyle names the option-marker family a line uses: "circled",
// "paren", "numeric", "letter", or "" when no marker is present. The
// verifier compares marker styles between structured and raw captures to
// spot reformatted (reinterpreted) options.
func MarkerStyle(line string) string {
	m := optionMarker.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	marker := m[1]
	switch {
	case strings.ContainsAny(marker, "①②③④⑤"):
		return "circled"
	case strings.HasPrefix(marker, "("):
		return "paren"
	case marker[0] >= 'A' && marker[0] <= 'E':
		return "letter"
	default:
		return "numeric"
	}
}
