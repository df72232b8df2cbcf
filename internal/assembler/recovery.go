// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package assembler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/examtrace/internal/classifier"
	"github.com/examtrace/internal/exam"
)

// findMissingOptions re-scans the raw page text around a question's number
// with the wider option-marker family. It recovers options whose marker
// glyphs were consumed by other pattern matches or that sit inline, outside
// the line-classification window the assembler used.
func (a *Assembler) findMissingOptions(q *exam.QuestionStructure, pages []Page) []string {
	seen := make(map[string]bool, len(q.Options))
	for _, opt := range q.Options {
		seen[opt] = true
	}

	var found []string
	for _, page := range pages {
		if page.Number < q.Pages.First || page.Number > q.Pages.Last {
			continue
		}
		window, ok := optionWindow(page.Text, q.Number)
		if !ok {
			continue
		}
		for _, cand := range scanOptions(window) {
			if seen[cand] {
				continue
			}
			seen[cand] = true
			found = append(found, cand)
		}
	}
	return found
}

// optionWindow locates the sub-string bounded by "{number}." and, in
// priority order, the next question number, the next blank-line boundary,
// or end of text. First matching boundary wins.
func optionWindow(text string, number int) (string, bool) {
	loc := numberMarker(number).FindStringIndex(text)
	if loc == nil {
		return "", false
	}

	window := text[loc[1]:]
	if next := numberMarker(number + 1).FindStringIndex(window); next != nil {
		return window[:next[0]], true
	}
	if idx := strings.Index(window, "\n\n"); idx >= 0 {
		return window[:idx], true
	}
	return window, true
}

// numberMarker matches "{n}." or "{n})" at a token boundary, so searching
// for question 6 does not land inside "16.".
func numberMarker(n int) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`(?:^|[\s\n])%d[.)]`, n))
}

// scanOptions splits a window at every wide-family option marker and
// returns the texts between consecutive markers.
func scanOptions(window string) []string {
	locs := classifier.WideOptionMarker.FindAllStringIndex(window, -1)
	if len(locs) == 0 {
		return nil
	}

	var options []string
	for i, loc := range locs {
		end := len(window)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		if cand := strings.TrimSpace(window[loc[1]:end]); cand != "" {
			options = append(options, cand)
		}
	}
	return options
}
