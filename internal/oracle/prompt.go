// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package oracle

import (
	"fmt"
	"sort"
	"strings"
)

// RawCapturePrompt asks the oracle for a verbatim transcription of one
// question's region, used as the verification baseline. The instruction
// forbids reinterpretation: the whole point is to capture what is printed,
// digits and marker glyphs included.
func RawCapturePrompt(questionNumber int) string {
	return fmt.Sprintf(`You are transcribing a scanned exam page. Locate question %d on this page and copy it EXACTLY as printed. Do not paraphrase, do not fix typos, do not renumber, do not translate. Keep every digit, symbol and option marker glyph exactly as it appears.

Return ONLY this JSON object, no other text:
{
  "question_text_raw": "the question text exactly as printed",
  "choices_raw": ["each answer option exactly as printed, marker included"],
  "total_choices_found": <number of answer options printed>,
  "table_raw": "verbatim table content if the question has a table, else omit",
  "code_raw": "verbatim source code if the question has a code block, else omit"
}`, questionNumber)
}

// PreservationPrompt asks the oracle to re-extract specific questions from
// a page under strict preservation rules. One prompt covers every flagged
// question on the page, so a single external call is amortized across them.
func PreservationPrompt(questionNumbers []int) string {
	sorted := append([]int(nil), questionNumbers...)
	sort.Ints(sorted)

	parts := make([]string, len(sorted))
	for i, n := range sorted {
		parts[i] = fmt.Sprintf("%d", n)
	}

	return fmt.Sprintf(`You are re-extracting questions from a scanned exam page. This page contains questions %s. Extract each of them, PRESERVING the original content exactly: do not reword, do not reinterpret, do not change digits, do not add or remove answer options. Every option must keep its printed marker glyph (①②③④⑤, (1), A., ...).

Return ONLY a JSON array, no other text:
[
  {
    "question_number": <printed question number>,
    "question_text": "question text exactly as printed",
    "options": ["option exactly as printed, marker included"]
  }
]`, strings.Join(parts, ", "))
}
