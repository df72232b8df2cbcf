// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Oracle is the external vision/OCR extraction service: it takes a page
// image and a prompt and returns text or JSON. The service is an opaque
// collaborator; determinism, timeouts and retries are its responsibility.
type Oracle interface {
	Extract(ctx context.Context, image []byte, prompt string) (string, error)
}

// RawPageContent is the verbatim capture of a page region the oracle
// returns under the "copy exactly, do not interpret" instruction. It is the
// comparison baseline for tamper verification.
type RawPageContent struct {
	QuestionTextRaw   string   `json:"question_text_raw"`
	ChoicesRaw        []string `json:"choices_raw"`
	TotalChoicesFound int      `json:"total_choices_found"`
	TableRaw          string   `json:"table_raw,omitempty"`
	CodeRaw           string   `json:"code_raw,omitempty"`
}

// ParseRawPageContent decodes an oracle reply into a RawPageContent.
// Model replies often arrive wrapped in markdown code fences; those are
// stripped before decoding.
func ParseRawPageContent(reply string) (RawPageContent, error) {
	var raw RawPageContent
	cleaned := StripCodeFence(reply)
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return RawPageContent{}, fmt.Errorf("failed to decode raw capture: %w", err)
	}
	if raw.TotalChoicesFound == 0 {
		raw.TotalChoicesFound = len(raw.ChoicesRaw)
	}
	return raw, nil
}

// StripCodeFence removes a surrounding markdown code fence from a model
// reply, if present.
func StripCodeFence(reply string) string {
	s := strings.TrimSpace(reply)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
