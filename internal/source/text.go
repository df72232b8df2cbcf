// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package source

import (
	"fmt"
	"os"
)

// openText reads plain text files (.txt, .md)
func openText(filePath string) (Source, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read text file: %w", err)
	}

	text := string(content)
	if text == "" {
		return nil, fmt.Errorf("no content in text file: %s", filePath)
	}

	return &singlePageSource{text: text, format: "text"}, nil
}

// singlePageSource serves formats without page geometry as one page.
type singlePageSource struct {
	text   string
	format string
}

func (s *singlePageSource) PageCount() int {
	return 1
}

func (s *singlePageSource) PageText(pageNumber int) (string, error) {
	if pageNumber != 1 {
		return "", fmt.Errorf("page %d out of range (1-1)", pageNumber)
	}
	return s.text, nil
}

func (s *singlePageSource) PageImage(pageNumber int) ([]byte, error) {
	return nil, fmt.Errorf("page images not available for %s sources", s.format)
}

func (s *singlePageSource) Close() error {
	return nil
}
