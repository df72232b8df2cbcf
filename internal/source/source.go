// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package source

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Source is a page-addressable view of an exam document. Page numbers are
// 1-based throughout the pipeline.
type Source interface {
	// PageCount returns the number of pages in the document.
	PageCount() int
	// PageText returns the text of one page.
	PageText(pageNumber int) (string, error)
	// PageImage renders one page as PNG bytes for the vision oracle.
	// Formats without a fixed page geometry return an error.
	PageImage(pageNumber int) ([]byte, error)
	// Close releases the underlying document.
	Close() error
}

// Open routes a file to the appropriate source based on its extension.
func Open(filePath string) (Source, error) {
	ext := strings.ToLower(filepath.Ext(filePath))

	switch ext {
	case ".pdf":
		return openPDF(filePath)
	case ".docx":
		return openDOCX(filePath)
	case ".html", ".htm":
		return openHTML(filePath)
	case ".txt", ".md":
		return openText(filePath)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}
}

// IsSupportedFile checks if a file extension is supported
func IsSupportedFile(filePath string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	supported := []string{".pdf", ".docx", ".html", ".htm", ".txt", ".md"}
	for _, s := range supported {
		if ext == s {
			return true
		}
	}
	return false
}

// IsTemporaryFile checks if a file is a temporary file (e.g., ~$doc.docx)
func IsTemporaryFile(filePath string) bool {
	base := filepath.Base(filePath)
	if strings.HasPrefix(base, "~$") {
		return true
	}
	if strings.HasPrefix(base, "._") {
		return true
	}
	if strings.HasSuffix(base, ".tmp") {
		return true
	}
	return false
}
