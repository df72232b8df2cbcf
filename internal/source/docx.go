package source

import (
	"fmt"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

// openDOCX extracts text from a DOCX file. DOCX has no fixed page
// geometry, so the whole document is exposed as a single page.
func openDOCX(filePath string) (Source, error) {
	doc, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open DOCX file: %w", err)
	}
	defer doc.Close()

	text := strings.TrimSpace(doc.Editable().GetContent())
	if text == "" {
		return nil, fmt.Errorf("no text extracted from DOCX: %s", filePath)
	}

	return &singlePageSource{text: text, format: "docx"}, nil
}
