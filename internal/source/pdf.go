// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package source

import (
	"fmt"

	"github.com/gen2brain/go-fitz"
)

// renderDPI is the resolution for oracle page renders. 150 keeps option
// marker glyphs legible without ballooning the upload size.
const renderDPI = 150

// pdfSource reads pages from a PDF via go-fitz (MuPDF)
// API reference: https://pkg.go.dev/github.com/gen2brain/go-fitz
type pdfSource struct {
	doc *fitz.Document
}

func openPDF(filePath string) (Source, error) {
	doc, err := fitz.New(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	return &pdfSource{doc: doc}, nil
}

func (s *pdfSource) PageCount() int {
	return s.doc.NumPage()
}

func (s *pdfSource) PageText(pageNumber int) (string, error) {
	if pageNumber < 1 || pageNumber > s.doc.NumPage() {
		return "", fmt.Errorf("page %d out of range (1-%d)", pageNumber, s.doc.NumPage())
	}
	// fitz pages are 0-indexed
	text, err := s.doc.Text(pageNumber - 1)
	if err != nil {
		return "", fmt.Errorf("failed to extract text from page %d: %w", pageNumber, err)
	}
	return text, nil
}

func (s *pdfSource) PageImage(pageNumber int) ([]byte, error) {
	if pageNumber < 1 || pageNumber > s.doc.NumPage() {
		return nil, fmt.Errorf("page %d out of range (1-%d)", pageNumber, s.doc.NumPage())
	}
	img, err := s.doc.ImagePNG(pageNumber-1, renderDPI)
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", pageNumber, err)
	}
	return img, nil
}

func (s *pdfSource) Close() error {
	return s.doc.Close()
}
