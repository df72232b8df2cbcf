package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpenTextSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exam.txt")
	content := "1. 다음 중 옳은 것은?\n① 가 ② 나 ③ 다"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	src, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer src.Close()

	if src.PageCount() != 1 {
		t.Errorf("expected 1 page, got %d", src.PageCount())
	}
	text, err := src.PageText(1)
	if err != nil {
		t.Fatalf("PageText failed: %v", err)
	}
	if text != content {
		t.Errorf("unexpected page text: %q", text)
	}
	if _, err := src.PageText(2); err == nil {
		t.Errorf("expected out-of-range error for page 2")
	}
	if _, err := src.PageImage(1); err == nil {
		t.Errorf("expected no page image for text sources")
	}
}

func TestOpenHTMLSourceStripsScripts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exam.html")
	html := `<html><head><script>alert("x")</script></head><body><p>1. 질문 본문</p></body></html>`
	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	src, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer src.Close()

	text, err := src.PageText(1)
	if err != nil {
		t.Fatalf("PageText failed: %v", err)
	}
	if !strings.Contains(text, "1. 질문 본문") {
		t.Errorf("expected body text in %q", text)
	}
	if strings.Contains(text, "alert") {
		t.Errorf("script content leaked into page text: %q", text)
	}
}

func TestOpenUnsupportedExtension(t *testing.T) {
	if _, err := Open("exam.pptx"); err == nil {
		t.Errorf("expected unsupported file type error")
	}
}

func TestIsSupportedFile(t *testing.T) {
	cases := map[string]bool{
		"exam.pdf":  true,
		"exam.docx": true,
		"exam.html": true,
		"exam.txt":  true,
		"exam.md":   true,
		"exam.pptx": false,
		"exam.eml":  false,
	}
	for path, want := range cases {
		if got := IsSupportedFile(path); got != want {
			t.Errorf("IsSupportedFile(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestIsTemporaryFile(t *testing.T) {
	cases := map[string]bool{
		"~$exam.docx":     true,
		"._exam.pdf":      true,
		"exam.pdf.tmp":    true,
		"exam.pdf":        false,
		"dir/~$exam.docx": true,
	}
	for path, want := range cases {
		if got := IsTemporaryFile(path); got != want {
			t.Errorf("IsTemporaryFile(%q) = %v, want %v", path, got, want)
		}
	}
}
