package resume

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// OCR turns scanned documents and images into text.
type OCR interface {
	ExtractText(ctx context.Context, mimeType string, data []byte) (string, error)
}

// NoOCR is used when no OCR provider is configured. It extracts nothing.
type NoOCR struct{}

func (NoOCR) ExtractText(context.Context, string, []byte) (string, error) {
	return "", nil
}

// cleanText removes NUL bytes and surrounding whitespace.
func cleanText(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\x00", ""))
}

func extractPlain(_ context.Context, _ OCR, _ string, data []byte) (string, error) {
	return string(data), nil
}

func extractPDF(_ context.Context, _ OCR, _ string, data []byte) (text string, err error) {
	// The pdf package panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}
	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		t, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(t)
		b.WriteString("\n")
	}
	return b.String(), nil
}

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>`)
	docxTag          = regexp.MustCompile(`<[^>]+>`)
	blankRuns        = regexp.MustCompile(`[ \t]+`)
)

func extractDOCX(_ context.Context, _ OCR, _ string, data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}
	defer doc.Close()

	return docxText(doc.Editable().GetContent()), nil
}

// docxText flattens WordprocessingML into plain text, one line per paragraph.
func docxText(xml string) string {
	s := docxParagraphEnd.ReplaceAllString(xml, "\n")
	s = docxTag.ReplaceAllString(s, "")
	s = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'").Replace(s)
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		l = strings.TrimSpace(blankRuns.ReplaceAllString(l, " "))
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

func extractWithOCR(ctx context.Context, ocr OCR, mimeType string, data []byte) (string, error) {
	if ocr == nil {
		return "", nil
	}
	return ocr.ExtractText(ctx, mimeType, data)
}
