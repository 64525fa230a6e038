package resume

import (
	"context"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Format is one accepted resume file type. The same table drives upload
// validation here and in the browser via GET /api/resume/formats.
type Format struct {
	MimeType   string   `json:"mime_type"`
	Label      string   `json:"label"`
	Extensions []string `json:"extensions"`

	storesBlob bool
	extract    func(ctx context.Context, ocr OCR, mimeType string, data []byte) (string, error)
}

const (
	mimePlain = "text/plain"
	mimePDF   = "application/pdf"
	mimeDOC   = "application/msword"
	mimeDOCX  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var Formats = []Format{
	{MimeType: mimePlain, Label: "Plain text", Extensions: []string{".txt"}, extract: extractPlain},
	{MimeType: mimePDF, Label: "PDF", Extensions: []string{".pdf"}, storesBlob: true, extract: extractPDF},
	{MimeType: mimeDOC, Label: "Word 97-2003", Extensions: []string{".doc"}, storesBlob: true, extract: extractWithOCR},
	{MimeType: mimeDOCX, Label: "Word", Extensions: []string{".docx"}, storesBlob: true, extract: extractDOCX},
	{MimeType: "image/jpeg", Label: "JPEG image", Extensions: []string{".jpg", ".jpeg"}, storesBlob: true, extract: extractWithOCR},
	{MimeType: "image/png", Label: "PNG image", Extensions: []string{".png"}, storesBlob: true, extract: extractWithOCR},
	{MimeType: "image/webp", Label: "WebP image", Extensions: []string{".webp"}, storesBlob: true, extract: extractWithOCR},
}

// Lookup returns the format for a normalized MIME type.
func Lookup(mimeType string) (Format, bool) {
	for _, f := range Formats {
		if f.MimeType == mimeType {
			return f, true
		}
	}
	return Format{}, false
}

// DetectMIME normalizes the declared content type, falling back to sniffing the
// content when the declaration is missing or generic.
func DetectMIME(declared string, data []byte) string {
	mt := normalizeMIME(declared)
	if mt == "" || mt == "application/octet-stream" {
		mt = normalizeMIME(mimetype.Detect(data).String())
	}
	return mt
}

func normalizeMIME(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(v); err == nil {
		return strings.ToLower(mt)
	}
	if i := strings.IndexByte(v, ';'); i >= 0 {
		v = v[:i]
	}
	return strings.ToLower(strings.TrimSpace(v))
}
