package ingest

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// Kind is a supported upload format
type Kind string

const (
	KindPDF      Kind = "pdf"
	KindText     Kind = "text"
	KindMarkdown Kind = "markdown"
)

// ContentType returns the canonical MIME type stored with the document
func (k Kind) ContentType() string {
	switch k {
	case KindPDF:
		return "application/pdf"
	case KindMarkdown:
		return "text/markdown"
	default:
		return "text/plain"
	}
}

var pdfMagic = []byte("%PDF-")

// DetectKind decides the format from the file signature, extension and declared content type.
// The second result is false for unsupported uploads.
func DetectKind(filename, contentType string, data []byte) (Kind, bool) {
	if bytes.HasPrefix(data, pdfMagic) {
		return KindPDF, true
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return KindPDF, true
	case ".txt", ".text":
		return KindText, true
	case ".md", ".markdown":
		return KindMarkdown, true
	}

	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	switch mediaType {
	case "application/pdf":
		return KindPDF, true
	case "text/plain":
		return KindText, true
	case "text/markdown", "text/x-markdown":
		return KindMarkdown, true
	}

	return "", false
}

// Extract returns the plain text of data
func Extract(kind Kind, data []byte) (string, error) {
	switch kind {
	case KindPDF:
		return extractPDF(data)
	case KindText, KindMarkdown:
		if !utf8.Valid(data) {
			return strings.ToValidUTF8(string(data), ""), nil
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported kind %q", kind)
	}
}

// extractPDF reads the text layer. The parser panics on some malformed files, so panics become errors.
func extractPDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	rdr, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	plain, err := rdr.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("failed to read pdf buffer: %w", err)
	}

	return buf.String(), nil
}
