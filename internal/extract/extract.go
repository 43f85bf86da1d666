// Package extract converts uploaded document bytes into plain text for
// chunking. Dispatch is by declared MIME type with a fallback on the
// source name extension. Extraction is deterministic: the same bytes
// always produce the same text, so chunk offsets derived from it are
// stable across re-ingests.
package extract

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/documind-ai/documind-go/internal/core"
)

// Format is a supported document format.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatPDF      Format = "pdf"
	FormatDOCX     Format = "docx"
)

// SupportedMIMETypes lists the accepted MIME types, for API responses.
func SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/markdown",
		"text/html",
		"application/pdf",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
}

// DetectFormat resolves the format from the declared MIME type, falling
// back to the source name extension when the MIME type is absent or
// generic.
func DetectFormat(sourceName, mimeType string) (Format, error) {
	// Content-Type headers often carry parameters ("text/plain; charset=utf-8").
	mime := strings.TrimSpace(strings.ToLower(mimeType))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}

	switch mime {
	case "text/plain":
		return FormatText, nil
	case "text/markdown", "text/x-markdown":
		return FormatMarkdown, nil
	case "text/html", "application/xhtml+xml":
		return FormatHTML, nil
	case "application/pdf":
		return FormatPDF, nil
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return FormatDOCX, nil
	case "", "application/octet-stream":
		// Fall through to the extension.
	default:
		return "", fmt.Errorf("extract: MIME type %q: %w", mimeType, core.ErrUnsupportedFormat)
	}

	switch strings.ToLower(filepath.Ext(sourceName)) {
	case ".txt", ".text":
		return FormatText, nil
	case ".md", ".markdown":
		return FormatMarkdown, nil
	case ".html", ".htm":
		return FormatHTML, nil
	case ".pdf":
		return FormatPDF, nil
	case ".docx":
		return FormatDOCX, nil
	default:
		return "", fmt.Errorf("extract: cannot determine format of %q: %w", sourceName, core.ErrUnsupportedFormat)
	}
}

// Extract converts document bytes into normalized plain text.
func Extract(data []byte, sourceName, mimeType string) (string, error) {
	format, err := DetectFormat(sourceName, mimeType)
	if err != nil {
		return "", err
	}

	var text string
	switch format {
	case FormatText:
		text = string(data)
	case FormatMarkdown:
		text, err = extractMarkdown(data)
	case FormatHTML:
		text, err = extractHTML(data)
	case FormatPDF:
		text, err = extractPDF(data)
	case FormatDOCX:
		text, err = extractDOCX(data)
	}
	if err != nil {
		return "", fmt.Errorf("extract: %s %q: %v: %w", format, sourceName, err, core.ErrExtraction)
	}

	return normalize(text), nil
}

// normalize canonicalizes whitespace: CRLF to LF, runs of blanks to one
// space, runs of blank lines to one blank line, trimmed edges.
func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var b strings.Builder
	b.Grow(len(text))
	blanks := 0
	newlines := 0
	for _, r := range text {
		switch {
		case r == '\n':
			newlines++
			blanks = 0
		case r == ' ' || r == '\t' || r == '\v' || r == '\f':
			blanks++
		default:
			if b.Len() > 0 {
				if newlines == 1 {
					b.WriteByte('\n')
				} else if newlines > 1 {
					b.WriteString("\n\n")
				} else if blanks > 0 {
					b.WriteByte(' ')
				}
			}
			newlines = 0
			blanks = 0
			b.WriteRune(r)
		}
	}
	return b.String()
}
