package extract

import (
	"errors"
	"strings"
	"testing"

	"github.com/documind-ai/documind-go/internal/core"
)

func Test_DetectFormat(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		sourceName string
		mimeType   string
		want       Format
		wantErr    bool
	}{
		{"plain mime", "notes", "text/plain", FormatText, false},
		{"mime with charset", "notes", "text/plain; charset=utf-8", FormatText, false},
		{"markdown mime", "readme", "text/markdown", FormatMarkdown, false},
		{"html mime", "page", "text/html", FormatHTML, false},
		{"pdf mime", "report", "application/pdf", FormatPDF, false},
		{"docx mime", "memo", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", FormatDOCX, false},
		{"extension fallback txt", "notes.txt", "", FormatText, false},
		{"extension fallback md", "README.md", "application/octet-stream", FormatMarkdown, false},
		{"extension fallback htm", "index.htm", "", FormatHTML, false},
		{"unknown mime", "notes.txt", "image/png", "", true},
		{"no mime no extension", "mystery", "", "", true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := DetectFormat(tc.sourceName, tc.mimeType)
			if tc.wantErr {
				if !errors.Is(err, core.ErrUnsupportedFormat) {
					t.Fatalf("got %v, want ErrUnsupportedFormat", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DetectFormat: %v", err)
			}
			if got != tc.want {
				t.Errorf("format = %s, want %s", got, tc.want)
			}
		})
	}
}

func Test_Extract_PlainText(t *testing.T) {
	t.Parallel()

	got, err := Extract([]byte("  hello \t world \r\n\r\n\r\nsecond  paragraph \n"), "a.txt", "text/plain")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := "hello world\n\nsecond paragraph"
	if got != want {
		t.Errorf("normalized text = %q, want %q", got, want)
	}
}

func Test_Extract_HTML(t *testing.T) {
	t.Parallel()

	page := `<html><head><title>skip me</title><style>p{color:red}</style></head>
<body><h1>Title</h1><p>First <b>bold</b> paragraph.</p>
<script>var skipped = true;</script><p>Second.</p></body></html>`

	got, err := Extract([]byte(page), "page.html", "text/html")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	for _, want := range []string{"Title", "First bold paragraph.", "Second."} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q: %q", want, got)
		}
	}
	for _, banned := range []string{"skip me", "skipped", "color:red"} {
		if strings.Contains(got, banned) {
			t.Errorf("output leaked %q: %q", banned, got)
		}
	}
}

func Test_Extract_Markdown(t *testing.T) {
	t.Parallel()

	doc := "# Heading\n\nSome *emphasized* and **strong** text with [a link](https://example.com).\n\n```go\ncode here\n```\n"
	got, err := Extract([]byte(doc), "doc.md", "text/markdown")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	for _, want := range []string{"Heading", "emphasized", "strong", "a link", "code here"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q: %q", want, got)
		}
	}
	for _, banned := range []string{"# ", "**", "```", "](https"} {
		if strings.Contains(got, banned) {
			t.Errorf("markup leaked %q: %q", banned, got)
		}
	}
}

func Test_Extract_MarkdownCodeBlocks(t *testing.T) {
	t.Parallel()

	// Fenced and indented blocks both carry their lines as separate
	// segments; every line must survive into the extracted text.
	doc := "Intro.\n\n```sh\nfirst line\nsecond line\nthird line\n```\n\n    indented one\n    indented two\n"
	got, err := Extract([]byte(doc), "doc.md", "text/markdown")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	for _, want := range []string{"first line", "second line", "third line", "indented one", "indented two"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q: %q", want, got)
		}
	}
	if strings.Contains(got, "```") {
		t.Errorf("fence leaked: %q", got)
	}
}

func Test_Extract_PDFGarbage(t *testing.T) {
	t.Parallel()

	// Not a PDF at all: extraction must fail, classified as ErrExtraction.
	_, err := Extract([]byte("definitely not a pdf"), "bad.pdf", "application/pdf")
	if !errors.Is(err, core.ErrExtraction) {
		t.Errorf("got %v, want ErrExtraction", err)
	}
}

func Test_DocxText(t *testing.T) {
	t.Parallel()

	content := `<w:body><w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:t xml:space="preserve"> world</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Fish &amp; chips</w:t></w:r></w:p></w:body>`
	got := docxText(content)
	if !strings.Contains(got, "Hello world") {
		t.Errorf("missing merged runs: %q", got)
	}
	if !strings.Contains(got, "Fish & chips") {
		t.Errorf("entities not decoded: %q", got)
	}
	if !strings.Contains(got, "\n") {
		t.Errorf("paragraph break lost: %q", got)
	}
}

func Test_Normalize_Deterministic(t *testing.T) {
	t.Parallel()

	in := "a  b\r\nc\n\n\n\nd"
	first := normalize(in)
	for i := 0; i < 3; i++ {
		if got := normalize(in); got != first {
			t.Fatalf("normalize not deterministic: %q vs %q", got, first)
		}
	}
	if first != "a b\nc\n\nd" {
		t.Errorf("normalize = %q", first)
	}
}
