package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	gmtext "github.com/yuin/goldmark/text"
	"golang.org/x/net/html"
)

// extractMarkdown parses the document with goldmark and collects the
// text content of the AST, so markup (emphasis markers, link targets,
// code fences) never leaks into the indexed text.
func extractMarkdown(data []byte) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	root := md.Parser().Parse(gmtext.NewReader(data))

	var b strings.Builder
	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			// Separate block elements with a blank line.
			if _, ok := n.(*ast.Document); !ok && n.Type() == ast.TypeBlock {
				b.WriteString("\n\n")
			}
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			b.Write(node.Segment.Value(data))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.AutoLink:
			b.Write(node.URL(data))
		case *ast.CodeBlock:
			writeLines(&b, node, data)
		case *ast.FencedCodeBlock:
			writeLines(&b, node, data)
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

func writeLines(b *strings.Builder, n ast.Node, data []byte) {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(data))
	}
}

// extractHTML walks the parsed tree collecting text nodes, skipping
// script and style subtrees.
func extractHTML(data []byte) (string, error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "head":
				return
			}
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElement(n.Data) {
			b.WriteByte('\n')
		}
	}
	walk(root)
	return b.String(), nil
}

func blockElement(tag string) bool {
	switch tag {
	case "p", "div", "br", "li", "ul", "ol", "table", "tr",
		"h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "pre", "section", "article":
		return true
	}
	return false
}

// extractPDF concatenates the plain text of every page.
func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		b.WriteString(pageText)
		b.WriteString("\n\n")
	}
	return b.String(), nil
}

// extractDOCX reads the archive in memory and pulls the text runs out of
// the document XML. Paragraph ends become newlines.
func extractDOCX(data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	defer r.Close()

	return docxText(r.Editable().GetContent()), nil
}

var xmlEntities = strings.NewReplacer(
	"&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'",
)

// docxText scans WordprocessingML for <w:t> runs and paragraph ends.
func docxText(content string) string {
	var b strings.Builder
	for {
		start := strings.Index(content, "<w:t")
		if start < 0 {
			break
		}
		// Paragraphs closed before the next run become line breaks.
		if p := strings.Index(content[:start], "</w:p>"); p >= 0 {
			b.WriteByte('\n')
		}
		rest := content[start:]
		open := strings.IndexByte(rest, '>')
		if open < 0 {
			break
		}
		// Distinguish <w:t ...> from <w:tbl> and friends.
		tag := rest[:open]
		if tag != "<w:t" && !strings.HasPrefix(tag, "<w:t ") {
			content = rest[open+1:]
			continue
		}
		end := strings.Index(rest[open+1:], "</w:t>")
		if end < 0 {
			break
		}
		b.WriteString(xmlEntities.Replace(rest[open+1 : open+1+end]))
		content = rest[open+1+end:]
	}
	if p := strings.Index(content, "</w:p>"); p >= 0 {
		b.WriteByte('\n')
	}
	return b.String()
}
