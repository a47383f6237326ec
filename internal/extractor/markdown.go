package extractor

import (
	"bytes"
	"strings"

	"github.com/dgallion1/docquest/internal/document"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownExtractor produces one unit per heading-delimited section
// using the goldmark AST. Content before the first heading becomes an
// unlabeled leading unit.
type MarkdownExtractor struct{}

func (p *MarkdownExtractor) Extract(data []byte, filename string, opts Options) (*document.Record, error) {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(data))

	rec := &document.Record{
		Name: filename,
		Meta: document.Metadata{Format: formatOf(filename)},
	}

	label := ""
	var body bytes.Buffer

	flush := func() {
		t := strings.TrimSpace(body.String())
		if t != "" {
			rec.Units = append(rec.Units, document.Unit{Label: label, Text: t})
		}
		body.Reset()
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			flush()
			label = string(nodeText(h, data))
			continue
		}
		t := nodeText(n, data)
		if t != "" {
			if body.Len() > 0 {
				body.WriteString("\n\n")
			}
			body.WriteString(t)
		}
	}
	flush()

	return rec, nil
}

// nodeText gets the text content of a goldmark AST node. Block nodes
// with source lines (paragraphs, headings, code blocks) read the raw
// segment; container blocks recurse.
func nodeText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
		return strings.TrimSpace(buf.String())
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t := nodeText(c, src); t != "" {
			if buf.Len() > 0 {
				buf.WriteByte('\n')
			}
			buf.WriteString(t)
		}
	}
	return strings.TrimSpace(buf.String())
}
