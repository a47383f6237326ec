package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dgallion1/docquest/internal/document"
	"github.com/fumiama/go-docx"
)

// DOCXExtractor produces one unit per heading-delimited section. A
// document without headings collapses to a single "Body" unit.
type DOCXExtractor struct{}

func (p *DOCXExtractor) Extract(data []byte, filename string, opts Options) (*document.Record, error) {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	rec := &document.Record{
		Name: filename,
		Meta: document.Metadata{Format: formatOf(filename)},
	}

	label := ""
	var body strings.Builder

	flush := func() {
		text := strings.TrimSpace(body.String())
		if text != "" {
			rec.Units = append(rec.Units, document.Unit{Label: label, Text: text})
		}
		body.Reset()
	}

	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := paragraphText(para)
		if text == "" {
			continue
		}
		if isHeading(para) {
			flush()
			label = text
			continue
		}
		if body.Len() > 0 {
			body.WriteString("\n\n")
		}
		body.WriteString(text)
	}
	flush()

	if len(rec.Units) == 1 && rec.Units[0].Label == "" {
		rec.Units[0].Label = "Body"
	}

	return rec, nil
}

func isHeading(para *docx.Paragraph) bool {
	if para.Properties == nil || para.Properties.Style == nil {
		return false
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	return strings.HasPrefix(style, "heading")
}

func paragraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
