package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dgallion1/docquest/internal/document"
	"golang.org/x/net/html"
)

// HTMLExtractor produces one unit per heading-delimited section of the
// document body, skipping non-content elements.
type HTMLExtractor struct{}

func (p *HTMLExtractor) Extract(data []byte, filename string, opts Options) (*document.Record, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	rec := &document.Record{
		Name: filename,
		Meta: document.Metadata{Format: formatOf(filename)},
	}

	label := ""
	var body strings.Builder

	flush := func() {
		t := strings.TrimSpace(body.String())
		if t != "" {
			rec.Units = append(rec.Units, document.Unit{Label: label, Text: t})
		}
		body.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if isHeadingTag(n.Data) {
				flush()
				label = textContent(n)
				return
			}
			switch n.Data {
			case "script", "style", "nav", "footer", "header":
				return
			case "p", "li", "td", "blockquote", "pre":
				t := textContent(n)
				if t != "" {
					if body.Len() > 0 {
						body.WriteString("\n\n")
					}
					body.WriteString(t)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if b := findBody(doc); b != nil {
		walk(b)
	} else {
		walk(doc)
	}
	flush()

	return rec, nil
}

func isHeadingTag(tag string) bool {
	return len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6'
}

func textContent(n *html.Node) string {
	var buf bytes.Buffer
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
