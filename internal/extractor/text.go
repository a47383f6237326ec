package extractor

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/dgallion1/docquest/internal/document"
)

// TextExtractor produces one unit per blank-line-delimited paragraph.
type TextExtractor struct{}

func (p *TextExtractor) Extract(data []byte, filename string, opts Options) (*document.Record, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	rec := &document.Record{
		Name: filename,
		Meta: document.Metadata{Format: formatOf(filename)},
	}

	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			rec.Units = append(rec.Units, document.Unit{Text: current.String()})
			current.Reset()
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return rec, nil
}
