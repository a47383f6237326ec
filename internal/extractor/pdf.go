package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dgallion1/docquest/internal/document"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFExtractor produces one unit per page.
type PDFExtractor struct{}

func (p *PDFExtractor) Extract(data []byte, filename string, opts Options) (*document.Record, error) {
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	rec := &document.Record{
		Name: filename,
		Meta: document.Metadata{Format: formatOf(filename)},
	}

	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page (e.g. image-only) is not fatal;
			// the whole-document emptiness check catches scanned PDFs.
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		rec.Units = append(rec.Units, document.Unit{
			Label: fmt.Sprintf("Page %d", i),
			Text:  text,
		})
	}

	return rec, nil
}
