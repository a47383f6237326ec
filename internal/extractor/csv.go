package extractor

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/dgallion1/docquest/internal/document"
)

// CSVExtractor treats the file as a single sheet: rows serialized as
// header:value lines, batched so one enormous file does not become one
// enormous unit.
type CSVExtractor struct{}

const csvBatchSize = 50

func (p *CSVExtractor) Extract(data []byte, filename string, opts Options) (*document.Record, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	rec := &document.Record{
		Name: filename,
		Meta: document.Metadata{Format: formatOf(filename)},
	}
	if len(records) == 0 {
		return rec, nil
	}

	headers := records[0]
	if opts.Primary && len(headers) > 0 {
		rec.Units = append(rec.Units, document.Unit{
			Label: "Schema",
			Text:  "Columns: " + strings.Join(headers, ", "),
		})
	}

	dataRows := records[1:]
	for i := 0; i < len(dataRows); i += csvBatchSize {
		end := i + csvBatchSize
		if end > len(dataRows) {
			end = len(dataRows)
		}

		var text strings.Builder
		text.WriteString("Headers: " + strings.Join(headers, ", ") + "\n")
		for _, row := range dataRows[i:end] {
			text.WriteString(serializeRow(headers, row))
			text.WriteString("\n")
		}

		rec.Units = append(rec.Units, document.Unit{
			Label: fmt.Sprintf("Rows %d-%d", i+2, end+1), // 1-indexed, skip header
			Text:  strings.TrimRight(text.String(), "\n"),
		})
	}

	return rec, nil
}
