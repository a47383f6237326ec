package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dgallion1/docquest/internal/document"
	"github.com/xuri/excelize/v2"
)

// XLSXExtractor produces one unit per sheet, rows serialized as
// comma-delimited header:value lines. The primary document of a batch
// additionally gets a leading schema unit listing the first sheet's
// header columns.
type XLSXExtractor struct{}

func (p *XLSXExtractor) Extract(data []byte, filename string, opts Options) (*document.Record, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	rec := &document.Record{
		Name: filename,
		Meta: document.Metadata{Format: formatOf(filename)},
	}

	for sheetIdx, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}

		headers := rows[0]
		if opts.Primary && sheetIdx == 0 && len(headers) > 0 {
			rec.Units = append(rec.Units, document.Unit{
				Label: "Schema",
				Text:  "Columns: " + strings.Join(headers, ", "),
			})
		}

		var text strings.Builder
		text.WriteString("Headers: " + strings.Join(headers, ", ") + "\n")
		for _, row := range rows[1:] {
			text.WriteString(serializeRow(headers, row))
			text.WriteString("\n")
		}

		rec.Units = append(rec.Units, document.Unit{
			Label: "Sheet: " + sheet,
			Text:  strings.TrimRight(text.String(), "\n"),
		})
	}

	return rec, nil
}

func serializeRow(headers, row []string) string {
	var b strings.Builder
	for j, cell := range row {
		if j > 0 {
			b.WriteString(", ")
		}
		if j < len(headers) && headers[j] != "" {
			b.WriteString(headers[j] + ": " + cell)
		} else {
			b.WriteString(cell)
		}
	}
	return b.String()
}
