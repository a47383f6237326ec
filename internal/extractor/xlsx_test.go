package extractor

import (
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func buildXLSX(t *testing.T, sheets map[string][][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	first := true
	for sheet, rows := range sheets {
		if first {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
			first = false
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				t.Fatalf("new sheet: %v", err)
			}
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				t.Fatalf("set row: %v", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write xlsx: %v", err)
	}
	return buf.Bytes()
}

func TestXLSXExtractor_OneUnitPerSheet(t *testing.T) {
	data := buildXLSX(t, map[string][][]any{
		"Sales": {
			{"Region", "Revenue"},
			{"North", 100},
			{"South", 250},
		},
	})

	rec, err := Extract(data, "report.xlsx", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.Units) != 1 {
		t.Fatalf("expected 1 unit, got %d", len(rec.Units))
	}
	u := rec.Units[0]
	if u.Label != "Sheet: Sales" {
		t.Errorf("label = %q", u.Label)
	}
	if !strings.Contains(u.Text, "Headers: Region, Revenue") {
		t.Errorf("missing headers: %q", u.Text)
	}
	if !strings.Contains(u.Text, "Region: North, Revenue: 100") {
		t.Errorf("missing row: %q", u.Text)
	}
	if !strings.Contains(u.Text, "Region: South, Revenue: 250") {
		t.Errorf("missing row: %q", u.Text)
	}
}

func TestXLSXExtractor_PrimaryEmitsSchema(t *testing.T) {
	data := buildXLSX(t, map[string][][]any{
		"Sales": {
			{"Region", "Revenue"},
			{"North", 100},
		},
	})

	rec, err := Extract(data, "report.xlsx", Options{Primary: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.Units) != 2 {
		t.Fatalf("expected schema + sheet units, got %d", len(rec.Units))
	}
	if rec.Units[0].Label != "Schema" || rec.Units[0].Text != "Columns: Region, Revenue" {
		t.Errorf("schema unit = %+v", rec.Units[0])
	}
}

func TestXLSXExtractor_EmptyWorkbook(t *testing.T) {
	f := excelize.NewFile()
	buf, err := f.WriteToBuffer()
	f.Close()
	if err != nil {
		t.Fatalf("write xlsx: %v", err)
	}

	_, err = Extract(buf.Bytes(), "empty.xlsx", Options{})
	if err == nil {
		t.Fatal("expected empty content error")
	}
	eerr, ok := err.(*ExtractionError)
	if !ok {
		t.Fatalf("expected *ExtractionError, got %T", err)
	}
	if eerr.Reason != ReasonEmptyContent {
		t.Errorf("reason = %q", eerr.Reason)
	}
}
