// Package extractor turns raw file bytes into document records. Each
// format has its own extraction rule; all failures surface as
// *ExtractionError and never abort anything beyond their own file.
package extractor

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docquest/internal/document"
)

// Failure reasons carried by ExtractionError.
const (
	ReasonUnsupported  = "unsupported format"
	ReasonCorrupt      = "corrupt file"
	ReasonEmptyContent = "empty content"
)

// ExtractionError is the single error type extraction produces.
type ExtractionError struct {
	Filename string
	Reason   string
	Err      error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract %s: %s: %v", e.Filename, e.Reason, e.Err)
	}
	return fmt.Sprintf("extract %s: %s", e.Filename, e.Reason)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Options are per-call extraction hints.
type Options struct {
	// Primary marks the first file of an upload batch. Tabular formats
	// emit a leading schema unit for the primary document.
	Primary bool
}

// Extractor converts file bytes into a Record. Implementations are pure
// transforms with no shared state.
type Extractor interface {
	Extract(data []byte, filename string, opts Options) (*document.Record, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".pdf":      true,
	".docx":     true,
	".xlsx":     true,
	".pptx":     true,
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
}

// ForFile returns the appropriate extractor for a filename.
func ForFile(filename string) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return &PDFExtractor{}, nil
	case ".docx":
		return &DOCXExtractor{}, nil
	case ".xlsx":
		return &XLSXExtractor{}, nil
	case ".pptx":
		return &PPTXExtractor{}, nil
	case ".txt":
		return &TextExtractor{}, nil
	case ".md", ".markdown":
		return &MarkdownExtractor{}, nil
	case ".csv":
		return &CSVExtractor{}, nil
	case ".html", ".htm":
		return &HTMLExtractor{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// Extract runs the format-appropriate extractor over data. Any failure —
// including panics inside format libraries — comes back as
// *ExtractionError. A record with no non-empty units is a failure too: an
// empty record would silently contribute nothing to answers.
func Extract(data []byte, filename string, opts Options) (rec *document.Record, err error) {
	ex, ferr := ForFile(filename)
	if ferr != nil {
		return nil, &ExtractionError{Filename: filename, Reason: ReasonUnsupported, Err: ferr}
	}

	defer func() {
		if r := recover(); r != nil {
			rec = nil
			err = &ExtractionError{Filename: filename, Reason: ReasonCorrupt, Err: fmt.Errorf("parser panic: %v", r)}
		}
	}()

	rec, err = ex.Extract(data, filename, opts)
	if err != nil {
		if _, ok := err.(*ExtractionError); ok {
			return nil, err
		}
		return nil, &ExtractionError{Filename: filename, Reason: ReasonCorrupt, Err: err}
	}

	if !hasContent(rec) {
		return nil, &ExtractionError{Filename: filename, Reason: ReasonEmptyContent}
	}

	rec.Meta.Primary = opts.Primary
	rec.Meta.UnitCount = len(rec.Units)
	return rec, nil
}

func hasContent(rec *document.Record) bool {
	if rec == nil {
		return false
	}
	for _, u := range rec.Units {
		if strings.TrimSpace(u.Text) != "" {
			return true
		}
	}
	return false
}

func formatOf(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}
