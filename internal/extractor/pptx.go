package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dgallion1/docquest/internal/document"
)

// PPTXExtractor produces one unit per slide. A pptx is a zip container
// with one DrawingML file per slide under ppt/slides/; text lives in
// <a:t> runs grouped into <a:p> paragraphs.
type PPTXExtractor struct{}

var slideNameRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

func (p *PPTXExtractor) Extract(data []byte, filename string, opts Options) (*document.Record, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pptx: %w", err)
	}

	type slideFile struct {
		num  int
		file *zip.File
	}
	var slides []slideFile
	for _, f := range zr.File {
		m := slideNameRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		slides = append(slides, slideFile{num: n, file: f})
	}
	if len(slides) == 0 {
		return nil, fmt.Errorf("no slides found")
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	rec := &document.Record{
		Name: filename,
		Meta: document.Metadata{Format: formatOf(filename)},
	}

	for _, s := range slides {
		text, err := slideText(s.file)
		if err != nil {
			return nil, fmt.Errorf("slide %d: %w", s.num, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		rec.Units = append(rec.Units, document.Unit{
			Label: fmt.Sprintf("Slide %d", s.num),
			Text:  text,
		})
	}

	return rec, nil
}

func slideText(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)
	var buf strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decode slide xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				// Paragraph boundary.
				buf.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				buf.Write(t)
			}
		}
	}
	return buf.String(), nil
}
