package document

// Unit is one extracted content block: a page, a slide, a sheet, or a
// labeled text section, depending on the source format.
type Unit struct {
	Label string `json:"label,omitempty"` // e.g. "Page 3", "Slide 2", "Sheet: Summary"
	Text  string `json:"text"`
}

// Metadata describes how a record was produced.
type Metadata struct {
	Format    string `json:"format"`     // file extension without the dot
	UnitCount int    `json:"unit_count"` // page/slide/sheet/section count
	Primary   bool   `json:"primary"`    // first file of its upload batch
}

// Record is the normalized extraction result for one uploaded file.
// Immutable after creation: the store hands out the same pointer and
// nothing downstream mutates it.
type Record struct {
	Name  string   `json:"name"` // original filename, unique within a session
	Units []Unit   `json:"units"`
	Meta  Metadata `json:"metadata"`
}
