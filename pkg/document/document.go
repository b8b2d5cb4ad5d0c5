// Package document defines the structured representation of an extracted
// document and its markdown rendering.
package document

// Label classifies a text block within a document
type Label string

const (
	LabelTitle         Label = "title"          // Document title style
	LabelSectionHeader Label = "section_header" // Heading with a level
	LabelParagraph     Label = "paragraph"      // Plain body text
	LabelListItem      Label = "list_item"      // Bulleted or numbered item
	LabelCaption       Label = "caption"        // Figure or table caption
)

// RefKind names the list a body reference points into
type RefKind string

const (
	RefText    RefKind = "text"
	RefTable   RefKind = "table"
	RefPicture RefKind = "picture"
)

// Ref locates one block in reading order. Kind selects the list on the
// Document, Index is the position within that list.
type Ref struct {
	Kind  RefKind `json:"kind"`
	Index int     `json:"index"`
}

// Origin records where the document came from
type Origin struct {
	Filename  string `json:"filename"`
	Mimetype  string `json:"mimetype"`
	SizeBytes int64  `json:"sizeBytes"`
}

// Text is a single text block. Level is meaningful only for section headers.
type Text struct {
	Label Label  `json:"label"`
	Level int    `json:"level,omitempty"`
	Text  string `json:"text"`
}

// TableCell is one cell of a table grid. ColSpan is set only when the cell
// spans more than one grid column; zero means a single column.
type TableCell struct {
	Row     int    `json:"row"`
	Col     int    `json:"col"`
	ColSpan int    `json:"colSpan,omitempty"`
	Text    string `json:"text"`
	Header  bool   `json:"header,omitempty"`
}

// Table is a rectangular grid of cells
type Table struct {
	NumRows int         `json:"numRows"`
	NumCols int         `json:"numCols"`
	Cells   []TableCell `json:"cells"`
}

// Picture is an embedded image. Image holds the raw payload and marshals as
// base64; it is omitted entirely once stripped.
type Picture struct {
	Name     string `json:"name,omitempty"`
	Mimetype string `json:"mimetype,omitempty"`
	Image    []byte `json:"image,omitempty"`
}

// Document is the structured form of one extracted file. Body holds reading
// order; Texts, Tables and Pictures hold the blocks it references.
type Document struct {
	Name     string    `json:"name"`
	Origin   Origin    `json:"origin"`
	Body     []Ref     `json:"body"`
	Texts    []Text    `json:"texts"`
	Tables   []Table   `json:"tables"`
	Pictures []Picture `json:"pictures"`
}

// AddText appends a text block and records it in the body order
func (d *Document) AddText(t Text) {
	d.Body = append(d.Body, Ref{Kind: RefText, Index: len(d.Texts)})
	d.Texts = append(d.Texts, t)
}

// AddTable appends a table and records it in the body order
func (d *Document) AddTable(t Table) {
	d.Body = append(d.Body, Ref{Kind: RefTable, Index: len(d.Tables)})
	d.Tables = append(d.Tables, t)
}

// AddPicture appends a picture and records it in the body order
func (d *Document) AddPicture(p Picture) {
	d.Body = append(d.Body, Ref{Kind: RefPicture, Index: len(d.Pictures)})
	d.Pictures = append(d.Pictures, p)
}

// StripImages drops the raw payload from every picture while keeping the
// picture records and their metadata, bounding the document's wire size.
func (d *Document) StripImages() {
	for i := range d.Pictures {
		d.Pictures[i].Image = nil
	}
}

// Grid materializes the table as a NumRows x NumCols matrix of cell texts.
// Cells spanning multiple columns leave the covered positions empty.
func (t *Table) Grid() [][]string {
	grid := make([][]string, t.NumRows)
	for i := range grid {
		grid[i] = make([]string, t.NumCols)
	}
	for _, c := range t.Cells {
		if c.Row < 0 || c.Row >= t.NumRows || c.Col < 0 || c.Col >= t.NumCols {
			continue
		}
		grid[c.Row][c.Col] = c.Text
	}
	return grid
}
