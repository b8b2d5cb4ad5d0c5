package convert

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strconv"
	"strings"

	"github.com/shivavenkatesh/modelpipe/pkg/document"
)

// docxRelationships mirrors word/_rels/document.xml.rels
type docxRelationships struct {
	Relationships []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// parseDOCX rebuilds the paragraphs, tables and inline pictures of a DOCX
// archive. DOCX is a ZIP of XML parts; the main content lives in
// word/document.xml and image payloads hang off relationship ids.
func (c *Converter) parseDOCX(filePath string) (*document.Document, error) {
	r, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open DOCX archive: %w", err)
	}
	defer r.Close()

	parts := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		parts[f.Name] = f
	}

	main, ok := parts["word/document.xml"]
	if !ok {
		return nil, fmt.Errorf("invalid docx: missing word/document.xml")
	}

	rc, err := main.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open word/document.xml: %w", err)
	}
	defer rc.Close()

	p := &docxParser{
		dec:   xml.NewDecoder(rc),
		doc:   &document.Document{},
		parts: parts,
		rels:  loadRelationships(parts, c.log),
		log:   c.log,
	}
	if err := p.parseBody(); err != nil {
		return nil, err
	}
	return p.doc, nil
}

type docxParser struct {
	dec   *xml.Decoder
	doc   *document.Document
	parts map[string]*zip.File
	rels  map[string]string
	log   *slog.Logger
}

// parseBody walks the top-level block elements of word/document.xml.
// Paragraphs inside tables are consumed by the table parser, so they never
// show up here twice.
func (p *docxParser) parseBody() error {
	for {
		tok, err := p.dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to parse document.xml: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "p":
			if err := p.parseParagraph(); err != nil {
				return err
			}
		case "tbl":
			if err := p.parseTable(); err != nil {
				return err
			}
		}
	}
}

// parseParagraph consumes one w:p element, emitting a labeled text block and
// any inline pictures it carries. Text boxes nest paragraphs inside
// paragraphs; their text flattens into the outer block.
func (p *docxParser) parseParagraph() error {
	var (
		text     strings.Builder
		style    string
		isList   bool
		picName  string
		pictures []document.Picture
	)
	depth := 1
	for depth > 0 {
		tok, err := p.dec.Token()
		if err != nil {
			return fmt.Errorf("failed to parse document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				depth++
			case "pStyle":
				if style == "" {
					style = attrValue(t, "val")
				}
			case "numPr":
				isList = true
			case "t":
				var s string
				if err := p.dec.DecodeElement(&s, &t); err != nil {
					return fmt.Errorf("failed to parse document.xml: %w", err)
				}
				text.WriteString(s)
			case "tab":
				text.WriteString("\t")
			case "br", "cr":
				text.WriteString("\n")
			case "docPr":
				picName = attrValue(t, "name")
			case "blip":
				pictures = append(pictures, p.resolvePicture(attrValue(t, "embed"), picName))
				picName = ""
			}
		case xml.EndElement:
			if t.Name.Local == "p" {
				depth--
			}
		}
	}

	if s := strings.TrimSpace(text.String()); s != "" {
		p.doc.AddText(textBlock(style, isList, s))
	}
	for _, pic := range pictures {
		p.doc.AddPicture(pic)
	}
	return nil
}

// textBlock maps a paragraph style to a labeled text block
func textBlock(style string, isList bool, text string) document.Text {
	switch {
	case style == "Title":
		return document.Text{Label: document.LabelTitle, Text: text}
	case strings.HasPrefix(style, "Heading"):
		if level, err := strconv.Atoi(strings.TrimPrefix(style, "Heading")); err == nil && level > 0 {
			return document.Text{Label: document.LabelSectionHeader, Level: level, Text: text}
		}
	case style == "Caption":
		return document.Text{Label: document.LabelCaption, Text: text}
	}
	if isList {
		return document.Text{Label: document.LabelListItem, Text: text}
	}
	return document.Text{Label: document.LabelParagraph, Text: text}
}

// parseTable consumes one w:tbl element and rebuilds its grid. Horizontally
// merged cells keep their span; vertically merged continuations read as
// empty grid positions.
func (p *docxParser) parseTable() error {
	var cells []document.TableCell
	numRows := 0
	numCols := 0
	depth := 1
	for depth > 0 {
		tok, err := p.dec.Token()
		if err != nil {
			return fmt.Errorf("failed to parse document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				depth++
			case "tr":
				rowCells, width, err := p.parseRow(numRows)
				if err != nil {
					return err
				}
				cells = append(cells, rowCells...)
				if width > numCols {
					numCols = width
				}
				numRows++
			}
		case xml.EndElement:
			if t.Name.Local == "tbl" {
				depth--
			}
		}
	}

	if numRows == 0 || numCols == 0 {
		p.log.Debug("skipping empty table")
		return nil
	}
	p.doc.AddTable(document.Table{NumRows: numRows, NumCols: numCols, Cells: cells})
	return nil
}

// parseRow consumes one w:tr element and returns its cells plus the number
// of grid columns the row occupies
func (p *docxParser) parseRow(rowIndex int) ([]document.TableCell, int, error) {
	var cells []document.TableCell
	col := 0
	header := false
	depth := 1
	for depth > 0 {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, 0, fmt.Errorf("failed to parse document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tr":
				depth++
			case "tblHeader":
				header = true
			case "tc":
				text, span, merged, err := p.parseCell()
				if err != nil {
					return nil, 0, err
				}
				if !merged {
					cell := document.TableCell{Row: rowIndex, Col: col, Text: text}
					if span > 1 {
						cell.ColSpan = span
					}
					cells = append(cells, cell)
				}
				col += span
			}
		case xml.EndElement:
			if t.Name.Local == "tr" {
				depth--
			}
		}
	}

	if header {
		for i := range cells {
			cells[i].Header = true
		}
	}
	return cells, col, nil
}

// parseCell consumes one w:tc element. Nested tables flatten into the cell
// text; images inside cells are dropped. Returns the cell text, its column
// span and whether it is a vertical-merge continuation.
func (p *docxParser) parseCell() (string, int, bool, error) {
	var text strings.Builder
	span := 1
	merged := false
	depth := 1
	for depth > 0 {
		tok, err := p.dec.Token()
		if err != nil {
			return "", 0, false, fmt.Errorf("failed to parse document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tc":
				depth++
			case "gridSpan":
				if depth == 1 {
					if n, err := strconv.Atoi(attrValue(t, "val")); err == nil && n > 1 {
						span = n
					}
				}
			case "vMerge":
				if depth == 1 && attrValue(t, "val") != "restart" {
					merged = true
				}
			case "t":
				var s string
				if err := p.dec.DecodeElement(&s, &t); err != nil {
					return "", 0, false, fmt.Errorf("failed to parse document.xml: %w", err)
				}
				text.WriteString(s)
			case "tab":
				text.WriteString("\t")
			case "br", "cr":
				text.WriteString("\n")
			case "p":
				if text.Len() > 0 {
					text.WriteString("\n")
				}
			case "blip":
				p.log.Debug("skipping image inside table cell")
			}
		case xml.EndElement:
			if t.Name.Local == "tc" {
				depth--
			}
		}
	}
	return strings.TrimSpace(text.String()), span, merged, nil
}

// resolvePicture looks up an image relationship and loads its media bytes.
// Unresolvable relationships still yield a picture record, just without a
// payload.
func (p *docxParser) resolvePicture(relID, name string) document.Picture {
	pic := document.Picture{Name: name}
	target, ok := p.rels[relID]
	if !ok {
		p.log.Debug("image relationship not found", "rel_id", relID)
		return pic
	}
	partName := path.Join("word", target)
	if strings.HasPrefix(target, "/") {
		partName = strings.TrimPrefix(target, "/")
	}
	part, ok := p.parts[partName]
	if !ok {
		p.log.Debug("image part not found", "part", partName)
		return pic
	}
	data, err := readZipFile(part)
	if err != nil {
		p.log.Debug("failed to read image part", "part", partName, "error", err)
		return pic
	}
	pic.Mimetype = imageMime(path.Ext(partName))
	pic.Image = data
	return pic
}

// loadRelationships maps relationship ids to targets so inline images can be
// resolved to media parts. A document without relationships is fine.
func loadRelationships(parts map[string]*zip.File, log *slog.Logger) map[string]string {
	rels := make(map[string]string)
	part, ok := parts["word/_rels/document.xml.rels"]
	if !ok {
		return rels
	}
	data, err := readZipFile(part)
	if err != nil {
		log.Debug("failed to read relationships part", "error", err)
		return rels
	}
	var parsed docxRelationships
	if err := xml.Unmarshal(data, &parsed); err != nil {
		log.Debug("failed to parse relationships part", "error", err)
		return rels
	}
	for _, r := range parsed.Relationships {
		rels[r.ID] = r.Target
	}
	return rels
}

func imageMime(ext string) string {
	switch strings.ToLower(ext) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".bmp":
		return "image/bmp"
	case ".tif", ".tiff":
		return "image/tiff"
	case ".svg":
		return "image/svg+xml"
	case ".emf":
		return "image/x-emf"
	case ".wmf":
		return "image/x-wmf"
	default:
		return "application/octet-stream"
	}
}

// attrValue returns a start element attribute by local name
func attrValue(e xml.StartElement, name string) string {
	for _, a := range e.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
