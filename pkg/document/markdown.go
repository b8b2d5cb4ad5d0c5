package document

import (
	"strings"
)

// imagePlaceholder stands in for pictures in the markdown rendering, which
// carries text only.
const imagePlaceholder = "<!-- image -->"

// ExportMarkdown renders the document body in reading order as markdown.
// Titles and section headers become ATX headings, list items become bullets,
// tables become pipe tables and pictures become a placeholder comment.
func (d *Document) ExportMarkdown() string {
	var blocks []string
	for _, ref := range d.Body {
		var block string
		switch ref.Kind {
		case RefText:
			if ref.Index < 0 || ref.Index >= len(d.Texts) {
				continue
			}
			block = renderText(d.Texts[ref.Index])
		case RefTable:
			if ref.Index < 0 || ref.Index >= len(d.Tables) {
				continue
			}
			block = renderTable(d.Tables[ref.Index])
		case RefPicture:
			block = imagePlaceholder
		}
		if block != "" {
			blocks = append(blocks, block)
		}
	}
	return strings.Join(blocks, "\n\n")
}

func renderText(t Text) string {
	text := strings.TrimSpace(t.Text)
	if text == "" {
		return ""
	}
	switch t.Label {
	case LabelTitle:
		return "# " + text
	case LabelSectionHeader:
		// Level 1 renders as ## so a document title keeps # to itself.
		n := t.Level + 1
		if n < 2 {
			n = 2
		}
		if n > 6 {
			n = 6
		}
		return strings.Repeat("#", n) + " " + text
	case LabelListItem:
		return "- " + text
	default:
		return text
	}
}

func renderTable(t Table) string {
	if t.NumRows == 0 || t.NumCols == 0 {
		return ""
	}
	grid := t.Grid()
	var b strings.Builder
	for i, row := range grid {
		b.WriteString("|")
		for _, cell := range row {
			b.WriteString(" ")
			b.WriteString(escapeCell(cell))
			b.WriteString(" |")
		}
		b.WriteString("\n")
		if i == 0 {
			b.WriteString("|")
			for range row {
				b.WriteString("---|")
			}
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// escapeCell keeps cell text from breaking the pipe-table layout
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.TrimSpace(s)
}
