package convert

import (
	"fmt"
	"strings"

	"github.com/dslipak/pdf"

	"github.com/shivavenkatesh/modelpipe/pkg/document"
)

// parsePDF extracts one text block per page. PDF layout carries no reliable
// structure markers, so tables and figures come through as plain text.
func (c *Converter) parsePDF(path string) (*document.Document, error) {
	r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	doc := &document.Document{}
	totalPages := r.NumPage()
	for i := 1; i <= totalPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			c.log.Debug("skipping unreadable PDF page", "page", i, "error", err)
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		doc.AddText(document.Text{Label: document.LabelParagraph, Text: text})
	}
	return doc, nil
}
