package convert

import (
	"fmt"
	"os"
	"strings"

	"github.com/shivavenkatesh/modelpipe/pkg/document"
)

// parseText splits a plain text or markdown file into blank-line-delimited
// paragraph blocks. Markdown is not interpreted; its syntax survives in the
// block text.
func (c *Converter) parseText(path string) (*document.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	doc := &document.Document{}
	normalized := strings.ReplaceAll(string(content), "\r\n", "\n")
	for _, block := range strings.Split(normalized, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		doc.AddText(document.Text{Label: document.LabelParagraph, Text: block})
	}
	return doc, nil
}
