// Package convert parses source files into structured documents
package convert

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/shivavenkatesh/modelpipe/pkg/document"
)

// Format identifies a supported input format
type Format string

const (
	FormatDOCX     Format = "docx"
	FormatPDF      Format = "pdf"
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
)

// DefaultMaxFileSize - 50MB limit for document parsing
const DefaultMaxFileSize = 50 * 1024 * 1024

// Options configures a Converter
type Options struct {
	// Formats restricts the accepted input formats. Empty means all formats.
	Formats []Format

	// MaxFileSize rejects larger files before parsing.
	// Zero means DefaultMaxFileSize.
	MaxFileSize int64

	// Logger receives recoverable parse diagnostics at debug level
	Logger *slog.Logger
}

// Converter turns files into structured documents. It is read-only after
// construction, so a single instance can serve a whole process lifetime.
type Converter struct {
	allowed     map[Format]bool // nil allows every format
	maxFileSize int64
	log         *slog.Logger
}

// New validates the options and builds a Converter
func New(opts Options) (*Converter, error) {
	c := &Converter{
		maxFileSize: opts.MaxFileSize,
		log:         opts.Logger,
	}
	if len(opts.Formats) > 0 {
		c.allowed = make(map[Format]bool, len(opts.Formats))
		for _, f := range opts.Formats {
			switch f {
			case FormatDOCX, FormatPDF, FormatText, FormatMarkdown:
				c.allowed[f] = true
			default:
				return nil, fmt.Errorf("unknown format %q", f)
			}
		}
	}
	if c.maxFileSize <= 0 {
		c.maxFileSize = DefaultMaxFileSize
	}
	if c.log == nil {
		c.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c, nil
}

// Allows reports whether the converter accepts the format
func (c *Converter) Allows(f Format) bool {
	return c.allowed == nil || c.allowed[f]
}

// Convert parses the file at path into a structured document
func (c *Converter) Convert(path string) (*document.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("file not found: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory: %s", path)
	}
	if info.Size() > c.maxFileSize {
		return nil, fmt.Errorf("file exceeds size limit of %dMB", c.maxFileSize/(1024*1024))
	}

	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	if !c.Allows(format) {
		return nil, fmt.Errorf("format %s is not enabled", format)
	}

	var doc *document.Document
	switch format {
	case FormatDOCX:
		doc, err = c.parseDOCX(path)
	case FormatPDF:
		doc, err = c.parsePDF(path)
	case FormatText, FormatMarkdown:
		doc, err = c.parseText(path)
	}
	if err != nil {
		return nil, err
	}

	base := filepath.Base(path)
	doc.Name = strings.TrimSuffix(base, filepath.Ext(base))
	doc.Origin = document.Origin{
		Filename:  base,
		Mimetype:  mimeFor(format),
		SizeBytes: info.Size(),
	}
	return doc, nil
}

func mimeFor(f Format) string {
	switch f {
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatPDF:
		return "application/pdf"
	case FormatMarkdown:
		return "text/markdown"
	default:
		return "text/plain"
	}
}
