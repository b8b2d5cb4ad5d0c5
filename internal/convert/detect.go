package convert

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// formatByExtension is the allow-list of recognized file extensions
var formatByExtension = map[string]Format{
	".docx":     FormatDOCX,
	".pdf":      FormatPDF,
	".txt":      FormatText,
	".md":       FormatMarkdown,
	".markdown": FormatMarkdown,
}

// DetectFormat identifies a file's format from its extension and leading
// bytes. The extension picks the candidate format and the sniffed content
// type has to agree, so a renamed binary does not reach a parser.
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	format, ok := formatByExtension[ext]
	if !ok {
		return "", fmt.Errorf("unsupported file extension %q", ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	// Sniff the MIME type from the first 512 bytes
	header := make([]byte, 512)
	n, err := f.Read(header)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read file header: %w", err)
	}
	mimeType := http.DetectContentType(header[:n])

	switch format {
	case FormatPDF:
		if mimeType != "application/pdf" {
			return "", mismatchErr(ext, mimeType)
		}
	case FormatDOCX:
		// DOCX files are ZIP archives containing XML parts
		if mimeType != "application/zip" {
			return "", mismatchErr(ext, mimeType)
		}
	case FormatText, FormatMarkdown:
		if !strings.HasPrefix(mimeType, "text/") {
			return "", mismatchErr(ext, mimeType)
		}
	}
	return format, nil
}

func mismatchErr(ext, mimeType string) error {
	return fmt.Errorf("file content does not match %s extension (detected %s)", ext, mimeType)
}
