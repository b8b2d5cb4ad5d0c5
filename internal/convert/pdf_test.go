package convert

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPDFCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4\nno xref here"), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	_, err := newTestConverter(t).Convert(path)
	if err == nil {
		t.Fatal("expected error for corrupt PDF")
	}
	if !strings.Contains(err.Error(), "PDF") {
		t.Errorf("unexpected error: %v", err)
	}
}
