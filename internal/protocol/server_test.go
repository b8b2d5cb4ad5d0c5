package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shivavenkatesh/modelpipe/pkg/document"
	"github.com/shivavenkatesh/modelpipe/pkg/types"
)

// fakeConverter turns paths into canned documents
type fakeConverter struct {
	calls   int
	convert func(path string) (*document.Document, error)
}

func (f *fakeConverter) Convert(path string) (*document.Document, error) {
	f.calls++
	return f.convert(path)
}

func sampleDocument() *document.Document {
	doc := &document.Document{Name: "sample"}
	doc.AddText(document.Text{Label: document.LabelTitle, Text: "Report"})
	doc.AddText(document.Text{Label: document.LabelParagraph, Text: "héllo world"})
	doc.AddTable(document.Table{NumRows: 1, NumCols: 1, Cells: []document.TableCell{{Text: "x"}}})
	doc.AddPicture(document.Picture{Name: "fig", Mimetype: "image/png", Image: []byte{1, 2, 3}})
	return doc
}

func convertsTo(doc func() *document.Document) *fakeConverter {
	return &fakeConverter{convert: func(string) (*document.Document, error) {
		return doc(), nil
	}}
}

func runServer(t *testing.T, cfg Config, input string) ([]string, error) {
	t.Helper()
	var out bytes.Buffer
	cfg.Input = strings.NewReader(input)
	cfg.Output = &out
	err := NewServer(cfg).Run()
	return outputLines(out.String()), err
}

func outputLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func writeDocFixture(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("stub"), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestServerStartupLines(t *testing.T) {
	conv := convertsTo(sampleDocument)
	lines, err := runServer(t, Config{
		NewConverter: func() (Converter, error) { return conv, nil },
	}, "")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected exactly the startup lines, got %d: %v", len(lines), lines)
	}
	if lines[0] != `{"ready":true}` {
		t.Errorf("unexpected ready line: %s", lines[0])
	}
	if lines[1] != `{"initialized":true}` {
		t.Errorf("unexpected initialized line: %s", lines[1])
	}
}

func TestServerConverterFailureFatal(t *testing.T) {
	lines, err := runServer(t, Config{
		NewConverter: func() (Converter, error) { return nil, errors.New("model load failed") },
	}, "ignored\n")
	if err == nil {
		t.Fatal("expected converter construction failure")
	}
	if !strings.Contains(err.Error(), "failed to initialize converter") {
		t.Errorf("unexpected error: %v", err)
	}
	// Ready goes out before construction; initialized never follows
	if len(lines) != 1 || lines[0] != `{"ready":true}` {
		t.Errorf("expected only the ready line, got %v", lines)
	}
}

func TestServerFileNotFoundThenServes(t *testing.T) {
	conv := convertsTo(sampleDocument)
	missing := filepath.Join(t.TempDir(), "absent.docx")
	existing := writeDocFixture(t, "present.docx")

	lines, err := runServer(t, Config{
		NewConverter: func() (Converter, error) { return conv, nil },
	}, missing+"\n"+existing+"\n")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %v", len(lines), lines)
	}

	var fail types.ExtractFailure
	if err := json.Unmarshal([]byte(lines[2]), &fail); err != nil {
		t.Fatalf("invalid failure line: %v", err)
	}
	if fail.Success {
		t.Error("expected success false")
	}
	if fail.Error != "File not found: "+missing {
		t.Errorf("unexpected error message %q", fail.Error)
	}
	if conv.calls != 1 {
		t.Errorf("expected converter untouched for the missing file, got %d calls", conv.calls)
	}

	var ok types.ExtractSuccess
	if err := json.Unmarshal([]byte(lines[3]), &ok); err != nil {
		t.Fatalf("invalid success line: %v", err)
	}
	if !ok.Success {
		t.Error("expected the next document to still be served")
	}
}

func TestServerSuccessPayload(t *testing.T) {
	path := writeDocFixture(t, "report.docx")
	conv := &fakeConverter{convert: func(p string) (*document.Document, error) {
		if p != path {
			t.Errorf("expected path %q, got %q", path, p)
		}
		return sampleDocument(), nil
	}}

	lines, err := runServer(t, Config{
		NewConverter: func() (Converter, error) { return conv, nil },
	}, path+"\n")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %v", len(lines), lines)
	}

	var res types.ExtractSuccess
	if err := json.Unmarshal([]byte(lines[2]), &res); err != nil {
		t.Fatalf("invalid success line: %v", err)
	}
	if !res.Success {
		t.Error("expected success true")
	}

	wantText := "# Report\n\nhéllo world\n\n| x |\n|---|\n\n<!-- image -->"
	if res.Text != wantText {
		t.Errorf("unexpected text:\n%q\nwant:\n%q", res.Text, wantText)
	}
	if res.WordCount != 11 {
		t.Errorf("expected 11 words, got %d", res.WordCount)
	}
	// Code points, not bytes: é counts once
	if res.CharCount != 50 {
		t.Errorf("expected 50 chars, got %d", res.CharCount)
	}
	if res.TableCount != 1 || res.ImageCount != 1 {
		t.Errorf("expected 1 table and 1 image, got %d and %d", res.TableCount, res.ImageCount)
	}

	if res.Extraction == nil {
		t.Fatal("expected structured extraction")
	}
	if len(res.Extraction.Pictures) != 1 {
		t.Fatalf("expected picture record to survive, got %d", len(res.Extraction.Pictures))
	}
	pic := res.Extraction.Pictures[0]
	if pic.Image != nil {
		t.Errorf("expected image payload stripped, got %d bytes", len(pic.Image))
	}
	if pic.Name != "fig" || pic.Mimetype != "image/png" {
		t.Errorf("picture metadata lost: %+v", pic)
	}
	if !strings.Contains(lines[2], `"wordCount":11`) {
		t.Errorf("expected wire field names, got %s", lines[2])
	}
}

func TestServerConversionErrorContinues(t *testing.T) {
	bad := writeDocFixture(t, "bad.docx")
	good := writeDocFixture(t, "good.docx")
	conv := &fakeConverter{convert: func(p string) (*document.Document, error) {
		if p == bad {
			return nil, errors.New("corrupt archive")
		}
		return sampleDocument(), nil
	}}

	lines, err := runServer(t, Config{
		NewConverter: func() (Converter, error) { return conv, nil },
	}, bad+"\n"+good+"\n")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %v", len(lines), lines)
	}

	var fail types.ExtractFailure
	if err := json.Unmarshal([]byte(lines[2]), &fail); err != nil {
		t.Fatalf("invalid failure line: %v", err)
	}
	if fail.Success || fail.Error != "corrupt archive" {
		t.Errorf("unexpected failure line: %+v", fail)
	}

	var ok types.ExtractSuccess
	if err := json.Unmarshal([]byte(lines[3]), &ok); err != nil {
		t.Fatalf("invalid success line: %v", err)
	}
	if !ok.Success {
		t.Error("expected the document after a failure to succeed")
	}
}

func TestServerBlankLinesIgnored(t *testing.T) {
	conv := convertsTo(sampleDocument)
	lines, err := runServer(t, Config{
		NewConverter: func() (Converter, error) { return conv, nil },
	}, "\n   \n\t\n")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(lines) != 2 {
		t.Errorf("expected no responses for blank lines, got %v", lines)
	}
	if conv.calls != 0 {
		t.Errorf("expected converter untouched, got %d calls", conv.calls)
	}
}

func TestServerFinalLineWithoutNewline(t *testing.T) {
	path := writeDocFixture(t, "last.docx")
	conv := convertsTo(sampleDocument)

	lines, err := runServer(t, Config{
		NewConverter: func() (Converter, error) { return conv, nil },
	}, path)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("expected the unterminated line to be served, got %v", lines)
	}
	if conv.calls != 1 {
		t.Errorf("expected 1 conversion, got %d", conv.calls)
	}
}

func TestServerCacheReuse(t *testing.T) {
	path := writeDocFixture(t, "cached.docx")
	conv := convertsTo(sampleDocument)

	lines, err := runServer(t, Config{
		NewConverter: func() (Converter, error) { return conv, nil },
		CacheSize:    8,
	}, path+"\n"+path+"\n")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %v", len(lines), lines)
	}
	if conv.calls != 1 {
		t.Errorf("expected the repeat to come from cache, got %d conversions", conv.calls)
	}
	if lines[2] != lines[3] {
		t.Errorf("expected identical responses, got:\n%s\n%s", lines[2], lines[3])
	}
}

func TestServerFailuresNotCached(t *testing.T) {
	path := writeDocFixture(t, "flaky.docx")
	first := true
	conv := &fakeConverter{convert: func(string) (*document.Document, error) {
		if first {
			first = false
			return nil, errors.New("transient parse failure")
		}
		return sampleDocument(), nil
	}}

	lines, err := runServer(t, Config{
		NewConverter: func() (Converter, error) { return conv, nil },
		CacheSize:    8,
	}, path+"\n"+path+"\n")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if conv.calls != 2 {
		t.Errorf("expected the failure to be retried, got %d conversions", conv.calls)
	}

	var ok types.ExtractSuccess
	if err := json.Unmarshal([]byte(lines[3]), &ok); err != nil {
		t.Fatalf("invalid success line: %v", err)
	}
	if !ok.Success {
		t.Error("expected the second attempt to succeed")
	}
}

func TestServerCacheDisabled(t *testing.T) {
	path := writeDocFixture(t, "doc.docx")
	conv := convertsTo(sampleDocument)

	_, err := runServer(t, Config{
		NewConverter: func() (Converter, error) { return conv, nil },
		CacheSize:    -1,
	}, path+"\n"+path+"\n")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if conv.calls != 2 {
		t.Errorf("expected every request converted with caching off, got %d", conv.calls)
	}
}
