package protocol

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shivavenkatesh/modelpipe/pkg/types"
)

// ErrNoText reports an empty single-mode input. The message is part of the
// wire contract.
var ErrNoText = errors.New("No text provided")

// Embedder generates one embedding per input text in a single backend call
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// EmbedSingle embeds the whole input stream as one text and writes exactly
// one result line. Surrounding whitespace is trimmed; empty input is fatal.
func EmbedSingle(ctx context.Context, e Embedder, in io.Reader, out io.Writer) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return ErrNoText
	}

	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(types.EmbedResult{Embedding: vecs[0], Dimensions: e.Dimensions()}); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}

// EmbedBatch reads {id, text} records line by line, embeds every text in one
// backend call and writes one result line per record in input order. Zero
// records is a successful no-op. Any failure aborts the run before partial
// output is written.
func EmbedBatch(ctx context.Context, e Embedder, in io.Reader, out io.Writer) error {
	records, err := readBatch(in)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	texts := make([]string, len(records))
	for i, rec := range records {
		texts[i] = rec.Text
	}
	vecs, err := e.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(out)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	dims := e.Dimensions()
	for i, rec := range records {
		if err := enc.Encode(types.BatchResult{ID: rec.ID, Embedding: vecs[i], Dimensions: dims}); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return nil
}

// readBatch reads the whole batch up front so inference happens in one call.
// Blank lines are skipped. Record text can be arbitrarily long, so lines are
// read unbounded rather than scanned.
func readBatch(in io.Reader) ([]types.BatchRecord, error) {
	r := bufio.NewReader(in)
	var records []types.BatchRecord
	for lineNo := 1; ; lineNo++ {
		line, err := r.ReadString('\n')
		eof := errors.Is(err, io.EOF)
		if err != nil && !eof {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}

		if s := strings.TrimSpace(line); s != "" {
			var rec types.BatchRecord
			if uerr := json.Unmarshal([]byte(s), &rec); uerr != nil {
				return nil, fmt.Errorf("invalid batch record on line %d: %w", lineNo, uerr)
			}
			if rec.Text == "" {
				return nil, fmt.Errorf("batch record %q on line %d has no text", rec.ID, lineNo)
			}
			records = append(records, rec)
		}

		if eof {
			return records, nil
		}
	}
}
