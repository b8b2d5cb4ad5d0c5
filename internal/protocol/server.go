// Package protocol implements the line-oriented stdin/stdout protocols: the
// one-shot embedding runs and the persistent document extraction server.
package protocol

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/shivavenkatesh/modelpipe/internal/cache"
	"github.com/shivavenkatesh/modelpipe/pkg/document"
	"github.com/shivavenkatesh/modelpipe/pkg/types"
)

// Converter turns a file path into a structured document
type Converter interface {
	Convert(path string) (*document.Document, error)
}

// Config configures a Server
type Config struct {
	// NewConverter builds the converter between the ready and initialized
	// status lines. A construction failure is fatal to the server.
	NewConverter func() (Converter, error)

	// CacheSize bounds the per-file result memo. Zero or negative disables it.
	CacheSize int

	Input  io.Reader // defaults to os.Stdin
	Output io.Writer // defaults to os.Stdout
	Logger *slog.Logger
}

// Server reads file paths line by line from its input and answers each with
// exactly one JSON result line. Responses never interleave and one failed
// document never stops the loop.
type Server struct {
	newConverter func() (Converter, error)
	cacheSize    int
	in           *bufio.Reader
	out          *bufio.Writer
	enc          *json.Encoder
	log          *slog.Logger
}

// NewServer creates a server over the configured streams
func NewServer(cfg Config) *Server {
	in := cfg.Input
	if in == nil {
		in = os.Stdin
	}
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	buffered := bufio.NewWriter(out)
	enc := json.NewEncoder(buffered)
	enc.SetEscapeHTML(false)

	return &Server{
		newConverter: cfg.NewConverter,
		cacheSize:    cfg.CacheSize,
		in:           bufio.NewReader(in),
		out:          buffered,
		enc:          enc,
		log:          log,
	}
}

// Run drives the server lifecycle: a ready line as soon as the process is
// up, converter construction, an initialized line, then the serving loop
// until the input closes.
func (s *Server) Run() error {
	if err := s.emit(types.ServerStatus{Ready: true}); err != nil {
		return err
	}

	conv, err := s.newConverter()
	if err != nil {
		return fmt.Errorf("failed to initialize converter: %w", err)
	}

	if err := s.emit(types.ServerStatus{Initialized: true}); err != nil {
		return err
	}

	s.log.Info("extraction server initialized")
	return s.serve(conv)
}

func (s *Server) serve(conv Converter) error {
	results := cache.NewResultCache[*types.ExtractSuccess](s.cacheSize)
	for {
		line, err := s.in.ReadString('\n')
		eof := errors.Is(err, io.EOF)
		if err != nil && !eof {
			return fmt.Errorf("failed to read input: %w", err)
		}

		// A final line without a newline still gets served
		if path := strings.TrimSpace(line); path != "" {
			if err := s.emit(s.handle(conv, results, path)); err != nil {
				return err
			}
		}

		if eof {
			if hits, misses, rate := results.Stats(); hits+misses > 0 {
				s.log.Debug("result cache stats", "hits", hits, "misses", misses, "hit_rate", rate)
			}
			s.log.Info("input closed, shutting down")
			return nil
		}
	}
}

// handle produces the response object for one request line
func (s *Server) handle(conv Converter, results *cache.ResultCache[*types.ExtractSuccess], path string) any {
	start := time.Now()
	log := s.log.With("job_id", uuid.New().String(), "path", path)

	info, err := os.Stat(path)
	if err != nil {
		log.Warn("file not found")
		return types.ExtractFailure{Success: false, Error: "File not found: " + path}
	}

	if cached, ok := results.Get(path, info); ok {
		log.Info("served from cache", "duration", time.Since(start))
		return cached
	}

	doc, err := conv.Convert(path)
	if err != nil {
		log.Warn("extraction failed", "error", err, "duration", time.Since(start))
		return types.ExtractFailure{Success: false, Error: err.Error()}
	}

	text := doc.ExportMarkdown()
	doc.StripImages()
	result := &types.ExtractSuccess{
		Success:    true,
		Text:       text,
		WordCount:  len(strings.Fields(text)),
		CharCount:  utf8.RuneCountInString(text),
		TableCount: len(doc.Tables),
		ImageCount: len(doc.Pictures),
		Extraction: doc,
	}
	results.Put(path, info, result)

	log.Info("extracted document",
		"words", result.WordCount,
		"tables", result.TableCount,
		"images", result.ImageCount,
		"duration", time.Since(start))
	return result
}

// emit writes one response line and flushes it, so a line-buffered caller
// sees each result as soon as it exists
func (s *Server) emit(v any) error {
	if err := s.enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	if err := s.out.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return nil
}
