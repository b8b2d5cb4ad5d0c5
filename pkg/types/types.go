// Package types defines the wire types of the modelpipe stdin/stdout protocols
package types

import "github.com/shivavenkatesh/modelpipe/pkg/document"

// EmbedResult is the single-text embedding response, one JSON line on stdout
type EmbedResult struct {
	Embedding  []float32 `json:"embedding"`
	Dimensions int       `json:"dimensions"`
}

// BatchRecord is one input line of a batch embedding run. ID is an opaque
// caller token and passes through unvalidated.
type BatchRecord struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// BatchResult is one output line of a batch embedding run, emitted in input
// order
type BatchResult struct {
	ID         string    `json:"id"`
	Embedding  []float32 `json:"embedding"`
	Dimensions int       `json:"dimensions"`
}

// ErrorResult is the fatal-error object printed to stderr before a non-zero
// exit
type ErrorResult struct {
	Error string `json:"error"`
}

// ServerStatus is a one-key startup line of the extraction server. Exactly one
// of the fields is set per line, so the other is omitted from the JSON.
type ServerStatus struct {
	Ready       bool `json:"ready,omitempty"`
	Initialized bool `json:"initialized,omitempty"`
}

// ExtractSuccess is the per-document success response of the extraction
// server. Every field is always present; Extraction carries the structured
// document with image payloads stripped.
type ExtractSuccess struct {
	Success    bool               `json:"success"`
	Text       string             `json:"text"`
	WordCount  int                `json:"wordCount"`
	CharCount  int                `json:"charCount"`
	TableCount int                `json:"tableCount"`
	ImageCount int                `json:"imageCount"`
	Extraction *document.Document `json:"extraction"`
}

// ExtractFailure is the per-document error response of the extraction server.
// A failure never terminates the serving loop.
type ExtractFailure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
