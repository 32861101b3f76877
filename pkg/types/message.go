// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the data model shared across the conversion pipeline.
package types

// Candidate is one fenced block extracted from a source document, believed
// to contain a single message. Index is its 1-based position in extraction
// order; RawText is the block content verbatim, fences excluded.
type Candidate struct {
	Index   int
	RawText string
}

// StructuredMessage is the parsed representation of one message, keyed by
// segment name. Values are strings or nested arrays/maps depending on how
// the message subdivides its fields.
type StructuredMessage map[string]any

// ConversionStatus discriminates the two outcome shapes in a report entry.
type ConversionStatus string

const (
	StatusSuccess ConversionStatus = "success"
	StatusFailed  ConversionStatus = "failed"
)

// Outcome records the result of converting one Candidate. Exactly one of
// the two shapes is populated: Data on success, Error plus OriginalMessage
// on failure. Index always matches the originating Candidate.
type Outcome struct {
	// Index is the 1-based position of the message in extraction order.
	Index int `json:"message_index" yaml:"message_index"`

	// Status is "success" or "failed".
	Status ConversionStatus `json:"conversion_status" yaml:"conversion_status"`

	// Data is the structured value produced by the parser (success only).
	Data StructuredMessage `json:"data,omitempty" yaml:"data,omitempty"`

	// Error describes why conversion failed (failure only).
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// OriginalMessage preserves the raw block text verbatim (failure only).
	OriginalMessage string `json:"original_message,omitempty" yaml:"original_message,omitempty"`
}

// BatchReport is the ordered, complete record of a conversion run: one
// Outcome per Candidate, in extraction order. The counts are derived from
// the outcome sequence and carry no independent state.
type BatchReport struct {
	Outcomes     []Outcome
	SuccessCount int
	FailureCount int
}

// Total returns the number of messages processed.
func (r BatchReport) Total() int {
	return len(r.Outcomes)
}

// HasFailures reports whether any message failed conversion.
func (r BatchReport) HasFailures() bool {
	return r.FailureCount > 0
}
