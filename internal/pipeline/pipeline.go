// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives batch conversion: extract every fenced block from
// a document, run each through the message parser, and aggregate the
// per-message outcomes into one ordered report.
//
// The central invariant is failure isolation: one message's parse failure is
// recorded as data and never suppresses the processing or reporting of its
// siblings.
package pipeline

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pdiddy/hl7convert/internal/extract"
	"github.com/pdiddy/hl7convert/pkg/types"
)

// ErrParserFatal marks a parser error that is not attributable to one
// message's content (misconfiguration, resource exhaustion). A parser
// signals it by returning an error wrapping this sentinel; Process then
// aborts and propagates instead of recording a per-message failure.
var ErrParserFatal = errors.New("parser fatal")

// MessageParser converts one raw message into a structured value. An error
// describes why that one message could not be converted, unless it wraps
// ErrParserFatal. Implementations must be safe for concurrent use when the
// pipeline runs with more than one worker.
type MessageParser interface {
	Parse(rawText string) (types.StructuredMessage, error)
}

// ParserFunc adapts a plain function to the MessageParser interface.
type ParserFunc func(rawText string) (types.StructuredMessage, error)

// Parse calls f.
func (f ParserFunc) Parse(rawText string) (types.StructuredMessage, error) {
	return f(rawText)
}

// Process extracts all fenced blocks from document and converts each through
// parser, in extraction order. Every candidate produces exactly one outcome:
// success carries the structured value, failure carries the error text and
// the raw block verbatim. A document with no fenced blocks yields an empty
// report and no error.
//
// The only error Process returns is a fatal parser condition (one wrapping
// ErrParserFatal); in that case no partial report is returned.
func Process(document string, parser MessageParser, cfg types.ExtractConfig) (types.BatchReport, error) {
	candidates := extract.Candidates(document, cfg)

	outcomes := make([]types.Outcome, 0, len(candidates))
	for _, c := range candidates {
		outcome, err := convertOne(c, parser)
		if err != nil {
			return types.BatchReport{}, err
		}
		outcomes = append(outcomes, outcome)
	}

	return buildReport(outcomes), nil
}

// ProcessParallel behaves like Process but parses up to workers candidates
// concurrently. Outcomes are placed into a pre-sized slice by candidate
// index, so the report preserves extraction order regardless of completion
// order. Workers of one or less degrades to the sequential path.
func ProcessParallel(document string, parser MessageParser, cfg types.ExtractConfig, workers int) (types.BatchReport, error) {
	if workers <= 1 {
		return Process(document, parser, cfg)
	}

	candidates := extract.Candidates(document, cfg)
	if len(candidates) == 0 {
		return types.BatchReport{}, nil
	}
	if workers > len(candidates) {
		workers = len(candidates)
	}

	// Each worker owns the slot at candidate index - 1; no coordination on
	// ordering is needed.
	outcomes := make([]types.Outcome, len(candidates))
	jobs := make(chan types.Candidate)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var fatal error

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				outcome, err := convertOne(c, parser)
				if err != nil {
					mu.Lock()
					if fatal == nil {
						fatal = err
					}
					mu.Unlock()
					continue
				}
				outcomes[c.Index-1] = outcome
			}
		}()
	}

	for _, c := range candidates {
		jobs <- c
	}
	close(jobs)
	wg.Wait()

	if fatal != nil {
		return types.BatchReport{}, fatal
	}
	return buildReport(outcomes), nil
}

// convertOne runs one candidate through the parser and maps the result to
// an outcome. A fatal parser error is returned instead of recorded.
func convertOne(c types.Candidate, parser MessageParser) (types.Outcome, error) {
	data, err := parser.Parse(c.RawText)
	if err != nil {
		if errors.Is(err, ErrParserFatal) {
			return types.Outcome{}, fmt.Errorf("converting message %d: %w", c.Index, err)
		}
		return types.Outcome{
			Index:           c.Index,
			Status:          types.StatusFailed,
			Error:           err.Error(),
			OriginalMessage: c.RawText,
		}, nil
	}

	return types.Outcome{
		Index:  c.Index,
		Status: types.StatusSuccess,
		Data:   data,
	}, nil
}

// buildReport derives the summary counts by scanning the outcome sequence.
// The sequence is the single source of truth.
func buildReport(outcomes []types.Outcome) types.BatchReport {
	report := types.BatchReport{Outcomes: outcomes}
	for _, o := range outcomes {
		switch o.Status {
		case types.StatusSuccess:
			report.SuccessCount++
		case types.StatusFailed:
			report.FailureCount++
		}
	}
	return report
}
