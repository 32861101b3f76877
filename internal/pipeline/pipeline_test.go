package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/pdiddy/hl7convert/pkg/types"
)

// --- mock parsers ---

// markerParser succeeds unless the raw text contains "BAD", returning a
// one-entry structured value echoing the input.
type markerParser struct {
	calls atomic.Int64
}

func (p *markerParser) Parse(rawText string) (types.StructuredMessage, error) {
	p.calls.Add(1)
	if strings.Contains(rawText, "BAD") {
		return nil, fmt.Errorf("malformed message: %q", rawText)
	}
	return types.StructuredMessage{"raw": rawText}, nil
}

// fatalParser fails every call with a fatal condition.
type fatalParser struct{}

func (fatalParser) Parse(string) (types.StructuredMessage, error) {
	return nil, fmt.Errorf("backend unavailable: %w", ErrParserFatal)
}

func fenced(blocks ...string) string {
	var b strings.Builder
	for _, block := range blocks {
		b.WriteString("```\n")
		b.WriteString(block)
		b.WriteString("\n```\n\n")
	}
	return b.String()
}

// --- Process ---

func TestProcessSingleSuccess(t *testing.T) {
	doc := fenced("MSH|^~\\&|A")
	report, err := Process(doc, &markerParser{}, types.ExtractConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.Outcomes) != 1 {
		t.Fatalf("got %d outcomes, want 1", len(report.Outcomes))
	}
	o := report.Outcomes[0]
	if o.Status != types.StatusSuccess || o.Index != 1 {
		t.Errorf("outcome = %+v, want success at index 1", o)
	}
	if o.Data["raw"] != "MSH|^~\\&|A" {
		t.Errorf("Data[raw] = %v", o.Data["raw"])
	}
	if report.SuccessCount != 1 || report.FailureCount != 0 {
		t.Errorf("counts = %d/%d, want 1/0", report.SuccessCount, report.FailureCount)
	}
}

func TestProcessFailureIsolation(t *testing.T) {
	doc := fenced("good one", "BAD middle", "good two")
	report, err := Process(doc, &markerParser{}, types.ExtractConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.Outcomes) != 3 {
		t.Fatalf("got %d outcomes, want 3", len(report.Outcomes))
	}
	if report.SuccessCount != 2 || report.FailureCount != 1 {
		t.Fatalf("counts = %d/%d, want 2/1", report.SuccessCount, report.FailureCount)
	}

	bad := report.Outcomes[1]
	if bad.Status != types.StatusFailed {
		t.Fatalf("middle outcome = %+v, want failed", bad)
	}
	if bad.OriginalMessage != "BAD middle" {
		t.Errorf("OriginalMessage = %q, want raw text preserved verbatim", bad.OriginalMessage)
	}
	if bad.Error == "" {
		t.Error("failed outcome carries no error description")
	}
	if bad.Data != nil {
		t.Errorf("failed outcome carries data: %v", bad.Data)
	}

	// The failure must not suppress or corrupt its siblings.
	for _, i := range []int{0, 2} {
		if report.Outcomes[i].Status != types.StatusSuccess {
			t.Errorf("outcome[%d] = %+v, want success", i, report.Outcomes[i])
		}
	}
}

func TestProcessSecondBlockRejected(t *testing.T) {
	doc := fenced("well formed", "BAD text")
	report, err := Process(doc, &markerParser{}, types.ExtractConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.Outcomes) != 2 {
		t.Fatalf("got %d outcomes, want 2", len(report.Outcomes))
	}
	if report.Outcomes[0].Index != 1 || report.Outcomes[0].Status != types.StatusSuccess {
		t.Errorf("outcome[0] = %+v", report.Outcomes[0])
	}
	if report.Outcomes[1].Index != 2 || report.Outcomes[1].Status != types.StatusFailed {
		t.Errorf("outcome[1] = %+v", report.Outcomes[1])
	}
	if report.Outcomes[1].OriginalMessage != "BAD text" {
		t.Errorf("OriginalMessage = %q", report.Outcomes[1].OriginalMessage)
	}
	if report.SuccessCount != 1 || report.FailureCount != 1 {
		t.Errorf("counts = %d/%d, want 1/1", report.SuccessCount, report.FailureCount)
	}
}

func TestProcessEmptyDocument(t *testing.T) {
	parser := &markerParser{}
	for _, doc := range []string{"", "plain prose, no markers"} {
		report, err := Process(doc, parser, types.ExtractConfig{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(report.Outcomes) != 0 || report.SuccessCount != 0 || report.FailureCount != 0 {
			t.Errorf("report for %q = %+v, want empty", doc, report)
		}
	}
	if parser.calls.Load() != 0 {
		t.Errorf("parser called %d times on empty extraction", parser.calls.Load())
	}
}

func TestProcessOrderAndCompleteness(t *testing.T) {
	blocks := make([]string, 25)
	for i := range blocks {
		blocks[i] = fmt.Sprintf("message %d", i+1)
		if i%4 == 0 {
			blocks[i] = "BAD " + blocks[i]
		}
	}
	doc := fenced(blocks...)

	report, err := Process(doc, &markerParser{}, types.ExtractConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.Outcomes) != len(blocks) {
		t.Fatalf("got %d outcomes, want %d", len(report.Outcomes), len(blocks))
	}
	for i, o := range report.Outcomes {
		if o.Index != i+1 {
			t.Errorf("outcome[%d].Index = %d, want %d", i, o.Index, i+1)
		}
	}

	wantFailed := 0
	for i := range blocks {
		if i%4 == 0 {
			wantFailed++
		}
	}
	if report.FailureCount != wantFailed || report.SuccessCount != len(blocks)-wantFailed {
		t.Errorf("counts = %d/%d, want %d/%d",
			report.SuccessCount, report.FailureCount, len(blocks)-wantFailed, wantFailed)
	}
	if report.Total() != len(blocks) {
		t.Errorf("Total() = %d, want %d", report.Total(), len(blocks))
	}
	if !report.HasFailures() {
		t.Error("HasFailures() = false with failed outcomes present")
	}
}

func TestProcessFatalPropagates(t *testing.T) {
	doc := fenced("one", "two")
	report, err := Process(doc, fatalParser{}, types.ExtractConfig{})
	if !errors.Is(err, ErrParserFatal) {
		t.Fatalf("err = %v, want ErrParserFatal", err)
	}
	if len(report.Outcomes) != 0 {
		t.Errorf("partial report returned on fatal error: %+v", report)
	}
}

func TestParserFunc(t *testing.T) {
	p := ParserFunc(func(raw string) (types.StructuredMessage, error) {
		return types.StructuredMessage{"echo": raw}, nil
	})
	got, err := p.Parse("x")
	if err != nil || got["echo"] != "x" {
		t.Fatalf("Parse = (%v, %v)", got, err)
	}
}

// --- ProcessParallel ---

func TestProcessParallelPreservesOrder(t *testing.T) {
	blocks := make([]string, 40)
	for i := range blocks {
		blocks[i] = fmt.Sprintf("message %d", i+1)
	}
	blocks[7] = "BAD seven"
	blocks[30] = "BAD thirty"
	doc := fenced(blocks...)

	for _, workers := range []int{1, 2, 8, 100} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			report, err := ProcessParallel(doc, &markerParser{}, types.ExtractConfig{}, workers)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(report.Outcomes) != len(blocks) {
				t.Fatalf("got %d outcomes, want %d", len(report.Outcomes), len(blocks))
			}
			for i, o := range report.Outcomes {
				if o.Index != i+1 {
					t.Errorf("outcome[%d].Index = %d, want %d", i, o.Index, i+1)
				}
			}
			if report.SuccessCount != 38 || report.FailureCount != 2 {
				t.Errorf("counts = %d/%d, want 38/2", report.SuccessCount, report.FailureCount)
			}
			if report.Outcomes[7].OriginalMessage != "BAD seven" {
				t.Errorf("outcome[7].OriginalMessage = %q", report.Outcomes[7].OriginalMessage)
			}
		})
	}
}

func TestProcessParallelEmpty(t *testing.T) {
	report, err := ProcessParallel("no fences here", &markerParser{}, types.ExtractConfig{}, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Outcomes) != 0 {
		t.Errorf("got %d outcomes, want 0", len(report.Outcomes))
	}
}

func TestProcessParallelFatal(t *testing.T) {
	doc := fenced("one", "two", "three", "four")
	_, err := ProcessParallel(doc, fatalParser{}, types.ExtractConfig{}, 3)
	if !errors.Is(err, ErrParserFatal) {
		t.Fatalf("err = %v, want ErrParserFatal", err)
	}
}
