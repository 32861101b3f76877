// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report serializes batch conversion reports to disk.
package report

import (
	"encoding/json"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/hl7convert/pkg/types"
)

// Write serializes the report's outcome sequence to path in the requested
// format. The outcomes are written as an ordered array of objects, each
// carrying the 1-based message index, the status discriminator, and either
// the structured data or the error plus original message.
//
// The file is marshaled fully before a single write, so an unwritable path
// never leaves a partial report behind.
func Write(path string, rep types.BatchReport, format types.ReportFormat) error {
	data, err := Marshal(rep, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}

// Marshal renders the outcome sequence in the requested format. An empty
// report renders as an empty array, not null.
func Marshal(rep types.BatchReport, format types.ReportFormat) ([]byte, error) {
	outcomes := rep.Outcomes
	if outcomes == nil {
		outcomes = []types.Outcome{}
	}

	switch format {
	case types.FormatYAML:
		data, err := yaml.Marshal(outcomes)
		if err != nil {
			return nil, fmt.Errorf("marshaling report: %w", err)
		}
		return data, nil
	case types.FormatJSON, "":
		data, err := json.MarshalIndent(outcomes, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling report: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}
