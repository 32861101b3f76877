// Package extract scans document text for fenced blocks and produces the
// ordered candidate sequence the conversion pipeline consumes.
package extract

import (
	"strings"

	"github.com/pdiddy/hl7convert/pkg/types"
)

// DefaultFence is the block delimiter used when none is configured.
const DefaultFence = "```"

// Candidates scans document for fenced blocks and returns them in
// left-to-right order, indexed from 1. A block opens at the fence marker
// followed directly by a newline and closes at the next newline followed by
// the marker, so each block captures the shortest span between a matched
// pair. Matching is purely syntactic: whatever sits between the markers
// becomes one candidate.
//
// A document with no matched pairs yields an empty slice. A trailing
// opening marker with no closing marker is ignored, as is a marker carrying
// trailing text on its line (e.g. a language tag).
//
// Candidates is a pure function: the same document always yields the same
// sequence.
func Candidates(document string, cfg types.ExtractConfig) []types.Candidate {
	fence := cfg.Fence
	if fence == "" {
		fence = DefaultFence
	}

	opening := fence + "\n"
	closing := "\n" + fence

	var candidates []types.Candidate
	pos := 0

	for {
		i := strings.Index(document[pos:], opening)
		if i < 0 {
			break
		}
		start := pos + i + len(opening)

		j := strings.Index(document[start:], closing)
		if j < 0 {
			break
		}

		candidates = append(candidates, types.Candidate{
			Index:   len(candidates) + 1,
			RawText: document[start : start+j],
		})

		pos = start + j + len(closing)
	}

	return candidates
}
