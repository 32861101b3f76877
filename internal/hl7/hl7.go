// Package hl7 parses HL7 v2 pipe-delimited messages into a structured
// representation suitable for JSON or YAML serialization.
//
// The parser is delimiter-driven: the MSH segment declares the field
// separator and encoding characters, and every value is decomposed by
// repetition, component, and subcomponent in that order. Escape sequences
// are carried through verbatim.
package hl7

import (
	"fmt"
	"strings"

	"github.com/pdiddy/hl7convert/pkg/types"
)

// minMSHLength covers "MSH" plus the field separator and at least one
// encoding character.
const minMSHLength = 5

// delimiters holds the separator characters declared by the MSH segment.
type delimiters struct {
	field        string
	component    string
	repetition   string
	escape       string
	subcomponent string
}

// defaultDelimiters are the conventional HL7 v2 encoding characters,
// used for positions the MSH segment leaves undeclared.
var defaultDelimiters = delimiters{
	field:        "|",
	component:    "^",
	repetition:   "~",
	escape:       "\\",
	subcomponent: "&",
}

// Parser converts HL7 v2 messages. The zero value is ready to use and safe
// for concurrent use.
type Parser struct{}

// Parse implements the pipeline's message parser capability.
func (Parser) Parse(rawText string) (types.StructuredMessage, error) {
	return Parse(rawText)
}

// Parse converts one HL7 v2 message into a structured value keyed by
// segment name. Each segment maps field positions ("PID.3") to values;
// empty fields are omitted. Segments that appear more than once (OBX, NK1)
// collect into an array under their shared name.
//
// The message must begin with an MSH segment long enough to declare its
// delimiters. Errors describe the offending segment and are always
// attributable to the message content.
func Parse(rawText string) (types.StructuredMessage, error) {
	segments := splitSegments(rawText)
	if len(segments) == 0 {
		return nil, fmt.Errorf("empty message")
	}

	msh := segments[0]
	if !strings.HasPrefix(msh, "MSH") {
		return nil, fmt.Errorf("message does not begin with an MSH segment (got %q)", firstChars(msh, 16))
	}
	if len(msh) < minMSHLength {
		return nil, fmt.Errorf("MSH segment too short to declare delimiters")
	}

	delims := readDelimiters(msh)

	message := types.StructuredMessage{}
	for i, seg := range segments {
		name, fields, err := parseSegment(seg, delims, i == 0)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i+1, err)
		}
		addSegment(message, name, fields)
	}

	return message, nil
}

// splitSegments breaks a message into segment strings. HL7 uses carriage
// returns on the wire; files use newlines. Blank lines are skipped.
func splitSegments(raw string) []string {
	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	var segments []string
	for _, line := range strings.Split(normalized, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		segments = append(segments, line)
	}
	return segments
}

// readDelimiters extracts the field separator (MSH position 4) and the
// encoding characters that follow it. Missing positions fall back to the
// conventional characters.
func readDelimiters(msh string) delimiters {
	d := defaultDelimiters
	d.field = string(msh[3])

	encoding := msh[4:]
	if i := strings.Index(encoding, d.field); i >= 0 {
		encoding = encoding[:i]
	}

	if len(encoding) > 0 {
		d.component = string(encoding[0])
	}
	if len(encoding) > 1 {
		d.repetition = string(encoding[1])
	}
	if len(encoding) > 2 {
		d.escape = string(encoding[2])
	}
	if len(encoding) > 3 {
		d.subcomponent = string(encoding[3])
	}
	return d
}

// parseSegment decomposes one segment into its field map. For MSH the field
// separator itself is field 1 and the encoding characters field 2, per HL7
// numbering; for every other segment field n is the nth value after the
// segment name.
func parseSegment(seg string, delims delimiters, isMSH bool) (string, map[string]any, error) {
	parts := strings.Split(seg, delims.field)
	name := parts[0]
	if len(name) != 3 {
		return "", nil, fmt.Errorf("invalid segment name %q", firstChars(name, 16))
	}

	fields := map[string]any{}

	if isMSH {
		fields[name+".1"] = delims.field
		if len(parts) > 1 && parts[1] != "" {
			// Encoding characters are opaque; decomposing them with
			// themselves would be circular.
			fields[name+".2"] = parts[1]
		}
		for i, value := range parts[2:] {
			if value == "" {
				continue
			}
			fields[fmt.Sprintf("%s.%d", name, i+3)] = parseField(value, delims)
		}
		return name, fields, nil
	}

	for i, value := range parts[1:] {
		if value == "" {
			continue
		}
		fields[fmt.Sprintf("%s.%d", name, i+1)] = parseField(value, delims)
	}
	return name, fields, nil
}

// parseField decomposes one field value: repetitions first, then components,
// then subcomponents. A value with no separators stays a plain string.
func parseField(value string, delims delimiters) any {
	reps := strings.Split(value, delims.repetition)
	if len(reps) > 1 {
		out := make([]any, len(reps))
		for i, rep := range reps {
			out[i] = parseComponents(rep, delims)
		}
		return out
	}
	return parseComponents(value, delims)
}

// parseComponents splits a single repetition into components and, within
// each component, subcomponents.
func parseComponents(value string, delims delimiters) any {
	comps := strings.Split(value, delims.component)
	if len(comps) == 1 {
		return parseSubcomponents(value, delims)
	}
	out := make([]any, len(comps))
	for i, comp := range comps {
		out[i] = parseSubcomponents(comp, delims)
	}
	return out
}

func parseSubcomponents(value string, delims delimiters) any {
	subs := strings.Split(value, delims.subcomponent)
	if len(subs) == 1 {
		return value
	}
	out := make([]any, len(subs))
	for i, sub := range subs {
		out[i] = sub
	}
	return out
}

// addSegment stores a parsed segment under its name. A second occurrence
// promotes the entry to an array; later ones append.
func addSegment(message types.StructuredMessage, name string, fields map[string]any) {
	existing, ok := message[name]
	if !ok {
		message[name] = fields
		return
	}
	if list, ok := existing.([]any); ok {
		message[name] = append(list, fields)
		return
	}
	message[name] = []any{existing, fields}
}

// firstChars truncates s for inclusion in an error message.
func firstChars(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
