// Package hl7v2 implements a pipe-delimited HL7 v2.5 parser sufficient
// to decode ADT^A28 registrations and synthesize ACK responses, plus the
// MLLP byte-framing helpers used by the connection handler.
package hl7v2

import "strings"

// Message is a parsed HL7 message: an ordered list of segments, each an
// ordered list of fields, each an ordered list of repetitions of
// components. Segments are keyed by their 3-letter segment id, with
// repeats addressable by index via GetSegment.
type Message struct {
	Segments []Segment
}

// Segment is one HL7 segment ("PID|1||12345^^^SONHO^NS|...").
type Segment struct {
	ID     string
	Fields []Field
}

// Field is one pipe-delimited field, itself repeating on "~" and
// composed of "^"-delimited components, each optionally subdivided by
// "&".
type Field struct {
	Repetitions [][]string
}

const (
	fieldSep     = "|"
	componentSep = "^"
	repeatSep    = "~"
	subcomponentSep = "&"
)

// Parse splits a decoded HL7 message (segments separated by \r) into a
// Message. It does not validate segment structure beyond the pipe/caret
// grammar; the caller is responsible for verifying the first segment is
// MSH.
func Parse(raw string) Message {
	var msg Message
	for _, line := range strings.Split(raw, "\r") {
		line = strings.TrimRight(line, "\n")
		if line == "" {
			continue
		}
		msg.Segments = append(msg.Segments, parseSegment(line))
	}
	return msg
}

func parseSegment(line string) Segment {
	if len(line) < 3 {
		return Segment{ID: line}
	}
	id := line[:3]
	seg := Segment{ID: id}
	if id == "MSH" {
		// MSH-1 is the field separator itself; MSH-2 is the encoding
		// characters field. Both are synthesized as fields so that
		// MSH-9 lands at index 9 like every other segment's fields.
		if len(line) < 4 {
			return seg
		}
		rest := line[4:] // skip "MSH|"
		seg.Fields = append(seg.Fields, parseField(fieldSep))
		parts := strings.Split(rest, fieldSep)
		if len(parts) > 0 {
			seg.Fields = append(seg.Fields, parseField(parts[0]))
			for _, p := range parts[1:] {
				seg.Fields = append(seg.Fields, parseField(p))
			}
		}
		return seg
	}
	parts := strings.Split(line, fieldSep)
	for _, p := range parts[1:] {
		seg.Fields = append(seg.Fields, parseField(p))
	}
	return seg
}

func parseField(raw string) Field {
	var f Field
	for _, rep := range strings.Split(raw, repeatSep) {
		f.Repetitions = append(f.Repetitions, strings.Split(rep, componentSep))
	}
	return f
}

// GetSegment returns the nth (0-indexed) occurrence of the segment with
// the given id, or nil if not present.
func (m Message) GetSegment(id string, occurrence int) *Segment {
	n := 0
	for i := range m.Segments {
		if m.Segments[i].ID == id {
			if n == occurrence {
				return &m.Segments[i]
			}
			n++
		}
	}
	return nil
}

// AllSegments returns every occurrence of the segment with the given id,
// in document order.
func (m Message) AllSegments(id string) []Segment {
	var out []Segment
	for _, s := range m.Segments {
		if s.ID == id {
			out = append(out, s)
		}
	}
	return out
}

// Field returns the first component of the first repetition of the
// 1-indexed field (HL7 field numbers start at 1), or "" if out of range.
func (s Segment) Field(index int) string {
	return s.Component(index, 1, 1)
}

// Repetition returns the raw components of the given field repetition
// (1-indexed repetition number).
func (s Segment) Repetition(fieldIndex, repetition int) []string {
	i := fieldIndex - 1
	if i < 0 || i >= len(s.Fields) {
		return nil
	}
	reps := s.Fields[i].Repetitions
	r := repetition - 1
	if r < 0 || r >= len(reps) {
		return nil
	}
	return reps[r]
}

// Repetitions returns every repetition's components for the given field.
func (s Segment) Repetitions(fieldIndex int) [][]string {
	i := fieldIndex - 1
	if i < 0 || i >= len(s.Fields) {
		return nil
	}
	return s.Fields[i].Repetitions
}

// Component returns the 1-indexed component of the given field
// repetition, or "" if out of range.
func (s Segment) Component(fieldIndex, repetition, componentIndex int) string {
	comps := s.Repetition(fieldIndex, repetition)
	ci := componentIndex - 1
	if ci < 0 || ci >= len(comps) {
		return ""
	}
	return comps[ci]
}

// RawField returns the raw, unparsed field-1-repetition-1 value.
func (s Segment) RawField(index int) string {
	return strings.Join(s.Repetition(index, 1), componentSep)
}

// FieldCount returns the number of fields on this segment.
func (s Segment) FieldCount() int {
	return len(s.Fields)
}
