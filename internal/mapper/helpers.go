// Package mapper projects parsed HL7 v2.5 segments onto FHIR R5
// resources: Patient, Practitioner, Organization, and Coverage, per the
// per-resource rules in the ingestion gateway's design.
package mapper

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// subcomponent returns the 1-indexed "&"-delimited subcomponent of a
// component string, or "" if out of range; used to pull the namespace out
// of an assigning authority or similar composite field.
func subcomponent(component string, index int) string {
	parts := strings.Split(component, "&")
	i := index - 1
	if i < 0 || i >= len(parts) {
		return ""
	}
	return parts[i]
}

// namespaceOf extracts the assigning-authority namespace (first
// subcomponent) from a CX-4/XCN-9 style composite field.
func namespaceOf(component string) string {
	return subcomponent(component, 1)
}

// parseHL7Timestamp parses a HL7 TS value in yyyyMMdd or yyyyMMddHHmmss
// form into an ISO-8601 string: a date for 8-digit input, a date-time for
// 14-digit input. Empty input returns "".
func parseHL7Timestamp(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	digits := raw
	if idx := strings.IndexAny(digits, ".+-"); idx > 0 {
		digits = digits[:idx]
	}
	switch len(digits) {
	case 8:
		t, err := time.Parse("20060102", digits)
		if err != nil {
			return "", fmt.Errorf("mapper: invalid date %q: %w", raw, err)
		}
		return t.Format("2006-01-02"), nil
	case 14:
		t, err := time.Parse("20060102150405", digits)
		if err != nil {
			return "", fmt.Errorf("mapper: invalid datetime %q: %w", raw, err)
		}
		return t.Format(time.RFC3339), nil
	default:
		return "", fmt.Errorf("mapper: unsupported timestamp length in %q", raw)
	}
}

// parseBirthDate implements spec §4.3's birth-date rule: 8-digit inputs
// are padded with "000000" before parsing, then only the date portion is
// kept.
func parseBirthDate(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	padded := raw
	if len(padded) == 8 {
		padded += "000000"
	}
	full, err := parseHL7Timestamp(padded)
	if err != nil {
		return "", err
	}
	if len(full) >= 10 {
		return full[:10], nil
	}
	return full, nil
}

// splitOnSpace splits on runs of whitespace and drops empty tokens.
func splitOnSpace(s string) []string {
	return strings.Fields(s)
}

// firstN returns the first n runes of s, or s itself if shorter.
func firstN(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// atoiOrZero parses an integer, returning 0 on failure.
func atoiOrZero(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}
