package mapper

import (
	"github.com/sonho/adt-gateway/internal/fhir"
	"github.com/sonho/adt-gateway/internal/hl7v2"
	"github.com/sonho/adt-gateway/internal/terminology"
)

// buildTelecomFromXTN projects a single XTN repetition into a FHIR
// ContactPoint, per spec §4.3's value/system/use derivation rules.
// Returns nil if neither a phone number nor a valid email is present.
func buildTelecomFromXTN(components []string) *fhir.ContactPoint {
	get := func(i int) string {
		idx := i - 1
		if idx < 0 || idx >= len(components) {
			return ""
		}
		return components[idx]
	}

	use := get(2)
	equipment := get(3)
	email := get(4)
	phone := get(12)

	value := phone
	if value == "" && email != "" && terminology.EmailPattern.MatchString(email) {
		value = email
	}
	if value == "" {
		return nil
	}

	return &fhir.ContactPoint{
		System: terminology.TelecomSystem(equipment),
		Value:  value,
		Use:    terminology.TelecomUse(use, equipment),
	}
}

// buildTelecomsFromField projects every repetition of an XTN-typed field
// into FHIR ContactPoints. It sets no rank; callers apply rankFirst.
func buildTelecomsFromField(seg *hl7v2.Segment, fieldIndex int) []fhir.ContactPoint {
	if seg == nil {
		return nil
	}
	var out []fhir.ContactPoint
	for _, rep := range seg.Repetitions(fieldIndex) {
		if tc := buildTelecomFromXTN(rep); tc != nil {
			out = append(out, *tc)
		}
	}
	return out
}

// rankFirst sets Rank=1 on the first entry of tc if any entries exist and
// none already carries a rank.
func rankFirst(tc []fhir.ContactPoint) {
	for i := range tc {
		if tc[i].Rank != 0 {
			return
		}
	}
	if len(tc) > 0 {
		tc[0].Rank = 1
	}
}
