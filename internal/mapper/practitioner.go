package mapper

import (
	"strings"

	"github.com/sonho/adt-gateway/internal/fhir"
	"github.com/sonho/adt-gateway/internal/hl7v2"
	"github.com/sonho/adt-gateway/internal/terminology"
)

// MapPractitioner builds a Practitioner resource from the ROL-4 XCN
// repetitions on the given ROL segment, per spec §4.4. id is the
// deterministic id already computed by buildGeneralPractitionerRef.
func MapPractitioner(rol *hl7v2.Segment, id string) *fhir.Practitioner {
	practitioner := fhir.NewPractitioner(id)

	for _, comps := range rol.Repetitions(4) {
		get := func(i int) string {
			idx := i - 1
			if idx < 0 || idx >= len(comps) {
				return ""
			}
			return comps[idx]
		}

		family := subcomponent(get(2), 1)
		given := get(3)
		middles := splitOnSpace(get(4))

		if family == "" && given == "" {
			continue
		}
		name := fhir.HumanName{Use: "usual", Family: family}
		if given != "" {
			name.Given = append(name.Given, given)
		}
		name.Given = append(name.Given, middles...)
		practitioner.Name = append(practitioner.Name, name)

		value := get(1)
		namespace := namespaceOf(get(9))
		hl7Type := get(13)
		if namespace == "N.Mecanográfico" {
			namespace = terminology.AssigningAuthorityRHV
		}

		var idType *fhir.CodeableConcept
		if code, ok := terminology.PractitionerIdentifierType(hl7Type, namespace); ok {
			idType = fhir.NewTypeCodeableConcept(terminology.IdentifierTypeSystem, code)
		} else if hl7Type != "" {
			idType = fhir.NewTypeCodeableConcept(terminology.IdentifierTypeSystem, hl7Type)
		}

		if value != "" {
			practitioner.Identifier = append(practitioner.Identifier, fhir.Identifier{
				System: namespace,
				Value:  value,
				Type:   idType,
			})
		}
	}

	return practitioner
}

// PractitionerFamilyName returns the family name used as the
// Practitioner's If-None-Exist selector, or "" if the practitioner has
// no name entries.
func PractitionerFamilyName(p *fhir.Practitioner) string {
	if len(p.Name) == 0 {
		return ""
	}
	return strings.TrimSpace(p.Name[0].Family)
}
