package mapper

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/sonho/adt-gateway/internal/fhir"
	"github.com/sonho/adt-gateway/internal/hl7v2"
	"github.com/sonho/adt-gateway/internal/terminology"
)

// buildAddress projects a single XAD repetition into a FHIR Address,
// applying the Portuguese postal-code validation rule from spec §4.3.
// It returns nil (with a warning logged) when the address must be
// dropped rather than failing the whole message.
func buildAddress(components []string, log zerolog.Logger) *fhir.Address {
	if len(components) == 0 {
		return nil
	}
	get := func(i int) string {
		idx := i - 1
		if idx < 0 || idx >= len(components) {
			return ""
		}
		return components[idx]
	}

	street := subcomponent(get(1), 1)
	otherDesignation := get(2)
	city := get(3)
	district := get(4)
	postal := get(5)
	country := terminology.NormalizeCountry(get(6))
	addrType := get(7)
	countyField := get(9)

	if country == "PT" {
		if postal != "" && !terminology.PortugalPostalCode.MatchString(postal) {
			log.Warn().Str("postal_code", postal).Msg("Invalid postal code")
			return nil
		}
	} else if postal == "-" {
		return nil
	}

	var line []string
	if l := strings.TrimSpace(street + " " + otherDesignation); l != "" {
		line = append(line, l)
	}

	classification := terminology.ClassifyAddress(addrType)

	addr := &fhir.Address{
		Use:        classification.Use,
		Type:       classification.Type,
		Line:       line,
		City:       city,
		District:   district,
		PostalCode: postal,
		Country:    country,
	}

	if ext := buildAddressGeoExtension(classification.ParentCode, countyField); ext != nil {
		addr.Extension = []fhir.Extension{*ext}
	}

	return addr
}

// buildAddressGeoExtension builds the EXTENSION_ADDRESS geo extension
// carrying ADDRESS_TYPE, COUNTY, MUNICIPALITY, and PARISH sub-extensions,
// per spec §4.3.
func buildAddressGeoExtension(parentCode, countyField string) *fhir.Extension {
	if parentCode == "" && countyField == "" {
		return nil
	}
	ext := &fhir.Extension{URL: terminology.ExtensionAddress}
	if parentCode != "" {
		ext.Extension = append(ext.Extension, fhir.Extension{
			URL:                  terminology.SubExtensionAddressType,
			ValueCodeableConcept: fhir.NewCodeableConcept(terminology.SystemINE, parentCode, ""),
		})
	}
	if countyField != "" {
		ext.Extension = append(ext.Extension, fhir.Extension{
			URL:                  terminology.SubExtensionCounty,
			ValueCodeableConcept: fhir.NewCodeableConcept(terminology.SystemINE, firstN(countyField, 2), ""),
		})
		if len(countyField) >= 4 {
			ext.Extension = append(ext.Extension, fhir.Extension{
				URL:                  terminology.SubExtensionMunicipality,
				ValueCodeableConcept: fhir.NewCodeableConcept(terminology.SystemINE, firstN(countyField, 4), ""),
			})
		}
		ext.Extension = append(ext.Extension, fhir.Extension{
			URL:                  terminology.SubExtensionParish,
			ValueCodeableConcept: fhir.NewCodeableConcept(terminology.SystemINE, countyField, ""),
		})
	}
	return ext
}

// buildAddressesFromField projects every repetition of an XAD-typed
// field (PID-11 or NK1-4) into FHIR Addresses, dropping invalid ones.
func buildAddressesFromField(seg *hl7v2.Segment, fieldIndex int, log zerolog.Logger) []fhir.Address {
	if seg == nil {
		return nil
	}
	var out []fhir.Address
	for _, rep := range seg.Repetitions(fieldIndex) {
		if a := buildAddress(rep, log); a != nil {
			out = append(out, *a)
		}
	}
	return out
}
