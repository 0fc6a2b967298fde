package mapper

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sonho/adt-gateway/internal/fhir"
	"github.com/sonho/adt-gateway/internal/hl7v2"
	"github.com/sonho/adt-gateway/internal/terminology"
)

// PatientResult carries the mapped Patient plus any related resources
// discovered while walking PID/ROL/NK1/OBX (the GP Practitioner
// reference, its Organization, and the value used for the Bundle's
// Patient If-None-Exist selector).
type PatientResult struct {
	Patient               *fhir.Patient
	FirstIdentifierValue  string
	GeneralPractitioner   *GeneralPractitioner
}

// GeneralPractitioner is the Practitioner (and optional Organization)
// referenced from ROL when ROL-3 identifies a "FHCP" role.
type GeneralPractitioner struct {
	ID               string
	Family           string
	Given            []string
	OrganizationID   string
	OrganizationCode string
}

// MapPatient builds the Patient resource from EVN, PID, OBX, ROL, and
// NK1 segments, per spec §4.3. managingOrgCode identifies the managing
// Organization; log receives warnings for localized, non-fatal drops
// (invalid postal codes, unmapped NK1 relationships).
func MapPatient(msg hl7v2.Message, managingOrgCode string, log zerolog.Logger) (*PatientResult, error) {
	pid := msg.GetSegment("PID", 0)
	if pid == nil {
		return nil, fmt.Errorf("mapper: PID segment missing")
	}
	evn := msg.GetSegment("EVN", 0)
	rol := msg.GetSegment("ROL", 0)

	id, firstIdentifierValue, identifiers := buildPatientIdentity(pid)

	patient := fhir.NewPatient(id)
	patient.Identifier = identifiers

	if meta := buildPatientMeta(evn); meta != nil {
		patient.Meta = meta
	}

	patient.Name = buildPatientNames(pid)

	birthDate, err := parseBirthDate(pid.Field(7))
	if err != nil {
		return nil, fmt.Errorf("mapper: patient birth date: %w", err)
	}
	patient.BirthDate = birthDate

	gender, ok := terminology.Gender(pid.Field(8))
	if !ok {
		return nil, fmt.Errorf("mapper: unknown gender code %q", pid.Field(8))
	}
	patient.Gender = gender

	patient.Address = buildAddressesFromField(pid, 11, log)

	patient.Telecom = buildPatientTelecomInfo(pid)

	if cc := buildMaritalStatus(pid.Field(16)); cc != nil {
		patient.MaritalStatus = cc
	}

	var extensions []fhir.Extension
	if ext := buildBirthPlaceExtension(pid.Field(23)); ext != nil {
		extensions = append(extensions, *ext)
	}
	extensions = append(extensions, buildNationalityExtensions(pid)...)
	extensions = append(extensions, buildObservationNoteExtensions(msg)...)
	patient.Extension = extensions

	patient.DeceasedBoolean, patient.DeceasedDateTime, err = buildDeceasedStatus(pid)
	if err != nil {
		return nil, err
	}

	patient.Contact = buildNK1Contacts(msg, patient.Telecom, log)

	patient.ManagingOrganization = &fhir.Reference{
		Reference: "Organization/" + fhir.NameUUIDString(managingOrgCode),
	}

	result := &PatientResult{Patient: patient, FirstIdentifierValue: firstIdentifierValue}
	result.GeneralPractitioner = buildGeneralPractitionerRef(rol)
	if result.GeneralPractitioner != nil {
		patient.GeneralPractitioner = append(patient.GeneralPractitioner,
			fhir.Reference{Reference: "Practitioner/" + result.GeneralPractitioner.ID})
		if result.GeneralPractitioner.OrganizationID != "" {
			patient.GeneralPractitioner = append(patient.GeneralPractitioner,
				fhir.Reference{Reference: "Organization/" + result.GeneralPractitioner.OrganizationID})
		}
	}

	return result, nil
}

// buildPatientIdentity selects the PID-3 identifier with the SONHO
// assigning authority, hashes its ID number into the deterministic
// Patient id, and builds the full identifier list including PID-18.
func buildPatientIdentity(pid *hl7v2.Segment) (id, firstIdentifierValue string, identifiers []fhir.Identifier) {
	reps := pid.Repetitions(3)
	for _, comps := range reps {
		get := func(i int) string {
			idx := i - 1
			if idx < 0 || idx >= len(comps) {
				return ""
			}
			return comps[idx]
		}
		value := get(1)
		namespace := namespaceOf(get(4))
		hl7Type := get(5)

		var idType *fhir.CodeableConcept
		if fhirCode, ok := terminology.IdentifierType(hl7Type); ok {
			idType = fhir.NewTypeCodeableConcept(terminology.IdentifierTypeSystem, fhirCode)
		} else if hl7Type != "" {
			idType = fhir.NewTypeCodeableConcept(terminology.IdentifierTypeSystem, hl7Type)
		}

		identifiers = append(identifiers, fhir.Identifier{
			System: namespace,
			Value:  value,
			Type:   idType,
		})

		if namespace == terminology.AssigningAuthoritySONHO && id == "" {
			id = fhir.NameUUIDString(value)
			firstIdentifierValue = value
		}
	}

	if accountNumber := pid.Field(18); accountNumber != "" {
		identifiers = append(identifiers, fhir.Identifier{
			Value: accountNumber,
			Type:  fhir.NewTypeCodeableConcept(terminology.IdentifierTypeSystem, "MR"),
		})
	}

	if id == "" {
		id = uuid.NewString()
	}
	return id, firstIdentifierValue, identifiers
}

// buildPatientMeta converts EVN-2 into Meta.lastUpdated and adds a
// security label when EVN-1 is A40 or A45.
func buildPatientMeta(evn *hl7v2.Segment) *fhir.Meta {
	if evn == nil {
		return nil
	}
	lastUpdated, err := parseHL7Timestamp(evn.Field(2))
	if err != nil {
		lastUpdated = ""
	}
	meta := &fhir.Meta{LastUpdated: lastUpdated}

	eventType := evn.Field(1)
	if eventType == "A40" || eventType == "A45" {
		meta.Security = []fhir.Coding{{
			System: terminology.SecurityLabelSystem,
			Code:   terminology.SecurityLabelNormalCode,
		}}
	}
	if meta.LastUpdated == "" && len(meta.Security) == 0 {
		return nil
	}
	return meta
}

// buildPatientNames projects every PID-5 XPN repetition into a HumanName.
func buildPatientNames(pid *hl7v2.Segment) []fhir.HumanName {
	var names []fhir.HumanName
	for _, comps := range pid.Repetitions(5) {
		get := func(i int) string {
			idx := i - 1
			if idx < 0 || idx >= len(comps) {
				return ""
			}
			return comps[idx]
		}
		family := subcomponent(get(1), 1)
		given := get(2)
		furtherGivens := splitOnSpace(get(3))
		nameTypeCode := get(7)

		if family == "" && given == "" {
			continue
		}

		name := fhir.HumanName{Family: family}
		if given != "" {
			name.Given = append(name.Given, given)
		}
		name.Given = append(name.Given, furtherGivens...)
		if nameTypeCode == "L" {
			name.Use = "official"
		}
		names = append(names, name)
	}
	return names
}

// buildPatientTelecomInfo builds the Patient.telecom list from PID-13
// (home) and PID-14 (business), ranking the very first entry.
//
// The source system's second loop mistakenly re-iterated PID-13; this
// iterates PID-14 as intended (spec §9 item 3).
func buildPatientTelecomInfo(pid *hl7v2.Segment) []fhir.ContactPoint {
	var telecom []fhir.ContactPoint
	telecom = append(telecom, buildTelecomsFromField(pid, 13)...)
	telecom = append(telecom, buildTelecomsFromField(pid, 14)...)
	rankFirst(telecom)
	return telecom
}

// buildMaritalStatus maps PID-16's CE-1 code to a v3-MaritalStatus
// CodeableConcept.
func buildMaritalStatus(field string) *fhir.CodeableConcept {
	if field == "" {
		return nil
	}
	code := strings.SplitN(field, "^", 2)[0]
	if code == "" {
		return nil
	}
	return fhir.NewCodeableConcept(terminology.MaritalStatusSystem, code, terminology.MaritalStatusDisplay(code))
}

// buildBirthPlaceExtension implements spec §4.3's PID-23 decomposition
// into COUNTRY/COUNTY/MUNICIPALITY/PARISH sub-extensions.
func buildBirthPlaceExtension(field string) *fhir.Extension {
	tokens := splitOnSpace(field)
	if len(tokens) == 0 {
		return nil
	}
	ext := &fhir.Extension{URL: terminology.ExtensionBirthPlace}
	ext.Extension = append(ext.Extension, fhir.Extension{
		URL:                  terminology.SubExtensionCountry,
		ValueCodeableConcept: fhir.NewCodeableConcept(terminology.SystemINE, tokens[0], ""),
	})

	if len(tokens) >= 2 {
		second := tokens[1]
		switch len(second) {
		case 6:
			ext.Extension = append(ext.Extension, fhir.Extension{
				URL:                  terminology.SubExtensionCounty,
				ValueCodeableConcept: fhir.NewCodeableConcept(terminology.SystemINE, firstN(second, 2), ""),
			})
			ext.Extension = append(ext.Extension, fhir.Extension{
				URL:                  terminology.SubExtensionMunicipality,
				ValueCodeableConcept: fhir.NewCodeableConcept(terminology.SystemINE, firstN(second, 4), ""),
			})
		case 4:
			ext.Extension = append(ext.Extension, fhir.Extension{
				URL:                  terminology.SubExtensionCounty,
				ValueCodeableConcept: fhir.NewCodeableConcept(terminology.SystemINE, firstN(second, 2), ""),
			})
			ext.Extension = append(ext.Extension, fhir.Extension{
				URL:                  terminology.SubExtensionMunicipality,
				ValueCodeableConcept: fhir.NewCodeableConcept(terminology.SystemINE, second, ""),
			})
		case 2:
			ext.Extension = append(ext.Extension, fhir.Extension{
				URL:                  terminology.SubExtensionCounty,
				ValueCodeableConcept: fhir.NewCodeableConcept(terminology.SystemINE, second, ""),
			})
		}
	}

	if len(tokens) >= 3 {
		third := tokens[2]
		if len(third) == 6 {
			ext.Extension = append(ext.Extension, fhir.Extension{
				URL:                  terminology.SubExtensionParish,
				ValueCodeableConcept: fhir.NewCodeableConcept(terminology.SystemINE, third, ""),
			})
		}
	}

	return ext
}

// buildNationalityExtensions projects every PID-26 CE repetition into a
// NATIONALITY extension.
func buildNationalityExtensions(pid *hl7v2.Segment) []fhir.Extension {
	var out []fhir.Extension
	for _, comps := range pid.Repetitions(26) {
		get := func(i int) string {
			idx := i - 1
			if idx < 0 || idx >= len(comps) {
				return ""
			}
			return comps[idx]
		}
		code := get(1)
		if code == "" {
			continue
		}
		out = append(out, fhir.Extension{
			URL:                  terminology.ExtensionNationality,
			ValueCodeableConcept: fhir.NewCodeableConcept(terminology.SystemINE, code, get(2)),
		})
	}
	return out
}

// buildObservationNoteExtensions projects each OBX with a non-empty
// OBX-5 into a PATIENTNOTES extension. The note's text and OBX-14 time
// are carried as a valueString (see annotationToString), not as a
// valueAnnotation.
func buildObservationNoteExtensions(msg hl7v2.Message) []fhir.Extension {
	var out []fhir.Extension
	for _, obx := range msg.AllSegments("OBX") {
		text := obx.Field(5)
		if text == "" {
			continue
		}
		obsTime, _ := parseHL7Timestamp(obx.Field(14))
		annotationJSON := fhir.Annotation{Text: text, Time: obsTime}
		out = append(out, fhir.Extension{
			URL:         terminology.ExtensionPatientNotes,
			ValueString: annotationToString(annotationJSON),
		})
	}
	return out
}

// annotationToString is a compact textual rendering of an Annotation for
// carriage inside a ValueString extension slot, since this gateway's
// minimal Extension type does not model a valueAnnotation variant.
func annotationToString(a fhir.Annotation) string {
	if a.Time == "" {
		return a.Text
	}
	return a.Text + " (" + a.Time + ")"
}

// buildDeceasedStatus implements PID-29/PID-30 precedence: a PID-29 date
// wins as deceasedDateTime; otherwise PID-30 Y/N sets deceasedBoolean.
func buildDeceasedStatus(pid *hl7v2.Segment) (*bool, string, error) {
	if dt := pid.Field(29); dt != "" {
		ts, err := parseHL7Timestamp(dt)
		if err != nil {
			return nil, "", fmt.Errorf("mapper: patient deceased date: %w", err)
		}
		return nil, ts, nil
	}
	switch pid.Field(30) {
	case "Y":
		v := true
		return &v, "", nil
	case "N":
		v := false
		return &v, "", nil
	default:
		return nil, "", nil
	}
}

// buildNK1Contacts projects each NK1 segment into a PatientContact,
// applying the same address validation rules as PID-11 and ranking the
// first contact telecom when the patient has none ranked yet.
func buildNK1Contacts(msg hl7v2.Message, patientTelecom []fhir.ContactPoint, log zerolog.Logger) []fhir.PatientContact {
	patientHasRankedTelecom := false
	for _, tc := range patientTelecom {
		if tc.Rank != 0 {
			patientHasRankedTelecom = true
			break
		}
	}

	var contacts []fhir.PatientContact
	rankedFirstNK1Telecom := false
	for _, nk1 := range msg.AllSegments("NK1") {
		relCode := nk1.Field(3)
		coding, ok := terminology.Relationship(relCode)
		if !ok {
			log.Warn().Str("nk1_relationship", relCode).Msg("Unknown NK1 relationship code")
		}

		contact := fhir.PatientContact{
			Relationship: []fhir.CodeableConcept{{Coding: []fhir.Coding{{System: coding.System, Code: coding.Code}}}},
		}

		if names := buildNK1Name(&nk1); names != nil {
			contact.Name = names
		}

		telecom := buildTelecomsFromField(&nk1, 5)
		if !patientHasRankedTelecom && !rankedFirstNK1Telecom {
			rankFirst(telecom)
			if len(telecom) > 0 {
				rankedFirstNK1Telecom = true
			}
		}
		contact.Telecom = telecom

		if addrs := buildAddressesFromField(&nk1, 4, log); len(addrs) > 0 {
			contact.Address = &addrs[0]
		}

		contacts = append(contacts, contact)
	}
	return contacts
}

// buildNK1Name projects NK1-2 (an XPN) into a HumanName, or nil if empty.
func buildNK1Name(nk1 *hl7v2.Segment) *fhir.HumanName {
	comps := nk1.Repetition(2, 1)
	if len(comps) == 0 {
		return nil
	}
	get := func(i int) string {
		idx := i - 1
		if idx < 0 || idx >= len(comps) {
			return ""
		}
		return comps[idx]
	}
	family := subcomponent(get(1), 1)
	given := get(2)
	if family == "" && given == "" {
		return nil
	}
	name := &fhir.HumanName{Family: family}
	if given != "" {
		name.Given = append(name.Given, given)
	}
	return name
}

// buildGeneralPractitionerRef implements spec §4.3's ROL-3=="FHCP" rule:
// the referenced Practitioner id is derived from the first ROL-4
// person's IDNumber if present, else concatenated family+given name,
// else a random UUID; the Organization reference (if any) comes from
// ROL's organizationUnitType identifier.
func buildGeneralPractitionerRef(rol *hl7v2.Segment) *GeneralPractitioner {
	if rol == nil {
		return nil
	}
	roleCode := rol.Component(3, 1, 1)
	if roleCode != "FHCP" {
		return nil
	}

	comps := rol.Repetition(4, 1)
	get := func(i int) string {
		idx := i - 1
		if idx < 0 || idx >= len(comps) {
			return ""
		}
		return comps[idx]
	}
	idNumber := get(1)
	family := subcomponent(get(2), 1)
	given := get(3)

	gp := &GeneralPractitioner{Family: family}
	if given != "" {
		gp.Given = []string{given}
	}

	switch {
	case idNumber != "":
		gp.ID = fhir.NameUUIDString(idNumber)
	case family != "" || given != "":
		gp.ID = fhir.NameUUIDString(strings.TrimSpace(family + given))
	default:
		gp.ID = uuid.NewString()
	}

	orgUnitIdentifier := rol.Component(10, 1, 1)
	if orgUnitIdentifier != "" {
		gp.OrganizationID = fhir.NameUUIDString(orgUnitIdentifier)
		gp.OrganizationCode = orgUnitIdentifier
	}

	return gp
}
