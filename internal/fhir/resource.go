// Package fhir provides minimal FHIR R5 resource types and constructors
// for the resources this gateway emits: Patient, Practitioner,
// Organization, and Coverage, plus the shared building blocks
// (Identifier, CodeableConcept, HumanName, Address, ...) used to
// compose them.
package fhir

// Meta carries resource metadata: last-update timestamp and security
// labels.
type Meta struct {
	LastUpdated string   `json:"lastUpdated,omitempty"`
	Security    []Coding `json:"security,omitempty"`
}

// Coding is a single code from a code system.
type Coding struct {
	System  string `json:"system,omitempty"`
	Code    string `json:"code,omitempty"`
	Display string `json:"display,omitempty"`
}

// CodeableConcept is a set of Codings plus free text.
type CodeableConcept struct {
	Coding []Coding `json:"coding,omitempty"`
	Text   string   `json:"text,omitempty"`
}

// Reference points at another resource, either in the same Bundle or by
// absolute/relative URL.
type Reference struct {
	Reference string `json:"reference,omitempty"`
	Display   string `json:"display,omitempty"`
}

// Identifier is a business identifier for a resource.
type Identifier struct {
	Use    string           `json:"use,omitempty"`
	Type   *CodeableConcept `json:"type,omitempty"`
	System string           `json:"system,omitempty"`
	Value  string           `json:"value,omitempty"`
}

// HumanName is a structured patient/practitioner name.
type HumanName struct {
	Use    string   `json:"use,omitempty"`
	Family string   `json:"family,omitempty"`
	Given  []string `json:"given,omitempty"`
}

// Address is a structured postal address.
type Address struct {
	Use        string       `json:"use,omitempty"`
	Type       string       `json:"type,omitempty"`
	Line       []string     `json:"line,omitempty"`
	City       string       `json:"city,omitempty"`
	District   string       `json:"district,omitempty"`
	PostalCode string       `json:"postalCode,omitempty"`
	Country    string       `json:"country,omitempty"`
	Extension  []Extension  `json:"extension,omitempty"`
}

// ContactPoint is a phone/email/fax contact channel.
type ContactPoint struct {
	System string `json:"system,omitempty"`
	Value  string `json:"value,omitempty"`
	Use    string `json:"use,omitempty"`
	Rank   int    `json:"rank,omitempty"`
}

// Period is a start/end time range.
type Period struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// Annotation is a timestamped free-text note, used to project OBX
// observations as Patient notes.
type Annotation struct {
	Text string `json:"text"`
	Time string `json:"time,omitempty"`
}

// Extension is a FHIR extension slot; nested extensions carry a Url plus
// either a value or further child Extensions.
type Extension struct {
	URL             string           `json:"url"`
	ValueString     string           `json:"valueString,omitempty"`
	ValueCodeableConcept *CodeableConcept `json:"valueCodeableConcept,omitempty"`
	Extension       []Extension      `json:"extension,omitempty"`
}

// NewIdentifier builds an Identifier with an optional type CodeableConcept.
func NewIdentifier(system, value string, idType *CodeableConcept) Identifier {
	return Identifier{System: system, Value: value, Type: idType}
}

// NewTypeCodeableConcept builds a single-coding CodeableConcept in the
// v2-0203 identifier-type system.
func NewTypeCodeableConcept(system, code string) *CodeableConcept {
	if code == "" {
		return nil
	}
	return &CodeableConcept{Coding: []Coding{{System: system, Code: code}}}
}

// NewCodeableConcept builds a single-coding CodeableConcept with a display.
func NewCodeableConcept(system, code, display string) *CodeableConcept {
	return &CodeableConcept{Coding: []Coding{{System: system, Code: code, Display: display}}}
}

// NewReference builds a relative reference of the form "<type>/<id>".
func NewReference(resourceType, id string) Reference {
	return Reference{Reference: resourceType + "/" + id}
}

// Patient is the FHIR R5 Patient resource subset this gateway populates.
type Patient struct {
	ResourceType         string           `json:"resourceType"`
	ID                   string           `json:"id"`
	Meta                 *Meta            `json:"meta,omitempty"`
	Extension            []Extension      `json:"extension,omitempty"`
	Identifier           []Identifier     `json:"identifier,omitempty"`
	Name                 []HumanName      `json:"name,omitempty"`
	Telecom              []ContactPoint   `json:"telecom,omitempty"`
	Gender               string           `json:"gender,omitempty"`
	BirthDate            string           `json:"birthDate,omitempty"`
	DeceasedBoolean      *bool            `json:"deceasedBoolean,omitempty"`
	DeceasedDateTime     string           `json:"deceasedDateTime,omitempty"`
	Address              []Address        `json:"address,omitempty"`
	MaritalStatus        *CodeableConcept `json:"maritalStatus,omitempty"`
	Contact              []PatientContact `json:"contact,omitempty"`
	GeneralPractitioner  []Reference      `json:"generalPractitioner,omitempty"`
	ManagingOrganization *Reference       `json:"managingOrganization,omitempty"`
}

// PatientContact is a next-of-kin entry (NK1 projection).
type PatientContact struct {
	Relationship []CodeableConcept `json:"relationship,omitempty"`
	Name         *HumanName        `json:"name,omitempty"`
	Telecom      []ContactPoint    `json:"telecom,omitempty"`
	Address      *Address          `json:"address,omitempty"`
}

// NewPatient builds an empty Patient resource with the given ID.
func NewPatient(id string) *Patient {
	return &Patient{ResourceType: "Patient", ID: id}
}

// Practitioner is the FHIR R5 Practitioner resource subset.
type Practitioner struct {
	ResourceType string       `json:"resourceType"`
	ID           string       `json:"id"`
	Identifier   []Identifier `json:"identifier,omitempty"`
	Name         []HumanName  `json:"name,omitempty"`
}

// NewPractitioner builds an empty Practitioner resource with the given ID.
func NewPractitioner(id string) *Practitioner {
	return &Practitioner{ResourceType: "Practitioner", ID: id}
}

// Organization is the FHIR R5 Organization resource subset.
type Organization struct {
	ResourceType string       `json:"resourceType"`
	ID           string       `json:"id"`
	Active       bool         `json:"active"`
	Identifier   []Identifier `json:"identifier,omitempty"`
	Name         string       `json:"name,omitempty"`
}

// NewOrganization builds an active Organization resource with a single
// ACSS identifier.
func NewOrganization(id, code, name string) *Organization {
	org := &Organization{ResourceType: "Organization", ID: id, Active: true, Name: name}
	org.Identifier = []Identifier{{Use: "usual", System: "ACSS", Value: code}}
	return org
}

// CoveragePaymentBy is the FHIR R5 Coverage.paymentBy backbone element.
type CoveragePaymentBy struct {
	Party Reference `json:"party"`
}

// Coverage is the FHIR R5 Coverage resource subset.
type Coverage struct {
	ResourceType string              `json:"resourceType"`
	ID           string              `json:"id"`
	Status       string              `json:"status"`
	Order        int                 `json:"order,omitempty"`
	Beneficiary  Reference           `json:"beneficiary"`
	PaymentBy    []CoveragePaymentBy `json:"paymentBy,omitempty"`
	Identifier   []Identifier        `json:"identifier,omitempty"`
}

// NewCoverage builds an active Coverage resource for the given
// beneficiary.
func NewCoverage(id string, beneficiary Reference) *Coverage {
	return &Coverage{ResourceType: "Coverage", ID: id, Status: "active", Beneficiary: beneficiary}
}
