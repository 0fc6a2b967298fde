// Package terminology holds the static code tables the ingestion gateway
// uses to translate HL7 v2.5 codes into FHIR R5 coded values.
package terminology

import "regexp"

// FHIR extension URIs used by the patient mapper.
const (
	ExtensionAddress    = "http://sonho.pt/fhir/StructureDefinition/address-geo"
	ExtensionBirthPlace = "http://sonho.pt/fhir/StructureDefinition/birth-place"
	ExtensionNationality = "http://sonho.pt/fhir/StructureDefinition/nationality"
	ExtensionPatientNotes = "http://sonho.pt/fhir/StructureDefinition/patient-notes"

	SubExtensionAddressType   = "ADDRESS_TYPE"
	SubExtensionCounty        = "COUNTY"
	SubExtensionMunicipality  = "MUNICIPALITY"
	SubExtensionParish        = "PARISH"
	SubExtensionCountry       = "COUNTRY"
)

// SystemINE is the Portuguese national statistics institute's code system,
// used for geo subdivisions and nationality codes.
const SystemINE = "http://www.ine.pt"

// Security label placeholders for EVN-1 A40/A45 confidentiality tagging.
// Deployment can override these without touching mapper code (spec §9 item 4).
const (
	SecurityLabelSystem = "http://terminology.hl7.org/CodeSystem/v3-Confidentiality"
	SecurityLabelNormalCode = "N"
)

// IdentifierTypeSystem is the FHIR v2-0203 identifier-type code system.
const IdentifierTypeSystem = "http://terminology.hl7.org/CodeSystem/v2-0203"

// AssigningAuthoritySONHO is the namespace used to select the patient's
// primary identifier out of a repeating PID-3.
const AssigningAuthoritySONHO = "SONHO"

// AssigningAuthorityRHV is the remapped namespace for practitioner
// identifiers carrying the "N.Mecanográfico" HL7 namespace (§4.4).
const AssigningAuthorityRHV = "RHV"

// AssigningAuthorityACSS is the organization identifier system.
const AssigningAuthorityACSS = "ACSS"

// PID-3 identifier-type code table (HL7 SONHO code -> FHIR v2-0203 code).
var identifierTypeTable = map[string]string{
	"NS":  "PI",
	"SNS": "HC",
	"B":   "CZ",
	"NIF": "TAX",
	"NISS": "SS",
	"P":   "PPN",
	"C":   "BCFN",
	"PRC": "PRC",
}

// IdentifierType maps an HL7 SONHO identifier-type code to its FHIR
// v2-0203 equivalent. The second return value is false for unmapped codes,
// in which case callers should fall back to the raw code.
func IdentifierType(hl7Code string) (string, bool) {
	code, ok := identifierTypeTable[hl7Code]
	return code, ok
}

// Practitioner identifier-type table, keyed by (XCN-13 type, namespace).
type PractitionerIDKey struct {
	Type      string
	Namespace string
}

var practitionerIdentifierTypeTable = map[PractitionerIDKey]string{
	{Type: "EI", Namespace: AssigningAuthoritySONHO}: "EI",
	{Type: "EI", Namespace: "MEI"}:                   "MEI",
	{Type: "MD", Namespace: ""}:                       "MD",
	{Type: "NP", Namespace: ""}:                       "NP",
}

// PractitionerIdentifierType looks up the FHIR identifier type for a
// practitioner XCN identifier given its HL7 type code and namespace.
func PractitionerIdentifierType(hl7Type, namespace string) (string, bool) {
	if code, ok := practitionerIdentifierTypeTable[PractitionerIDKey{Type: hl7Type, Namespace: namespace}]; ok {
		return code, true
	}
	if code, ok := practitionerIdentifierTypeTable[PractitionerIDKey{Type: hl7Type}]; ok {
		return code, true
	}
	return "", false
}

// Gender codes, PID-8.
const (
	GenderMale    = "male"
	GenderFemale  = "female"
	GenderOther   = "other"
	GenderUnknown = "unknown"
)

var genderTable = map[string]string{
	"M": GenderMale,
	"F": GenderFemale,
	"A": GenderOther,
	"U": GenderUnknown,
}

// Gender maps a PID-8 administrative-sex code to a FHIR gender code.
// ok is false for any code outside {M,F,A,U}; per spec §4.3 this is a
// deliberate hard-error condition, left to the caller to enforce.
func Gender(hl7Code string) (string, bool) {
	code, ok := genderTable[hl7Code]
	return code, ok
}

// MaritalStatusSystem is the FHIR v3-MaritalStatus code system.
const MaritalStatusSystem = "http://terminology.hl7.org/CodeSystem/v3-MaritalStatus"

// PID-16 marital status codes are passed through verbatim to the
// v3-MaritalStatus system; this repo does not need a remap table since
// SONHO uses the HL7-standard single-letter codes directly. Display text
// is looked up here for the handful of common codes.
var maritalStatusDisplay = map[string]string{
	"S": "Never Married",
	"M": "Married",
	"D": "Divorced",
	"W": "Widowed",
	"L": "Legally Separated",
	"C": "Common Law",
}

// MaritalStatusDisplay returns the human-readable display text for a
// v3-MaritalStatus code, or "" if unknown.
func MaritalStatusDisplay(code string) string {
	return maritalStatusDisplay[code]
}

// AddressClassification is the FHIR use/type and the ADDRESS_TYPE
// sub-extension parent code for an XAD-7 address type code.
type AddressClassification struct {
	Use        string // FHIR AddressUse, "" if unset
	Type       string // FHIR AddressType
	ParentCode string // ADDRESS_TYPE sub-extension parent code
}

var addressTypeTable = map[string]AddressClassification{
	"C":  {Use: "", Type: "postal", ParentCode: "CURRENT"},
	"O":  {Use: "work", Type: "both", ParentCode: "OFFICE"},
	"N":  {Use: "home", Type: "both", ParentCode: "MAIN_ADDRESS"},
	"MA": {Use: "home", Type: "both", ParentCode: "MAIN_ADDRESS"},
	"M":  {Use: "home", Type: "both", ParentCode: "MAIN_ADDRESS"},
}

// defaultAddressClassification is used for any XAD-7 code not in the
// table above (spec §4.3 "other (PID only)" row).
var defaultAddressClassification = AddressClassification{Use: "home", Type: "both", ParentCode: "MAIN_ADDRESS"}

// ClassifyAddress returns the FHIR use/type and geo parent code for a
// given XAD-7 address type code.
func ClassifyAddress(xad7 string) AddressClassification {
	if c, ok := addressTypeTable[xad7]; ok {
		return c
	}
	return defaultAddressClassification
}

// NK1-3 relationship codes.
type RelationshipCoding struct {
	System string
	Code   string
}

const (
	systemV3RoleCode = "http://terminology.hl7.org/CodeSystem/v3-RoleCode"
	systemV2_0131    = "http://terminology.hl7.org/CodeSystem/v2-0131"
)

var relationshipTable = map[string]RelationshipCoding{
	"FTH": {System: systemV3RoleCode, Code: "FTH"},
	"MTH": {System: systemV3RoleCode, Code: "MTH"},
	"SPO": {System: systemV3RoleCode, Code: "SPS"},
	"EXF": {System: systemV3RoleCode, Code: "FAMMEMB"},
	"EMC": {System: systemV2_0131, Code: "C"},
	"OTH": {System: systemV2_0131, Code: "O"},
	"SEL": {System: systemV3RoleCode, Code: "ONESELF"},
}

// unknownRelationship is used for any NK1-3 code outside the table; the
// caller is expected to log a warning when ok is false.
var unknownRelationship = RelationshipCoding{System: systemV2_0131, Code: "O"}

// Relationship maps an NK1-3 code to its FHIR coding. ok is false for
// unrecognized codes, in which case the fallback coding
// (v2-0131 "O") is still returned for use, matching spec §4.3's table.
func Relationship(nk1Code string) (RelationshipCoding, bool) {
	if c, ok := relationshipTable[nk1Code]; ok {
		return c, true
	}
	return unknownRelationship, false
}

// Telecom equipment (XTN-3) -> FHIR ContactPoint system.
var telecomSystemTable = map[string]string{
	"PH":   "phone",
	"CP":   "phone",
	"X400": "email",
	"FX":   "fax",
}

// TelecomSystem maps an XTN-3 equipment type to a FHIR ContactPoint
// system, defaulting to "other".
func TelecomSystem(xtn3 string) string {
	if s, ok := telecomSystemTable[xtn3]; ok {
		return s
	}
	return "other"
}

// Telecom use (XTN-2) -> FHIR ContactPoint use.
func TelecomUse(xtn2, xtn3 string) string {
	switch {
	case xtn2 == "PRN" && xtn3 == "CP":
		return "mobile"
	case xtn2 == "PRN":
		return "home"
	case xtn2 == "WPN":
		return "work"
	case xtn2 == "EMR":
		return "mobile"
	default:
		return ""
	}
}

// PortugalPostalCode matches the Portuguese postal code format NNNN-NNN.
var PortugalPostalCode = regexp.MustCompile(`^\d{4}-\d{3}$`)

// EmailPattern is a permissive email-shape check used for PID-14/13 XTN-4
// fallback when no phone number is present.
var EmailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// NormalizeCountry maps HL7 3-letter country codes to their FHIR/ISO
// 2-letter equivalents where the gateway cares (only PRT is used by the
// Portuguese postal validation rule).
func NormalizeCountry(code string) string {
	if code == "PRT" {
		return "PT"
	}
	return code
}
