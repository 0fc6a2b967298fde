package fhir

import "strings"

// BundleEntryRequest is the HTTP-verb portion of a transaction Bundle
// entry, carrying the conditional-create selector.
type BundleEntryRequest struct {
	Method      string `json:"method"`
	URL         string `json:"url"`
	IfNoneExist string `json:"ifNoneExist,omitempty"`
}

// BundleEntry pairs a resource with its transaction request.
type BundleEntry struct {
	Resource interface{}         `json:"resource"`
	Request  BundleEntryRequest  `json:"request"`
}

// Bundle is a FHIR R5 transaction Bundle.
type Bundle struct {
	ResourceType string        `json:"resourceType"`
	ID           string        `json:"id"`
	Type         string        `json:"type"`
	Timestamp    string        `json:"timestamp,omitempty"`
	Entry        []BundleEntry `json:"entry,omitempty"`
}

// NewTransactionBundle builds an empty transaction Bundle with the given
// id (already lower-cased by the caller) and timestamp.
func NewTransactionBundle(id, timestamp string) *Bundle {
	return &Bundle{ResourceType: "Bundle", ID: id, Type: "transaction", Timestamp: timestamp}
}

// AddPatient appends a conditional-create Patient entry. The
// If-None-Exist selector uses the patient's first SONHO identifier,
// matching spec §4.5.
func (b *Bundle) AddPatient(p *Patient, firstIdentifierValue string) {
	b.Entry = append(b.Entry, BundleEntry{
		Resource: p,
		Request: BundleEntryRequest{
			Method:      "POST",
			URL:         "Patient",
			IfNoneExist: "identifier=SONHO|" + firstIdentifierValue,
		},
	})
}

// AddOrganization appends a conditional-create Organization entry. The
// selector matches on the ACSS identifier every Organization this
// gateway builds carries (see NewOrganization), not the Patient's SONHO
// namespace.
func (b *Bundle) AddOrganization(o *Organization, firstIdentifierValue string) {
	b.Entry = append(b.Entry, BundleEntry{
		Resource: o,
		Request: BundleEntryRequest{
			Method:      "POST",
			URL:         "Organization",
			IfNoneExist: "identifier=ACSS|" + firstIdentifierValue,
		},
	})
}

// AddPractitioner appends a conditional-create Practitioner entry, keyed
// on family name.
func (b *Bundle) AddPractitioner(p *Practitioner, familyName string) {
	b.Entry = append(b.Entry, BundleEntry{
		Resource: p,
		Request: BundleEntryRequest{
			Method:      "POST",
			URL:         "Practitioner",
			IfNoneExist: "name=" + familyName,
		},
	})
}

// AddCoverage appends a conditional-create Coverage entry.
//
// The source system's If-None-Exist selector used "?name=", which is not
// a valid FHIR search parameter for Coverage; this uses "?beneficiary="
// against the beneficiary reference instead (spec §9 item 2).
func (b *Bundle) AddCoverage(c *Coverage) {
	beneficiaryID := c.Beneficiary.Reference
	if idx := strings.LastIndex(beneficiaryID, "/"); idx >= 0 {
		beneficiaryID = beneficiaryID[idx+1:]
	}
	b.Entry = append(b.Entry, BundleEntry{
		Resource: c,
		Request: BundleEntryRequest{
			Method:      "POST",
			URL:         "Coverage",
			IfNoneExist: "beneficiary=Patient/" + beneficiaryID,
		},
	})
}
