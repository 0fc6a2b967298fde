package fhir

import "testing"

func TestAddPatientSetsResourceTypeURL(t *testing.T) {
	b := NewTransactionBundle("msg0001", "2024-01-01T00:00:00Z")
	b.AddPatient(NewPatient("p1"), "12345")
	b.AddOrganization(NewOrganization("o1", "ACSS", "Hospital"), "ACSS")

	if b.Entry[0].Request.URL != "Patient" {
		t.Errorf("Patient entry URL = %q, want Patient", b.Entry[0].Request.URL)
	}
	if b.Entry[1].Request.URL != "Organization" {
		t.Errorf("Organization entry URL = %q, want Organization (not hardcoded Patient)", b.Entry[1].Request.URL)
	}
}

func TestAddCoverageUsesBeneficiarySelector(t *testing.T) {
	b := NewTransactionBundle("msg0001", "2024-01-01T00:00:00Z")
	cov := NewCoverage("c1", NewReference("Patient", "p1"))
	b.AddCoverage(cov)

	entry := b.Entry[0]
	if entry.Request.URL != "Coverage" {
		t.Errorf("Coverage entry URL = %q", entry.Request.URL)
	}
	if entry.Request.IfNoneExist != "beneficiary=Patient/p1" {
		t.Errorf("IfNoneExist = %q, want beneficiary=Patient/p1 (not the invalid ?name= selector)", entry.Request.IfNoneExist)
	}
}
