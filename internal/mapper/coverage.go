package mapper

import (
	"github.com/sonho/adt-gateway/internal/fhir"
	"github.com/sonho/adt-gateway/internal/hl7v2"
)

// CoverageResult pairs a Coverage resource with the payer Organization
// it references, since both must land in the Bundle together (spec §4.4).
type CoverageResult struct {
	Coverage *fhir.Coverage
	Payer    *fhir.Organization
}

// MapCoverages builds one Coverage per IN1 segment carrying a plan
// identifier (IN1-2), each with a paymentBy entry referencing a payer
// Organization built from that plan id, and its priority ordinal
// (IN1-1, the segment's Set ID) carried as Coverage.order.
func MapCoverages(msg hl7v2.Message, patientID string) []CoverageResult {
	var out []CoverageResult
	beneficiary := fhir.NewReference("Patient", patientID)

	for _, in1 := range msg.AllSegments("IN1") {
		planID := in1.Component(2, 1, 1)
		if planID == "" {
			continue
		}
		planName := in1.Component(2, 1, 2)

		payerID := fhir.NameUUIDString(planID)
		payer := fhir.NewOrganization(payerID, planID, planName)

		coverageID := fhir.NameUUIDString(patientID + "|" + planID)
		coverage := fhir.NewCoverage(coverageID, beneficiary)
		coverage.PaymentBy = []fhir.CoveragePaymentBy{{Party: fhir.NewReference("Organization", payerID)}}
		coverage.Order = atoiOrZero(in1.Field(1))

		out = append(out, CoverageResult{Coverage: coverage, Payer: payer})
	}

	return out
}
