package mapper

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sonho/adt-gateway/internal/fhir"
	"github.com/sonho/adt-gateway/internal/hl7v2"
)

func TestMapCoveragesOnePerPlan(t *testing.T) {
	raw := "MSH|^~\\&|A|B|C|D|20240101120000||ADT^A28^ADT_A05|MSG0001|P|2.5\r" +
		"IN1|1|PLAN001^ACME Health\r" +
		"IN1|2|PLAN002^Other Insurer\r"
	msg := hl7v2.Parse(raw)

	results := MapCoverages(msg, "patient-1")
	require.Len(t, results, 2)

	for i, r := range results {
		require.Equal(t, fhir.NewReference("Patient", "patient-1"), r.Coverage.Beneficiary)
		require.Len(t, r.Coverage.PaymentBy, 1)
		require.Equal(t, "Organization/"+r.Payer.ID, r.Coverage.PaymentBy[0].Party.Reference)
		require.Equal(t, i+1, r.Coverage.Order, "Coverage.order should carry IN1-1's priority ordinal")
		if i == 0 {
			require.Equal(t, "ACME Health", r.Payer.Name)
		}
	}
}

func TestMapCoveragesSkipsMissingPlanID(t *testing.T) {
	raw := "MSH|^~\\&|A|B|C|D|20240101120000||ADT^A28^ADT_A05|MSG0001|P|2.5\r" +
		"IN1|1|\r"
	msg := hl7v2.Parse(raw)
	require.Empty(t, MapCoverages(msg, "patient-1"))
}
