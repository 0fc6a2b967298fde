package dispatch

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/sonho/adt-gateway/internal/fhir"
	"github.com/sonho/adt-gateway/internal/hl7v2"
)

const happyPathA28 = "MSH|^~\\&|SNDAPP|SNDFAC|RCVAPP|RCVFAC|20240101120000||ADT^A28^ADT_A05|MSG0001|P|2.5\r" +
	"EVN|A28|20240101120000\r" +
	"PID|1||12345^^^SONHO^NS||DOE^JOHN^M||19800101|M|||Rua A^^Lisboa^^1000-001^PT^C^^110503\r"

func TestBuildBundleHasOnePatientAndOneManagingOrganization(t *testing.T) {
	d := &Dispatcher{ManagingOrgCode: "ACSS-001", ManagingOrgName: "Hospital Central", Log: zerolog.Nop()}

	msg := hl7v2.Parse(happyPathA28)
	bundle, err := d.buildBundle(msg)
	require.NoError(t, err)

	require.Equal(t, "msg0001", bundle.ID)

	patientCount, orgCount := 0, 0
	for _, entry := range bundle.Entry {
		switch entry.Resource.(type) {
		case *fhir.Patient:
			patientCount++
			require.Equal(t, "Patient", entry.Request.URL)
		case *fhir.Organization:
			orgCount++
			require.Equal(t, "Organization", entry.Request.URL)
		}
	}
	require.Equal(t, 1, patientCount, "exactly one Patient entry")
	require.Equal(t, 1, orgCount, "exactly one managing Organization entry")
}

func TestBuildBundleFailsWithoutMSH(t *testing.T) {
	d := &Dispatcher{ManagingOrgCode: "ACSS-001", Log: zerolog.Nop()}
	_, err := d.buildBundle(hl7v2.Parse("PID|1\r"))
	require.Error(t, err)
}
