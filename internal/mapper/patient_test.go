package mapper

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

func TestMapPatientHappyPath(t *testing.T) {
	msg := hl7v2.Parse(happyPathA28)
	log := zerolog.Nop()

	result, err := MapPatient(msg, "ACSS-001", log)
	require.NoError(t, err)

	patient := result.Patient
	require.Equal(t, fhir.NameUUIDString("12345"), patient.ID)
	require.Equal(t, "12345", result.FirstIdentifierValue)
	require.Equal(t, "male", patient.Gender)
	require.Equal(t, "1980-01-01", patient.BirthDate)
	require.Len(t, patient.Name, 1)
	require.Equal(t, "DOE", patient.Name[0].Family)
	require.Equal(t, []string{"JOHN", "M"}, patient.Name[0].Given)

	require.Len(t, patient.Address, 1)
	addr := patient.Address[0]
	require.Equal(t, "1000-001", addr.PostalCode)
	require.Equal(t, "postal", addr.Type)
	require.Equal(t, "PT", addr.Country)

	require.NotNil(t, patient.ManagingOrganization)
	require.Equal(t, "Organization/"+fhir.NameUUIDString("ACSS-001"), patient.ManagingOrganization.Reference)
}

func TestMapPatientInvalidPostalCodeDropped(t *testing.T) {
	raw := "MSH|^~\\&|SNDAPP|SNDFAC|RCVAPP|RCVFAC|20240101120000||ADT^A28^ADT_A05|MSG0001|P|2.5\r" +
		"EVN|A28|20240101120000\r" +
		"PID|1||12345^^^SONHO^NS||DOE^JOHN^M||19800101|M|||Rua A^^Lisboa^^10001^PT^C\r"

	msg := hl7v2.Parse(raw)
	result, err := MapPatient(msg, "ACSS-001", zerolog.Nop())
	require.NoError(t, err)
	require.Empty(t, result.Patient.Address, "invalid PT postal code must drop the address, not fail the message")
}

func TestMapPatientUnknownGenderFails(t *testing.T) {
	raw := "MSH|^~\\&|SNDAPP|SNDFAC|RCVAPP|RCVFAC|20240101120000||ADT^A28^ADT_A05|MSG0001|P|2.5\r" +
		"PID|1||12345^^^SONHO^NS||DOE^JOHN^M||19800101|Z\r"

	msg := hl7v2.Parse(raw)
	_, err := MapPatient(msg, "ACSS-001", zerolog.Nop())
	require.Error(t, err)
}

func TestMapPatientRandomIDWithoutSONHOIdentifier(t *testing.T) {
	raw := "MSH|^~\\&|SNDAPP|SNDFAC|RCVAPP|RCVFAC|20240101120000||ADT^A28^ADT_A05|MSG0001|P|2.5\r" +
		"PID|1||99999^^^OTHER^NS||DOE^JOHN||19800101|M\r"

	msg := hl7v2.Parse(raw)
	result, err := MapPatient(msg, "ACSS-001", zerolog.Nop())
	require.NoError(t, err)
	require.NotEqual(t, fhir.NameUUIDString("99999"), result.Patient.ID,
		"identifier from a non-SONHO namespace must not seed the deterministic id")
}
