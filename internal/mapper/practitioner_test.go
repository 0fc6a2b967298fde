package mapper

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sonho/adt-gateway/internal/fhir"
	"github.com/sonho/adt-gateway/internal/hl7v2"
)

func TestMapPractitionerFromROL(t *testing.T) {
	raw := "MSH|^~\\&|A|B|C|D|20240101120000||ADT^A28^ADT_A05|MSG0001|P|2.5\r" +
		"ROL|1|UP|FHCP|999^SILVA^ANA^MARIA^^^^^N.Mecanográfico^^^^EI\r"
	msg := hl7v2.Parse(raw)
	rol := msg.GetSegment("ROL", 0)
	require.NotNil(t, rol)

	gp := buildGeneralPractitionerRef(rol)
	require.NotNil(t, gp)
	require.Equal(t, fhir.NameUUIDString("999"), gp.ID, "an ROL-4 ID number takes precedence over the name-derived id")

	practitioner := MapPractitioner(rol, gp.ID)
	require.Len(t, practitioner.Name, 1)
	require.Equal(t, "SILVA", practitioner.Name[0].Family)
	require.Equal(t, "SILVA", PractitionerFamilyName(practitioner))
}

func TestBuildGeneralPractitionerRefUsesOrganizationUnitType(t *testing.T) {
	// ROL-10 (OrganizationUnitType) carries the org reference; ROL-11
	// (OfficeHomeAddressBirthplace) is an unrelated address field and
	// must not be read for it.
	raw := "MSH|^~\\&|A|B|C|D|20240101120000||ADT^A28^ADT_A05|MSG0001|P|2.5\r" +
		"ROL|1|UP|FHCP|999^SILVA^ANA^MARIA^^^^^N.Mecanográfico^^^^EI||||||ORGUNIT001^Cardiology Dept|999 Some Street^^Lisboa\r"
	msg := hl7v2.Parse(raw)
	rol := msg.GetSegment("ROL", 0)
	require.NotNil(t, rol)

	gp := buildGeneralPractitionerRef(rol)
	require.NotNil(t, gp)
	require.Equal(t, "ORGUNIT001", gp.OrganizationCode)
	require.Equal(t, fhir.NameUUIDString("ORGUNIT001"), gp.OrganizationID)
	require.NotEqual(t, fhir.NameUUIDString("999 Some Street"), gp.OrganizationID,
		"organization reference must come from ROL-10, not the ROL-11 address field")
}

func TestMapOrganizationDeterministicID(t *testing.T) {
	org1 := MapOrganization("ACSS-001", "Hospital Central")
	org2 := MapOrganization("ACSS-001", "Hospital Central")
	require.Equal(t, org1.ID, org2.ID)
	require.True(t, org1.Active)
	require.Len(t, org1.Identifier, 1)
	require.Equal(t, "ACSS-001", org1.Identifier[0].Value)
}
