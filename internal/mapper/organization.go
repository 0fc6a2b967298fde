package mapper

import "github.com/sonho/adt-gateway/internal/fhir"

// MapOrganization builds an Organization resource for the given code and
// optional display name, per spec §4.4. The id is the deterministic hash
// of code, matching every other reference to this same organization.
func MapOrganization(code, name string) *fhir.Organization {
	return fhir.NewOrganization(fhir.NameUUIDString(code), code, name)
}
