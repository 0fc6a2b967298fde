package fhir

import (
	"crypto/md5"

	"github.com/google/uuid"
)

// NameUUID reproduces Java's UUID.nameUUIDFromBytes: an MD5 digest of the
// raw input bytes with the RFC 4122 version (3) and variant bits set, and
// crucially no namespace UUID prepended. This differs from RFC 4122 v3 as
// implemented by github.com/google/uuid.NewMD5, which always hashes
// namespace||name. Byte-level compatibility with records minted by the
// source system depends on the absence of that namespace prefix, so this
// is implemented directly against the digest rather than through the
// library's namespaced constructor.
func NameUUID(name string) uuid.UUID {
	sum := md5.Sum([]byte(name))
	sum[6] = (sum[6] & 0x0f) | 0x30 // version 3
	sum[8] = (sum[8] & 0x3f) | 0x80 // RFC 4122 variant
	var id uuid.UUID
	copy(id[:], sum[:])
	return id
}

// NameUUIDString is NameUUID formatted as a lower-case hyphenated string,
// the form used for every FHIR resource id this gateway mints.
func NameUUIDString(name string) string {
	return NameUUID(name).String()
}
