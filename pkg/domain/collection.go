package domain

import (
	"strings"
)

// CollectionID is the validated identifier of a physical per-tenant
// collection. It is distinct from the raw organization name: storage calls
// only ever see a CollectionID, never an uninterpreted name.
type CollectionID string

func (c CollectionID) String() string { return string(c) }

// collectionPrefix keeps tenant collections out of the namespace used by the
// master record sets (organizations, admins, migrations).
const collectionPrefix = "org_"

const (
	minNameLen = 3
	maxNameLen = 50
)

// NormalizeName canonicalizes an organization name: trimmed and lowercased.
// Lookups and uniqueness are always on the normalized form.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// DeriveCollectionID maps an organization name to its collection identifier.
// Deterministic for a given input, so renaming back to a previous name yields
// the previous identifier. Returns ErrInvalidName if the normalized name is
// empty, out of bounds, or contains characters unsafe for a collection name.
func DeriveCollectionID(name string) (CollectionID, error) {
	n := NormalizeName(name)
	if len(n) < minNameLen || len(n) > maxNameLen {
		return "", ErrInvalidName
	}
	for _, r := range n {
		if !isCollectionSafe(r) {
			return "", ErrInvalidName
		}
	}
	return CollectionID(collectionPrefix + n), nil
}

func isCollectionSafe(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_' || r == '-':
		return true
	}
	return false
}
