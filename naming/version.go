// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package naming

import (
	"math/big"
	"strings"
)

// Version is a parsed release version.
type Version struct {
	raw        string
	components []*big.Int
}

// ParseVersion parses a version string matching the version grammar.
func ParseVersion(s string) (Version, error) {
	if !IsValidVersion(s) {
		return Version{}, Error.New("invalid version %q", s)
	}

	parts := strings.Split(s, ".")
	components := make([]*big.Int, 0, len(parts))
	for _, part := range parts {
		// components may exceed 64 bits, the grammar does not bound them.
		n, ok := new(big.Int).SetString(part, 10)
		if !ok {
			return Version{}, Error.New("invalid version component %q", part)
		}
		components = append(components, n)
	}

	return Version{raw: s, components: components}, nil
}

// String returns the version as it was written.
func (v Version) String() string { return v.raw }

// Compare returns -1, 0 or +1 comparing v to other component by component.
// When one version is a prefix of the other, the shorter one is smaller.
func (v Version) Compare(other Version) int {
	for i := 0; i < len(v.components) && i < len(other.components); i++ {
		if c := v.components[i].Cmp(other.components[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(v.components) < len(other.components):
		return -1
	case len(v.components) > len(other.components):
		return 1
	}
	return 0
}

// CompareVersions compares two version strings numerically.
// Strings that do not parse sort before valid versions and among themselves lexically.
func CompareVersions(a, b string) int {
	va, errA := ParseVersion(a)
	vb, errB := ParseVersion(b)
	switch {
	case errA != nil && errB != nil:
		return strings.Compare(a, b)
	case errA != nil:
		return -1
	case errB != nil:
		return 1
	}
	return va.Compare(vb)
}
