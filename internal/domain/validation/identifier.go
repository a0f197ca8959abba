package validation

import (
	"errors"
	"fmt"
	"strings"
)

// Identifier errors
var (
	ErrInvalidArgument = errors.New("invalid argument")
)

// vesidSeparator separates the parts of a canonical VESID string.
const vesidSeparator = ":"

// VESID identifies a validation executor set by group, artifact and version.
// Two VESIDs are equal when all three parts are equal. The zero value is the
// "no identifier" marker and never matches a registered set.
type VESID struct {
	group    string // e.g., "eu.peppol.bis3"
	artifact string // e.g., "invoice"
	version  string // e.g., "3.13.0"
}

// NewVESID creates an identifier from its three parts.
// Every part must be non-empty and must not contain ":".
func NewVESID(group, artifact, version string) (VESID, error) {
	for _, p := range []struct{ name, value string }{
		{"group", group},
		{"artifact", artifact},
		{"version", version},
	} {
		if p.value == "" {
			return VESID{}, fmt.Errorf("%w: VESID %s cannot be empty", ErrInvalidArgument, p.name)
		}
		if strings.Contains(p.value, vesidSeparator) {
			return VESID{}, fmt.Errorf("%w: VESID %s %q contains %q", ErrInvalidArgument, p.name, p.value, vesidSeparator)
		}
	}
	return VESID{group: group, artifact: artifact, version: version}, nil
}

// MustVESID is like NewVESID but panics on invalid input.
// Intended for package-level tables and tests.
func MustVESID(group, artifact, version string) VESID {
	id, err := NewVESID(group, artifact, version)
	if err != nil {
		panic(err)
	}
	return id
}

// ParseVESID parses the canonical group:artifact:version form produced by String.
func ParseVESID(s string) (VESID, error) {
	parts := strings.Split(s, vesidSeparator)
	if len(parts) != 3 {
		return VESID{}, fmt.Errorf("%w: %q is not of the form group:artifact:version", ErrInvalidArgument, s)
	}
	return NewVESID(parts[0], parts[1], parts[2])
}

// Group returns the group part.
func (v VESID) Group() string {
	return v.group
}

// Artifact returns the artifact part.
func (v VESID) Artifact() string {
	return v.artifact
}

// Version returns the version part.
func (v VESID) Version() string {
	return v.version
}

// IsZero reports whether v is the empty identifier.
func (v VESID) IsZero() bool {
	return v == VESID{}
}

// Equal reports whether both identifiers have identical parts.
func (v VESID) Equal(other VESID) bool {
	return v == other
}

// Compare orders identifiers lexicographically by group, then artifact, then version.
// It returns -1, 0 or +1.
func (v VESID) Compare(other VESID) int {
	if c := strings.Compare(v.group, other.group); c != 0 {
		return c
	}
	if c := strings.Compare(v.artifact, other.artifact); c != 0 {
		return c
	}
	return strings.Compare(v.version, other.version)
}

// String returns the canonical group:artifact:version form.
// The zero identifier renders as the empty string.
func (v VESID) String() string {
	if v.IsZero() {
		return ""
	}
	return v.group + vesidSeparator + v.artifact + vesidSeparator + v.version
}

// MarshalText implements encoding.TextMarshaler.
func (v VESID) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *VESID) UnmarshalText(text []byte) error {
	id, err := ParseVESID(string(text))
	if err != nil {
		return err
	}
	*v = id
	return nil
}
