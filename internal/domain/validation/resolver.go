package validation

import (
	"errors"
	"fmt"
	"maps"
)

// Resolver errors
var (
	ErrUnresolvedReference = errors.New("unresolved artifact reference")
)

// ArtifactResolver finds the resource published under an artifact ID.
// A miss is a normal outcome reported as ok == false.
type ArtifactResolver interface {
	Resolve(id VESID) (Resource, bool)
}

// ResolverFunc adapts a function to ArtifactResolver.
type ResolverFunc func(id VESID) (Resource, bool)

// Resolve calls f.
func (f ResolverFunc) Resolve(id VESID) (Resource, bool) {
	return f(id)
}

// MapResolver resolves from a fixed table. It is safe for concurrent reads.
type MapResolver struct {
	entries map[VESID]Resource
}

// NewMapResolver creates a resolver from id -> resource entries. The map is copied.
func NewMapResolver(entries map[VESID]Resource) *MapResolver {
	m := make(map[VESID]Resource, len(entries))
	maps.Copy(m, entries)
	return &MapResolver{entries: m}
}

// Resolve returns the resource for id.
func (r *MapResolver) Resolve(id VESID) (Resource, bool) {
	if r == nil || id.IsZero() {
		return Resource{}, false
	}
	res, ok := r.entries[id]
	return res, ok
}

// Len returns the number of entries.
func (r *MapResolver) Len() int {
	return len(r.entries)
}

// UnresolvedPolicy decides what an unresolved reference does.
type UnresolvedPolicy int

const (
	// PolicyIgnore degrades the layer to Ignored(unresolved-reference) at run time.
	PolicyIgnore UnresolvedPolicy = iota
	// PolicyFail rejects the whole set when it is built.
	PolicyFail
)

func (p UnresolvedPolicy) String() string {
	switch p {
	case PolicyIgnore:
		return "ignore"
	case PolicyFail:
		return "fail"
	default:
		return "unknown"
	}
}

// ParseUnresolvedPolicy converts "ignore" or "fail" (empty means ignore).
func ParseUnresolvedPolicy(s string) (UnresolvedPolicy, error) {
	switch s {
	case "", "ignore":
		return PolicyIgnore, nil
	case "fail":
		return PolicyFail, nil
	default:
		return 0, fmt.Errorf("%w: unknown unresolved reference policy %q", ErrInvalidArgument, s)
	}
}

// CheckReferences verifies that every by-reference artifact resolves.
// It returns ErrUnresolvedReference naming the first miss.
func CheckReferences(resolver ArtifactResolver, artifacts ...*Artifact) error {
	for _, a := range artifacts {
		if a == nil || !a.IsReference() {
			continue
		}
		if resolver == nil {
			return fmt.Errorf("%w: %s (no resolver configured)", ErrUnresolvedReference, a.Reference())
		}
		if _, ok := resolver.Resolve(a.Reference()); !ok {
			return fmt.Errorf("%w: %s", ErrUnresolvedReference, a.Reference())
		}
	}
	return nil
}
