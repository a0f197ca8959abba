package validation

import (
	"fmt"
	"maps"
	"strings"
)

// Resource locates a rule resource. The path is opaque to the engine core;
// rule engines interpret it against their own file system.
type Resource struct {
	path string // e.g., "rules/peppol-invoice.yaml"
}

// NewResource creates a resource locator for path.
func NewResource(path string) Resource {
	return Resource{path: path}
}

// Path returns the resource path.
func (r Resource) Path() string {
	return r.path
}

// IsZero reports whether r locates nothing.
func (r Resource) IsZero() bool {
	return r.path == ""
}

// PrerequisiteContext carries the namespace bindings needed to evaluate a
// prerequisite expression.
type PrerequisiteContext struct {
	namespaces map[string]string // prefix -> namespace URI
}

// NewPrerequisiteContext creates a context from prefix -> URI bindings.
// The map is copied.
func NewPrerequisiteContext(namespaces map[string]string) *PrerequisiteContext {
	ns := make(map[string]string, len(namespaces))
	maps.Copy(ns, namespaces)
	return &PrerequisiteContext{namespaces: ns}
}

// Namespaces returns a copy of the prefix -> URI bindings.
func (c *PrerequisiteContext) Namespaces() map[string]string {
	if c == nil {
		return map[string]string{}
	}
	return maps.Clone(c.namespaces)
}

// Artifact describes one rule resource and when it applies.
// It either embeds a resource location or references an artifact published
// under a VESID, never both. Artifacts are immutable once built.
type Artifact struct {
	vtype        ValidationType
	resource     Resource
	reference    VESID
	prerequisite string
	context      *PrerequisiteContext
}

// Type returns the validation type tag.
func (a *Artifact) Type() ValidationType {
	return a.vtype
}

// Resource returns the embedded resource. Zero for by-reference artifacts.
func (a *Artifact) Resource() Resource {
	return a.resource
}

// Reference returns the referenced artifact ID. Zero for embedded artifacts.
func (a *Artifact) Reference() VESID {
	return a.reference
}

// IsReference reports whether the artifact must be resolved before use.
func (a *Artifact) IsReference() bool {
	return !a.reference.IsZero()
}

// Prerequisite returns the prerequisite expression, or "".
func (a *Artifact) Prerequisite() string {
	return a.prerequisite
}

// HasPrerequisite reports whether a prerequisite expression is set.
func (a *Artifact) HasPrerequisite() bool {
	return a.prerequisite != ""
}

// PrerequisiteContext returns the evaluation context of the prerequisite.
func (a *Artifact) PrerequisiteContext() *PrerequisiteContext {
	return a.context
}

// Location is the human readable locator used in logs and synthetic findings.
func (a *Artifact) Location() string {
	if a.IsReference() {
		return "ref:" + a.reference.String()
	}
	return a.resource.Path()
}

// ArtifactBuilder provides a fluent API for creating artifacts.
type ArtifactBuilder struct {
	vtype        ValidationType
	resource     Resource
	reference    VESID
	prerequisite string
	context      *PrerequisiteContext
}

// NewArtifactBuilder starts an artifact of the given validation type.
func NewArtifactBuilder(vtype ValidationType) *ArtifactBuilder {
	return &ArtifactBuilder{vtype: vtype}
}

// Resource sets the embedded resource path.
func (b *ArtifactBuilder) Resource(path string) *ArtifactBuilder {
	b.resource = NewResource(path)
	return b
}

// Reference makes the artifact resolve through an ArtifactResolver.
func (b *ArtifactBuilder) Reference(id VESID) *ArtifactBuilder {
	b.reference = id
	return b
}

// Prerequisite sets the gating expression and the context it is evaluated in.
func (b *ArtifactBuilder) Prerequisite(expr string, ctx *PrerequisiteContext) *ArtifactBuilder {
	b.prerequisite = strings.TrimSpace(expr)
	b.context = ctx
	return b
}

// Build validates the builder state and returns an immutable Artifact.
func (b *ArtifactBuilder) Build() (*Artifact, error) {
	if !b.vtype.IsValid() {
		return nil, fmt.Errorf("%w: artifact has no validation type", ErrInvalidArgument)
	}
	hasResource := !b.resource.IsZero()
	hasReference := !b.reference.IsZero()
	if hasResource == hasReference {
		return nil, fmt.Errorf("%w: artifact needs exactly one of resource or reference", ErrInvalidArgument)
	}
	if b.prerequisite != "" && b.context == nil {
		return nil, fmt.Errorf("%w: prerequisite %q has no evaluation context", ErrInvalidArgument, b.prerequisite)
	}
	return &Artifact{
		vtype:        b.vtype,
		resource:     b.resource,
		reference:    b.reference,
		prerequisite: b.prerequisite,
		context:      b.context,
	}, nil
}

// NewArtifact is shorthand for an embedded artifact without prerequisite.
func NewArtifact(vtype ValidationType, path string) (*Artifact, error) {
	return NewArtifactBuilder(vtype).Resource(path).Build()
}
