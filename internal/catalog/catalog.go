// Package catalog builds executor sets from a YAML catalog file.
//
// A catalog names every set with its layers in execution order, plus a table
// of artifacts that layers may reference by ID instead of by path:
//
//	artifacts:
//	  - id: eu.peppol:codelists:1.0
//	    resource: codelists/peppol.yaml
//	sets:
//	  - id: eu.peppol.bis3:invoice:3.13.0
//	    name: Peppol BIS Billing Invoice
//	    extends: eu.peppol.bis3:base:3.13.0
//	    layers:
//	      - type: rule-assertion
//	        resource: rules/peppol-invoice.yaml
//	        prerequisite: /ubl:Invoice
//	        namespaces: {ubl: "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"}
//	      - type: code-list
//	        ref: eu.peppol:codelists:1.0
//
// Resource paths are relative to the directory holding the catalog file.
package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	stdpath "path"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/docval/internal/domain/validation"
	"github.com/zjrosen/docval/internal/execute"
	"github.com/zjrosen/docval/internal/log"
	"github.com/zjrosen/docval/internal/source"
)

// Catalog errors
var (
	ErrUnknownParent = errors.New("extends names no earlier set")
	ErrNoEngines     = errors.New("catalog options need an engine table")
)

// Set is the executor set type produced by the catalog.
type Set = validation.ExecutorSet[*source.Document]

// File is the root structure of a catalog file.
type File struct {
	Artifacts []ArtifactDef `yaml:"artifacts"`
	Sets      []SetDef      `yaml:"sets"`
}

// ArtifactDef publishes a resource under an ID for by-reference layers.
type ArtifactDef struct {
	ID       validation.VESID `yaml:"id"`
	Resource string           `yaml:"resource"`
}

// SetDef defines one executor set.
type SetDef struct {
	ID         validation.VESID `yaml:"id"`
	Name       string           `yaml:"name"`
	Deprecated bool             `yaml:"deprecated"`
	Extends    validation.VESID `yaml:"extends"` // optional, must be defined earlier in the file
	Layers     []LayerDef       `yaml:"layers"`
}

// LayerDef defines one layer. Exactly one of Resource and Ref is set.
type LayerDef struct {
	Type         string            `yaml:"type"` // schema | rule-assertion | code-list
	Resource     string            `yaml:"resource"`
	Ref          validation.VESID  `yaml:"ref"`
	Prerequisite string            `yaml:"prerequisite"`
	Namespaces   map[string]string `yaml:"namespaces"`
}

// Options controls how sets are assembled.
type Options struct {
	Engines execute.Engines
	Policy  validation.UnresolvedPolicy
}

// Catalog is a loaded catalog file.
type Catalog struct {
	Sets     []*Set
	Resolver *validation.MapResolver
}

// Parse decodes a catalog file without building anything.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Load reads the catalog at path from fsys and builds its sets in file order.
func Load(fsys fs.FS, path string, opts Options) (*Catalog, error) {
	if len(opts.Engines) == 0 {
		return nil, ErrNoEngines
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	file, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	// Use path.Dir (not filepath.Dir) since fs.FS always uses forward slashes
	dir := stdpath.Dir(path)
	resolver, err := buildResolver(file.Artifacts, dir)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}

	cat := &Catalog{Resolver: resolver}
	built := make(map[validation.VESID]*Set, len(file.Sets))
	for i, def := range file.Sets {
		set, err := buildSet(def, dir, built, resolver, opts)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: sets[%d] %s: %w", path, i, def.ID, err)
		}
		built[set.ID()] = set
		cat.Sets = append(cat.Sets, set)
	}

	log.Info(log.CatCatalog, "catalog loaded", "path", path, "sets", len(cat.Sets), "artifacts", resolver.Len())
	return cat, nil
}

// LoadInto loads the catalog and registers every set, stopping at the first
// registration error. It returns how many sets were registered.
func LoadInto(reg *validation.Registry[*source.Document], fsys fs.FS, path string, opts Options) (int, error) {
	cat, err := Load(fsys, path, opts)
	if err != nil {
		return 0, err
	}
	for i, set := range cat.Sets {
		if err := reg.Register(set); err != nil {
			return i, fmt.Errorf("register %s from %s: %w", set.ID(), path, err)
		}
		log.Debug(log.CatRegistry, "set registered", "id", set.ID(), "layers", set.Len())
	}
	return len(cat.Sets), nil
}

func buildResolver(defs []ArtifactDef, dir string) (*validation.MapResolver, error) {
	entries := make(map[validation.VESID]validation.Resource, len(defs))
	for i, def := range defs {
		if def.ID.IsZero() || def.Resource == "" {
			return nil, fmt.Errorf("%w: artifacts[%d] needs id and resource", validation.ErrInvalidArgument, i)
		}
		if _, dup := entries[def.ID]; dup {
			return nil, fmt.Errorf("%w: artifact %s", validation.ErrDuplicateIdentifier, def.ID)
		}
		entries[def.ID] = validation.NewResource(stdpath.Join(dir, def.Resource))
	}
	return validation.NewMapResolver(entries), nil
}

func buildSet(def SetDef, dir string, built map[validation.VESID]*Set, resolver validation.ArtifactResolver, opts Options) (*Set, error) {
	var artifacts []*validation.Artifact
	var executors []validation.Executor[*source.Document]
	for i, ld := range def.Layers {
		a, err := buildArtifact(ld, dir)
		if err != nil {
			return nil, fmt.Errorf("layers[%d]: %w", i, err)
		}
		e, err := execute.NewExecutor(a, opts.Engines, execute.WithResolver(resolver))
		if err != nil {
			return nil, fmt.Errorf("layers[%d]: %w", i, err)
		}
		artifacts = append(artifacts, a)
		executors = append(executors, e)
	}

	if opts.Policy == validation.PolicyFail {
		if err := validation.CheckReferences(resolver, artifacts...); err != nil {
			return nil, err
		}
	}

	b := validation.NewSetBuilder[*source.Document](def.ID)
	if !def.Extends.IsZero() {
		parent, ok := built[def.Extends]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownParent, def.Extends)
		}
		b = parent.Derive(def.ID)
	}
	return b.Name(def.Name).
		Deprecated(def.Deprecated).
		Add(executors...).
		Build()
}

func buildArtifact(ld LayerDef, dir string) (*validation.Artifact, error) {
	vt, err := validation.ParseValidationType(ld.Type)
	if err != nil {
		return nil, err
	}
	b := validation.NewArtifactBuilder(vt)
	if ld.Resource != "" {
		b.Resource(stdpath.Join(dir, ld.Resource))
	}
	if !ld.Ref.IsZero() {
		b.Reference(ld.Ref)
	}
	if ld.Prerequisite != "" {
		b.Prerequisite(ld.Prerequisite, validation.NewPrerequisiteContext(ld.Namespaces))
	}
	return b.Build()
}
