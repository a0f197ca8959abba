package schema

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/docval/internal/engine"
	"github.com/zjrosen/docval/internal/source"
)

// packDef is the YAML form of a structure pack.
//
//	root:
//	  name: Invoice
//	  namespace: urn:oasis:names:specification:ubl:schema:xsd:Invoice-2
//	namespaces:
//	  cbc: urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2
//	elements:
//	  - path: /*/cbc:ID
//	    min: 1
//	    max: 1
type packDef struct {
	Root       rootDef           `yaml:"root"`
	Namespaces map[string]string `yaml:"namespaces"`
	Elements   []elementDef      `yaml:"elements"`
}

type rootDef struct {
	Name      string `yaml:"name"`
	Namespace string `yaml:"namespace"`
}

type elementDef struct {
	Path    string `yaml:"path"`
	Min     int    `yaml:"min"`
	Max     int    `yaml:"max"` // 0 means unbounded
	Message string `yaml:"message"`
}

// Pack is a compiled structure pack.
type Pack struct {
	name     string
	rootName string
	rootNS   string
	elements []element
}

type element struct {
	path    string
	expr    *source.Expr
	min     int
	max     int
	message string
}

// Compile parses and compiles a structure pack.
func Compile(name string, data []byte) (*Pack, error) {
	var def packDef
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", engine.ErrInvalidPack, name, err)
	}
	if def.Root.Name == "" {
		return nil, fmt.Errorf("%w: %s: root.name is required", engine.ErrInvalidPack, name)
	}

	p := &Pack{name: name, rootName: def.Root.Name, rootNS: def.Root.Namespace}
	for i, ed := range def.Elements {
		if ed.Min < 0 || ed.Max < 0 || (ed.Max > 0 && ed.Max < ed.Min) {
			return nil, fmt.Errorf("%w: %s: elements[%d]: invalid cardinality %d..%d", engine.ErrInvalidPack, name, i, ed.Min, ed.Max)
		}
		expr, err := source.Compile(ed.Path, def.Namespaces)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: elements[%d]: %v", engine.ErrInvalidPack, name, i, err)
		}
		p.elements = append(p.elements, element{
			path:    ed.Path,
			expr:    expr,
			min:     ed.Min,
			max:     ed.Max,
			message: ed.Message,
		})
	}
	return p, nil
}

// Name returns the resource the pack was compiled from.
func (p *Pack) Name() string {
	return p.name
}

// Len returns the number of element constraints.
func (p *Pack) Len() int {
	return len(p.elements)
}
