package codelist

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/docval/internal/domain/validation"
	"github.com/zjrosen/docval/internal/engine"
	"github.com/zjrosen/docval/internal/source"
)

// packDef is the YAML form of a code-list pack.
//
//	namespaces: {cbc: "urn:..."}
//	lists:
//	  - id: ISO4217
//	    context: //cbc:DocumentCurrencyCode
//	    codes: [EUR, USD, SEK]
//	    flag: fatal
type packDef struct {
	Namespaces map[string]string `yaml:"namespaces"`
	Lists      []listDef         `yaml:"lists"`
}

type listDef struct {
	ID         string            `yaml:"id"`
	Context    string            `yaml:"context"`
	Codes      []string          `yaml:"codes"`
	Flag       string            `yaml:"flag"`
	Message    string            `yaml:"message"`
	Namespaces map[string]string `yaml:"namespaces"`
}

// Pack is a compiled code-list pack.
type Pack struct {
	lists []list
}

type list struct {
	id       string
	context  string
	expr     *source.Expr
	codes    map[string]struct{}
	severity validation.Severity
	message  string
}

// Compile parses and compiles a code-list pack.
func Compile(name string, data []byte) (*Pack, error) {
	var def packDef
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", engine.ErrInvalidPack, name, err)
	}

	p := &Pack{}
	for i, ld := range def.Lists {
		if ld.ID == "" {
			return nil, fmt.Errorf("%w: %s: lists[%d]: id is required", engine.ErrInvalidPack, name, i)
		}
		if len(ld.Codes) == 0 {
			return nil, fmt.Errorf("%w: %s: list %s has no codes", engine.ErrInvalidPack, name, ld.ID)
		}
		expr, err := source.Compile(ld.Context, engine.MergeNamespaces(def.Namespaces, ld.Namespaces))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: list %s: %v", engine.ErrInvalidPack, name, ld.ID, err)
		}
		severity, err := engine.Severity(ld.Flag, validation.SeverityError)
		if err != nil {
			return nil, fmt.Errorf("%s: list %s: %w", name, ld.ID, err)
		}
		codes := make(map[string]struct{}, len(ld.Codes))
		for _, c := range ld.Codes {
			codes[strings.TrimSpace(c)] = struct{}{}
		}
		p.lists = append(p.lists, list{
			id:       ld.ID,
			context:  ld.Context,
			expr:     expr,
			codes:    codes,
			severity: severity,
			message:  ld.Message,
		})
	}
	return p, nil
}

// Lists returns the list identifiers in pack order.
func (p *Pack) Lists() []string {
	ids := make([]string, len(p.lists))
	for i, l := range p.lists {
		ids[i] = l.id
	}
	return ids
}

func (l list) allows(code string) bool {
	_, ok := l.codes[code]
	return ok
}
