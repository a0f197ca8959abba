package assertion

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/docval/internal/domain/validation"
	"github.com/zjrosen/docval/internal/engine"
	"github.com/zjrosen/docval/internal/source"
)

// packDef is the YAML form of an assertion pack.
//
//	id: PEPPOL-EN16931-UBL
//	namespaces: {cbc: "urn:..."}
//	patterns:
//	  - id: totals
//	    rules:
//	      - context: /Invoice
//	        asserts:
//	          - id: BR-01
//	            test: cbc:CustomizationID
//	            flag: fatal
//	            message: An Invoice shall have a Specification identifier.
//	        reports:
//	          - id: W-01
//	            test: cbc:Note
//	            flag: warning
//	            message: Notes are not processed.
type packDef struct {
	ID         string            `yaml:"id"`
	Title      string            `yaml:"title"`
	Namespaces map[string]string `yaml:"namespaces"`
	Patterns   []patternDef      `yaml:"patterns"`
}

type patternDef struct {
	ID    string    `yaml:"id"`
	Rules []ruleDef `yaml:"rules"`
}

type ruleDef struct {
	Context string     `yaml:"context"`
	Asserts []checkDef `yaml:"asserts"`
	Reports []checkDef `yaml:"reports"`
}

type checkDef struct {
	ID      string `yaml:"id"`
	Test    string `yaml:"test"`
	Flag    string `yaml:"flag"`
	Message string `yaml:"message"`
}

// Pack is a compiled assertion pack.
type Pack struct {
	id       string
	title    string
	patterns []pattern
}

type pattern struct {
	id    string
	rules []rule
}

type rule struct {
	context string
	expr    *source.Expr
	checks  []check
}

// check is an assert (fires when the test is false) or a report (fires when
// the test is true).
type check struct {
	id       string
	test     string
	expr     *source.Expr
	report   bool
	severity validation.Severity
	message  string
}

func (c check) fires(ok bool) bool {
	return ok == c.report
}

// Compile parses and compiles an assertion pack.
func Compile(name string, data []byte) (*Pack, error) {
	var def packDef
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", engine.ErrInvalidPack, name, err)
	}

	p := &Pack{id: def.ID, title: def.Title}
	for pi, pd := range def.Patterns {
		pat := pattern{id: pd.ID}
		for ri, rd := range pd.Rules {
			where := fmt.Sprintf("%s: patterns[%d].rules[%d]", name, pi, ri)
			ctxExpr, err := source.Compile(rd.Context, def.Namespaces)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: context: %v", engine.ErrInvalidPack, where, err)
			}
			r := rule{context: rd.Context, expr: ctxExpr}
			for _, cd := range rd.Asserts {
				c, err := compileCheck(cd, false, def.Namespaces)
				if err != nil {
					return nil, fmt.Errorf("%w: %s: assert %s: %v", engine.ErrInvalidPack, where, cd.ID, err)
				}
				r.checks = append(r.checks, c)
			}
			for _, cd := range rd.Reports {
				c, err := compileCheck(cd, true, def.Namespaces)
				if err != nil {
					return nil, fmt.Errorf("%w: %s: report %s: %v", engine.ErrInvalidPack, where, cd.ID, err)
				}
				r.checks = append(r.checks, c)
			}
			pat.rules = append(pat.rules, r)
		}
		p.patterns = append(p.patterns, pat)
	}
	return p, nil
}

func compileCheck(cd checkDef, report bool, namespaces map[string]string) (check, error) {
	expr, err := source.Compile(cd.Test, namespaces)
	if err != nil {
		return check{}, err
	}
	// Failed asserts default to error, successful reports to info.
	def := validation.SeverityError
	if report {
		def = validation.SeverityInfo
	}
	severity, err := engine.Severity(cd.Flag, def)
	if err != nil {
		return check{}, err
	}
	return check{
		id:       cd.ID,
		test:     cd.Test,
		expr:     expr,
		report:   report,
		severity: severity,
		message:  cd.Message,
	}, nil
}

// ID returns the pack identifier.
func (p *Pack) ID() string {
	return p.id
}

// Title returns the human-readable pack title.
func (p *Pack) Title() string {
	return p.title
}
