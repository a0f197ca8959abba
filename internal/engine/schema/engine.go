// Package schema checks document structure: the expected root element and
// the cardinality of required elements.
package schema

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/antchfx/xmlquery"

	"github.com/zjrosen/docval/internal/domain/validation"
	"github.com/zjrosen/docval/internal/engine"
	"github.com/zjrosen/docval/internal/source"
)

// Engine validates documents against structure packs read from a file tree.
type Engine struct {
	packs *engine.PackCache[*Pack]
}

// New creates an engine reading packs from fsys.
func New(fsys fs.FS, opts engine.CacheOptions) *Engine {
	return &Engine{packs: engine.NewPackCache("schema", fsys, Compile, opts)}
}

// Flush drops compiled packs.
func (e *Engine) Flush(ctx context.Context) error {
	return e.packs.Flush(ctx)
}

// Validate checks doc against the pack at res.
func (e *Engine) Validate(ctx context.Context, res validation.Resource, doc *source.Document) ([]validation.Finding, error) {
	pack, err := e.packs.Get(ctx, res)
	if err != nil {
		return nil, err
	}
	return pack.Check(ctx, doc)
}

// Check runs the pack against doc. A wrong root stops the check with a
// single finding since no element path can be meaningful after it.
func (p *Pack) Check(ctx context.Context, doc *source.Document) ([]validation.Finding, error) {
	local, ns := doc.RootName()
	if local != p.rootName || ns != p.rootNS {
		return []validation.Finding{{
			Severity: validation.SeverityError,
			Message:  fmt.Sprintf("expected root element %s, found %s", qname(p.rootNS, p.rootName), qname(ns, local)),
			Location: validation.Location{Path: "/" + local},
			RuleID:   "root",
		}}, nil
	}

	var findings []validation.Finding
	for _, el := range p.elements {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var paths []string
		err := source.Select(el.expr, doc.Navigator(), func(nav *xmlquery.NodeNavigator) bool {
			paths = append(paths, source.PathOf(nav))
			return true
		})
		if err != nil {
			return nil, err
		}

		n := len(paths)
		switch {
		case n < el.min:
			findings = append(findings, validation.Finding{
				Severity: validation.SeverityError,
				Message:  el.describe(fmt.Sprintf("%s occurs %d time(s), at least %d required", el.path, n, el.min)),
				RuleID:   "min",
				Test:     el.path,
			})
		case el.max > 0 && n > el.max:
			for _, extra := range paths[el.max:] {
				findings = append(findings, validation.Finding{
					Severity: validation.SeverityError,
					Message:  el.describe(fmt.Sprintf("%s occurs %d time(s), at most %d allowed", el.path, n, el.max)),
					Location: validation.Location{Path: extra},
					RuleID:   "max",
					Test:     el.path,
				})
			}
		}
	}
	return findings, nil
}

func (el element) describe(def string) string {
	if el.message != "" {
		return el.message
	}
	return def
}

func qname(ns, local string) string {
	if ns == "" {
		return local
	}
	return "{" + ns + "}" + local
}
