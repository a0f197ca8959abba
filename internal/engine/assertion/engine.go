// Package assertion runs Schematron-style rule packs. Within a pattern each
// node is handled by the first rule whose context selects it; failed asserts
// and successful reports both become findings.
package assertion

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/antchfx/xmlquery"

	"github.com/zjrosen/docval/internal/domain/validation"
	"github.com/zjrosen/docval/internal/engine"
	"github.com/zjrosen/docval/internal/source"
)

// Engine validates documents against assertion packs read from a file tree.
type Engine struct {
	packs *engine.PackCache[*Pack]
}

// New creates an engine reading packs from fsys.
func New(fsys fs.FS, opts engine.CacheOptions) *Engine {
	return &Engine{packs: engine.NewPackCache("assertion", fsys, Compile, opts)}
}

// Flush drops compiled packs.
func (e *Engine) Flush(ctx context.Context) error {
	return e.packs.Flush(ctx)
}

// Validate runs the pack at res against doc.
func (e *Engine) Validate(ctx context.Context, res validation.Resource, doc *source.Document) ([]validation.Finding, error) {
	pack, err := e.packs.Get(ctx, res)
	if err != nil {
		return nil, err
	}
	return pack.Check(ctx, doc)
}

// Check evaluates every pattern in order and returns findings in document
// order within each rule.
func (p *Pack) Check(ctx context.Context, doc *source.Document) ([]validation.Finding, error) {
	var findings []validation.Finding
	for _, pat := range p.patterns {
		fired := make(map[*xmlquery.Node]bool)
		for _, r := range pat.rules {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			var evalErr error
			err := source.Select(r.expr, doc.Navigator(), func(nav *xmlquery.NodeNavigator) bool {
				node := nav.Current()
				if fired[node] {
					return true
				}
				fired[node] = true
				for _, c := range r.checks {
					ok, err := source.Test(c.expr, nav)
					if err != nil {
						evalErr = fmt.Errorf("rule %q test %q: %w", r.context, c.test, err)
						return false
					}
					if c.fires(ok) {
						findings = append(findings, c.finding(source.PathOf(nav)))
					}
				}
				return true
			})
			if err != nil {
				return nil, err
			}
			if evalErr != nil {
				return nil, evalErr
			}
		}
	}
	return findings, nil
}

func (c check) finding(path string) validation.Finding {
	msg := c.message
	if msg == "" {
		if c.report {
			msg = fmt.Sprintf("report %q succeeded", c.test)
		} else {
			msg = fmt.Sprintf("assertion %q failed", c.test)
		}
	}
	return validation.Finding{
		Severity: c.severity,
		Message:  msg,
		Location: validation.Location{Path: path},
		RuleID:   c.id,
		Test:     c.test,
	}
}
