// Package codelist checks that coded values in a document come from fixed
// code lists.
package codelist

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/zjrosen/docval/internal/domain/validation"
	"github.com/zjrosen/docval/internal/engine"
	"github.com/zjrosen/docval/internal/source"
)

// Engine validates documents against code-list packs read from a file tree.
type Engine struct {
	packs *engine.PackCache[*Pack]
}

// New creates an engine reading packs from fsys.
func New(fsys fs.FS, opts engine.CacheOptions) *Engine {
	return &Engine{packs: engine.NewPackCache("codelist", fsys, Compile, opts)}
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

// Check reports every selected value that is not in its list. Values are
// compared after trimming surrounding whitespace.
func (p *Pack) Check(ctx context.Context, doc *source.Document) ([]validation.Finding, error) {
	var findings []validation.Finding
	for _, l := range p.lists {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		err := source.Select(l.expr, doc.Navigator(), func(nav *xmlquery.NodeNavigator) bool {
			value := strings.TrimSpace(nav.Value())
			if l.allows(value) {
				return true
			}
			msg := l.message
			if msg == "" {
				msg = fmt.Sprintf("value %q is not in code list %s", value, l.id)
			}
			findings = append(findings, validation.Finding{
				Severity: l.severity,
				Message:  msg,
				Location: validation.Location{Path: source.PathOf(nav)},
				RuleID:   l.id,
				Test:     l.context,
			})
			return true
		})
		if err != nil {
			return nil, err
		}
	}
	return findings, nil
}
