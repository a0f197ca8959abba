// Package builtin wires the bundled rule technologies into an engine table.
package builtin

import (
	"context"
	"errors"
	"io/fs"

	"github.com/zjrosen/docval/internal/domain/validation"
	"github.com/zjrosen/docval/internal/engine"
	"github.com/zjrosen/docval/internal/engine/assertion"
	"github.com/zjrosen/docval/internal/engine/codelist"
	"github.com/zjrosen/docval/internal/engine/schema"
	"github.com/zjrosen/docval/internal/execute"
)

// Engines holds one engine per validation type over a shared rule tree.
type Engines struct {
	schema    *schema.Engine
	assertion *assertion.Engine
	codelist  *codelist.Engine
}

// New creates the bundled engines reading packs from fsys.
func New(fsys fs.FS, opts engine.CacheOptions) *Engines {
	return &Engines{
		schema:    schema.New(fsys, opts),
		assertion: assertion.New(fsys, opts),
		codelist:  codelist.New(fsys, opts),
	}
}

// Table returns the dispatch table used to build executors.
func (e *Engines) Table() execute.Engines {
	return execute.Engines{
		validation.TypeSchema:        e.schema,
		validation.TypeRuleAssertion: e.assertion,
		validation.TypeCodeList:      e.codelist,
	}
}

// Flush drops every compiled pack so edited rule files are reread.
func (e *Engines) Flush(ctx context.Context) error {
	return errors.Join(
		e.schema.Flush(ctx),
		e.assertion.Flush(ctx),
		e.codelist.Flush(ctx),
	)
}
