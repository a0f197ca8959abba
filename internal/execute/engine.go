// Package execute applies one artifact to one document: prerequisite gating,
// reference resolution, engine dispatch and failure containment.
package execute

import (
	"context"
	"errors"
	"fmt"

	"github.com/zjrosen/docval/internal/domain/validation"
	"github.com/zjrosen/docval/internal/source"
)

// Engine errors
var (
	ErrNoEngine = errors.New("no engine registered for validation type")
)

// Engine runs one rule technology. Validate must not mutate doc and must be
// safe for concurrent use. Findings without a SystemID are located at the
// document by the executor.
type Engine interface {
	Validate(ctx context.Context, res validation.Resource, doc *source.Document) ([]validation.Finding, error)
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(ctx context.Context, res validation.Resource, doc *source.Document) ([]validation.Finding, error)

// Validate calls f.
func (f EngineFunc) Validate(ctx context.Context, res validation.Resource, doc *source.Document) ([]validation.Finding, error) {
	return f(ctx, res, doc)
}

// Engines maps each validation type to the engine that runs it.
type Engines map[validation.ValidationType]Engine

// For returns the engine for t.
func (e Engines) For(t validation.ValidationType) (Engine, error) {
	engine, ok := e[t]
	if !ok || engine == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoEngine, t)
	}
	return engine, nil
}
