package execute

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/docval/internal/domain/validation"
	"github.com/zjrosen/docval/internal/log"
	"github.com/zjrosen/docval/internal/source"
	"github.com/zjrosen/docval/internal/tracing"
)

// Executor binds an artifact to the engine for its type.
type Executor struct {
	artifact *validation.Artifact
	engine   Engine
	resolver validation.ArtifactResolver

	// Compiled once; a compile failure is replayed as an evaluation error on every Apply.
	prerequisite    *source.Expr
	prerequisiteErr error
}

var _ validation.Executor[*source.Document] = (*Executor)(nil)

// Option configures an Executor.
type Option func(*Executor)

// WithResolver sets the resolver used for by-reference artifacts.
func WithResolver(r validation.ArtifactResolver) Option {
	return func(e *Executor) {
		e.resolver = r
	}
}

// NewExecutor selects the engine for the artifact's type from engines.
func NewExecutor(a *validation.Artifact, engines Engines, opts ...Option) (*Executor, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: artifact cannot be nil", validation.ErrInvalidArgument)
	}
	engine, err := engines.For(a.Type())
	if err != nil {
		return nil, err
	}

	e := &Executor{artifact: a, engine: engine}
	for _, opt := range opts {
		opt(e)
	}
	if a.HasPrerequisite() {
		e.prerequisite, e.prerequisiteErr = source.Compile(a.Prerequisite(), a.PrerequisiteContext().Namespaces())
	}
	return e, nil
}

// Artifact returns the artifact this executor applies.
func (e *Executor) Artifact() *validation.Artifact {
	return e.artifact
}

// Apply validates doc against the artifact. It never returns an error:
// every failure becomes an ignored layer or a single error finding.
func (e *Executor) Apply(ctx context.Context, doc *source.Document) validation.LayerResult {
	ctx, span := tracing.StartLayer(ctx, e.artifact)
	result := e.apply(ctx, span, doc)
	tracing.EndLayer(span, result)
	return result
}

func (e *Executor) apply(ctx context.Context, span trace.Span, doc *source.Document) validation.LayerResult {
	if e.artifact.HasPrerequisite() {
		ok, err := e.checkPrerequisite(doc)
		if err != nil {
			log.ErrorErr(log.CatExec, "prerequisite evaluation failed", err,
				"artifact", e.artifact.Location(), "prerequisite", e.artifact.Prerequisite(), "document", doc.SystemID())
			return validation.Ignored(validation.ReasonEvaluationError, err.Error())
		}
		if !ok {
			log.Info(log.CatExec, "prerequisite not met, layer ignored",
				"artifact", e.artifact.Location(), "prerequisite", e.artifact.Prerequisite(), "document", doc.SystemID())
			span.AddEvent(tracing.EventPrerequisiteFalse)
			return validation.Ignored(validation.ReasonPreconditionNotMet, e.artifact.Prerequisite())
		}
	}

	res := e.artifact.Resource()
	if e.artifact.IsReference() {
		var ok bool
		if e.resolver != nil {
			res, ok = e.resolver.Resolve(e.artifact.Reference())
		}
		if !ok {
			log.Warn(log.CatExec, "unresolved artifact reference, layer ignored",
				"reference", e.artifact.Reference(), "document", doc.SystemID())
			return validation.Ignored(validation.ReasonUnresolvedReference, e.artifact.Reference().String())
		}
	}

	findings, err := e.invoke(ctx, res, doc)
	if err != nil {
		log.ErrorErr(log.CatExec, "engine failed", err, "resource", res.Path(), "document", doc.SystemID())
		span.AddEvent(tracing.EventEngineFailed, trace.WithAttributes(attribute.String("resource", res.Path())))
		span.SetStatus(codes.Error, err.Error())
		return validation.WithFindings([]validation.Finding{{
			Severity: validation.SeverityError,
			Message:  err.Error(),
			Location: validation.Location{SystemID: res.Path()},
		}})
	}

	for i := range findings {
		if findings[i].Location.SystemID == "" {
			findings[i].Location.SystemID = doc.SystemID()
		}
	}
	return validation.WithFindings(findings)
}

func (e *Executor) checkPrerequisite(doc *source.Document) (bool, error) {
	if e.prerequisiteErr != nil {
		return false, e.prerequisiteErr
	}
	return source.Test(e.prerequisite, doc.Navigator())
}

// invoke calls the engine, turning a panic into an error.
func (e *Executor) invoke(ctx context.Context, res validation.Resource, doc *source.Document) (findings []validation.Finding, err error) {
	defer func() {
		if r := recover(); r != nil {
			findings, err = nil, fmt.Errorf("engine panic: %v", r)
		}
	}()
	return e.engine.Validate(ctx, res, doc)
}
