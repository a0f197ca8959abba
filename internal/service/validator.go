// Package service runs registered executor sets against documents, assigning
// run IDs, tracing runs and publishing outcomes.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/docval/internal/domain/validation"
	"github.com/zjrosen/docval/internal/log"
	"github.com/zjrosen/docval/internal/pubsub"
	"github.com/zjrosen/docval/internal/source"
	"github.com/zjrosen/docval/internal/tracing"
)

// Service errors
var (
	ErrSetNotFound = errors.New("executor set not found")
)

// RunEvent is published when a run starts, completes or fails.
type RunEvent struct {
	RunID    string
	SetID    validation.VESID
	SystemID string
	Result   *validation.Result // nil unless completed
	Err      error              // set when failed
}

// Validator looks up sets by ID and runs them.
type Validator struct {
	sets   validation.Provider[*source.Document]
	tracer trace.Tracer
	events pubsub.Publisher[RunEvent]
	newID  func() string
}

// Option configures a Validator.
type Option func(*Validator)

// WithTracer records runs as spans.
func WithTracer(t trace.Tracer) Option {
	return func(v *Validator) {
		if t != nil {
			v.tracer = t
		}
	}
}

// WithPublisher publishes run events.
func WithPublisher(p pubsub.Publisher[RunEvent]) Option {
	return func(v *Validator) {
		v.events = p
	}
}

// NewValidator creates a validator over sets.
func NewValidator(sets validation.Provider[*source.Document], opts ...Option) *Validator {
	v := &Validator{
		sets:   sets,
		tracer: noop.NewTracerProvider().Tracer("noop"),
		newID:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate runs the set registered under id against doc.
func (v *Validator) Validate(ctx context.Context, id validation.VESID, doc *source.Document) (*validation.Result, error) {
	set, ok := v.sets.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSetNotFound, id)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: document cannot be nil", validation.ErrInvalidArgument)
	}

	runID := v.newID()
	event := RunEvent{RunID: runID, SetID: id, SystemID: doc.SystemID()}
	v.publish(pubsub.RunStarted, event)

	logger := log.With(log.CatExec, "run", runID, "set", id, "document", doc.SystemID())
	ctx, span := tracing.StartRun(ctx, v.tracer, runID, id, doc.SystemID())
	result, err := set.Run(ctx, doc)
	if err != nil {
		tracing.EndRun(span, nil, err)
		logger.ErrorErr("run aborted", err)
		event.Err = err
		v.publish(pubsub.RunFailed, event)
		return nil, err
	}
	result.WithRunID(runID)
	tracing.EndRun(span, result, nil)

	logger.Info("run completed", "outcome", result.Outcome(), "ignored", result.IgnoredCount())
	event.Result = result
	v.publish(pubsub.RunCompleted, event)
	return result, nil
}

// ValidateAll validates docs one after another with the same set. It stops
// at the first error and returns the results gathered so far.
func (v *Validator) ValidateAll(ctx context.Context, id validation.VESID, docs []*source.Document) ([]*validation.Result, error) {
	results := make([]*validation.Result, 0, len(docs))
	for _, doc := range docs {
		r, err := v.Validate(ctx, id, doc)
		if err != nil {
			return results, err
		}
		results = append(results, r)
	}
	return results, nil
}

func (v *Validator) publish(t pubsub.EventType, e RunEvent) {
	if v.events != nil {
		v.events.Publish(t, e)
	}
}
