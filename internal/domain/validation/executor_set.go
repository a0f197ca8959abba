package validation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

// Executor set errors
var (
	ErrNilExecutor = errors.New("executor cannot be nil")
)

// ExecutorSet is the ordered chain of executors for one document type.
// The order is execution order and report order. Sets are immutable after
// Build; accessors return copies.
type ExecutorSet[D Source] struct {
	id         VESID
	name       string // e.g., "Peppol BIS Billing 3 Invoice"
	deprecated bool
	executors  []Executor[D]
}

// ID returns the set identifier.
func (s *ExecutorSet[D]) ID() VESID {
	return s.id
}

// Name returns the human-readable name.
func (s *ExecutorSet[D]) Name() string {
	return s.name
}

// Deprecated reports whether the set is kept only for old documents.
func (s *ExecutorSet[D]) Deprecated() bool {
	return s.deprecated
}

// Len returns the number of executors.
func (s *ExecutorSet[D]) Len() int {
	return len(s.executors)
}

// Executors returns a copy of the executors in execution order.
func (s *ExecutorSet[D]) Executors() []Executor[D] {
	return append([]Executor[D](nil), s.executors...)
}

// Artifacts returns the artifacts of all executors in execution order.
func (s *ExecutorSet[D]) Artifacts() []*Artifact {
	out := make([]*Artifact, len(s.executors))
	for i, e := range s.executors {
		out[i] = e.Artifact()
	}
	return out
}

// Run applies every executor to doc, in order, without stopping on findings.
// The returned result has exactly one entry per executor.
//
// Run only fails when ctx is done before the run completes; the partial
// result is discarded in that case.
func (s *ExecutorSet[D]) Run(ctx context.Context, doc D) (*Result, error) {
	if isNil(doc) {
		return nil, fmt.Errorf("%w: document cannot be nil", ErrInvalidArgument)
	}

	layers := make([]LayerEntry, 0, len(s.executors))
	for _, e := range s.executors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		layers = append(layers, LayerEntry{
			Artifact: e.Artifact(),
			Result:   e.Apply(ctx, doc),
		})
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return NewResult(s.id, doc.SystemID(), layers), nil
}

// Derive starts a builder for a new set whose first executors are this
// set's. Name and deprecation are not inherited.
func (s *ExecutorSet[D]) Derive(id VESID) *SetBuilder[D] {
	return NewSetBuilder[D](id).Add(s.executors...)
}

// SetBuilder provides a fluent API for creating executor sets.
type SetBuilder[D Source] struct {
	id         VESID
	name       string
	deprecated bool
	executors  []Executor[D]
}

// NewSetBuilder starts an executor set with the given ID.
func NewSetBuilder[D Source](id VESID) *SetBuilder[D] {
	return &SetBuilder[D]{id: id}
}

// Name sets the human-readable name.
func (b *SetBuilder[D]) Name(n string) *SetBuilder[D] {
	b.name = n
	return b
}

// Deprecated marks the set as deprecated.
func (b *SetBuilder[D]) Deprecated(d bool) *SetBuilder[D] {
	b.deprecated = d
	return b
}

// Add appends executors in execution order.
func (b *SetBuilder[D]) Add(executors ...Executor[D]) *SetBuilder[D] {
	b.executors = append(b.executors, executors...)
	return b
}

// Build validates the builder state and returns an immutable set.
// A set without executors is valid here; the registry refuses to publish it.
func (b *SetBuilder[D]) Build() (*ExecutorSet[D], error) {
	if b.id.IsZero() {
		return nil, fmt.Errorf("%w: executor set needs an ID", ErrInvalidArgument)
	}
	for i, e := range b.executors {
		if e == nil {
			return nil, fmt.Errorf("%w: position %d in %s", ErrNilExecutor, i, b.id)
		}
	}
	name := b.name
	if name == "" {
		name = b.id.String()
	}
	return &ExecutorSet[D]{
		id:         b.id,
		name:       name,
		deprecated: b.deprecated,
		executors:  append([]Executor[D](nil), b.executors...),
	}, nil
}

// isNil reports whether v is nil or a typed nil pointer, map, slice or func.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
