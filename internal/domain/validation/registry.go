package validation

import (
	"errors"
	"fmt"
	"sync"
)

// Registry errors
var (
	ErrNilSet              = errors.New("executor set cannot be nil")
	ErrEmptySet            = errors.New("executor set must have at least one executor")
	ErrDuplicateIdentifier = errors.New("executor set ID already registered")
)

// Predicate selects executor sets in FindAll and FindFirst.
type Predicate[D Source] func(*ExecutorSet[D]) bool

// Registry maps VESIDs to executor sets.
//
// It is populated while the application is wired and read concurrently
// afterwards. Sets are never removed.
type Registry[D Source] struct {
	mu    sync.RWMutex
	sets  []*ExecutorSet[D] // registration order
	index map[VESID]*ExecutorSet[D]
}

// NewRegistry creates a new empty registry.
func NewRegistry[D Source]() *Registry[D] {
	return &Registry[D]{
		sets:  make([]*ExecutorSet[D], 0),
		index: make(map[VESID]*ExecutorSet[D]),
	}
}

// Register publishes set under its ID.
// Registering an ID twice fails with ErrDuplicateIdentifier and leaves the
// registry unchanged.
func (r *Registry[D]) Register(set *ExecutorSet[D]) error {
	if set == nil {
		return ErrNilSet
	}
	if set.Len() == 0 {
		return fmt.Errorf("%w: %s", ErrEmptySet, set.ID())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.index[set.ID()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateIdentifier, set.ID())
	}
	r.index[set.ID()] = set
	r.sets = append(r.sets, set)
	return nil
}

// All returns every registered set in registration order.
// The returned slice is a copy.
func (r *Registry[D]) All() []*ExecutorSet[D] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*ExecutorSet[D](nil), r.sets...)
}

// FindAll returns the sets matching pred in registration order.
// A nil pred matches everything.
func (r *Registry[D]) FindAll(pred Predicate[D]) []*ExecutorSet[D] {
	if pred == nil {
		return r.All()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*ExecutorSet[D], 0)
	for _, s := range r.sets {
		if pred(s) {
			result = append(result, s)
		}
	}
	return result
}

// FindFirst returns the first set in registration order matching pred.
func (r *Registry[D]) FindFirst(pred Predicate[D]) (*ExecutorSet[D], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sets {
		if pred == nil || pred(s) {
			return s, true
		}
	}
	return nil, false
}

// Get returns the set registered under id.
// The zero ID is never found.
func (r *Registry[D]) Get(id VESID) (*ExecutorSet[D], bool) {
	if id.IsZero() {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.index[id]
	return s, ok
}

// Len returns the number of registered sets.
func (r *Registry[D]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sets)
}

// ByGroup matches sets whose ID has the given group.
func ByGroup[D Source](group string) Predicate[D] {
	return func(s *ExecutorSet[D]) bool {
		return s.ID().Group() == group
	}
}

// ByGroupAndArtifact matches every version of group:artifact.
func ByGroupAndArtifact[D Source](group, artifact string) Predicate[D] {
	return func(s *ExecutorSet[D]) bool {
		return s.ID().Group() == group && s.ID().Artifact() == artifact
	}
}

// NotDeprecated matches sets that are not deprecated.
func NotDeprecated[D Source]() Predicate[D] {
	return func(s *ExecutorSet[D]) bool {
		return !s.Deprecated()
	}
}

// And matches when every predicate matches.
func And[D Source](preds ...Predicate[D]) Predicate[D] {
	return func(s *ExecutorSet[D]) bool {
		for _, p := range preds {
			if p != nil && !p(s) {
				return false
			}
		}
		return true
	}
}
