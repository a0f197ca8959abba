package validation

// Provider defines read-only access to a registry of executor sets.
// This interface enables dependency injection and lets tests substitute
// a fixed catalog for the concrete Registry.
type Provider[D Source] interface {
	// All returns every registered set in registration order.
	All() []*ExecutorSet[D]

	// FindAll returns the sets matching pred; nil matches everything.
	FindAll(pred Predicate[D]) []*ExecutorSet[D]

	// FindFirst returns the first set matching pred.
	FindFirst(pred Predicate[D]) (*ExecutorSet[D], bool)

	// Get returns the set registered under id.
	Get(id VESID) (*ExecutorSet[D], bool)
}

// Compile-time check that Registry implements Provider.
var _ Provider[Source] = (*Registry[Source])(nil)
