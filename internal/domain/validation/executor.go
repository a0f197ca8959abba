package validation

import "context"

// Source is the minimal capability every validated document exposes.
type Source interface {
	// SystemID identifies the document in findings, e.g. its file path.
	SystemID() string
}

// Executor applies one artifact to a document.
//
// Apply returns exactly one LayerResult and never fails: prerequisite
// evaluation errors become Ignored layers and rule technology failures become
// a single error finding. Implementations must not mutate doc or keep state
// between calls.
type Executor[D Source] interface {
	Artifact() *Artifact
	Apply(ctx context.Context, doc D) LayerResult
}
