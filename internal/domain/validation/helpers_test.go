package validation

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeDoc is a minimal Source for domain tests.
type fakeDoc struct {
	id string
}

func (d *fakeDoc) SystemID() string { return d.id }

// fakeExecutor returns a fixed LayerResult and counts invocations.
type fakeExecutor struct {
	artifact *Artifact
	result   LayerResult
	calls    atomic.Int32
	onApply  func()
}

func (e *fakeExecutor) Artifact() *Artifact { return e.artifact }

func (e *fakeExecutor) Apply(_ context.Context, _ *fakeDoc) LayerResult {
	e.calls.Add(1)
	if e.onApply != nil {
		e.onApply()
	}
	return e.result
}

func mkArtifact(t *testing.T, vtype ValidationType, path string) *Artifact {
	t.Helper()
	a, err := NewArtifact(vtype, path)
	require.NoError(t, err)
	return a
}

func mkExecutor(t *testing.T, path string, result LayerResult) *fakeExecutor {
	t.Helper()
	return &fakeExecutor{artifact: mkArtifact(t, TypeRuleAssertion, path), result: result}
}

// mkSet builds a set of n passing executors.
func mkSet(t *testing.T, id VESID, n int) *ExecutorSet[*fakeDoc] {
	t.Helper()
	b := NewSetBuilder[*fakeDoc](id)
	for i := 0; i < n; i++ {
		b.Add(mkExecutor(t, "rules.yaml", Passed()))
	}
	set, err := b.Build()
	require.NoError(t, err)
	return set
}

func errorFinding(msg string) Finding {
	return Finding{Severity: SeverityError, Message: msg, Location: Location{SystemID: "doc.xml"}}
}
