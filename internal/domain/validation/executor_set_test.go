package validation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

var invoiceID = MustVESID("peppol", "invoice", "1.0")

func TestSetBuilder_Build(t *testing.T) {
	schema := mkExecutor(t, "schema.yaml", Passed())
	rules := mkExecutor(t, "rules.yaml", Passed())

	set, err := NewSetBuilder[*fakeDoc](invoiceID).
		Name("Peppol Invoice").
		Add(schema, rules).
		Build()

	require.NoError(t, err)
	require.Equal(t, invoiceID, set.ID())
	require.Equal(t, "Peppol Invoice", set.Name())
	require.False(t, set.Deprecated())
	require.Equal(t, 2, set.Len())
	require.Equal(t, []*Artifact{schema.Artifact(), rules.Artifact()}, set.Artifacts())
}

func TestSetBuilder_DefaultName(t *testing.T) {
	set := mkSet(t, invoiceID, 1)
	require.Equal(t, "peppol:invoice:1.0", set.Name())
}

func TestSetBuilder_Errors(t *testing.T) {
	_, err := NewSetBuilder[*fakeDoc](VESID{}).Build()
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewSetBuilder[*fakeDoc](invoiceID).Add(nil).Build()
	require.ErrorIs(t, err, ErrNilExecutor)
}

func TestExecutorSet_ExecutorsIsCopy(t *testing.T) {
	set := mkSet(t, invoiceID, 2)

	execs := set.Executors()
	execs[0] = nil
	_ = append(execs, mkExecutor(t, "extra.yaml", Passed()))

	require.Equal(t, 2, set.Len())
	require.NotNil(t, set.Executors()[0])
}

func TestExecutorSet_Run_SchemaPassesRuleFails(t *testing.T) {
	schema := mkExecutor(t, "schema.yaml", Passed())
	rules := mkExecutor(t, "rules.yaml", WithFindings([]Finding{errorFinding("BR-01 violated")}))
	set, err := NewSetBuilder[*fakeDoc](invoiceID).Add(schema, rules).Build()
	require.NoError(t, err)

	result, err := set.Run(context.Background(), &fakeDoc{id: "doc.xml"})

	require.NoError(t, err)
	require.Equal(t, 2, result.Len())
	layers := result.Layers()
	require.Equal(t, LayerPassed, layers[0].Result.Status())
	require.Equal(t, LayerFindings, layers[1].Result.Status())
	require.Len(t, layers[1].Result.Findings(), 1)
	require.Equal(t, SeverityError, layers[1].Result.Findings()[0].Severity)
	require.Equal(t, OutcomeError, result.Outcome())
	require.Equal(t, "doc.xml", result.SystemID())
	require.Equal(t, invoiceID, result.SetID())
}

func TestExecutorSet_Run_NoShortCircuit(t *testing.T) {
	schema := mkExecutor(t, "schema.yaml", WithFindings([]Finding{errorFinding("not an Invoice")}))
	rules := mkExecutor(t, "rules.yaml", WithFindings([]Finding{
		{Severity: SeverityWarning, Message: "PEPPOL-W01"},
	}))
	set, err := NewSetBuilder[*fakeDoc](invoiceID).Add(schema, rules).Build()
	require.NoError(t, err)

	result, err := set.Run(context.Background(), &fakeDoc{id: "doc.xml"})

	require.NoError(t, err)
	require.EqualValues(t, 1, schema.calls.Load())
	require.EqualValues(t, 1, rules.calls.Load())
	layers := result.Layers()
	require.Equal(t, LayerFindings, layers[0].Result.Status())
	require.Equal(t, LayerFindings, layers[1].Result.Status())
	require.Equal(t, SeverityWarning, layers[1].Result.WorstSeverity())
	require.Equal(t, OutcomeError, result.Outcome())
}

func TestExecutorSet_Run_PreservesOrderForAnyN(t *testing.T) {
	for _, n := range []int{0, 1, 2, 7} {
		b := NewSetBuilder[*fakeDoc](invoiceID)
		var artifacts []*Artifact
		for i := 0; i < n; i++ {
			e := mkExecutor(t, "rules.yaml", Passed())
			artifacts = append(artifacts, e.Artifact())
			b.Add(e)
		}
		set, err := b.Build()
		require.NoError(t, err)

		result, err := set.Run(context.Background(), &fakeDoc{id: "doc.xml"})

		require.NoError(t, err)
		require.Equal(t, n, result.Len())
		for i, l := range result.Layers() {
			require.Same(t, artifacts[i], l.Artifact)
		}
	}
}

func TestExecutorSet_Run_NilDocument(t *testing.T) {
	set := mkSet(t, invoiceID, 1)
	_, err := set.Run(context.Background(), nil)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestExecutorSet_Run_CancelledDiscardsPartialResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	first := mkExecutor(t, "schema.yaml", Passed())
	first.onApply = cancel
	second := mkExecutor(t, "rules.yaml", Passed())
	set, err := NewSetBuilder[*fakeDoc](invoiceID).Add(first, second).Build()
	require.NoError(t, err)

	result, err := set.Run(ctx, &fakeDoc{id: "doc.xml"})

	require.ErrorIs(t, err, context.Canceled)
	require.Nil(t, result)
	require.EqualValues(t, 0, second.calls.Load())
}

func TestExecutorSet_Derive(t *testing.T) {
	base := mkSet(t, MustVESID("peppol", "base", "1.0"), 2)
	extra := mkExecutor(t, "at-nat.yaml", Passed())

	derived, err := base.Derive(MustVESID("peppol", "invoice-at", "1.0")).
		Name("Invoice AT").
		Add(extra).
		Build()

	require.NoError(t, err)
	require.Equal(t, 3, derived.Len())
	require.Same(t, extra.Artifact(), derived.Artifacts()[2])
	require.Equal(t, "Invoice AT", derived.Name())
	require.False(t, derived.Deprecated())
	require.Equal(t, 2, base.Len())
}
