package validation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func layer(t *testing.T, r LayerResult) LayerEntry {
	t.Helper()
	return LayerEntry{Artifact: mkArtifact(t, TypeSchema, "schema.yaml"), Result: r}
}

func TestResult_Outcome(t *testing.T) {
	warning := Finding{Severity: SeverityWarning, Message: "W"}
	info := Finding{Severity: SeverityInfo, Message: "I"}
	ignored := Ignored(ReasonPreconditionNotMet, "")

	tests := []struct {
		name   string
		layers []LayerResult
		want   Outcome
	}{
		{name: "no layers", layers: nil, want: OutcomeNotApplied},
		{name: "all ignored", layers: []LayerResult{ignored, ignored}, want: OutcomeNotApplied},
		{name: "all passed", layers: []LayerResult{Passed(), Passed()}, want: OutcomePassed},
		{name: "ignored and passed", layers: []LayerResult{ignored, Passed()}, want: OutcomePassed},
		{name: "info only", layers: []LayerResult{WithFindings([]Finding{info})}, want: OutcomeInfo},
		{name: "warning beats info", layers: []LayerResult{WithFindings([]Finding{info}), WithFindings([]Finding{warning})}, want: OutcomeWarning},
		{name: "error beats warning", layers: []LayerResult{WithFindings([]Finding{warning, errorFinding("E")}), Passed()}, want: OutcomeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := make([]LayerEntry, 0, len(tt.layers))
			for _, l := range tt.layers {
				entries = append(entries, layer(t, l))
			}
			result := NewResult(invoiceID, "doc.xml", entries)
			require.Equal(t, tt.want, result.Outcome())
			require.Equal(t, tt.want != OutcomeError, result.IsValid())
		})
	}
}

func TestResult_IgnoredLayerDoesNotAffectOutcome(t *testing.T) {
	result := NewResult(invoiceID, "doc.xml", []LayerEntry{
		layer(t, Passed()),
		layer(t, Ignored(ReasonPreconditionNotMet, "root is CreditNote")),
	})

	require.Equal(t, OutcomePassed, result.Outcome())
	require.Equal(t, 1, result.IgnoredCount())
}

func TestResult_Counts(t *testing.T) {
	result := NewResult(invoiceID, "doc.xml", []LayerEntry{
		layer(t, WithFindings([]Finding{errorFinding("E1"), {Severity: SeverityWarning, Message: "W1"}})),
		layer(t, WithFindings([]Finding{errorFinding("E2")})),
	})

	require.Equal(t, 2, result.Count(SeverityError))
	require.Equal(t, 1, result.Count(SeverityWarning))
	require.Equal(t, 0, result.Count(SeverityInfo))
	require.Len(t, result.Findings(), 3)
	require.Equal(t, "E1", result.Findings()[0].Message)
	require.Equal(t, "E2", result.FindingsOfSeverity(SeverityError)[1].Message)
}

func TestResult_LayersIsCopy(t *testing.T) {
	result := NewResult(invoiceID, "doc.xml", []LayerEntry{layer(t, Passed())})

	layers := result.Layers()
	layers[0].Result = WithFindings([]Finding{errorFinding("tampered")})

	require.Equal(t, OutcomePassed, result.Outcome())
}

func TestWithFindings_EmptyIsPassed(t *testing.T) {
	require.Equal(t, LayerPassed, WithFindings(nil).Status())
	require.Equal(t, LayerPassed, WithFindings([]Finding{}).Status())
}

func TestIgnored(t *testing.T) {
	r := Ignored(ReasonEvaluationError, "XPath syntax error")

	require.True(t, r.IsIgnored())
	require.Equal(t, ReasonEvaluationError, r.Reason())
	require.Equal(t, "XPath syntax error", r.Detail())
	require.Empty(t, r.Findings())
	require.Equal(t, "ignored", r.Status().String())
}

func TestLocation_String(t *testing.T) {
	require.Equal(t, "doc.xml", Location{SystemID: "doc.xml"}.String())
	require.Equal(t, "doc.xml#/Invoice/ID", Location{SystemID: "doc.xml", Path: "/Invoice/ID"}.String())
}

func TestResult_RunID(t *testing.T) {
	result := NewResult(invoiceID, "doc.xml", nil).WithRunID("run-1")
	require.Equal(t, "run-1", result.RunID())
}
