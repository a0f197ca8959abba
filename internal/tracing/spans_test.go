package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/docval/internal/domain/validation"
)

func setupTestTracer(t *testing.T) (trace.Tracer, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp.Tracer("test"), exporter
}

func attr(s tracetest.SpanStub, key string) (attribute.Value, bool) {
	for _, kv := range s.Attributes {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestRunAndLayerSpans(t *testing.T) {
	tracer, exporter := setupTestTracer(t)
	setID := validation.MustVESID("peppol", "invoice", "1.0")
	artifact, err := validation.NewArtifact(validation.TypeRuleAssertion, "rules/peppol.yaml")
	require.NoError(t, err)

	ctx, run := StartRun(context.Background(), tracer, "run-1", setID, "doc.xml")
	_, layer := StartLayer(ctx, artifact)
	EndLayer(layer, validation.Ignored(validation.ReasonPreconditionNotMet, ""))
	result := validation.NewResult(setID, "doc.xml", []validation.LayerEntry{
		{Artifact: artifact, Result: validation.Ignored(validation.ReasonPreconditionNotMet, "")},
	})
	EndRun(run, result, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	layerSpan, runSpan := spans[0], spans[1]

	require.Equal(t, "layer.rule-assertion", layerSpan.Name)
	require.Equal(t, runSpan.SpanContext.SpanID(), layerSpan.Parent.SpanID())
	v, ok := attr(layerSpan, AttrIgnoreReason)
	require.True(t, ok)
	require.Equal(t, "precondition-not-met", v.AsString())

	require.Equal(t, SpanValidate, runSpan.Name)
	v, ok = attr(runSpan, AttrOutcome)
	require.True(t, ok)
	require.Equal(t, "not-applied", v.AsString())
	v, _ = attr(runSpan, AttrSetID)
	require.Equal(t, "peppol:invoice:1.0", v.AsString())
	require.Equal(t, codes.Ok, runSpan.Status.Code)
}

func TestEndRun_Error(t *testing.T) {
	tracer, exporter := setupTestTracer(t)

	_, run := StartRun(context.Background(), tracer, "run-2", validation.MustVESID("a", "b", "c"), "doc.xml")
	EndRun(run, nil, errors.New("context canceled"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	require.Equal(t, codes.Error, spans[0].Status.Code)
	require.Equal(t, "context canceled", spans[0].Status.Description)
}

func TestTracerFromContext_DefaultsToNoop(t *testing.T) {
	_, span := TracerFromContext(context.Background()).Start(context.Background(), "x")
	require.False(t, span.SpanContext().IsValid())
	span.End()
}
