package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/docval/internal/domain/validation"
)

// Span attribute keys.
const (
	AttrRunID         = "validation.run.id"
	AttrSetID         = "validation.set.id"
	AttrSystemID      = "validation.document.system_id"
	AttrOutcome       = "validation.outcome"
	AttrLayerType     = "validation.layer.type"
	AttrLayerLocation = "validation.layer.location"
	AttrLayerStatus   = "validation.layer.status"
	AttrIgnoreReason  = "validation.layer.ignore_reason"
	AttrFindingCount  = "validation.finding.count"
	AttrErrorCount    = "validation.finding.errors"
)

// Span names.
const (
	SpanValidate = "validate"
	SpanLayer    = "layer."
)

// Event names.
const (
	EventPrerequisiteFalse = "prerequisite.false"
	EventEngineFailed      = "engine.failed"
)

type tracerKey struct{}

// ContextWithTracer attaches tracer so executors deeper in the call can open child spans.
func ContextWithTracer(ctx context.Context, tracer trace.Tracer) context.Context {
	if tracer == nil {
		return ctx
	}
	return context.WithValue(ctx, tracerKey{}, tracer)
}

// TracerFromContext returns the attached tracer or a no-op tracer.
func TracerFromContext(ctx context.Context) trace.Tracer {
	if t, ok := ctx.Value(tracerKey{}).(trace.Tracer); ok {
		return t
	}
	return noop.NewTracerProvider().Tracer("noop")
}

// StartRun opens the span covering one executor set run.
func StartRun(ctx context.Context, tracer trace.Tracer, runID string, setID validation.VESID, systemID string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, SpanValidate, trace.WithSpanKind(trace.SpanKindInternal))
	span.SetAttributes(
		attribute.String(AttrRunID, runID),
		attribute.String(AttrSetID, setID.String()),
		attribute.String(AttrSystemID, systemID),
	)
	return ContextWithTracer(ctx, tracer), span
}

// EndRun records the outcome (or err) and ends span.
func EndRun(span trace.Span, result *validation.Result, err error) {
	defer span.End()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetAttributes(
		attribute.String(AttrOutcome, result.Outcome().String()),
		attribute.Int(AttrFindingCount, len(result.Findings())),
		attribute.Int(AttrErrorCount, result.Count(validation.SeverityError)),
	)
	span.SetStatus(codes.Ok, "")
}

// StartLayer opens a child span for one executor.
func StartLayer(ctx context.Context, a *validation.Artifact) (context.Context, trace.Span) {
	ctx, span := TracerFromContext(ctx).Start(ctx, SpanLayer+a.Type().String())
	span.SetAttributes(
		attribute.String(AttrLayerType, a.Type().String()),
		attribute.String(AttrLayerLocation, a.Location()),
	)
	return ctx, span
}

// EndLayer records the layer result and ends span.
func EndLayer(span trace.Span, r validation.LayerResult) {
	defer span.End()
	span.SetAttributes(
		attribute.String(AttrLayerStatus, r.Status().String()),
		attribute.Int(AttrFindingCount, len(r.Findings())),
	)
	if r.IsIgnored() {
		span.SetAttributes(attribute.String(AttrIgnoreReason, string(r.Reason())))
	}
}
