// Package otel provides span helpers shared by the sync and detection code.
package otel

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys used on spans across the application
const (
	AttrRegion       = attribute.Key("keysync.region")
	AttrDay          = attribute.Key("keysync.day")
	AttrPhase        = attribute.Key("keysync.phase")
	AttrTask         = attribute.Key("keysync.task")
	AttrMissingDays  = attribute.Key("keysync.missing.days")
	AttrMissingHours = attribute.Key("keysync.missing.hours")
	AttrFileCount    = attribute.Key("keysync.file.count")
)

// Span status descriptions. Error text stays in the exception event so that
// key server URLs and connection strings never end up in the status.
const (
	StatusDeadlineExceeded = "deadline exceeded"
	StatusCancelled        = "cancelled"
	StatusFailed           = "operation failed"
)

// StartSpan starts an internal span carrying attrs.
// With a nil tracer it returns the span already in ctx, which is a no-op when tracing is off.
func StartSpan(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// RecordError marks span as failed. A task deadline or a shutdown shows up as
// its own status so it can be told apart from a key server or store failure.
func RecordError(span trace.Span, err error) {
	if err == nil || span == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, statusOf(err))
}

func statusOf(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return StatusDeadlineExceeded
	case errors.Is(err, context.Canceled):
		return StatusCancelled
	default:
		return StatusFailed
	}
}
