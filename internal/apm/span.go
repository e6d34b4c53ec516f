package apm

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span is the subset of trace.Span the application uses, plus NoticeError
// which records the error and marks the span failed in one call.
type Span interface {
	SetAttributes(values ...attribute.KeyValue)
	AddEvent(name string, options ...trace.EventOption)
	RecordError(err error, options ...trace.EventOption)
	NoticeError(err error)
	SetStatus(code codes.Code, description string)
	SetName(name string)
	SpanContext() trace.SpanContext
	IsRecording() bool
	End(options ...trace.SpanEndOption)
}

type span struct {
	otel trace.Span
}

func wrapSpan(s trace.Span) Span {
	return &span{otel: s}
}

func (s *span) SetAttributes(values ...attribute.KeyValue) {
	s.otel.SetAttributes(values...)
}

func (s *span) AddEvent(name string, options ...trace.EventOption) {
	s.otel.AddEvent(name, options...)
}

func (s *span) RecordError(err error, options ...trace.EventOption) {
	s.otel.RecordError(err, options...)
}

func (s *span) NoticeError(err error) {
	if err == nil {
		return
	}
	s.otel.RecordError(err)
	s.otel.SetStatus(codes.Error, err.Error())
}

func (s *span) SetStatus(code codes.Code, description string) {
	s.otel.SetStatus(code, description)
}

func (s *span) SetName(name string) {
	s.otel.SetName(name)
}

func (s *span) SpanContext() trace.SpanContext {
	return s.otel.SpanContext()
}

func (s *span) IsRecording() bool {
	return s.otel.IsRecording()
}

func (s *span) End(options ...trace.SpanEndOption) {
	s.otel.End(options...)
}
