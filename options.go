package resulty

import (
	"context"
	"time"
)

// classOptions hold optional class declaration settings.
type classOptions struct {
	dynamic bool
}

// ClassOption configures a class declaration (e.g. AsDynamic).
type ClassOption func(*classOptions)

// AsDynamic marks the class as dynamic: its field set may be extended at
// runtime, undeclared keys are carried into the decoded DynamicRecord, and
// missing declared fields never fail. Only an explicit AsDynamic makes a
// class dynamic.
func AsDynamic() ClassOption {
	return func(o *classOptions) {
		o.dynamic = true
	}
}

// fieldOptions hold optional field declaration settings.
type fieldOptions struct {
	description string
}

// FieldOption configures a field declaration.
type FieldOption func(*fieldOptions)

// WithFieldDescription attaches a description to the field, surfaced in the
// JSON Schema projection sent to providers.
func WithFieldDescription(desc string) FieldOption {
	return func(o *fieldOptions) {
		o.description = desc
	}
}

// valueOptions hold optional enum value declaration settings.
type valueOptions struct {
	description string
}

// ValueOption configures an enum value declaration.
type ValueOption func(*valueOptions)

// WithValueDescription attaches a description to the enum value.
func WithValueDescription(desc string) ValueOption {
	return func(o *valueOptions) {
		o.description = desc
	}
}

// callOptions hold per-call settings.
type callOptions struct {
	collectors []*Collector
	client     string
	overlay    Schema
	hasOverlay bool
}

// CallOption configures one Call, Stream, or SyncStream invocation.
type CallOption func(*callOptions)

// WithCollectors attaches usage collectors to the call. They are passed to
// the engine alongside any runtime-level default collectors; each attached
// collector receives the same event stream independently.
func WithCollectors(cs ...*Collector) CallOption {
	return func(o *callOptions) {
		o.collectors = append(o.collectors, cs...)
	}
}

// WithClient overrides the engine client (provider profile) for this call.
func WithClient(name string) CallOption {
	return func(o *callOptions) {
		o.client = name
	}
}

// WithOverlay merges a runtime-built schema overlay (Builder.Finalize output)
// over the function's static schema for this call. The overlay wins on name
// collision.
func WithOverlay(s Schema) CallOption {
	return func(o *callOptions) {
		o.overlay = s
		o.hasOverlay = true
	}
}

// CallSummary is passed to the after-call hook when an invocation finishes.
// Partials counts delivered partial events (zero for unary calls); SessionID
// is empty for unary calls.
type CallSummary struct {
	Function  string
	SessionID string
	Partials  int
	Error     error
}

// runtimeOptions hold Runtime-wide settings.
type runtimeOptions struct {
	recoverPanics     bool
	defaultCollectors []*Collector
	onBefore          func(context.Context, Request)
	onAfter           func(context.Context, CallSummary, time.Duration)
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*runtimeOptions)

// WithRecoverPanics enables panic recovery around engine execution and
// handler delivery (panics surface as EngineError).
func WithRecoverPanics(enable bool) RuntimeOption {
	return func(o *runtimeOptions) {
		o.recoverPanics = enable
	}
}

// WithDefaultCollectors attaches collectors to every call made through the
// runtime, in addition to any per-call collectors.
func WithDefaultCollectors(cs ...*Collector) RuntimeOption {
	return func(o *runtimeOptions) {
		o.defaultCollectors = cs
	}
}

// WithOnBeforeCall sets a hook called before each invocation is handed to
// the engine.
func WithOnBeforeCall(fn func(context.Context, Request)) RuntimeOption {
	return func(o *runtimeOptions) {
		o.onBefore = fn
	}
}

// WithOnAfterCall sets a hook called after each invocation terminates
// (success or error).
func WithOnAfterCall(fn func(context.Context, CallSummary, time.Duration)) RuntimeOption {
	return func(o *runtimeOptions) {
		o.onAfter = fn
	}
}
