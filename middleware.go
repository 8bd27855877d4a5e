package resulty

import (
	"context"
	"log/slog"
	"time"
)

// Middleware wraps the Engine boundary with cross-cutting behavior
// (logging, recovery).
type Middleware func(Engine) Engine

// WithLogging returns a middleware that logs invocation start, end,
// duration, partial counts, and errors.
func WithLogging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Engine) Engine {
		return &loggingEngine{next: next, logger: logger}
	}
}

// WithRecovery returns a middleware that recovers engine panics and returns
// them as EngineError.
func WithRecovery() Middleware {
	return func(next Engine) Engine {
		return &recoveryEngine{next: next}
	}
}

type loggingEngine struct {
	next   Engine
	logger *slog.Logger
}

func (m *loggingEngine) Call(ctx context.Context, req Request) (RawValue, error) {
	m.logger.Info("call start", "function", req.Function, "client", req.Client)
	start := time.Now()
	raw, err := m.next.Call(ctx, req)
	dur := time.Since(start)
	if err != nil {
		m.logger.Error("call error", "function", req.Function, "duration", dur, "error", err)
		return RawValue{}, err
	}
	m.logger.Info("call end", "function", req.Function, "duration", dur)
	return raw, nil
}

func (m *loggingEngine) Stream(ctx context.Context, req Request, yield func(RawValue) error) (RawValue, error) {
	m.logger.Info("stream start", "function", req.Function, "client", req.Client)
	start := time.Now()
	var partials int
	final, err := m.next.Stream(ctx, req, func(raw RawValue) error {
		partials++
		return yield(raw)
	})
	dur := time.Since(start)
	if err != nil {
		m.logger.Error("stream error", "function", req.Function, "duration", dur, "partials", partials, "error", err)
		return RawValue{}, err
	}
	m.logger.Info("stream end", "function", req.Function, "duration", dur, "partials", partials)
	return final, nil
}

type recoveryEngine struct {
	next Engine
}

func (r *recoveryEngine) Call(ctx context.Context, req Request) (raw RawValue, err error) {
	defer func() {
		if p := recover(); p != nil {
			raw = RawValue{}
			err = &EngineError{Err: &panicError{p: p}}
		}
	}()
	return r.next.Call(ctx, req)
}

func (r *recoveryEngine) Stream(ctx context.Context, req Request, yield func(RawValue) error) (raw RawValue, err error) {
	defer func() {
		if p := recover(); p != nil {
			raw = RawValue{}
			err = &EngineError{Err: &panicError{p: p}}
		}
	}()
	return r.next.Stream(ctx, req, yield)
}

// Use stores the given middlewares and reapplies them to the engine from
// scratch (onion order: first middleware is outermost). Calling Use multiple
// times replaces the chain and rewraps from the raw engine, avoiding
// double-wrapping.
func (r *Runtime) Use(middlewares ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.rawEngine
	for i := len(middlewares) - 1; i >= 0; i-- {
		e = middlewares[i](e)
	}
	r.engine = e
}
