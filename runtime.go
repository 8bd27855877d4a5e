package resulty

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Runtime holds function declarations and executes them against an engine.
// Register and the execution methods are safe for concurrent use; each
// invocation owns its own merged schema and session state, so concurrent
// calls share nothing mutable except deliberately shared collectors.
type Runtime struct {
	rawEngine Engine // unwrapped, used by Use to re-apply middlewares from scratch
	engine    Engine // wrapped with middlewares, used by all execution paths
	opts      runtimeOptions
	done      chan struct{}
	running   sync.WaitGroup
	mu        sync.Mutex
	funcs     map[string]*Function
}

// NewRuntime creates a Runtime executing against the given engine.
func NewRuntime(engine Engine, opts ...RuntimeOption) *Runtime {
	o := runtimeOptions{recoverPanics: true}
	for _, opt := range opts {
		opt(&o)
	}
	return &Runtime{
		rawEngine: engine,
		engine:    engine,
		opts:      o,
		done:      make(chan struct{}),
		funcs:     make(map[string]*Function),
	}
}

// Register adds a function declaration. A function with the same name is
// replaced. Safe for concurrent use with the execution methods.
func (r *Runtime) Register(f *Function) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[f.Name()] = f
}

// Function returns the registered function with the given name.
func (r *Runtime) Function(name string) (*Function, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.funcs[name]
	return f, ok
}

// Call executes one unary invocation: encode args, run the engine, decode
// the terminal raw value against the function's return type.
func (r *Runtime) Call(ctx context.Context, name string, args map[string]HostValue, opts ...CallOption) (HostValue, error) {
	f, req, err := r.begin(name, args, opts)
	if err != nil {
		return HostValue{}, err
	}
	defer r.running.Done()

	start := time.Now()
	var out HostValue
	var callErr error
	if r.opts.onBefore != nil {
		r.opts.onBefore(ctx, req)
	}
	eng := r.currentEngine()
	callErr = r.protect(func() error {
		raw, err := eng.Call(ctx, req)
		if err != nil {
			return &EngineError{Err: err}
		}
		out, err = Decode(raw, f.returns, req.Schema)
		return err
	})
	if r.opts.onAfter != nil {
		r.opts.onAfter(ctx, CallSummary{Function: name, Error: callErr}, time.Since(start))
	}
	if callErr != nil {
		return HostValue{}, callErr
	}
	return out, nil
}

// Stream executes one streaming invocation in push mode: handler receives
// zero or more Partial events followed by exactly one Done or Error event,
// all from the goroutine driving the engine. The returned session is the
// pull side of the same machine: Wait blocks until the terminal event, and
// Detach stops delivery.
func (r *Runtime) Stream(ctx context.Context, name string, args map[string]HostValue, handler Handler, opts ...CallOption) (*Session, error) {
	f, req, err := r.begin(name, args, opts)
	if err != nil {
		return nil, err
	}
	sess := newSession(f.returns, req.Schema, handler)
	if r.opts.onBefore != nil {
		r.opts.onBefore(ctx, req)
	}
	start := time.Now()
	go func() {
		defer r.running.Done()
		r.drive(ctx, req, sess)
		if r.opts.onAfter != nil {
			r.opts.onAfter(ctx, CallSummary{
				Function:  name,
				SessionID: sess.ID(),
				Partials:  sess.Partials(),
				Error:     sess.terminalError(),
			}, time.Since(start))
		}
	}()
	return sess, nil
}

// SyncStream executes one streaming invocation in pull mode: the engine is
// driven on the calling goroutine, partial events are routed through handler
// as they arrive, and the call blocks until the terminal value or error.
func (r *Runtime) SyncStream(ctx context.Context, name string, args map[string]HostValue, handler Handler, opts ...CallOption) (HostValue, error) {
	f, req, err := r.begin(name, args, opts)
	if err != nil {
		return HostValue{}, err
	}
	defer r.running.Done()

	sess := newSession(f.returns, req.Schema, handler)
	if r.opts.onBefore != nil {
		r.opts.onBefore(ctx, req)
	}
	start := time.Now()
	r.drive(ctx, req, sess)
	if r.opts.onAfter != nil {
		r.opts.onAfter(ctx, CallSummary{
			Function:  name,
			SessionID: sess.ID(),
			Partials:  sess.Partials(),
			Error:     sess.terminalError(),
		}, time.Since(start))
	}
	return sess.Wait(ctx)
}

// currentEngine returns the engine with the middleware chain applied.
func (r *Runtime) currentEngine() Engine {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine
}

// drive feeds one engine stream into the session until the terminal event.
func (r *Runtime) drive(ctx context.Context, req Request, sess *Session) {
	eng := r.currentEngine()
	err := r.protect(func() error {
		final, err := eng.Stream(ctx, req, sess.partial)
		if err != nil {
			return err
		}
		sess.finish(final)
		return nil
	})
	if err == nil {
		return
	}
	if IsDecodeError(err) || errors.Is(err, ErrSessionClosed) {
		// Came out of our own yield; the session already recorded it.
		sess.fail(err)
		return
	}
	if IsEngineError(err) {
		sess.fail(err)
		return
	}
	sess.fail(&EngineError{Err: err})
}

// protect runs fn with panic recovery when enabled.
func (r *Runtime) protect(fn func() error) (err error) {
	if r.opts.recoverPanics {
		defer func() {
			if p := recover(); p != nil {
				err = &EngineError{Err: &panicError{p: p}}
			}
		}()
	}
	return fn()
}

// begin gates on shutdown, resolves the function, and builds the request.
// On success the caller owes one r.running.Done().
func (r *Runtime) begin(name string, args map[string]HostValue, opts []CallOption) (*Function, Request, error) {
	var co callOptions
	for _, opt := range opts {
		opt(&co)
	}
	r.mu.Lock()
	select {
	case <-r.done:
		r.mu.Unlock()
		return nil, Request{}, ErrShutdown
	default:
	}
	f, ok := r.funcs[name]
	if !ok {
		r.mu.Unlock()
		return nil, Request{}, ErrFunctionNotFound
	}
	r.running.Add(1)
	r.mu.Unlock()

	merged := f.schema
	if co.hasOverlay {
		merged = f.schema.Merge(co.overlay)
	}
	rawArgs, err := encodeArgs(f, args, merged)
	if err != nil {
		r.running.Done()
		return nil, Request{}, err
	}
	collectors := append(append([]*Collector(nil), r.opts.defaultCollectors...), co.collectors...)
	return f, Request{
		Function:   name,
		Args:       rawArgs,
		Schema:     merged,
		Returns:    f.returns,
		Collectors: collectors,
		Client:     co.client,
	}, nil
}

// encodeArgs turns the host-native argument bundle into raw form, the mirror
// of result decoding. Optional parameters may be omitted; anything else must
// be present, and unknown argument names are rejected.
func encodeArgs(f *Function, args map[string]HostValue, schema Schema) (map[string]RawValue, error) {
	out := make(map[string]RawValue, len(args))
	for _, p := range f.params {
		v, ok := args[p.Name]
		if !ok {
			if p.Type.Kind == TypeKindOptional {
				continue
			}
			return nil, &DecodeError{Path: "/" + p.Name, Err: ErrMissingField,
				Reason: fmt.Sprintf("argument %q of function %s", p.Name, f.name)}
		}
		e := &encoder{decoder{schema: schema, path: []string{p.Name}}}
		rv, err := e.encode(v, p.Type)
		if err != nil {
			return nil, err
		}
		out[p.Name] = rv
	}
	for name := range args {
		if _, ok := paramNamed(f.params, name); !ok {
			return nil, &DecodeError{Path: "/" + name, Err: ErrTypeMismatch,
				Reason: fmt.Sprintf("function %s has no parameter %q", f.name, name)}
		}
	}
	return out, nil
}

func paramNamed(params []FieldDef, name string) (FieldDef, bool) {
	for _, p := range params {
		if p.Name == name {
			return p, true
		}
	}
	return FieldDef{}, false
}

// Shutdown closes the runtime for new calls and waits for in-flight
// invocations (including stream driver goroutines) or ctx to cancel.
func (r *Runtime) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	select {
	case <-r.done:
	default:
		close(r.done)
	}
	r.mu.Unlock()
	finished := make(chan struct{})
	go func() {
		r.running.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// panicError wraps a recovered panic value; used by Runtime and WithRecovery.
type panicError struct{ p any }

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.p)
}
