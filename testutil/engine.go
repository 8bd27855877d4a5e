// Package testutil provides test helpers for resulty (e.g. MockEngine).
package testutil

import (
	"context"

	"github.com/skosovsky/resulty"
)

// MockEngine is a configurable Engine implementation for tests.
type MockEngine struct {
	CallFn   func(ctx context.Context, req resulty.Request) (resulty.RawValue, error)
	StreamFn func(ctx context.Context, req resulty.Request, yield func(resulty.RawValue) error) (resulty.RawValue, error)
}

// Call runs CallFn if set, otherwise returns a raw null.
func (m *MockEngine) Call(ctx context.Context, req resulty.Request) (resulty.RawValue, error) {
	if m.CallFn != nil {
		return m.CallFn(ctx, req)
	}
	return resulty.RawNull(), nil
}

// Stream runs StreamFn if set, otherwise returns a raw null without yielding.
func (m *MockEngine) Stream(ctx context.Context, req resulty.Request, yield func(resulty.RawValue) error) (resulty.RawValue, error) {
	if m.StreamFn != nil {
		return m.StreamFn(ctx, req, yield)
	}
	return resulty.RawNull(), nil
}

// ScriptedEngine returns a MockEngine that replays a fixed sequence: each
// partial is yielded in order, then terminal (or err when non-nil) ends the
// call. When usage is non-nil it is recorded to every collector on the
// request before returning. Call replays only the terminal step.
func ScriptedEngine(partials []resulty.RawValue, terminal resulty.RawValue, err error, usage *resulty.UsageEvent) *MockEngine {
	record := func(req resulty.Request) {
		if usage == nil {
			return
		}
		ev := *usage
		ev.Function = req.Function
		for _, c := range req.Collectors {
			c.Record(ev)
		}
	}
	return &MockEngine{
		CallFn: func(_ context.Context, req resulty.Request) (resulty.RawValue, error) {
			record(req)
			if err != nil {
				return resulty.RawValue{}, err
			}
			return terminal, nil
		},
		StreamFn: func(_ context.Context, req resulty.Request, yield func(resulty.RawValue) error) (resulty.RawValue, error) {
			for _, p := range partials {
				if yerr := yield(p); yerr != nil {
					return resulty.RawValue{}, yerr
				}
			}
			record(req)
			if err != nil {
				return resulty.RawValue{}, err
			}
			return terminal, nil
		},
	}
}

// Ensure MockEngine implements Engine.
var _ resulty.Engine = (*MockEngine)(nil)
