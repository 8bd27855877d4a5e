package resulty

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine scripts one engine behavior for runtime tests.
type fakeEngine struct {
	callFn   func(ctx context.Context, req Request) (RawValue, error)
	streamFn func(ctx context.Context, req Request, yield func(RawValue) error) (RawValue, error)
}

func (f *fakeEngine) Call(ctx context.Context, req Request) (RawValue, error) {
	return f.callFn(ctx, req)
}

func (f *fakeEngine) Stream(ctx context.Context, req Request, yield func(RawValue) error) (RawValue, error) {
	return f.streamFn(ctx, req, yield)
}

func extractRuntime(t *testing.T, eng Engine, opts ...RuntimeOption) *Runtime {
	t.Helper()
	schema := resumeSchema(t)
	fn, err := NewFunction("ExtractResume", "pulls a resume out of raw text",
		[]FieldDef{{Name: "text", Type: String()}}, ClassRef("Resume"), schema)
	require.NoError(t, err)

	rt := NewRuntime(eng, opts...)
	rt.Register(fn)
	return rt
}

func textArgs(s string) map[string]HostValue {
	return map[string]HostValue{"text": HostString(s)}
}

func TestRuntime_Call(t *testing.T) {
	eng := &fakeEngine{
		callFn: func(_ context.Context, req Request) (RawValue, error) {
			require.Equal(t, "ExtractResume", req.Function)
			require.Equal(t, RawString("cv text"), req.Args["text"])
			return resumeRaw("John", "Engineer", "Acme"), nil
		},
	}
	rt := extractRuntime(t, eng)

	hv, err := rt.Call(context.Background(), "ExtractResume", textArgs("cv text"))
	require.NoError(t, err)
	assert.Equal(t, HostString("John"), hv.Fields["name"])
}

func TestRuntime_CallUnknownFunction(t *testing.T) {
	rt := extractRuntime(t, &fakeEngine{})

	_, err := rt.Call(context.Background(), "Nope", nil)
	require.ErrorIs(t, err, ErrFunctionNotFound)
}

func TestRuntime_CallMissingArgument(t *testing.T) {
	rt := extractRuntime(t, &fakeEngine{})

	_, err := rt.Call(context.Background(), "ExtractResume", nil)
	require.ErrorIs(t, err, ErrMissingField)

	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "/text", de.Path)
}

func TestRuntime_CallUnknownArgument(t *testing.T) {
	rt := extractRuntime(t, &fakeEngine{})

	args := textArgs("x")
	args["bogus"] = HostInt(1)
	_, err := rt.Call(context.Background(), "ExtractResume", args)
	require.ErrorIs(t, err, ErrTypeMismatch)
}

func TestRuntime_CallEngineFailure(t *testing.T) {
	boom := errors.New("upstream 503")
	eng := &fakeEngine{
		callFn: func(context.Context, Request) (RawValue, error) {
			return RawValue{}, boom
		},
	}
	rt := extractRuntime(t, eng)

	_, err := rt.Call(context.Background(), "ExtractResume", textArgs("x"))
	require.Error(t, err)
	assert.True(t, IsEngineError(err))
	require.ErrorIs(t, err, boom)
}

func TestRuntime_CallDecodeFailure(t *testing.T) {
	eng := &fakeEngine{
		callFn: func(context.Context, Request) (RawValue, error) {
			return RawMap(map[string]RawValue{"name": RawString("only")}), nil
		},
	}
	rt := extractRuntime(t, eng)

	_, err := rt.Call(context.Background(), "ExtractResume", textArgs("x"))
	require.ErrorIs(t, err, ErrMissingField)
	assert.True(t, IsDecodeError(err))
}

func TestRuntime_CallRecoversPanic(t *testing.T) {
	eng := &fakeEngine{
		callFn: func(context.Context, Request) (RawValue, error) {
			panic("engine blew up")
		},
	}
	rt := extractRuntime(t, eng)

	_, err := rt.Call(context.Background(), "ExtractResume", textArgs("x"))
	require.Error(t, err)
	assert.True(t, IsEngineError(err))
	assert.Contains(t, err.Error(), "engine blew up")
}

func TestRuntime_SyncStream(t *testing.T) {
	eng := &fakeEngine{
		streamFn: func(_ context.Context, _ Request, yield func(RawValue) error) (RawValue, error) {
			if err := yield(RawMap(map[string]RawValue{"name": RawString("Jo")})); err != nil {
				return RawValue{}, err
			}
			if err := yield(RawMap(map[string]RawValue{
				"name": RawString("John"), "job_title": RawString("Engineer"),
			})); err != nil {
				return RawValue{}, err
			}
			return resumeRaw("John", "Engineer", "Acme"), nil
		},
	}
	rt := extractRuntime(t, eng)

	var events []Event
	hv, err := rt.SyncStream(context.Background(), "ExtractResume", textArgs("x"), func(ev Event) {
		events = append(events, ev)
	})
	require.NoError(t, err)
	assert.Equal(t, HostString("Acme"), hv.Fields["company"])

	require.Len(t, events, 3)
	assert.Equal(t, EventPartial, events[0].Kind)
	assert.Equal(t, EventPartial, events[1].Kind)
	assert.Equal(t, EventDone, events[2].Kind)
}

func TestRuntime_StreamPushMode(t *testing.T) {
	eng := &fakeEngine{
		streamFn: func(_ context.Context, _ Request, yield func(RawValue) error) (RawValue, error) {
			if err := yield(RawMap(map[string]RawValue{"name": RawString("J")})); err != nil {
				return RawValue{}, err
			}
			return resumeRaw("John", "Engineer", "Acme"), nil
		},
	}
	rt := extractRuntime(t, eng)

	done := make(chan []Event, 1)
	var events []Event
	sess, err := rt.Stream(context.Background(), "ExtractResume", textArgs("x"), func(ev Event) {
		events = append(events, ev)
		if ev.Kind != EventPartial {
			done <- events
		}
	})
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID())

	hv, err := sess.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, HostString("John"), hv.Fields["name"])

	got := <-done
	require.Len(t, got, 2)
	assert.Equal(t, EventPartial, got[0].Kind)
	assert.Equal(t, EventDone, got[1].Kind)
	assert.Equal(t, 1, sess.Partials())
}

func TestRuntime_StreamEngineFailure(t *testing.T) {
	eng := &fakeEngine{
		streamFn: func(context.Context, Request, func(RawValue) error) (RawValue, error) {
			return RawValue{}, errors.New("connection reset")
		},
	}
	rt := extractRuntime(t, eng)

	sess, err := rt.Stream(context.Background(), "ExtractResume", textArgs("x"), nil)
	require.NoError(t, err)

	_, err = sess.Wait(context.Background())
	require.Error(t, err)
	assert.True(t, IsEngineError(err))
	assert.Equal(t, SessionFailed, sess.State())
}

func TestRuntime_StreamBadPartialStopsEngine(t *testing.T) {
	var yieldsAfterFailure int32
	eng := &fakeEngine{
		streamFn: func(_ context.Context, _ Request, yield func(RawValue) error) (RawValue, error) {
			if err := yield(RawBool(true)); err != nil {
				return RawValue{}, err
			}
			atomic.AddInt32(&yieldsAfterFailure, 1)
			return resumeRaw("J", "T", "C"), nil
		},
	}
	rt := extractRuntime(t, eng)

	var events []Event
	_, err := rt.SyncStream(context.Background(), "ExtractResume", textArgs("x"), func(ev Event) {
		events = append(events, ev)
	})
	require.Error(t, err)
	assert.True(t, IsDecodeError(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(&yieldsAfterFailure))

	require.Len(t, events, 1)
	assert.Equal(t, EventError, events[0].Kind)
}

func TestRuntime_CallWithOverlay(t *testing.T) {
	schema := resumeSchema(t)
	fn, err := NewFunction("Classify", "", nil, ClassRef("Resume"), schema)
	require.NoError(t, err)

	b := NewBuilder()
	b.Class("Resume").
		AddField("name", String()).
		AddField("github", String())
	overlay, err := b.Finalize(schema)
	require.NoError(t, err)

	eng := &fakeEngine{
		callFn: func(context.Context, Request) (RawValue, error) {
			return RawMap(map[string]RawValue{
				"name":   RawString("John"),
				"github": RawString("jdoe"),
			}), nil
		},
	}
	rt := NewRuntime(eng)
	rt.Register(fn)

	hv, err := rt.Call(context.Background(), "Classify", nil, WithOverlay(overlay))
	require.NoError(t, err)
	assert.Equal(t, HostString("jdoe"), hv.Fields["github"])

	// Without the overlay the base shape still governs.
	_, err = rt.Call(context.Background(), "Classify", nil)
	require.ErrorIs(t, err, ErrMissingField)
}

func TestRuntime_CollectorsReachEngine(t *testing.T) {
	defaultC := NewCollector("default")
	perCall := NewCollector("per-call")
	eng := &fakeEngine{
		callFn: func(_ context.Context, req Request) (RawValue, error) {
			for _, c := range req.Collectors {
				c.Record(UsageEvent{Function: req.Function, InputTokens: 10, OutputTokens: 5})
			}
			return resumeRaw("J", "T", "C"), nil
		},
	}
	rt := extractRuntime(t, eng, WithDefaultCollectors(defaultC))

	_, err := rt.Call(context.Background(), "ExtractResume", textArgs("x"), WithCollectors(perCall))
	require.NoError(t, err)

	assert.Equal(t, int64(1), defaultC.Usage().Calls)
	assert.Equal(t, int64(1), perCall.Usage().Calls)
	assert.Equal(t, int64(10), perCall.Usage().InputTokens)
}

func TestRuntime_Hooks(t *testing.T) {
	var before, after int32
	var summary CallSummary
	eng := &fakeEngine{
		callFn: func(context.Context, Request) (RawValue, error) {
			return resumeRaw("J", "T", "C"), nil
		},
	}
	rt := extractRuntime(t, eng,
		WithOnBeforeCall(func(_ context.Context, req Request) {
			atomic.AddInt32(&before, 1)
		}),
		WithOnAfterCall(func(_ context.Context, s CallSummary, _ time.Duration) {
			atomic.AddInt32(&after, 1)
			summary = s
		}),
	)

	_, err := rt.Call(context.Background(), "ExtractResume", textArgs("x"))
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&before))
	assert.Equal(t, int32(1), atomic.LoadInt32(&after))
	assert.Equal(t, "ExtractResume", summary.Function)
	assert.NoError(t, summary.Error)
}

func TestRuntime_Shutdown(t *testing.T) {
	eng := &fakeEngine{
		callFn: func(context.Context, Request) (RawValue, error) {
			return resumeRaw("J", "T", "C"), nil
		},
	}
	rt := extractRuntime(t, eng)

	require.NoError(t, rt.Shutdown(context.Background()))

	_, err := rt.Call(context.Background(), "ExtractResume", textArgs("x"))
	require.ErrorIs(t, err, ErrShutdown)

	// Idempotent.
	require.NoError(t, rt.Shutdown(context.Background()))
}

func TestRuntime_ShutdownWaitsForStreams(t *testing.T) {
	release := make(chan struct{})
	eng := &fakeEngine{
		streamFn: func(context.Context, Request, func(RawValue) error) (RawValue, error) {
			<-release
			return resumeRaw("J", "T", "C"), nil
		},
	}
	rt := extractRuntime(t, eng)

	sess, err := rt.Stream(context.Background(), "ExtractResume", textArgs("x"), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, rt.Shutdown(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, rt.Shutdown(context.Background()))

	hv, err := sess.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, HostString("J"), hv.Fields["name"])
}
