// Package resulty materializes schema-typed results of externally executed,
// LLM-backed functions into host-native Go values.
//
// # Overview
//
// An execution engine (prompt rendering, provider calls) produces raw,
// dynamically-typed value trees: one terminal value for unary calls, or a
// sequence of incomplete partial values followed by one terminal value for
// streaming calls. This package turns those trees into validated host values.
// Declare a schema, statically or at call time via Builder; the engine yields
// RawValue trees; Decode and DecodePartial check them against the schema; a
// Session delivers typed partials and exactly one terminal event to the
// caller.
//
// # Key concepts
//
//   - Closed vs dynamic classes: a closed class fails on a missing field and
//     ignores undeclared keys; a dynamic class never fails on shape and
//     carries undeclared keys into its DynamicRecord entries.
//   - Checked values: a raw value tagged with its resolved type name decodes
//     to exactly that union variant, regardless of declaration order.
//   - Partial decoding: mid-stream values mark not-yet-materialized fields as
//     Unset instead of failing; only structural mismatches abort a stream.
//
// See Schema, Type, RawValue, HostValue for the data model, Builder for
// runtime schema construction, and Runtime / Engine for execution wiring.
//
// # Example
//
//	schema, err := resulty.NewSchema([]resulty.ClassDef{{
//	    Name: "Resume",
//	    Fields: []resulty.FieldDef{
//	        {Name: "name", Type: resulty.String()},
//	        {Name: "job_title", Type: resulty.String()},
//	    },
//	}}, nil)
//	if err != nil { ... }
//	fn, err := resulty.NewFunction("ExtractResume", "Extract a resume",
//	    []resulty.FieldDef{{Name: "text", Type: resulty.String()}},
//	    resulty.ClassRef("Resume"), schema)
//	if err != nil { ... }
//	rt := resulty.NewRuntime(engine)
//	rt.Register(fn)
//	out, err := rt.Call(ctx, "ExtractResume", map[string]resulty.HostValue{
//	    "text": resulty.HostString("..."),
//	})
package resulty
