package resulty

import (
	"encoding/json"
	"fmt"
	"math"
)

// RawKind enumerates the shapes an engine-produced raw value can take.
type RawKind int

const (
	RawKindNull RawKind = iota
	RawKindBool
	RawKindInt
	RawKindFloat
	RawKindString
	RawKindBytes
	RawKindList
	RawKindMap
	// RawKindChecked wraps another raw value together with the runtime-resolved
	// concrete type name (union member or dynamic class instance).
	RawKindChecked
)

// RawValue is the untyped value tree produced by the execution engine before
// schema validation. Exactly one payload field is meaningful per Kind.
type RawValue struct {
	Kind     RawKind
	Bool     bool
	Int      int64
	Float    float64
	Str      string
	Bytes    []byte
	List     []RawValue
	Map      map[string]RawValue
	TypeName string    // set for RawKindChecked
	Checked  *RawValue // set for RawKindChecked
}

// RawNull returns a raw null.
func RawNull() RawValue { return RawValue{Kind: RawKindNull} }

// RawBool returns a raw boolean.
func RawBool(v bool) RawValue { return RawValue{Kind: RawKindBool, Bool: v} }

// RawInt returns a raw integer.
func RawInt(v int64) RawValue { return RawValue{Kind: RawKindInt, Int: v} }

// RawFloat returns a raw float.
func RawFloat(v float64) RawValue { return RawValue{Kind: RawKindFloat, Float: v} }

// RawString returns a raw string.
func RawString(v string) RawValue { return RawValue{Kind: RawKindString, Str: v} }

// RawBytes returns a raw byte blob.
func RawBytes(v []byte) RawValue { return RawValue{Kind: RawKindBytes, Bytes: v} }

// RawList returns a raw ordered list.
func RawList(items ...RawValue) RawValue { return RawValue{Kind: RawKindList, List: items} }

// RawMap returns a raw string-keyed map.
func RawMap(m map[string]RawValue) RawValue { return RawValue{Kind: RawKindMap, Map: m} }

// RawChecked tags a raw value with its runtime-resolved concrete type name.
func RawChecked(v RawValue, typeName string) RawValue {
	return RawValue{Kind: RawKindChecked, TypeName: typeName, Checked: &v}
}

// RawOf converts a JSON-decoded Go value tree (the output of unmarshaling into
// any) to a RawValue. Whole float64 values stay floats; the decoder applies
// integral narrowing where an integer target requires it.
func RawOf(v any) (RawValue, error) {
	switch t := v.(type) {
	case nil:
		return RawNull(), nil
	case bool:
		return RawBool(t), nil
	case int:
		return RawInt(int64(t)), nil
	case int64:
		return RawInt(t), nil
	case float64:
		return RawFloat(t), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return RawInt(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return RawValue{}, fmt.Errorf("unrepresentable number %q: %w", t.String(), err)
		}
		return RawFloat(f), nil
	case string:
		return RawString(t), nil
	case []byte:
		return RawBytes(t), nil
	case []any:
		items := make([]RawValue, len(t))
		for i, el := range t {
			rv, err := RawOf(el)
			if err != nil {
				return RawValue{}, err
			}
			items[i] = rv
		}
		return RawList(items...), nil
	case map[string]any:
		m := make(map[string]RawValue, len(t))
		for k, el := range t {
			rv, err := RawOf(el)
			if err != nil {
				return RawValue{}, err
			}
			m[k] = rv
		}
		return RawMap(m), nil
	default:
		return RawValue{}, fmt.Errorf("unsupported raw value type %T", v)
	}
}

// ParseRawJSON decodes engine-produced JSON into a RawValue tree.
func ParseRawJSON(data []byte) (RawValue, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return RawValue{}, fmt.Errorf("parse raw json: %w", err)
	}
	return RawOf(v)
}

// HostKind enumerates the shapes of a schema-validated host value.
type HostKind int

const (
	HostKindNull HostKind = iota
	HostKindBool
	HostKindInt
	HostKindFloat
	HostKindString
	HostKindBytes
	HostKindList
	HostKindMap
	// HostKindRecord is an instance of a closed class: a fixed field set named
	// by Class.
	HostKindRecord
	// HostKindDynamicRecord is an instance of a dynamic class: declared fields
	// plus any undeclared entries the engine supplied. Consumers must switch on
	// Class rather than assume a fixed shape.
	HostKindDynamicRecord
	HostKindEnum
	HostKindMedia
	// HostKindUnset marks a field that has not materialized yet. It only
	// appears in values produced by DecodePartial.
	HostKindUnset
)

// HostValue is a schema-validated, host-native value. Exactly one payload
// field is meaningful per Kind; Record, DynamicRecord, and Map share Fields.
type HostValue struct {
	Kind   HostKind
	Bool   bool
	Int    int64
	Float  float64
	Str    string
	Bytes  []byte
	List   []HostValue
	Fields map[string]HostValue
	Class  string // class name for records, enum name for enum values
	Value  string // enum value
	Media  *Media
}

// MediaForm discriminates how a media resource was supplied.
type MediaForm int

const (
	// MediaURL means the resource was supplied as a URL reference.
	MediaURL MediaForm = iota
	// MediaInline means the resource was supplied as base64-encoded bytes with
	// a media type.
	MediaInline
)

// Media is a decoded image or audio resource reference. Form records which of
// the two accepted input shapes was supplied.
type Media struct {
	Form      MediaForm
	URL       string // set for MediaURL
	Data      []byte // set for MediaInline
	MediaType string // set for MediaInline, optional for MediaURL
}

// HostNull returns a host null.
func HostNull() HostValue { return HostValue{Kind: HostKindNull} }

// HostBool returns a host boolean.
func HostBool(v bool) HostValue { return HostValue{Kind: HostKindBool, Bool: v} }

// HostInt returns a host integer.
func HostInt(v int64) HostValue { return HostValue{Kind: HostKindInt, Int: v} }

// HostFloat returns a host float.
func HostFloat(v float64) HostValue { return HostValue{Kind: HostKindFloat, Float: v} }

// HostString returns a host string.
func HostString(v string) HostValue { return HostValue{Kind: HostKindString, Str: v} }

// HostBytes returns a host byte blob.
func HostBytes(v []byte) HostValue { return HostValue{Kind: HostKindBytes, Bytes: v} }

// HostList returns a host list.
func HostList(items ...HostValue) HostValue { return HostValue{Kind: HostKindList, List: items} }

// HostMap returns a host string-keyed map.
func HostMap(m map[string]HostValue) HostValue { return HostValue{Kind: HostKindMap, Fields: m} }

// HostRecord returns a closed-class instance.
func HostRecord(class string, fields map[string]HostValue) HostValue {
	return HostValue{Kind: HostKindRecord, Class: class, Fields: fields}
}

// HostDynamicRecord returns a dynamic-class instance.
func HostDynamicRecord(class string, fields map[string]HostValue) HostValue {
	return HostValue{Kind: HostKindDynamicRecord, Class: class, Fields: fields}
}

// HostEnum returns an enum value.
func HostEnum(enum, value string) HostValue {
	return HostValue{Kind: HostKindEnum, Class: enum, Value: value}
}

// HostMedia returns a media resource reference.
func HostMedia(m Media) HostValue { return HostValue{Kind: HostKindMedia, Media: &m} }

// Unset returns the marker for a field that has not materialized yet.
func Unset() HostValue { return HostValue{Kind: HostKindUnset} }

// IsUnset reports whether v is the Unset marker.
func (v HostValue) IsUnset() bool { return v.Kind == HostKindUnset }

// ContainsUnset reports whether v or any nested value is Unset.
func (v HostValue) ContainsUnset() bool {
	switch v.Kind {
	case HostKindUnset:
		return true
	case HostKindList:
		for _, el := range v.List {
			if el.ContainsUnset() {
				return true
			}
		}
	case HostKindMap, HostKindRecord, HostKindDynamicRecord:
		for _, el := range v.Fields {
			if el.ContainsUnset() {
				return true
			}
		}
	}
	return false
}

// hostOf converts a raw value to an untyped host value. Used for the
// undeclared entries of dynamic records, whose shape is unknown ahead of time.
// Checked wrappers are unwrapped; the tag has no target to resolve against.
func hostOf(raw RawValue) HostValue {
	switch raw.Kind {
	case RawKindNull:
		return HostNull()
	case RawKindBool:
		return HostBool(raw.Bool)
	case RawKindInt:
		return HostInt(raw.Int)
	case RawKindFloat:
		if isIntegral(raw.Float) {
			return HostInt(int64(raw.Float))
		}
		return HostFloat(raw.Float)
	case RawKindString:
		return HostString(raw.Str)
	case RawKindBytes:
		return HostBytes(raw.Bytes)
	case RawKindList:
		items := make([]HostValue, len(raw.List))
		for i, el := range raw.List {
			items[i] = hostOf(el)
		}
		return HostList(items...)
	case RawKindMap:
		m := make(map[string]HostValue, len(raw.Map))
		for k, el := range raw.Map {
			m[k] = hostOf(el)
		}
		return HostMap(m)
	case RawKindChecked:
		return hostOf(*raw.Checked)
	default:
		return HostNull()
	}
}

// isIntegral reports whether f carries no fractional part and fits int64.
// The upper bound is exclusive: MaxInt64 is not exactly representable and
// would round up to 2^63, so an inclusive comparison admits values whose
// int64 conversion wraps.
func isIntegral(f float64) bool {
	return f == math.Trunc(f) && f >= math.MinInt64 && f < 1<<63
}
