package resulty

import (
	"encoding/base64"
	"strconv"
)

// Encode converts a host value back into the raw form the engine consumes,
// mirroring Decode. It is used for argument bundles and for round-trip
// verification. Class and enum values encode with a Checked tag so the
// receiving side never has to fall back to structural union matching.
// Unset values never encode: they mark absence, not data.
func Encode(v HostValue, target Type, schema Schema) (RawValue, error) {
	e := &encoder{decoder{schema: schema}}
	return e.encode(v, target)
}

type encoder struct {
	decoder
}

func (e *encoder) encode(v HostValue, target Type) (RawValue, error) {
	if v.Kind == HostKindUnset {
		return RawValue{}, e.errf(ErrTypeMismatch, "cannot encode unset value")
	}
	switch target.Kind {
	case TypeKindString:
		if v.Kind != HostKindString {
			return RawValue{}, e.encodeMismatch(v, target)
		}
		return RawString(v.Str), nil
	case TypeKindLiteralString:
		if v.Kind != HostKindString || v.Str != target.Literal {
			return RawValue{}, e.encodeMismatch(v, target)
		}
		return RawString(v.Str), nil
	case TypeKindInt:
		if v.Kind != HostKindInt {
			return RawValue{}, e.encodeMismatch(v, target)
		}
		return RawInt(v.Int), nil
	case TypeKindFloat:
		switch v.Kind {
		case HostKindFloat:
			return RawFloat(v.Float), nil
		case HostKindInt:
			return RawFloat(float64(v.Int)), nil
		default:
			return RawValue{}, e.encodeMismatch(v, target)
		}
	case TypeKindBool:
		if v.Kind != HostKindBool {
			return RawValue{}, e.encodeMismatch(v, target)
		}
		return RawBool(v.Bool), nil
	case TypeKindBytes:
		if v.Kind != HostKindBytes {
			return RawValue{}, e.encodeMismatch(v, target)
		}
		return RawBytes(v.Bytes), nil
	case TypeKindOptional:
		if v.Kind == HostKindNull {
			return RawNull(), nil
		}
		return e.encode(v, *target.Inner)
	case TypeKindList:
		return e.encodeList(v, target)
	case TypeKindMap:
		return e.encodeMap(v, target)
	case TypeKindClass:
		def, ok := e.schema.Class(target.Name)
		if !ok {
			return RawValue{}, e.errf(ErrUnresolvedReference, "class %q not in schema", target.Name)
		}
		return e.encodeClass(v, def)
	case TypeKindEnum:
		def, ok := e.schema.Enum(target.Name)
		if !ok {
			return RawValue{}, e.errf(ErrUnresolvedReference, "enum %q not in schema", target.Name)
		}
		return e.encodeEnum(v, def)
	case TypeKindUnion:
		return e.encodeUnion(v, target)
	case TypeKindImage, TypeKindAudio:
		return e.encodeMedia(v, target)
	default:
		return RawValue{}, e.errf(ErrTypeMismatch, "unsupported target type")
	}
}

func (e *encoder) encodeMismatch(v HostValue, target Type) error {
	return e.errf(ErrTypeMismatch, "cannot encode %s as %s", hostKindName(v.Kind), target)
}

func (e *encoder) encodeList(v HostValue, target Type) (RawValue, error) {
	if v.Kind != HostKindList {
		return RawValue{}, e.encodeMismatch(v, target)
	}
	items := make([]RawValue, len(v.List))
	for i, el := range v.List {
		e.push(strconv.Itoa(i))
		rv, err := e.encode(el, *target.Inner)
		e.pop()
		if err != nil {
			return RawValue{}, err
		}
		items[i] = rv
	}
	return RawList(items...), nil
}

func (e *encoder) encodeMap(v HostValue, target Type) (RawValue, error) {
	if v.Kind != HostKindMap {
		return RawValue{}, e.encodeMismatch(v, target)
	}
	m := make(map[string]RawValue, len(v.Fields))
	for k, el := range v.Fields {
		e.push(k)
		rv, err := e.encode(el, *target.Value)
		e.pop()
		if err != nil {
			return RawValue{}, err
		}
		m[k] = rv
	}
	return RawMap(m), nil
}

func (e *encoder) encodeClass(v HostValue, def ClassDef) (RawValue, error) {
	wantKind := HostKindRecord
	if def.Dynamic {
		wantKind = HostKindDynamicRecord
	}
	if v.Kind != wantKind || v.Class != def.Name {
		return RawValue{}, e.errf(ErrTypeMismatch, "cannot encode %s as class %s", hostKindName(v.Kind), def.Name)
	}
	m := make(map[string]RawValue, len(v.Fields))
	for _, f := range def.Fields {
		fv, ok := v.Fields[f.Name]
		if !ok {
			if def.Dynamic {
				continue
			}
			e.push(f.Name)
			err := e.errf(ErrMissingField, "field %q of class %s", f.Name, def.Name)
			e.pop()
			return RawValue{}, err
		}
		e.push(f.Name)
		rv, err := e.encode(fv, f.Type)
		e.pop()
		if err != nil {
			return RawValue{}, err
		}
		m[f.Name] = rv
	}
	if def.Dynamic {
		for k, fv := range v.Fields {
			if _, declared := def.Field(k); declared {
				continue
			}
			m[k] = rawOfHost(fv)
		}
	}
	return RawChecked(RawMap(m), def.Name), nil
}

func (e *encoder) encodeEnum(v HostValue, def EnumDef) (RawValue, error) {
	if v.Kind != HostKindEnum || v.Class != def.Name {
		return RawValue{}, e.errf(ErrTypeMismatch, "cannot encode %s as enum %s", hostKindName(v.Kind), def.Name)
	}
	if !def.Has(v.Value) {
		return RawValue{}, e.errf(ErrUnknownEnumValue, "%q is not a value of enum %s", v.Value, def.Name)
	}
	return RawChecked(RawString(v.Value), def.Name), nil
}

func (e *encoder) encodeUnion(v HostValue, target Type) (RawValue, error) {
	for _, variant := range target.Variants {
		trial := &encoder{decoder{schema: e.schema, path: e.path}}
		rv, err := trial.encode(v, variant)
		if err == nil {
			return rv, nil
		}
	}
	return RawValue{}, e.errf(ErrNoUnionVariant, "value matches none of %s", target)
}

func (e *encoder) encodeMedia(v HostValue, target Type) (RawValue, error) {
	if v.Kind != HostKindMedia || v.Media == nil {
		return RawValue{}, e.encodeMismatch(v, target)
	}
	switch v.Media.Form {
	case MediaURL:
		m := map[string]RawValue{"url": RawString(v.Media.URL)}
		if v.Media.MediaType != "" {
			m["media_type"] = RawString(v.Media.MediaType)
		}
		return RawMap(m), nil
	case MediaInline:
		return RawMap(map[string]RawValue{
			"base64":     RawString(base64.StdEncoding.EncodeToString(v.Media.Data)),
			"media_type": RawString(v.Media.MediaType),
		}), nil
	default:
		return RawValue{}, e.encodeMismatch(v, target)
	}
}

// rawOfHost converts an untyped host value (a dynamic record's undeclared
// entry) back to raw form without a schema target.
func rawOfHost(v HostValue) RawValue {
	switch v.Kind {
	case HostKindBool:
		return RawBool(v.Bool)
	case HostKindInt:
		return RawInt(v.Int)
	case HostKindFloat:
		return RawFloat(v.Float)
	case HostKindString:
		return RawString(v.Str)
	case HostKindBytes:
		return RawBytes(v.Bytes)
	case HostKindList:
		items := make([]RawValue, len(v.List))
		for i, el := range v.List {
			items[i] = rawOfHost(el)
		}
		return RawList(items...)
	case HostKindMap, HostKindRecord, HostKindDynamicRecord:
		m := make(map[string]RawValue, len(v.Fields))
		for k, el := range v.Fields {
			m[k] = rawOfHost(el)
		}
		if v.Kind == HostKindMap {
			return RawMap(m)
		}
		return RawChecked(RawMap(m), v.Class)
	case HostKindEnum:
		return RawChecked(RawString(v.Value), v.Class)
	default:
		return RawNull()
	}
}

func hostKindName(k HostKind) string {
	switch k {
	case HostKindNull:
		return "null"
	case HostKindBool:
		return "bool"
	case HostKindInt:
		return "int"
	case HostKindFloat:
		return "float"
	case HostKindString:
		return "string"
	case HostKindBytes:
		return "bytes"
	case HostKindList:
		return "list"
	case HostKindMap:
		return "map"
	case HostKindRecord:
		return "record"
	case HostKindDynamicRecord:
		return "dynamic record"
	case HostKindEnum:
		return "enum"
	case HostKindMedia:
		return "media"
	case HostKindUnset:
		return "unset"
	default:
		return "unknown"
	}
}
