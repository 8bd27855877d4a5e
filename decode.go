package resulty

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// Decode validates raw against target and produces a host-native value.
// Every class and enum reference reachable from target must resolve in
// schema; schema construction guarantees this for well-formed schemas.
func Decode(raw RawValue, target Type, schema Schema) (HostValue, error) {
	d := &decoder{schema: schema}
	return d.decode(raw, target)
}

// decoder carries the schema and the path to the value currently being
// decoded. relaxed switches on the partial reconciliation rules (see
// DecodePartial).
type decoder struct {
	schema  Schema
	path    []string
	relaxed bool
}

func (d *decoder) pointer() string {
	if len(d.path) == 0 {
		return "/"
	}
	return "/" + strings.Join(d.path, "/")
}

func (d *decoder) push(seg string) { d.path = append(d.path, seg) }
func (d *decoder) pop()            { d.path = d.path[:len(d.path)-1] }

func (d *decoder) errf(sentinel error, format string, args ...any) error {
	return &DecodeError{Path: d.pointer(), Err: sentinel, Reason: fmt.Sprintf(format, args...)}
}

func (d *decoder) mismatch(raw RawValue, target Type) error {
	return d.errf(ErrTypeMismatch, "expected %s, got %s", target, rawKindName(raw.Kind))
}

func (d *decoder) decode(raw RawValue, target Type) (HostValue, error) {
	switch target.Kind {
	case TypeKindString:
		if raw.Kind != RawKindString {
			return HostValue{}, d.mismatch(raw, target)
		}
		return HostString(raw.Str), nil
	case TypeKindLiteralString:
		return d.decodeLiteral(raw, target)
	case TypeKindInt:
		return d.decodeInt(raw, target)
	case TypeKindFloat:
		return d.decodeFloat(raw, target)
	case TypeKindBool:
		if raw.Kind != RawKindBool {
			return HostValue{}, d.mismatch(raw, target)
		}
		return HostBool(raw.Bool), nil
	case TypeKindBytes:
		if raw.Kind != RawKindBytes {
			return HostValue{}, d.mismatch(raw, target)
		}
		return HostBytes(raw.Bytes), nil
	case TypeKindOptional:
		if raw.Kind == RawKindNull {
			return HostNull(), nil
		}
		return d.decode(raw, *target.Inner)
	case TypeKindList:
		return d.decodeList(raw, target)
	case TypeKindMap:
		return d.decodeMap(raw, target)
	case TypeKindClass:
		def, ok := d.schema.Class(target.Name)
		if !ok {
			return HostValue{}, d.errf(ErrUnresolvedReference, "class %q not in schema", target.Name)
		}
		return d.decodeClass(raw, def)
	case TypeKindEnum:
		def, ok := d.schema.Enum(target.Name)
		if !ok {
			return HostValue{}, d.errf(ErrUnresolvedReference, "enum %q not in schema", target.Name)
		}
		return d.decodeEnum(raw, def)
	case TypeKindUnion:
		return d.decodeUnion(raw, target)
	case TypeKindImage, TypeKindAudio:
		return d.decodeMedia(raw, target)
	default:
		return HostValue{}, d.errf(ErrTypeMismatch, "unsupported target type")
	}
}

func (d *decoder) decodeLiteral(raw RawValue, target Type) (HostValue, error) {
	if raw.Kind != RawKindString {
		return HostValue{}, d.mismatch(raw, target)
	}
	if raw.Str != target.Literal {
		// Mid-stream the string may still be arriving; treat the mismatch as
		// not-yet-materialized rather than wrong.
		if d.relaxed {
			return Unset(), nil
		}
		return HostValue{}, d.errf(ErrTypeMismatch, "expected literal %q, got %q", target.Literal, raw.Str)
	}
	return HostString(raw.Str), nil
}

func (d *decoder) decodeInt(raw RawValue, target Type) (HostValue, error) {
	switch raw.Kind {
	case RawKindInt:
		return HostInt(raw.Int), nil
	case RawKindFloat:
		// Narrowing is only allowed for integral values; int is not a general
		// truncation target.
		if !isIntegral(raw.Float) {
			return HostValue{}, d.errf(ErrTypeMismatch, "expected int, got non-integral float %v", raw.Float)
		}
		return HostInt(int64(raw.Float)), nil
	default:
		return HostValue{}, d.mismatch(raw, target)
	}
}

func (d *decoder) decodeFloat(raw RawValue, target Type) (HostValue, error) {
	switch raw.Kind {
	case RawKindFloat:
		return HostFloat(raw.Float), nil
	case RawKindInt:
		// Widening an integer into a float target is always accepted.
		return HostFloat(float64(raw.Int)), nil
	default:
		return HostValue{}, d.mismatch(raw, target)
	}
}

func (d *decoder) decodeList(raw RawValue, target Type) (HostValue, error) {
	if raw.Kind != RawKindList {
		return HostValue{}, d.mismatch(raw, target)
	}
	items := make([]HostValue, len(raw.List))
	for i, el := range raw.List {
		d.push(strconv.Itoa(i))
		hv, err := d.decode(el, *target.Inner)
		d.pop()
		if err != nil {
			return HostValue{}, err
		}
		items[i] = hv
	}
	return HostList(items...), nil
}

func (d *decoder) decodeMap(raw RawValue, target Type) (HostValue, error) {
	if raw.Kind != RawKindMap {
		return HostValue{}, d.mismatch(raw, target)
	}
	m := make(map[string]HostValue, len(raw.Map))
	for k, el := range raw.Map {
		d.push(k)
		hv, err := d.decode(el, *target.Value)
		d.pop()
		if err != nil {
			return HostValue{}, err
		}
		m[k] = hv
	}
	return HostMap(m), nil
}

func (d *decoder) decodeClass(raw RawValue, def ClassDef) (HostValue, error) {
	if raw.Kind == RawKindChecked {
		if raw.TypeName != def.Name {
			return HostValue{}, d.errf(ErrTypeMismatch, "expected %s, got checked %s", def.Name, raw.TypeName)
		}
		raw = *raw.Checked
	}
	if raw.Kind != RawKindMap {
		return HostValue{}, d.errf(ErrTypeMismatch, "expected %s, got %s", def.Name, rawKindName(raw.Kind))
	}
	fields := make(map[string]HostValue, len(raw.Map))
	for _, f := range def.Fields {
		fv, present := raw.Map[f.Name]
		if !present {
			if d.relaxed || def.Dynamic {
				if !def.Dynamic {
					fields[f.Name] = Unset()
				}
				continue
			}
			d.push(f.Name)
			err := d.errf(ErrMissingField, "field %q of class %s", f.Name, def.Name)
			d.pop()
			return HostValue{}, err
		}
		d.push(f.Name)
		hv, err := d.decode(fv, f.Type)
		d.pop()
		if err != nil {
			return HostValue{}, err
		}
		fields[f.Name] = hv
	}
	if !def.Dynamic {
		// Undeclared keys are ignored on closed classes for forward
		// compatibility with evolving engine output.
		return HostRecord(def.Name, fields), nil
	}
	for k, v := range raw.Map {
		if _, declared := def.Field(k); declared {
			continue
		}
		fields[k] = hostOf(v)
	}
	return HostDynamicRecord(def.Name, fields), nil
}

func (d *decoder) decodeEnum(raw RawValue, def EnumDef) (HostValue, error) {
	if raw.Kind == RawKindChecked {
		if raw.TypeName != def.Name {
			return HostValue{}, d.errf(ErrTypeMismatch, "expected %s, got checked %s", def.Name, raw.TypeName)
		}
		raw = *raw.Checked
	}
	if raw.Kind != RawKindString {
		return HostValue{}, d.errf(ErrTypeMismatch, "expected %s value, got %s", def.Name, rawKindName(raw.Kind))
	}
	if !def.Has(raw.Str) {
		// Enums are closed; but mid-stream the value may be a prefix of a
		// declared one, so the relaxed mode defers instead of failing.
		if d.relaxed {
			return Unset(), nil
		}
		return HostValue{}, d.errf(ErrUnknownEnumValue, "%q is not a value of enum %s", raw.Str, def.Name)
	}
	return HostEnum(def.Name, raw.Str), nil
}

func (d *decoder) decodeUnion(raw RawValue, target Type) (HostValue, error) {
	if raw.Kind == RawKindChecked {
		for _, v := range target.Variants {
			if (v.Kind == TypeKindClass || v.Kind == TypeKindEnum) && v.Name == raw.TypeName {
				// The tag is authoritative: decode against exactly this
				// variant, keeping the wrapper so class/enum checks see it.
				return d.decode(raw, v)
			}
		}
		// Unknown tag: fall through to structural matching on the inner value.
		raw = *raw.Checked
	}
	if d.relaxed {
		// Without a tag an incomplete value cannot be attributed to a variant
		// reliably; defer until the terminal decode.
		return Unset(), nil
	}
	for _, v := range target.Variants {
		trial := &decoder{schema: d.schema, path: d.path, relaxed: d.relaxed}
		hv, err := trial.decode(raw, v)
		if err == nil {
			return hv, nil
		}
	}
	return HostValue{}, d.errf(ErrNoUnionVariant, "value matches none of %s", target)
}

func (d *decoder) decodeMedia(raw RawValue, target Type) (HostValue, error) {
	switch raw.Kind {
	case RawKindString:
		return HostMedia(Media{Form: MediaURL, URL: raw.Str}), nil
	case RawKindMap:
		mediaType := ""
		if mt, ok := raw.Map["media_type"]; ok && mt.Kind == RawKindString {
			mediaType = mt.Str
		}
		if u, ok := raw.Map["url"]; ok {
			if u.Kind != RawKindString {
				return HostValue{}, d.errf(ErrTypeMismatch, "media url must be a string")
			}
			return HostMedia(Media{Form: MediaURL, URL: u.Str, MediaType: mediaType}), nil
		}
		if b, ok := raw.Map["base64"]; ok {
			if b.Kind != RawKindString {
				return HostValue{}, d.errf(ErrTypeMismatch, "media base64 payload must be a string")
			}
			data, err := base64.StdEncoding.DecodeString(b.Str)
			if err != nil {
				if d.relaxed {
					// A truncated base64 payload is still arriving.
					return Unset(), nil
				}
				return HostValue{}, d.errf(ErrTypeMismatch, "invalid base64 media payload: %v", err)
			}
			return HostMedia(Media{Form: MediaInline, Data: data, MediaType: mediaType}), nil
		}
		return HostValue{}, d.errf(ErrTypeMismatch, "media object needs url or base64")
	default:
		return HostValue{}, d.mismatch(raw, target)
	}
}

func rawKindName(k RawKind) string {
	switch k {
	case RawKindNull:
		return "null"
	case RawKindBool:
		return "bool"
	case RawKindInt:
		return "int"
	case RawKindFloat:
		return "float"
	case RawKindString:
		return "string"
	case RawKindBytes:
		return "bytes"
	case RawKindList:
		return "list"
	case RawKindMap:
		return "map"
	case RawKindChecked:
		return "checked"
	default:
		return "unknown"
	}
}
