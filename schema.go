package resulty

import (
	"fmt"
	"strings"
)

// TypeKind enumerates the type constructors of the schema model.
type TypeKind int

const (
	TypeKindString TypeKind = iota
	TypeKindInt
	TypeKindFloat
	TypeKindBool
	TypeKindBytes
	TypeKindOptional
	TypeKindList
	TypeKindMap
	TypeKindClass
	TypeKindEnum
	TypeKindUnion
	TypeKindImage
	TypeKindAudio
	// TypeKindLiteralString accepts exactly one string value, inferred from an
	// example literal (see LiteralOf).
	TypeKindLiteralString
)

// Type describes the target type of a decode operation. Construct values with
// the package-level constructors (String, Optional, ClassRef, Union, ...);
// the zero value is the string type.
type Type struct {
	Kind     TypeKind
	Inner    *Type  // Optional, List
	Key      *Type  // Map
	Value    *Type  // Map
	Name     string // Class, Enum
	Variants []Type // Union; order is the documented structural tie-break
	Literal  string // LiteralString
}

// String returns the string primitive type.
func String() Type { return Type{Kind: TypeKindString} }

// Int returns the integer primitive type.
func Int() Type { return Type{Kind: TypeKindInt} }

// Float returns the float primitive type.
func Float() Type { return Type{Kind: TypeKindFloat} }

// Bool returns the boolean primitive type.
func Bool() Type { return Type{Kind: TypeKindBool} }

// Bytes returns the byte-blob primitive type.
func Bytes() Type { return Type{Kind: TypeKindBytes} }

// Optional wraps inner so that raw null decodes to host null instead of
// failing.
func Optional(inner Type) Type { return Type{Kind: TypeKindOptional, Inner: &inner} }

// List returns the ordered-list type with the given element type.
func List(inner Type) Type { return Type{Kind: TypeKindList, Inner: &inner} }

// MapOf returns the map type. Key must be the string type; schema construction
// and Builder.Finalize reject any other key type.
func MapOf(key, value Type) Type { return Type{Kind: TypeKindMap, Key: &key, Value: &value} }

// ClassRef refers to a class declared in the schema the decode runs against.
func ClassRef(name string) Type { return Type{Kind: TypeKindClass, Name: name} }

// EnumRef refers to an enum declared in the schema the decode runs against.
func EnumRef(name string) Type { return Type{Kind: TypeKindEnum, Name: name} }

// Union returns the union of the given variants. When a raw value carries a
// Checked type tag the tagged variant is authoritative; otherwise variants are
// attempted in declaration order and the first success wins. Prefer Checked
// tags whenever the engine can supply them: structural order matching is a
// tie-break, not a resolution mechanism.
func Union(variants ...Type) Type { return Type{Kind: TypeKindUnion, Variants: variants} }

// Image returns the image resource type (URL or base64 + media type).
func Image() Type { return Type{Kind: TypeKindImage} }

// Audio returns the audio resource type (URL or base64 + media type).
func Audio() Type { return Type{Kind: TypeKindAudio} }

// LiteralString accepts exactly the given string value.
func LiteralString(v string) Type { return Type{Kind: TypeKindLiteralString, Literal: v} }

// LiteralOf infers a type from an example value: strings become singleton
// literal types, numbers and booleans become their primitive types.
func LiteralOf(v any) (Type, error) {
	switch t := v.(type) {
	case string:
		return LiteralString(t), nil
	case int:
		return Int(), nil
	case int64:
		return Int(), nil
	case float64:
		return Float(), nil
	case bool:
		return Bool(), nil
	default:
		return Type{}, fmt.Errorf("cannot infer type from literal of type %T", v)
	}
}

// String renders the type for diagnostics.
func (t Type) String() string {
	switch t.Kind {
	case TypeKindString:
		return "string"
	case TypeKindInt:
		return "int"
	case TypeKindFloat:
		return "float"
	case TypeKindBool:
		return "bool"
	case TypeKindBytes:
		return "bytes"
	case TypeKindOptional:
		return t.Inner.String() + "?"
	case TypeKindList:
		return t.Inner.String() + "[]"
	case TypeKindMap:
		return "map<" + t.Key.String() + ", " + t.Value.String() + ">"
	case TypeKindClass, TypeKindEnum:
		return t.Name
	case TypeKindUnion:
		parts := make([]string, len(t.Variants))
		for i, v := range t.Variants {
			parts[i] = v.String()
		}
		return strings.Join(parts, " | ")
	case TypeKindImage:
		return "image"
	case TypeKindAudio:
		return "audio"
	case TypeKindLiteralString:
		return fmt.Sprintf("%q", t.Literal)
	default:
		return "unknown"
	}
}

// FieldDef declares one class field.
type FieldDef struct {
	Name        string
	Type        Type
	Description string
}

// ClassDef declares a named field list. Dynamic marks a class whose field set
// may be extended at runtime: undeclared keys decode into the DynamicRecord
// instead of being ignored, and missing declared fields never fail.
type ClassDef struct {
	Name    string
	Fields  []FieldDef
	Dynamic bool
}

// Field returns the declared field with the given name.
func (c ClassDef) Field(name string) (FieldDef, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

// EnumValueDef declares one enum value.
type EnumValueDef struct {
	Value       string
	Description string
}

// EnumDef declares a closed set of string values. Unlike dynamic classes,
// enums never accept values beyond the declared set.
type EnumDef struct {
	Name   string
	Values []EnumValueDef
}

// Has reports whether value is declared on the enum.
func (e EnumDef) Has(value string) bool {
	for _, v := range e.Values {
		if v.Value == value {
			return true
		}
	}
	return false
}

// Schema holds class and enum definitions by name. A static Schema is built
// once via NewSchema and is immutable thereafter; per-call overlays come from
// Builder.Finalize and are merged with Merge before any decode.
type Schema struct {
	Classes map[string]ClassDef
	Enums   map[string]EnumDef
}

// NewSchema builds a schema from definitions. Duplicate or empty names and
// unresolved class/enum references fail here, never at decode time.
func NewSchema(classes []ClassDef, enums []EnumDef) (Schema, error) {
	s := Schema{
		Classes: make(map[string]ClassDef, len(classes)),
		Enums:   make(map[string]EnumDef, len(enums)),
	}
	for _, c := range classes {
		if c.Name == "" {
			return Schema{}, &SchemaError{Err: ErrEmptyName}
		}
		if _, ok := s.Classes[c.Name]; ok {
			return Schema{}, &SchemaError{Name: c.Name, Err: ErrDuplicateName}
		}
		if err := checkFieldNames(c); err != nil {
			return Schema{}, err
		}
		s.Classes[c.Name] = c
	}
	for _, e := range enums {
		if e.Name == "" {
			return Schema{}, &SchemaError{Err: ErrEmptyName}
		}
		if _, ok := s.Enums[e.Name]; ok {
			return Schema{}, &SchemaError{Name: e.Name, Err: ErrDuplicateName}
		}
		if err := checkEnumValues(e); err != nil {
			return Schema{}, err
		}
		s.Enums[e.Name] = e
	}
	for _, c := range s.Classes {
		for _, f := range c.Fields {
			if err := checkTypeResolves(f.Type, s, Schema{}); err != nil {
				return Schema{}, err
			}
		}
	}
	return s, nil
}

// MustSchema is NewSchema that panics on error, for static declarations.
func MustSchema(classes []ClassDef, enums []EnumDef) Schema {
	s, err := NewSchema(classes, enums)
	if err != nil {
		panic(err)
	}
	return s
}

// Class returns the class definition with the given name.
func (s Schema) Class(name string) (ClassDef, bool) {
	c, ok := s.Classes[name]
	return c, ok
}

// Enum returns the enum definition with the given name.
func (s Schema) Enum(name string) (EnumDef, bool) {
	e, ok := s.Enums[name]
	return e, ok
}

// Merge combines s with an overlay; the overlay wins on name collision.
// Neither input is mutated.
func (s Schema) Merge(overlay Schema) Schema {
	out := Schema{
		Classes: make(map[string]ClassDef, len(s.Classes)+len(overlay.Classes)),
		Enums:   make(map[string]EnumDef, len(s.Enums)+len(overlay.Enums)),
	}
	for n, c := range s.Classes {
		out.Classes[n] = c
	}
	for n, c := range overlay.Classes {
		out.Classes[n] = c
	}
	for n, e := range s.Enums {
		out.Enums[n] = e
	}
	for n, e := range overlay.Enums {
		out.Enums[n] = e
	}
	return out
}

func checkFieldNames(c ClassDef) error {
	seen := make(map[string]struct{}, len(c.Fields))
	for _, f := range c.Fields {
		if f.Name == "" {
			return &SchemaError{Name: c.Name, Err: ErrEmptyName}
		}
		if _, ok := seen[f.Name]; ok {
			return &SchemaError{Name: c.Name + "." + f.Name, Err: ErrDuplicateName}
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

func checkEnumValues(e EnumDef) error {
	seen := make(map[string]struct{}, len(e.Values))
	for _, v := range e.Values {
		if v.Value == "" {
			return &SchemaError{Name: e.Name, Err: ErrEmptyName}
		}
		if _, ok := seen[v.Value]; ok {
			return &SchemaError{Name: e.Name + "." + v.Value, Err: ErrDuplicateName}
		}
		seen[v.Value] = struct{}{}
	}
	return nil
}

// checkTypeResolves verifies every class/enum reference in t resolves in s or
// base, and that map keys are strings.
func checkTypeResolves(t Type, s, base Schema) error {
	switch t.Kind {
	case TypeKindOptional, TypeKindList:
		return checkTypeResolves(*t.Inner, s, base)
	case TypeKindMap:
		if t.Key.Kind != TypeKindString {
			return &SchemaError{Name: t.Key.String(), Err: ErrNonStringMapKey}
		}
		return checkTypeResolves(*t.Value, s, base)
	case TypeKindClass:
		if _, ok := s.Classes[t.Name]; ok {
			return nil
		}
		if _, ok := base.Classes[t.Name]; ok {
			return nil
		}
		return &SchemaError{Name: t.Name, Err: ErrUnresolvedReference}
	case TypeKindEnum:
		if _, ok := s.Enums[t.Name]; ok {
			return nil
		}
		if _, ok := base.Enums[t.Name]; ok {
			return nil
		}
		return &SchemaError{Name: t.Name, Err: ErrUnresolvedReference}
	case TypeKindUnion:
		for _, v := range t.Variants {
			if err := checkTypeResolves(v, s, base); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}
