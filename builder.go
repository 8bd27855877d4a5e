package resulty

// Builder assembles a schema overlay at call time. Classes and enums receive
// a stable handle at creation; field types hold name references, and
// Finalize resolves names against the builder session plus a base schema.
// Handles may therefore reference classes and enums that are declared later
// in the same session, which is what makes mutually recursive declarations
// work without a separate forward-declaration step.
//
// A Builder is not safe for concurrent use; build the overlay, Finalize, and
// hand the resulting Schema to the call.
type Builder struct {
	classes []*ClassBuilder
	enums   []*EnumBuilder
}

// NewBuilder creates an empty schema builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Class declares a new class and returns its handle. Name collisions are
// reported by Finalize, not here.
func (b *Builder) Class(name string, opts ...ClassOption) *ClassBuilder {
	var o classOptions
	for _, opt := range opts {
		opt(&o)
	}
	c := &ClassBuilder{name: name, dynamic: o.dynamic}
	b.classes = append(b.classes, c)
	return c
}

// Enum declares a new enum and returns its handle.
func (b *Builder) Enum(name string) *EnumBuilder {
	e := &EnumBuilder{name: name}
	b.enums = append(b.enums, e)
	return e
}

// ClassBuilder accumulates field declarations for one runtime class.
type ClassBuilder struct {
	name    string
	dynamic bool
	fields  []FieldDef
}

// AddField appends a field declaration. Duplicate field names are reported by
// Finalize.
func (c *ClassBuilder) AddField(name string, t Type, opts ...FieldOption) *ClassBuilder {
	var o fieldOptions
	for _, opt := range opts {
		opt(&o)
	}
	c.fields = append(c.fields, FieldDef{Name: name, Type: t, Description: o.description})
	return c
}

// Type returns a reference to this class, usable as a field type in the same
// session before the class is complete.
func (c *ClassBuilder) Type() Type { return ClassRef(c.name) }

// EnumBuilder accumulates value declarations for one runtime enum.
type EnumBuilder struct {
	name   string
	values []EnumValueDef
}

// AddValue appends an enum value declaration.
func (e *EnumBuilder) AddValue(value string, opts ...ValueOption) *EnumBuilder {
	var o valueOptions
	for _, opt := range opts {
		opt(&o)
	}
	e.values = append(e.values, EnumValueDef{Value: value, Description: o.description})
	return e
}

// Type returns a reference to this enum.
func (e *EnumBuilder) Type() Type { return EnumRef(e.name) }

// Finalize resolves the session into a schema overlay. References must
// resolve to a handle created in this session or to a declaration in base;
// names must be non-empty and unique within their namespace. Finalize does
// not mutate the builder and does not fold base into the result: merge the
// returned overlay with Schema.Merge. Overlay wins on collision with base, so
// declaring a name that exists in base is not an error here.
func (b *Builder) Finalize(base Schema) (Schema, error) {
	overlay := Schema{
		Classes: make(map[string]ClassDef, len(b.classes)),
		Enums:   make(map[string]EnumDef, len(b.enums)),
	}
	for _, c := range b.classes {
		if c.name == "" {
			return Schema{}, &SchemaError{Err: ErrEmptyName}
		}
		if _, ok := overlay.Classes[c.name]; ok {
			return Schema{}, &SchemaError{Name: c.name, Err: ErrDuplicateName}
		}
		def := ClassDef{Name: c.name, Fields: append([]FieldDef(nil), c.fields...), Dynamic: c.dynamic}
		if err := checkFieldNames(def); err != nil {
			return Schema{}, err
		}
		overlay.Classes[c.name] = def
	}
	for _, e := range b.enums {
		if e.name == "" {
			return Schema{}, &SchemaError{Err: ErrEmptyName}
		}
		if _, ok := overlay.Enums[e.name]; ok {
			return Schema{}, &SchemaError{Name: e.name, Err: ErrDuplicateName}
		}
		def := EnumDef{Name: e.name, Values: append([]EnumValueDef(nil), e.values...)}
		if err := checkEnumValues(def); err != nil {
			return Schema{}, err
		}
		overlay.Enums[e.name] = def
	}
	for _, c := range overlay.Classes {
		for _, f := range c.Fields {
			if err := checkTypeResolves(f.Type, overlay, base); err != nil {
				return Schema{}, err
			}
		}
	}
	return overlay, nil
}
