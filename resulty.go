package resulty

import "context"

// Engine is the boundary to the function-execution engine (prompt rendering,
// provider selection, network calls). It is provider-agnostic and returns
// raw value trees; this package owns everything after that point.
type Engine interface {
	// Call executes one unary invocation and returns the terminal raw value.
	Call(ctx context.Context, req Request) (RawValue, error)
	// Stream executes one streaming invocation: each in-progress raw value is
	// passed to yield in arrival order, and the terminal raw value is
	// returned. If yield returns an error, the engine must stop yielding and
	// return that error. Usage notifications go directly to req.Collectors.
	Stream(ctx context.Context, req Request, yield func(RawValue) error) (RawValue, error)
}

// Request is one execution request handed to the engine. Schema is the
// static schema already merged with any per-call overlay; Args are encoded
// into raw form by the runtime.
type Request struct {
	Function   string
	Args       map[string]RawValue
	Schema     Schema
	Returns    Type
	Collectors []*Collector
	Client     string // optional engine client override, e.g. a provider profile name
}

// Function declares an externally-executed function: its argument list, its
// return type, and the static schema both are checked against.
type Function struct {
	name        string
	description string
	params      []FieldDef
	returns     Type
	schema      Schema
}

// NewFunction builds a function declaration. All class and enum references in
// params and returns must resolve in schema; unresolved references fail here
// so a decode can never hit one at call time (overlay-only references belong
// in the overlay passed per call, not here).
func NewFunction(name, description string, params []FieldDef, returns Type, schema Schema) (*Function, error) {
	if name == "" {
		return nil, &SchemaError{Err: ErrEmptyName}
	}
	for _, p := range params {
		if err := checkTypeResolves(p.Type, schema, Schema{}); err != nil {
			return nil, err
		}
	}
	if err := checkTypeResolves(returns, schema, Schema{}); err != nil {
		return nil, err
	}
	return &Function{
		name:        name,
		description: description,
		params:      append([]FieldDef(nil), params...),
		returns:     returns,
		schema:      schema,
	}, nil
}

// Name returns the function name.
func (f *Function) Name() string { return f.name }

// Description returns the human-readable function description.
func (f *Function) Description() string { return f.description }

// Returns returns the declared return type.
func (f *Function) Returns() Type { return f.returns }

// Schema returns the function's static schema.
func (f *Function) Schema() Schema { return f.schema }

// Params returns a copy of the declared parameter list.
func (f *Function) Params() []FieldDef { return append([]FieldDef(nil), f.params...) }
