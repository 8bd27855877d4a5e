package resulty

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is to check; the typed wrappers below carry
// location details.
var (
	// Schema construction (NewSchema, Builder.Finalize).
	ErrDuplicateName       = errors.New("duplicate name")
	ErrEmptyName           = errors.New("empty name")
	ErrUnresolvedReference = errors.New("unresolved reference")
	ErrNonStringMapKey     = errors.New("map key type must be string")

	// Decoding (Decode, DecodePartial, Encode).
	ErrMissingField     = errors.New("missing required field")
	ErrUnknownEnumValue = errors.New("unknown enum value")
	ErrNoUnionVariant   = errors.New("no union variant matched")
	ErrTypeMismatch     = errors.New("type mismatch")

	// Runtime.
	ErrFunctionNotFound = errors.New("function not found")
	ErrShutdown         = errors.New("runtime is shutting down")
	ErrSessionClosed    = errors.New("session already terminated")
)

// SchemaError reports a schema construction failure. Name locates the
// offending declaration (class, enum, "Class.field", or a referenced name);
// Err is one of the schema sentinels. Schema errors are always fatal to
// construction: nothing is partially applied.
type SchemaError struct {
	Name string
	Err  error
}

func (e *SchemaError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("invalid schema: %v", e.Err)
	}
	return fmt.Sprintf("invalid schema: %v: %q", e.Err, e.Name)
}

// Unwrap supports errors.Is on the schema sentinels.
func (e *SchemaError) Unwrap() error { return e.Err }

// DecodeError reports a structural mismatch between a raw value and its
// target type. Path is a JSON-Pointer-style chain to the offending location
// ("/" for the root); Err is one of the decode sentinels.
type DecodeError struct {
	Path   string
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("decode: %v at %s", e.Err, e.Path)
	}
	return fmt.Sprintf("decode: %v at %s: %s", e.Err, e.Path, e.Reason)
}

// Unwrap supports errors.Is on the decode sentinels.
func (e *DecodeError) Unwrap() error { return e.Err }

// EngineError wraps a failure reported by the execution engine. The package
// does not interpret engine failures, only forwards them; the cause is folded
// into the message and available via Unwrap.
type EngineError struct {
	Err error
}

func (e *EngineError) Error() string {
	if e.Err == nil {
		return "engine execution failed"
	}
	return fmt.Sprintf("engine execution failed: %v", e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// IsSchemaError reports whether err is or wraps a SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

// IsDecodeError reports whether err is or wraps a DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// IsEngineError reports whether err is or wraps an EngineError.
func IsEngineError(err error) bool {
	var ee *EngineError
	return errors.As(err, &ee)
}
