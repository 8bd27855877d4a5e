package resulty

import (
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
)

// JSONSchema projects a target type and its schema into a JSON Schema map
// suitable for LLM provider tool definitions and structured-output modes.
// Classes and enums become $defs entries referenced by name; unions become
// anyOf; closed classes get additionalProperties: false while dynamic
// classes stay open.
func (s Schema) JSONSchema(root Type) (map[string]any, error) {
	out := typeSchema(root)
	if len(s.Classes) > 0 || len(s.Enums) > 0 {
		out.Defs = make(map[string]*jsonschema.Schema, len(s.Classes)+len(s.Enums))
		for name, def := range s.Classes {
			out.Defs[name] = classSchema(def)
		}
		for name, def := range s.Enums {
			out.Defs[name] = enumSchema(def)
		}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(data, &schemaMap); err != nil {
		return nil, err
	}
	closeClassObjects(schemaMap, s)
	return schemaMap, nil
}

func typeSchema(t Type) *jsonschema.Schema {
	switch t.Kind {
	case TypeKindString:
		return &jsonschema.Schema{Type: "string"}
	case TypeKindLiteralString:
		return &jsonschema.Schema{Type: "string", Enum: []any{t.Literal}}
	case TypeKindInt:
		return &jsonschema.Schema{Type: "integer"}
	case TypeKindFloat:
		return &jsonschema.Schema{Type: "number"}
	case TypeKindBool:
		return &jsonschema.Schema{Type: "boolean"}
	case TypeKindBytes:
		return &jsonschema.Schema{Type: "string", Format: "byte"}
	case TypeKindOptional:
		return &jsonschema.Schema{AnyOf: []*jsonschema.Schema{
			typeSchema(*t.Inner),
			{Type: "null"},
		}}
	case TypeKindList:
		return &jsonschema.Schema{Type: "array", Items: typeSchema(*t.Inner)}
	case TypeKindMap:
		return &jsonschema.Schema{Type: "object", AdditionalProperties: typeSchema(*t.Value)}
	case TypeKindClass, TypeKindEnum:
		return &jsonschema.Schema{Ref: "#/$defs/" + t.Name}
	case TypeKindUnion:
		variants := make([]*jsonschema.Schema, len(t.Variants))
		for i, v := range t.Variants {
			variants[i] = typeSchema(v)
		}
		return &jsonschema.Schema{AnyOf: variants}
	case TypeKindImage, TypeKindAudio:
		return mediaSchema()
	default:
		return &jsonschema.Schema{}
	}
}

// mediaSchema accepts the two media input shapes: a URL string, or an object
// carrying either a url or a base64 payload with its media type.
func mediaSchema() *jsonschema.Schema {
	return &jsonschema.Schema{AnyOf: []*jsonschema.Schema{
		{Type: "string"},
		{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"url":        {Type: "string"},
				"base64":     {Type: "string"},
				"media_type": {Type: "string"},
			},
		},
	}}
}

func classSchema(def ClassDef) *jsonschema.Schema {
	props := make(map[string]*jsonschema.Schema, len(def.Fields))
	required := make([]string, 0, len(def.Fields))
	for _, f := range def.Fields {
		fs := typeSchema(f.Type)
		if f.Description != "" {
			fs.Description = f.Description
		}
		props[f.Name] = fs
		if f.Type.Kind != TypeKindOptional {
			required = append(required, f.Name)
		}
	}
	return &jsonschema.Schema{Type: "object", Properties: props, Required: required}
}

func enumSchema(def EnumDef) *jsonschema.Schema {
	values := make([]any, len(def.Values))
	for i, v := range def.Values {
		values[i] = v.Value
	}
	return &jsonschema.Schema{Type: "string", Enum: values}
}

// closeClassObjects sets additionalProperties: false on every closed class in
// $defs. Dynamic classes stay open so the engine may emit undeclared keys.
func closeClassObjects(schemaMap map[string]any, s Schema) {
	defs, ok := schemaMap["$defs"].(map[string]any)
	if !ok {
		return
	}
	for name, def := range s.Classes {
		if def.Dynamic {
			continue
		}
		node, ok := defs[name].(map[string]any)
		if !ok {
			continue
		}
		node["additionalProperties"] = false
	}
}
