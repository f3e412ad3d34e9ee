package schema

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"mcpreg/internal/domain"
)

// FromJSONSchema flattens a JSON Schema (as returned by a live MCP
// tools/list) into the registry's parameter model. Only the top-level
// object is kept; nested shapes collapse to their primitive kind.
func FromJSONSchema(s *jsonschema.Schema) domain.ParameterSchema {
	out := domain.EmptyParameterSchema()
	if s == nil {
		return out
	}
	for name, prop := range s.Properties {
		spec := domain.ParameterSpec{Type: kindFromType(prop)}
		if prop != nil {
			spec.Description = prop.Description
			for _, v := range prop.Enum {
				spec.Enum = append(spec.Enum, fmt.Sprintf("%v", v))
			}
		}
		out.Properties[name] = spec
	}
	out.Required = append(out.Required, s.Required...)
	return out
}

// ToJSONSchema renders a parameter schema in JSON Schema form for clients
// that speak the MCP tool format.
func ToJSONSchema(params domain.ParameterSchema) *jsonschema.Schema {
	out := &jsonschema.Schema{
		Type:       "object",
		Properties: make(map[string]*jsonschema.Schema, len(params.Properties)),
		Required:   append([]string(nil), params.Required...),
	}
	for name, spec := range params.Properties {
		prop := &jsonschema.Schema{
			Type:        string(spec.Type),
			Description: spec.Description,
		}
		for _, v := range spec.Enum {
			prop.Enum = append(prop.Enum, v)
		}
		out.Properties[name] = prop
	}
	return out
}

func kindFromType(s *jsonschema.Schema) domain.ParameterKind {
	if s == nil {
		return domain.KindString
	}
	switch s.Type {
	case "string":
		return domain.KindString
	case "number", "integer":
		return domain.KindNumber
	case "boolean":
		return domain.KindBoolean
	case "array":
		return domain.KindArray
	case "object":
		return domain.KindObject
	default:
		return domain.KindString
	}
}
