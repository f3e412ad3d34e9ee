// Package schema validates tool-call arguments against a tool's declared
// parameter schema. Validation is shallow: nested array/object shapes are
// not descended into, and argument keys outside the declared properties
// are permitted so servers can accept vendor extensions.
package schema

import (
	"fmt"
	"reflect"
	"sort"

	"mcpreg/internal/domain"
)

// ValidationError names the first offending parameter. Missing required
// parameters are reported before any type mismatch.
type ValidationError struct {
	Parameter string
	Expected  domain.ParameterKind
	Actual    string
	Missing   bool
}

func (e *ValidationError) Error() string {
	if e.Missing {
		return fmt.Sprintf("missing required parameter: %s", e.Parameter)
	}
	return fmt.Sprintf("parameter %q must be a %s, got %s", e.Parameter, e.Expected, e.Actual)
}

// Validate checks arguments against the schema and returns the first
// violation, or nil. Check order is fixed: all required names first, then
// type checks for declared properties.
func Validate(arguments map[string]any, params domain.ParameterSchema) error {
	for _, name := range params.Required {
		if _, ok := arguments[name]; !ok {
			return &ValidationError{Parameter: name, Missing: true}
		}
	}

	names := make([]string, 0, len(arguments))
	for name := range arguments {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := arguments[name]
		spec, declared := params.Properties[name]
		if !declared {
			continue
		}
		if spec.Type == "" {
			continue
		}
		if !kindMatches(spec.Type, value) {
			return &ValidationError{
				Parameter: name,
				Expected:  spec.Type,
				Actual:    typeName(value),
			}
		}
	}
	return nil
}

func kindMatches(kind domain.ParameterKind, value any) bool {
	switch kind {
	case domain.KindString:
		_, ok := value.(string)
		return ok
	case domain.KindBoolean:
		_, ok := value.(bool)
		return ok
	case domain.KindNumber:
		switch value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
			return true
		}
		return false
	case domain.KindArray:
		if value == nil {
			return false
		}
		k := reflect.TypeOf(value).Kind()
		return k == reflect.Slice || k == reflect.Array
	case domain.KindObject:
		if value == nil {
			return false
		}
		return reflect.TypeOf(value).Kind() == reflect.Map
	default:
		// Unknown declared kinds are not enforceable; let them through.
		return true
	}
}

func typeName(value any) string {
	if value == nil {
		return "null"
	}
	switch value.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return "number"
	}
	switch reflect.TypeOf(value).Kind() {
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map:
		return "object"
	default:
		return reflect.TypeOf(value).String()
	}
}
