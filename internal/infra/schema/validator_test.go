package schema

import (
	"testing"

	"github.com/stretchr/testify/require"

	"mcpreg/internal/domain"
)

func weatherSchema() domain.ParameterSchema {
	return domain.ParameterSchema{
		Type: "object",
		Properties: map[string]domain.ParameterSpec{
			"city":     {Type: domain.KindString},
			"days":     {Type: domain.KindNumber},
			"detailed": {Type: domain.KindBoolean},
			"fields":   {Type: domain.KindArray},
			"options":  {Type: domain.KindObject},
		},
		Required: []string{"city"},
	}
}

func TestValidate_MissingRequiredShortCircuits(t *testing.T) {
	// The required check runs before any type check, so an empty argument
	// set reports the missing name, never a mismatch.
	err := Validate(map[string]any{}, weatherSchema())
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.True(t, verr.Missing)
	require.Equal(t, "city", verr.Parameter)
	require.Equal(t, "missing required parameter: city", err.Error())
}

func TestValidate_RequiredBeforeTypes(t *testing.T) {
	// "days" has the wrong type but "city" is absent; required wins.
	err := Validate(map[string]any{"days": "three"}, weatherSchema())
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.True(t, verr.Missing)
	require.Equal(t, "city", verr.Parameter)
}

func TestValidate_TypeChecks(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
		ok   bool
	}{
		{"all valid", map[string]any{
			"city":     "Berlin",
			"days":     3,
			"detailed": true,
			"fields":   []any{"temp"},
			"options":  map[string]any{"units": "metric"},
		}, true},
		{"float is a number", map[string]any{"city": "Berlin", "days": 2.5}, true},
		{"string for number", map[string]any{"city": "Berlin", "days": "three"}, false},
		{"number for string", map[string]any{"city": 42}, false},
		{"string for boolean", map[string]any{"city": "Berlin", "detailed": "yes"}, false},
		{"object for array", map[string]any{"city": "Berlin", "fields": map[string]any{}}, false},
		{"array for object", map[string]any{"city": "Berlin", "options": []any{}}, false},
		{"typed slice is an array", map[string]any{"city": "Berlin", "fields": []string{"temp"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.args, weatherSchema())
			if tt.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestValidate_TypeMismatchMessage(t *testing.T) {
	err := Validate(map[string]any{"city": "Berlin", "days": "three"}, weatherSchema())
	require.EqualError(t, err, `parameter "days" must be a number, got string`)
}

func TestValidate_UnknownKeysPermitted(t *testing.T) {
	// The schema is not a closed allow-list: undeclared keys pass through
	// untouched.
	err := Validate(map[string]any{"city": "Berlin", "undeclared": 123}, weatherSchema())
	require.NoError(t, err)
}

func TestValidate_EmptySchema(t *testing.T) {
	err := Validate(map[string]any{"anything": 1}, domain.EmptyParameterSchema())
	require.NoError(t, err)
}
