package domain

import (
	"slices"
	"time"
)

// ParameterKind enumerates the primitive kinds a tool parameter may declare.
type ParameterKind string

const (
	KindString  ParameterKind = "string"
	KindNumber  ParameterKind = "number"
	KindBoolean ParameterKind = "boolean"
	KindArray   ParameterKind = "array"
	KindObject  ParameterKind = "object"
)

// ParameterSpec describes a single named parameter of a tool.
type ParameterSpec struct {
	Type        ParameterKind `json:"type"`
	Description string        `json:"description,omitempty"`
	Enum        []string      `json:"enum,omitempty"`
}

// ParameterSchema is the declared argument schema of a tool. Nested shapes
// inside array/object parameters are not modeled; validation stops at the
// top level.
type ParameterSchema struct {
	Type       string                   `json:"type"`
	Properties map[string]ParameterSpec `json:"properties"`
	Required   []string                 `json:"required,omitempty"`
}

// EmptyParameterSchema returns the schema of a tool that declares no
// parameters.
func EmptyParameterSchema() ParameterSchema {
	return ParameterSchema{
		Type:       "object",
		Properties: map[string]ParameterSpec{},
	}
}

// ToolDescriptor is a named callable operation exposed by a server.
// Descriptors are replaced wholesale when a registry refresh updates the
// owning server; they are never mutated in place.
type ToolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  ParameterSchema `json:"parameters"`
}

// ServerRecord is the registry's record of a single tool server. Name is
// the sole identity key.
//
// EnabledTools tracks the user-selected subset of AvailableTools by name.
// A nil slice means the user never pinned a subset, in which case every
// available tool counts as enabled. An explicitly empty slice means no
// tools are enabled. The distinction survives persistence.
type ServerRecord struct {
	Name           string           `json:"name"`
	URL            string           `json:"url"`
	Enabled        bool             `json:"enabled"`
	Description    string           `json:"description,omitempty"`
	Tags           []string         `json:"tags"`
	LastUpdated    time.Time        `json:"last_updated"`
	AvailableTools []ToolDescriptor `json:"available_tools"`
	EnabledTools   []string         `json:"enabled_tools"`
}

// Tool returns the named tool descriptor, if present.
func (s *ServerRecord) Tool(name string) (ToolDescriptor, bool) {
	for _, t := range s.AvailableTools {
		if t.Name == name {
			return t, true
		}
	}
	return ToolDescriptor{}, false
}

// HasTool reports whether the named tool is available on the server.
func (s *ServerRecord) HasTool(name string) bool {
	_, ok := s.Tool(name)
	return ok
}

// ToolNames returns the names of all available tools in declaration order.
func (s *ServerRecord) ToolNames() []string {
	names := make([]string, 0, len(s.AvailableTools))
	for _, t := range s.AvailableTools {
		names = append(names, t.Name)
	}
	return names
}

// ToolEnabled reports whether the named tool is enabled on the server.
// Tools outside AvailableTools are never enabled.
func (s *ServerRecord) ToolEnabled(name string) bool {
	if !s.HasTool(name) {
		return false
	}
	if s.EnabledTools == nil {
		return true
	}
	return slices.Contains(s.EnabledTools, name)
}

// EffectiveEnabledTools resolves the enabled-tools subset, expanding the
// "never pinned" nil state to every available tool.
func (s *ServerRecord) EffectiveEnabledTools() []string {
	if s.EnabledTools == nil {
		return s.ToolNames()
	}
	return slices.Clone(s.EnabledTools)
}

// Clone returns a deep copy so registry snapshots cannot alias internal
// state.
func (s *ServerRecord) Clone() ServerRecord {
	out := *s
	out.Tags = slices.Clone(s.Tags)
	out.EnabledTools = slices.Clone(s.EnabledTools)
	out.AvailableTools = CloneTools(s.AvailableTools)
	return out
}

// CloneTools deep-copies tool descriptors, including each parameter
// schema's required list and property map.
func CloneTools(tools []ToolDescriptor) []ToolDescriptor {
	if tools == nil {
		return nil
	}
	out := make([]ToolDescriptor, len(tools))
	for i, t := range tools {
		td := t
		td.Parameters.Required = slices.Clone(t.Parameters.Required)
		if t.Parameters.Properties != nil {
			props := make(map[string]ParameterSpec, len(t.Parameters.Properties))
			for k, v := range t.Parameters.Properties {
				v.Enum = slices.Clone(v.Enum)
				props[k] = v
			}
			td.Parameters.Properties = props
		}
		out[i] = td
	}
	return out
}

// RegistryConfig configures the remote registry endpoint.
type RegistryConfig struct {
	URL                    string `json:"url"`
	AutoRefresh            bool   `json:"auto_refresh"`
	RefreshIntervalSeconds int    `json:"refresh_interval"`
}

// RemoteServerDescriptor is one entry of a remote registry listing.
type RemoteServerDescriptor struct {
	Name        string   `json:"name"`
	URL         string   `json:"url"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Tools       []string `json:"tools"`
}

// ReconcileResult reports how an upsert pass touched the registry.
type ReconcileResult struct {
	Created int
	Updated int
}
