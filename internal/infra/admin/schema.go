package admin

import (
	"fmt"
	"sort"

	"mcpreg/internal/domain"
)

type ToolSchema struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  domain.ParameterSchema `json:"parameters"`
	Server      string                 `json:"server"`
	FullName    string                 `json:"full_name"`
	Enabled     bool                   `json:"enabled"`
	Examples    *ToolExample           `json:"examples,omitempty"`
}

type ToolExample struct {
	Description       string         `json:"description"`
	ExampleParameters map[string]any `json:"example_parameters"`
}

type SchemaServerInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
	URL         string `json:"url"`
}

type SchemaServerEntry struct {
	ServerInfo SchemaServerInfo `json:"server_info"`
	Tools      []ToolSchema     `json:"tools"`
}

type SchemaReport struct {
	Servers          map[string]SchemaServerEntry `json:"servers"`
	TotalTools       int                          `json:"total_tools"`
	AvailableServers []string                     `json:"available_servers"`
}

type SchemaQuery struct {
	// ServerName narrows to one server (enabled or not). Empty means all
	// enabled servers.
	ServerName string
	// ToolName narrows to one tool across the selected servers.
	ToolName string
	// IncludeExamples attaches canned usage examples to each tool.
	IncludeExamples bool
}

// BuildSchemaReport exports tool schemas the way agents consume them,
// one entry per server with a globally unique full_name per tool.
func BuildSchemaReport(servers []domain.ServerRecord, query SchemaQuery) (SchemaReport, error) {
	selected := servers
	if query.ServerName != "" {
		found := false
		for _, server := range servers {
			if server.Name == query.ServerName {
				selected = []domain.ServerRecord{server}
				found = true
				break
			}
		}
		if !found {
			return SchemaReport{}, domain.E(domain.CodeNotFound, "admin.schema",
				fmt.Sprintf("server %q not found", query.ServerName), nil)
		}
	} else {
		selected = selectServers(servers, false)
	}

	report := SchemaReport{Servers: make(map[string]SchemaServerEntry, len(selected))}
	for _, server := range selected {
		entry := SchemaServerEntry{
			ServerInfo: SchemaServerInfo{
				Name:        server.Name,
				Description: server.Description,
				Enabled:     server.Enabled,
				URL:         server.URL,
			},
			Tools: []ToolSchema{},
		}
		for _, tool := range server.AvailableTools {
			if query.ToolName != "" && tool.Name != query.ToolName {
				continue
			}
			schema := ToolSchema{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
				Server:      server.Name,
				FullName:    server.Name + "." + tool.Name,
				Enabled:     server.ToolEnabled(tool.Name),
			}
			if query.IncludeExamples {
				schema.Examples = exampleFor(tool.Name, server.Name)
			}
			entry.Tools = append(entry.Tools, schema)
			report.TotalTools++
		}
		if query.ToolName != "" && len(entry.Tools) == 0 {
			continue
		}
		report.Servers[server.Name] = entry
		report.AvailableServers = append(report.AvailableServers, server.Name)
	}
	sort.Strings(report.AvailableServers)
	return report, nil
}

func exampleFor(toolName, serverName string) *ToolExample {
	switch toolName {
	case "create_issue":
		return &ToolExample{
			Description: "Create a new issue in a GitHub repository",
			ExampleParameters: map[string]any{
				"repository": "owner/repo-name",
				"title":      "Bug: Application crashes on startup",
				"body":       "The application crashes when starting up with the following error...",
				"labels":     []any{"bug", "high-priority"},
			},
		}
	case "send_message":
		return &ToolExample{
			Description: "Send a message to a Slack channel",
			ExampleParameters: map[string]any{
				"channel":   "#general",
				"message":   "Hello team! The deployment was successful.",
				"thread_ts": nil,
			},
		}
	case "execute_query":
		return &ToolExample{
			Description: "Execute a SQL query on the database",
			ExampleParameters: map[string]any{
				"query":    "SELECT * FROM users WHERE active = true LIMIT 10",
				"database": "production",
			},
		}
	default:
		return &ToolExample{
			Description:       fmt.Sprintf("Execute %s on %s", toolName, serverName),
			ExampleParameters: map[string]any{},
		}
	}
}
