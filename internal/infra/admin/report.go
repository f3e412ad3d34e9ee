package admin

import (
	"sort"
	"time"

	"mcpreg/internal/domain"
)

type ServerStatus struct {
	Name        string    `json:"name"`
	Enabled     bool      `json:"enabled"`
	Description string    `json:"description"`
	ToolsCount  int       `json:"tools_count"`
	Tags        []string  `json:"tags"`
	LastUpdated time.Time `json:"last_updated"`
	URL         string    `json:"url"`
}

type StatusReport struct {
	TotalServers    int                     `json:"total_servers"`
	EnabledServers  int                     `json:"enabled_servers"`
	DisabledServers int                     `json:"disabled_servers"`
	TotalTools      int                     `json:"total_tools"`
	Servers         map[string]ServerStatus `json:"servers"`
	SystemStatus    string                  `json:"system_status"`
}

type ToolDetail struct {
	Name           string                 `json:"name"`
	Description    string                 `json:"description"`
	Parameters     domain.ParameterSchema `json:"parameters"`
	ParameterCount int                    `json:"parameter_count"`
	Enabled        bool                   `json:"enabled"`
}

type ServerDetail struct {
	Name        string       `json:"name"`
	URL         string       `json:"url"`
	Enabled     bool         `json:"enabled"`
	Description string       `json:"description"`
	Tags        []string     `json:"tags"`
	LastUpdated time.Time    `json:"last_updated"`
	Tools       []ToolDetail `json:"tools"`
	ToolsCount  int          `json:"tools_count"`
	Status      string       `json:"status"`
}

type NamedCount struct {
	Name        string `json:"name"`
	ServerCount int    `json:"server_count"`
}

type TagCount struct {
	Tag         string `json:"tag"`
	ServerCount int    `json:"server_count"`
}

type AnalyticsOverview struct {
	TotalServers   int `json:"total_servers"`
	EnabledServers int `json:"enabled_servers"`
	TotalTools     int `json:"total_tools"`
	UniqueTools    int `json:"unique_tools"`
	TotalTags      int `json:"total_tags"`
}

type AnalyticsReport struct {
	Overview           AnalyticsOverview `json:"overview"`
	ToolsByServer      map[string]int    `json:"tools_by_server"`
	TopTools           []NamedCount      `json:"top_tools"`
	PopularTags        []TagCount        `json:"popular_tags"`
	ServerDistribution map[string]int    `json:"server_distribution"`
}

// BuildStatusReport summarizes the registry. Server counts always cover
// every record; tool totals and per-server stats cover only the selected
// set (enabled servers, or everything when includeDisabled).
func BuildStatusReport(servers []domain.ServerRecord, includeDisabled bool) StatusReport {
	enabledCount := 0
	for _, server := range servers {
		if server.Enabled {
			enabledCount++
		}
	}

	selected := selectServers(servers, includeDisabled)
	report := StatusReport{
		TotalServers:    len(servers),
		EnabledServers:  enabledCount,
		DisabledServers: len(servers) - enabledCount,
		Servers:         make(map[string]ServerStatus, len(selected)),
		SystemStatus:    "healthy",
	}
	if enabledCount == 0 {
		report.SystemStatus = "no_servers_enabled"
	}

	for _, server := range selected {
		report.TotalTools += len(server.AvailableTools)
		report.Servers[server.Name] = ServerStatus{
			Name:        server.Name,
			Enabled:     server.Enabled,
			Description: server.Description,
			ToolsCount:  len(server.AvailableTools),
			Tags:        server.Tags,
			LastUpdated: server.LastUpdated,
			URL:         server.URL,
		}
	}
	return report
}

func BuildServerDetail(server domain.ServerRecord) ServerDetail {
	detail := ServerDetail{
		Name:        server.Name,
		URL:         server.URL,
		Enabled:     server.Enabled,
		Description: server.Description,
		Tags:        server.Tags,
		LastUpdated: server.LastUpdated,
		Tools:       make([]ToolDetail, 0, len(server.AvailableTools)),
		ToolsCount:  len(server.AvailableTools),
		Status:      "active",
	}
	if !server.Enabled {
		detail.Status = "disabled"
	}
	for _, tool := range server.AvailableTools {
		detail.Tools = append(detail.Tools, ToolDetail{
			Name:           tool.Name,
			Description:    tool.Description,
			Parameters:     tool.Parameters,
			ParameterCount: len(tool.Parameters.Properties),
			Enabled:        server.ToolEnabled(tool.Name),
		})
	}
	return detail
}

func BuildAnalyticsReport(servers []domain.ServerRecord, includeDisabled bool) AnalyticsReport {
	enabledCount := 0
	for _, server := range servers {
		if server.Enabled {
			enabledCount++
		}
	}

	selected := selectServers(servers, includeDisabled)
	toolsByServer := make(map[string]int, len(selected))
	toolCounts := map[string]int{}
	tagCounts := map[string]int{}
	totalTools := 0

	for _, server := range selected {
		toolsByServer[server.Name] = len(server.AvailableTools)
		totalTools += len(server.AvailableTools)
		for _, tool := range server.AvailableTools {
			toolCounts[tool.Name]++
		}
		for _, tag := range server.Tags {
			tagCounts[tag]++
		}
	}

	return AnalyticsReport{
		Overview: AnalyticsOverview{
			TotalServers:   len(servers),
			EnabledServers: enabledCount,
			TotalTools:     totalTools,
			UniqueTools:    len(toolCounts),
			TotalTags:      len(tagCounts),
		},
		ToolsByServer: toolsByServer,
		TopTools:      topTools(toolCounts, 10),
		PopularTags:   topTags(tagCounts, 10),
		ServerDistribution: map[string]int{
			"enabled":  enabledCount,
			"disabled": len(servers) - enabledCount,
		},
	}
}

func selectServers(servers []domain.ServerRecord, includeDisabled bool) []domain.ServerRecord {
	if includeDisabled {
		return servers
	}
	selected := make([]domain.ServerRecord, 0, len(servers))
	for _, server := range servers {
		if server.Enabled {
			selected = append(selected, server)
		}
	}
	return selected
}

func topTools(counts map[string]int, limit int) []NamedCount {
	entries := make([]NamedCount, 0, len(counts))
	for name, count := range counts {
		entries = append(entries, NamedCount{Name: name, ServerCount: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ServerCount != entries[j].ServerCount {
			return entries[i].ServerCount > entries[j].ServerCount
		}
		return entries[i].Name < entries[j].Name
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

func topTags(counts map[string]int, limit int) []TagCount {
	entries := make([]TagCount, 0, len(counts))
	for tag, count := range counts {
		entries = append(entries, TagCount{Tag: tag, ServerCount: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ServerCount != entries[j].ServerCount {
			return entries[i].ServerCount > entries[j].ServerCount
		}
		return entries[i].Tag < entries[j].Tag
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
