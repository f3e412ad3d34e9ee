// Package mockregistry serves a static server catalog over HTTP for
// local development and sync testing.
package mockregistry

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"go.uber.org/zap"

	"mcpreg/internal/domain"
)

type Handler struct {
	logger  *zap.Logger
	servers []domain.RemoteServerDescriptor
	failing atomic.Bool
	mux     *http.ServeMux
}

type Options struct {
	Logger *zap.Logger
	// Servers overrides the served catalog. Nil serves the built-in fallback
	// dataset so a freshly started daemon syncs something useful.
	Servers []domain.RemoteServerDescriptor
}

func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	servers := opts.Servers
	if servers == nil {
		servers = defaultCatalog()
	}
	h := &Handler{logger: logger.Named("mockregistry"), servers: servers}
	h.mux = http.NewServeMux()
	h.mux.HandleFunc("GET /api/mcp-servers", h.handleServers)
	h.mux.HandleFunc("POST /admin/fail", h.handleFail)
	return h
}

// SetFailing flips the handler into an error state. Useful for exercising
// sync fallback paths end to end.
func (h *Handler) SetFailing(failing bool) {
	h.failing.Store(failing)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) handleServers(w http.ResponseWriter, r *http.Request) {
	if h.failing.Load() {
		h.logger.Warn("serving forced failure")
		http.Error(w, "registry unavailable", http.StatusServiceUnavailable)
		return
	}
	h.logger.Info("serving catalog", zap.Int("servers", len(h.servers)))
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"servers": h.servers})
}

type failRequest struct {
	Failing bool `json:"failing"`
}

func (h *Handler) handleFail(w http.ResponseWriter, r *http.Request) {
	var req failRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	h.SetFailing(req.Failing)
	w.WriteHeader(http.StatusNoContent)
}

func defaultCatalog() []domain.RemoteServerDescriptor {
	return []domain.RemoteServerDescriptor{
		{
			Name:        "github-mcp",
			URL:         "http://localhost:3001/mcp",
			Description: "GitHub integration server - create issues, manage repositories, and search code",
			Tags:        []string{"development", "git", "collaboration"},
			Tools:       []string{"create_issue", "get_repository", "search_code"},
		},
		{
			Name:        "slack-mcp",
			URL:         "http://localhost:3002/mcp",
			Description: "Slack communication server - send messages and manage channels",
			Tags:        []string{"communication", "messaging"},
			Tools:       []string{"send_message"},
		},
		{
			Name:        "database-mcp",
			URL:         "http://localhost:3003/mcp",
			Description: "Database access server - run queries against configured databases",
			Tags:        []string{"data", "sql"},
			Tools:       []string{"execute_query"},
		},
	}
}
