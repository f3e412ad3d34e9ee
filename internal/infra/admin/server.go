// Package admin exposes the registry over a local JSON HTTP API. It is
// the surface both the control CLI and dashboards talk to.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"mcpreg/internal/domain"
	"mcpreg/internal/infra/registry"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, req domain.DispatchRequest) domain.DispatchResult
}

type Refresher interface {
	Refresh(ctx context.Context) ([]domain.ServerRecord, error)
}

type HistoryReader interface {
	Recent(limit int) ([]domain.ExecutionRecord, error)
}

// Prober fetches a server's live tool catalog over its wire protocol.
type Prober interface {
	ListTools(ctx context.Context, server domain.ServerRecord) ([]domain.ToolDescriptor, error)
}

type Server struct {
	registry   *registry.Registry
	dispatcher Dispatcher
	refresher  Refresher
	history    HistoryReader
	prober     Prober
	logger     *zap.Logger
	addr       string
}

type Options struct {
	Addr       string
	Dispatcher Dispatcher
	Refresher  Refresher
	History    HistoryReader
	Prober     Prober
	Logger     *zap.Logger
}

func NewServer(reg *registry.Registry, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	addr := opts.Addr
	if addr == "" {
		addr = domain.DefaultAdminListenAddress
	}
	return &Server{
		registry:   reg,
		dispatcher: opts.Dispatcher,
		refresher:  opts.Refresher,
		history:    opts.History,
		prober:     opts.Prober,
		logger:     logger.Named("admin"),
		addr:       addr,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/servers", s.handleListServers)
	mux.HandleFunc("POST /api/servers", s.handleAddServer)
	mux.HandleFunc("GET /api/servers/{name}", s.handleServerDetail)
	mux.HandleFunc("DELETE /api/servers/{name}", s.handleRemoveServer)
	mux.HandleFunc("POST /api/servers/{name}/enable", s.handleSetEnabled(true))
	mux.HandleFunc("POST /api/servers/{name}/disable", s.handleSetEnabled(false))
	mux.HandleFunc("POST /api/servers/{name}/probe", s.handleProbe)
	mux.HandleFunc("GET /api/servers/{name}/tools", s.handleListTools)
	mux.HandleFunc("PUT /api/servers/{name}/tools", s.handleUpdateTools)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/analytics", s.handleAnalytics)
	mux.HandleFunc("GET /api/schema", s.handleSchema)
	mux.HandleFunc("GET /api/registry", s.handleGetRegistryConfig)
	mux.HandleFunc("PUT /api/registry", s.handleSetRegistryURL)
	mux.HandleFunc("GET /api/executions", s.handleExecutions)
	mux.HandleFunc("POST /api/dispatch", s.handleDispatch)
	return mux
}

// Start serves the admin API until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("admin server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("admin server failed to start: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("admin server shutdown error", zap.Error(err))
			return err
		}
		s.logger.Info("admin server stopped")
		return nil
	}
}

type serverListResponse struct {
	Servers      []domain.ServerRecord `json:"servers"`
	TotalServers int                   `json:"total_servers"`
}

func (s *Server) handleListServers(w http.ResponseWriter, r *http.Request) {
	var servers []domain.ServerRecord
	if boolQuery(r, "include_disabled") {
		servers = s.registry.ListAll()
	} else {
		servers = s.registry.ListEnabled()
	}
	writeJSON(w, http.StatusOK, serverListResponse{Servers: servers, TotalServers: len(servers)})
}

type AddServerRequest struct {
	Name           string                  `json:"name"`
	URL            string                  `json:"url"`
	Description    string                  `json:"description"`
	Tags           []string                `json:"tags"`
	Enabled        *bool                   `json:"enabled"`
	AvailableTools []domain.ToolDescriptor `json:"available_tools"`
}

func (s *Server) handleAddServer(w http.ResponseWriter, r *http.Request) {
	var req AddServerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	err := s.registry.AddServer(registry.AddServerInput{
		Name:           req.Name,
		URL:            req.URL,
		Description:    req.Description,
		Tags:           req.Tags,
		Enabled:        req.Enabled,
		AvailableTools: req.AvailableTools,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	record, _ := s.registry.GetServer(req.Name)
	writeJSON(w, http.StatusCreated, record)
}

func (s *Server) handleServerDetail(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	record, ok := s.registry.GetServer(name)
	if !ok {
		writeError(w, domain.E(domain.CodeNotFound, "admin.server_detail",
			fmt.Sprintf("server %q not found", name), nil))
		return
	}
	writeJSON(w, http.StatusOK, BuildServerDetail(record))
}

func (s *Server) handleRemoveServer(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.RemoveServer(r.PathValue("name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetEnabled(enabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		var err error
		if enabled {
			err = s.registry.EnableServer(name)
		} else {
			err = s.registry.DisableServer(name)
		}
		if err != nil {
			writeError(w, err)
			return
		}
		record, _ := s.registry.GetServer(name)
		writeJSON(w, http.StatusOK, record)
	}
}

type ToolListResponse struct {
	Server       string       `json:"server"`
	Tools        []ToolDetail `json:"tools"`
	EnabledTools []string     `json:"enabled_tools"`
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	record, ok := s.registry.GetServer(name)
	if !ok {
		writeError(w, domain.E(domain.CodeNotFound, "admin.list_tools",
			fmt.Sprintf("server %q not found", name), nil))
		return
	}
	detail := BuildServerDetail(record)
	writeJSON(w, http.StatusOK, ToolListResponse{
		Server:       name,
		Tools:        detail.Tools,
		EnabledTools: record.EffectiveEnabledTools(),
	})
}

type updateToolsRequest struct {
	EnabledTools []string `json:"enabled_tools"`
}

func (s *Server) handleUpdateTools(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	var req updateToolsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.registry.UpdateEnabledTools(name, req.EnabledTools); err != nil {
		writeError(w, err)
		return
	}
	record, _ := s.registry.GetServer(name)
	writeJSON(w, http.StatusOK, ToolListResponse{
		Server:       name,
		Tools:        BuildServerDetail(record).Tools,
		EnabledTools: record.EffectiveEnabledTools(),
	})
}

type ProbeResponse struct {
	Server       string       `json:"server"`
	Tools        []ToolDetail `json:"tools"`
	EnabledTools []string     `json:"enabled_tools"`
}

// handleProbe asks the server itself for its tool catalog and stores the
// result, replacing whatever placeholder descriptors a registry sync left
// behind. Tool pins survive when the pinned names still exist.
func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	const op = "admin.probe"
	name := r.PathValue("name")
	if s.prober == nil {
		writeError(w, domain.E(domain.CodeInternal, op, "live probing is not configured", nil))
		return
	}
	record, ok := s.registry.GetServer(name)
	if !ok {
		writeError(w, domain.E(domain.CodeNotFound, op,
			fmt.Sprintf("server %q not found", name), nil))
		return
	}
	tools, err := s.prober.ListTools(r.Context(), record)
	if err != nil {
		writeError(w, err)
		return
	}
	updated, err := s.registry.ReplaceAvailableTools(name, tools)
	if err != nil {
		writeError(w, err)
		return
	}
	s.logger.Info("server probed",
		zap.String("server", name),
		zap.Int("tools", len(tools)),
	)
	writeJSON(w, http.StatusOK, ProbeResponse{
		Server:       name,
		Tools:        BuildServerDetail(updated).Tools,
		EnabledTools: updated.EffectiveEnabledTools(),
	})
}

type RefreshResponse struct {
	ServersUpdated int    `json:"servers_updated"`
	Message        string `json:"message"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.refresher == nil {
		writeError(w, domain.E(domain.CodeInternal, "admin.refresh", "registry sync is not configured", nil))
		return
	}
	servers, err := s.refresher.Refresh(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RefreshResponse{
		ServersUpdated: len(servers),
		Message:        fmt.Sprintf("Successfully refreshed registry with %d servers", len(servers)),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	report := BuildStatusReport(s.registry.ListAll(), boolQuery(r, "include_disabled"))
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	report := BuildAnalyticsReport(s.registry.ListAll(), boolQuery(r, "include_disabled"))
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	report, err := BuildSchemaReport(s.registry.ListAll(), SchemaQuery{
		ServerName:      r.URL.Query().Get("server"),
		ToolName:        r.URL.Query().Get("tool"),
		IncludeExamples: boolQuery(r, "include_examples"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleGetRegistryConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Config())
}

type setRegistryRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleSetRegistryURL(w http.ResponseWriter, r *http.Request) {
	var req setRegistryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.registry.SetRegistryURL(req.URL); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.registry.Config())
}

type executionListResponse struct {
	Executions []domain.ExecutionRecord `json:"executions"`
	Total      int                      `json:"total"`
}

func (s *Server) handleExecutions(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusOK, executionListResponse{Executions: []domain.ExecutionRecord{}})
		return
	}
	limit := domain.DefaultDispatchRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, domain.E(domain.CodeInvalidArguments, "admin.executions",
				"limit must be a positive integer", nil))
			return
		}
		limit = parsed
	}
	records, err := s.history.Recent(limit)
	if err != nil {
		writeError(w, domain.Wrap(domain.CodeInternal, "admin.executions", err))
		return
	}
	if records == nil {
		records = []domain.ExecutionRecord{}
	}
	writeJSON(w, http.StatusOK, executionListResponse{Executions: records, Total: len(records)})
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	if s.dispatcher == nil {
		writeError(w, domain.E(domain.CodeInternal, "admin.dispatch", "dispatcher is not configured", nil))
		return
	}
	var req domain.DispatchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	// Dispatch outcomes are always 200: success or failure is carried in
	// the result body, matching what tool-calling agents expect.
	result := s.dispatcher.Dispatch(r.Context(), req)
	writeJSON(w, http.StatusOK, result)
}

func boolQuery(r *http.Request, name string) bool {
	value, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && value
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeError(w, domain.E(domain.CodeInvalidArguments, "admin.decode",
			fmt.Sprintf("invalid request body: %v", err), nil))
		return false
	}
	return true
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    domain.ErrorCode `json:"code"`
	Message string           `json:"message"`
}

func writeError(w http.ResponseWriter, err error) {
	code := domain.CodeOf(err)
	message := err.Error()
	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		message = domainErr.Message
		if message == "" && domainErr.Cause != nil {
			message = domainErr.Cause.Error()
		}
	}
	writeJSON(w, statusFor(code), errorResponse{Error: errorBody{Code: code, Message: message}})
}

func statusFor(code domain.ErrorCode) int {
	switch code {
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeDuplicateName, domain.CodeDisabled:
		return http.StatusConflict
	case domain.CodeInvalidArguments:
		return http.StatusBadRequest
	case domain.CodeSyncFailed, domain.CodeExecutionFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
