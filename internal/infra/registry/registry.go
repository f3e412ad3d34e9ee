package registry

import (
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"mcpreg/internal/domain"
)

// Registry owns every ServerRecord in the process. All mutation goes
// through its methods, which serialize the read-modify-persist sequence
// under a single lock so a reconcile racing a manual enable cannot tear
// the state. Reads work on deep copies and never expose internal records.
type Registry struct {
	mu      sync.RWMutex
	path    string
	logger  *zap.Logger
	metrics domain.Metrics
	clock   func() time.Time

	servers  map[string]*domain.ServerRecord
	config   domain.RegistryConfig
	lastSave time.Time
}

type Options struct {
	Logger  *zap.Logger
	Metrics domain.Metrics
	Clock   func() time.Time
	Config  domain.RegistryConfig
}

func New(path string, opts Options) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	cfg := opts.Config
	if cfg.URL == "" {
		cfg.URL = domain.DefaultRegistryURL
	}
	if cfg.RefreshIntervalSeconds < domain.MinRefreshIntervalSeconds {
		cfg.RefreshIntervalSeconds = domain.DefaultRefreshIntervalSeconds
	}
	return &Registry{
		path:    path,
		logger:  logger.Named("registry"),
		metrics: opts.Metrics,
		clock:   clock,
		servers: make(map[string]*domain.ServerRecord),
		config:  cfg,
	}
}

// Path returns the persisted store location.
func (r *Registry) Path() string {
	return r.path
}

// Config returns the current remote-registry configuration.
func (r *Registry) Config() domain.RegistryConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.config
}

// SetRegistryURL updates the remote registry endpoint and persists.
func (r *Registry) SetRegistryURL(url string) error {
	const op = "registry.set_url"
	if url == "" {
		return domain.E(domain.CodeInvalidArguments, op, "registry url is required", nil)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.config.URL = url
	if err := r.persistLocked(); err != nil {
		return err
	}
	r.logger.Info("registry url updated", zap.String("url", url))
	r.observeOp("set_url", nil)
	return nil
}

// GetServer returns a copy of the named record.
func (r *Registry) GetServer(name string) (domain.ServerRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.servers[name]
	if !ok {
		return domain.ServerRecord{}, false
	}
	return rec.Clone(), true
}

// ListAll returns copies of every record, sorted by name.
func (r *Registry) ListAll() []domain.ServerRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listLocked(func(*domain.ServerRecord) bool { return true })
}

// ListEnabled returns copies of every enabled record, sorted by name.
func (r *Registry) ListEnabled() []domain.ServerRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listLocked(func(s *domain.ServerRecord) bool { return s.Enabled })
}

func (r *Registry) listLocked(keep func(*domain.ServerRecord) bool) []domain.ServerRecord {
	out := make([]domain.ServerRecord, 0, len(r.servers))
	for _, rec := range r.servers {
		if keep(rec) {
			out = append(out, rec.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AddServerInput describes a manually added server. Enabled defaults to
// true when unset.
type AddServerInput struct {
	Name           string
	URL            string
	Description    string
	Tags           []string
	Enabled        *bool
	AvailableTools []domain.ToolDescriptor
}

// AddServer creates a new record. It fails when the name is missing or
// already taken.
func (r *Registry) AddServer(in AddServerInput) error {
	const op = "registry.add_server"
	if in.Name == "" {
		err := domain.E(domain.CodeInvalidArguments, op, "server name is required", nil)
		r.observeOp("add", err)
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.servers[in.Name]; exists {
		err := domain.E(domain.CodeDuplicateName, op, fmt.Sprintf("server %q already exists", in.Name), nil)
		r.observeOp("add", err)
		return err
	}

	enabled := true
	if in.Enabled != nil {
		enabled = *in.Enabled
	}
	rec := &domain.ServerRecord{
		Name:           in.Name,
		URL:            in.URL,
		Enabled:        enabled,
		Description:    in.Description,
		Tags:           slices.Clone(in.Tags),
		LastUpdated:    r.clock(),
		AvailableTools: domain.CloneTools(in.AvailableTools),
	}
	r.servers[in.Name] = rec
	if err := r.persistLocked(); err != nil {
		delete(r.servers, in.Name)
		r.observeOp("add", err)
		return err
	}
	r.logger.Info("server added", zap.String("server", in.Name), zap.Bool("enabled", enabled))
	r.observeOp("add", nil)
	return nil
}

// RemoveServer deletes the named record.
func (r *Registry) RemoveServer(name string) error {
	const op = "registry.remove_server"
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.servers[name]
	if !ok {
		err := domain.E(domain.CodeNotFound, op, fmt.Sprintf("server %q not found", name), nil)
		r.observeOp("remove", err)
		return err
	}
	delete(r.servers, name)
	if err := r.persistLocked(); err != nil {
		r.servers[name] = rec
		r.observeOp("remove", err)
		return err
	}
	r.logger.Info("server removed", zap.String("server", name))
	r.observeOp("remove", nil)
	return nil
}

// EnableServer marks the named server enabled. Enabling an already
// enabled server succeeds without touching LastUpdated or the store.
func (r *Registry) EnableServer(name string) error {
	return r.setEnabled(name, true)
}

// DisableServer marks the named server disabled. Same idempotency policy
// as EnableServer.
func (r *Registry) DisableServer(name string) error {
	return r.setEnabled(name, false)
}

func (r *Registry) setEnabled(name string, enabled bool) error {
	op := "registry.disable_server"
	metricOp := "disable"
	if enabled {
		op = "registry.enable_server"
		metricOp = "enable"
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.servers[name]
	if !ok {
		err := domain.E(domain.CodeNotFound, op, fmt.Sprintf("server %q not found", name), nil)
		r.observeOp(metricOp, err)
		return err
	}
	if rec.Enabled == enabled {
		r.observeOp(metricOp, nil)
		return nil
	}

	prevUpdated := rec.LastUpdated
	rec.Enabled = enabled
	rec.LastUpdated = r.clock()
	if err := r.persistLocked(); err != nil {
		rec.Enabled = !enabled
		rec.LastUpdated = prevUpdated
		r.observeOp(metricOp, err)
		return err
	}
	r.logger.Info("server toggled", zap.String("server", name), zap.Bool("enabled", enabled))
	r.observeOp(metricOp, nil)
	return nil
}

// UpdateEnabledTools replaces the enabled-tools subset of a server. Every
// requested name must exist in AvailableTools; the first unknown name
// rejects the whole update.
func (r *Registry) UpdateEnabledTools(serverName string, toolNames []string) error {
	const op = "registry.update_enabled_tools"
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.servers[serverName]
	if !ok {
		err := domain.E(domain.CodeNotFound, op, fmt.Sprintf("server %q not found", serverName), nil)
		r.observeOp("update_tools", err)
		return err
	}
	for _, tool := range toolNames {
		if !rec.HasTool(tool) {
			err := domain.E(domain.CodeInvalidArguments, op,
				fmt.Sprintf("tool %q is not available on server %q", tool, serverName), nil)
			err.Meta = map[string]string{"tool": tool}
			r.observeOp("update_tools", err)
			return err
		}
	}

	prevTools := rec.EnabledTools
	prevUpdated := rec.LastUpdated
	if toolNames == nil {
		toolNames = []string{}
	}
	rec.EnabledTools = slices.Clone(toolNames)
	rec.LastUpdated = r.clock()
	if err := r.persistLocked(); err != nil {
		rec.EnabledTools = prevTools
		rec.LastUpdated = prevUpdated
		r.observeOp("update_tools", err)
		return err
	}
	r.logger.Info("enabled tools updated",
		zap.String("server", serverName),
		zap.Strings("tools", toolNames),
	)
	r.observeOp("update_tools", nil)
	return nil
}

// Reconcile upserts remote registry listings into local state. Existing
// records keep their Enabled flag and pinned EnabledTools subset (clipped
// to the new tool list); URL, description, tags and available tools are
// replaced with the remote values. Servers absent from the remote payload
// are left untouched, so manually added servers survive every sync.
func (r *Registry) Reconcile(remote []domain.RemoteServerDescriptor) (domain.ReconcileResult, error) {
	const op = "registry.reconcile"
	r.mu.Lock()
	defer r.mu.Unlock()

	var result domain.ReconcileResult
	now := r.clock()
	for _, desc := range remote {
		if desc.Name == "" {
			continue
		}
		tools := toolDescriptorsFromNames(desc.Tools)
		existing, ok := r.servers[desc.Name]
		if !ok {
			r.servers[desc.Name] = &domain.ServerRecord{
				Name:           desc.Name,
				URL:            desc.URL,
				Enabled:        true,
				Description:    desc.Description,
				Tags:           slices.Clone(desc.Tags),
				LastUpdated:    now,
				AvailableTools: tools,
			}
			result.Created++
			continue
		}

		existing.URL = desc.URL
		existing.Description = desc.Description
		existing.Tags = slices.Clone(desc.Tags)
		existing.AvailableTools = tools
		if existing.EnabledTools != nil {
			existing.EnabledTools = intersect(existing.EnabledTools, desc.Tools)
		}
		existing.LastUpdated = now
		result.Updated++
	}

	if err := r.persistLocked(); err != nil {
		r.observeOp("reconcile", err)
		return result, err
	}
	r.logger.Info("registry reconciled",
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("total", len(r.servers)),
	)
	r.observeOp("reconcile", nil)
	return result, nil
}

// ReplaceAvailableTools swaps the named server's tool catalog for a
// freshly probed one. The Enabled flag is untouched and a pinned
// EnabledTools subset is clipped to the new tool names, matching what a
// remote reconcile does. Returns the updated record.
func (r *Registry) ReplaceAvailableTools(serverName string, tools []domain.ToolDescriptor) (domain.ServerRecord, error) {
	const op = "registry.replace_available_tools"
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.servers[serverName]
	if !ok {
		err := domain.E(domain.CodeNotFound, op, fmt.Sprintf("server %q not found", serverName), nil)
		r.observeOp("replace_tools", err)
		return domain.ServerRecord{}, err
	}

	prevTools := rec.AvailableTools
	prevEnabled := rec.EnabledTools
	prevUpdated := rec.LastUpdated
	rec.AvailableTools = domain.CloneTools(tools)
	if rec.EnabledTools != nil {
		rec.EnabledTools = intersect(rec.EnabledTools, rec.ToolNames())
	}
	rec.LastUpdated = r.clock()
	if err := r.persistLocked(); err != nil {
		rec.AvailableTools = prevTools
		rec.EnabledTools = prevEnabled
		rec.LastUpdated = prevUpdated
		r.observeOp("replace_tools", err)
		return domain.ServerRecord{}, err
	}
	r.logger.Info("available tools replaced",
		zap.String("server", serverName),
		zap.Int("tools", len(rec.AvailableTools)),
	)
	r.observeOp("replace_tools", nil)
	return rec.Clone(), nil
}

func (r *Registry) observeOp(op string, err error) {
	if r.metrics == nil {
		return
	}
	r.metrics.ObserveRegistryOp(op, err)
	total, enabled := 0, 0
	for _, rec := range r.servers {
		total++
		if rec.Enabled {
			enabled++
		}
	}
	r.metrics.SetServerCounts(total, enabled)
}

func toolDescriptorsFromNames(names []string) []domain.ToolDescriptor {
	tools := make([]domain.ToolDescriptor, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		tools = append(tools, domain.ToolDescriptor{
			Name:        name,
			Description: "Tool: " + name,
			Parameters:  domain.EmptyParameterSchema(),
		})
	}
	return tools
}

func intersect(subset []string, allowed []string) []string {
	out := make([]string, 0, len(subset))
	for _, name := range subset {
		if slices.Contains(allowed, name) {
			out = append(out, name)
		}
	}
	return out
}
