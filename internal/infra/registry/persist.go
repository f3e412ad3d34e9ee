package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"mcpreg/internal/domain"
)

const (
	dirMode  = 0o755
	fileMode = 0o644
)

type persistedState struct {
	Servers     map[string]domain.ServerRecord `json:"servers"`
	Registry    domain.RegistryConfig          `json:"registry"`
	LastUpdated time.Time                      `json:"last_updated"`
}

// Load reads the persisted store. A missing, unreadable or corrupt file
// starts the registry empty instead of failing initialization.
func (r *Registry) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			r.logger.Info("store not found, starting empty", zap.String("path", r.path))
		} else {
			r.logger.Error("store unreadable, starting empty", zap.String("path", r.path), zap.Error(err))
		}
		r.servers = make(map[string]*domain.ServerRecord)
		return nil
	}

	var state persistedState
	if err := json.Unmarshal(data, &state); err != nil {
		r.logger.Error("store corrupt, starting empty", zap.String("path", r.path), zap.Error(err))
		r.servers = make(map[string]*domain.ServerRecord)
		return nil
	}

	servers := make(map[string]*domain.ServerRecord, len(state.Servers))
	for name, rec := range state.Servers {
		if rec.Name == "" {
			rec.Name = name
		}
		clone := rec.Clone()
		servers[name] = &clone
	}
	r.servers = servers
	if state.Registry.URL != "" {
		cfg := state.Registry
		if cfg.RefreshIntervalSeconds < domain.MinRefreshIntervalSeconds {
			cfg.RefreshIntervalSeconds = domain.MinRefreshIntervalSeconds
		}
		r.config = cfg
	}
	r.logger.Info("store loaded", zap.String("path", r.path), zap.Int("servers", len(servers)))
	return nil
}

// Save persists the full state. Unlike Load, failures propagate: silent
// loss of configuration is unacceptable.
func (r *Registry) Save() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.persistLocked()
}

// LastSaveTime reports when the store file was last written by this
// process. The file watcher uses it to tell external edits from our own.
func (r *Registry) LastSaveTime() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastSave
}

// persistLocked writes the state with write-then-rename so a crash mid
// write never leaves a half-written store. Caller holds the write lock.
func (r *Registry) persistLocked() error {
	const op = "registry.save"

	state := persistedState{
		Servers:     make(map[string]domain.ServerRecord, len(r.servers)),
		Registry:    r.config,
		LastUpdated: r.clock(),
	}
	for name, rec := range r.servers {
		state.Servers[name] = rec.Clone()
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return domain.E(domain.CodePersistenceFailed, op, "encode store", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return domain.E(domain.CodePersistenceFailed, op, fmt.Sprintf("ensure store dir %s", dir), err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".tmp-*")
	if err != nil {
		return domain.E(domain.CodePersistenceFailed, op, "create temp store", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return domain.E(domain.CodePersistenceFailed, op, "write temp store", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return domain.E(domain.CodePersistenceFailed, op, "close temp store", err)
	}
	if err := os.Chmod(tmpPath, fileMode); err != nil {
		_ = os.Remove(tmpPath)
		return domain.E(domain.CodePersistenceFailed, op, "chmod temp store", err)
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		_ = os.Remove(tmpPath)
		return domain.E(domain.CodePersistenceFailed, op, fmt.Sprintf("replace store %s", r.path), err)
	}

	r.lastSave = time.Now()
	r.logger.Debug("store saved", zap.String("path", r.path), zap.Int("servers", len(r.servers)))
	return nil
}
