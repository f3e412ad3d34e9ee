package app

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"mcpreg/internal/domain"
	"mcpreg/internal/infra/registry"
)

// watchStore reloads the registry when its store file is edited on disk
// by something other than the daemon itself. Events are debounced since
// editors fire several writes per save.
func (a *App) watchStore(ctx context.Context, reg *registry.Registry) {
	logger := a.logger.Named("store_watcher")
	debounce := time.Duration(domain.DefaultStoreReloadDebounceMsec) * time.Millisecond

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("store watcher failed", zap.Error(err))
		return
	}
	defer watcher.Close()

	storePath := reg.Path()
	if err := watcher.Add(filepath.Dir(storePath)); err != nil {
		logger.Warn("store watcher add failed", zap.String("path", storePath), zap.Error(err))
		return
	}

	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-watcher.Errors:
			if err != nil {
				logger.Warn("store watcher error", zap.Error(err))
			}
		case event := <-watcher.Events:
			if filepath.Clean(event.Name) != filepath.Clean(storePath) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)
		case <-timerChan(timer):
			timer = nil
			if ownSave(storePath, reg.LastSaveTime()) {
				continue
			}
			if err := reg.Load(); err != nil {
				logger.Warn("store reload failed", zap.Error(err))
				continue
			}
			logger.Info("store reloaded from disk", zap.Int("servers", len(reg.ListAll())))
		}
	}
}

// ownSave reports whether the latest store write came from this process.
// The atomic rename in Save lands at or before LastSaveTime, so anything
// not newer than it is our own write.
func ownSave(path string, lastSave time.Time) bool {
	if lastSave.IsZero() {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.ModTime().After(lastSave)
}

func timerChan(timer *time.Timer) <-chan time.Time {
	if timer == nil {
		return nil
	}
	return timer.C
}
