package plugin

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch re-runs manifest discovery whenever a manifest file appears or
// changes under dir, until ctx is cancelled. Discovery is idempotent, so a
// burst of filesystem events at worst causes redundant rescans.
func (m *Manager) Watch(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
					continue
				}
				if !manifestName(filepath.Base(event.Name)) {
					continue
				}
				m.logger.Debug("manifest change detected", zap.String("path", event.Name))
				if err := m.DiscoverDir(dir); err != nil {
					m.logger.Warn("rescan reported errors", zap.Error(err))
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				m.logger.Warn("watch error", zap.Error(err))
			}
		}
	}()
	return nil
}
