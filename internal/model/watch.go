package model

import (
	"context"
	"fmt"
	"path/filepath"

	"machpredict/internal/logger"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads a tool's artifact whenever its file is written or replaced in
// the registry's directory. It blocks until ctx is cancelled.
func (r *Registry) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("model watcher: %w", err)
	}
	defer watcher.Close()

	byPath := make(map[string]string)
	dirs := make(map[string]bool)
	for _, tool := range r.table.Tools() {
		path := filepath.Clean(r.ArtifactPath(tool))
		byPath[path] = tool
		dirs[filepath.Dir(path)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("model watcher: watch %s: %w", dir, err)
		}
	}
	logger.Infof("watching %d model artifacts for changes", len(byPath))

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			tool, known := byPath[filepath.Clean(evt.Name)]
			if !known || evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			logger.With(tool).Infof("model artifact changed op=%s", evt.Op)
			_ = r.Load(tool)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("model watcher error: %v", err)
		}
	}
}
