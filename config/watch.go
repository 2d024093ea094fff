package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchFile notifies on writes to path, the minimal primitive the CLI/
// settings-module collaborator builds hot-reload policy on top of. The core
// itself does not reload Settings — Init consumes one immutable snapshot —
// but it exposes the file-change signal the same way the teacher's
// HotReloadSystem did, since both need exactly the one fsnotify call.
func WatchFile(ctx context.Context, path string) (<-chan struct{}, <-chan error, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, fmt.Errorf("create file watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, nil, fmt.Errorf("watch dir %s: %w", dir, err)
	}

	changes := make(chan struct{}, 1)
	errs := make(chan error, 1)

	go func() {
		defer watcher.Close()
		defer close(changes)
		defer close(errs)
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Name != path {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					select {
					case changes <- struct{}{}:
					default:
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				select {
				case errs <- err:
				default:
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return changes, errs, nil
}
