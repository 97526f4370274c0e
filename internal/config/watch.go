package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/netwatch-io/netwatch/internal/model"
)

// watchSettle coalesces bursts of filesystem events (editors typically write,
// chmod, and rename in quick succession) into a single reload.
const watchSettle = 250 * time.Millisecond

// Watch observes the config file until ctx is done and invokes onChange with
// the freshly loaded config after each edit. The parent directory is watched
// because atomic saves replace the file by rename, which would orphan a watch
// registered on the file itself.
//
// A file that temporarily fails to load (mid-edit, syntax error) is logged
// and skipped; the previous config stays in effect.
func (s *Store) Watch(ctx context.Context, onChange func(model.AppConfig)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer w.Close()

	dir := filepath.Dir(s.path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	name := filepath.Clean(s.path)

	var settle *time.Timer
	var settleC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != name {
				continue
			}
			if !ev.Has(fsnotify.Write | fsnotify.Create | fsnotify.Rename) {
				continue
			}
			if settle == nil {
				settle = time.NewTimer(watchSettle)
				settleC = settle.C
			} else {
				settle.Reset(watchSettle)
			}
		case <-settleC:
			settle = nil
			settleC = nil
			cfg, err := s.Load()
			if err != nil {
				s.logger.Warn("config changed on disk but failed to load", zap.Error(err))
				continue
			}
			s.logger.Info("config file changed on disk, reloading")
			onChange(cfg)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("config watcher error", zap.Error(err))
		}
	}
}
