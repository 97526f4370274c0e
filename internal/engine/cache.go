package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/netwatch-io/netwatch/internal/model"
)

// CacheFile is the advisory history cache written on shutdown. Unlike the
// config file it is machine-regenerated, so it is written once, read once,
// and every failure around it is tolerated.
const CacheFile = "cache.json"

// SaveCache writes the full in-memory history to path in one synchronous
// write. Called during shutdown.
func (e *Engine) SaveCache(path string) error {
	e.logger.Info("saving monitor cache", zap.String("path", path))
	data, err := json.Marshal(e.Statuses())
	if err != nil {
		return fmt.Errorf("serialize cache: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	return nil
}

// LoadCache restores records and debounced state from a previous run for
// every cached entry whose id is still configured. Entries for unknown ids
// are ignored, as is a missing or unreadable cache.
func (e *Engine) LoadCache(path string) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	if err != nil {
		e.logger.Error("failed to read cache file", zap.Error(err))
		return
	}
	var items []model.MonitorStatus
	if err := json.Unmarshal(data, &items); err != nil {
		e.logger.Error("failed to parse cache file", zap.Error(err))
		return
	}
	for _, item := range items {
		st, ok := e.states.Load(item.Target.ID)
		if !ok {
			continue
		}
		st.restore(item.Records, item.CurrentState)
		e.logger.Info("restored cache for target", zap.String("target", item.Target.Name))
	}
}
