package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/netwatch-io/netwatch/internal/config"
	"github.com/netwatch-io/netwatch/internal/metrics"
)

// RunPersistence drains StateChanged events sequentially until ctx is done.
// For each event it writes the new state onto the in-memory target, rewrites
// the config file atomically, and republishes the mutated config into the
// snapshot bus so later readers see the persisted state instead of the
// startup snapshot. The scheduler's hash check keeps that republish from
// resetting probe history.
//
// A failed save is logged and the republish skipped; the next event rewrites
// the whole file, so nothing is lost permanently.
func (e *Engine) RunPersistence(ctx context.Context, store *config.Store) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-e.events:
			if st, ok := e.states.Load(ev.ID); ok {
				st.setLastKnownState(ev.Up)
			}

			cfg := e.cfgBus.Get()
			t := cfg.Target(ev.ID)
			if t == nil {
				// Removed between emission and drain; nothing to persist.
				continue
			}
			state := ev.Up
			t.LastKnownState = &state

			if err := store.Save(cfg); err != nil {
				metrics.ConfigSavesTotal.WithLabelValues("error").Inc()
				e.logger.Error("failed to save config with new state",
					zap.String("id", ev.ID), zap.Error(err))
				continue
			}
			metrics.ConfigSavesTotal.WithLabelValues("ok").Inc()
			e.cfgBus.Publish(cfg)
			e.logger.Info("config saved with updated state",
				zap.String("id", ev.ID), zap.Bool("up", ev.Up))
		}
	}
}
