package engine

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"hash/fnv"
	"io"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/netwatch-io/netwatch/internal/bus"
	"github.com/netwatch-io/netwatch/internal/metrics"
	"github.com/netwatch-io/netwatch/internal/model"
	"github.com/netwatch-io/netwatch/internal/probe"
)

// DefaultTick is the scheduler interval.
const DefaultTick = 10 * time.Second

// DefaultEventBuffer is the capacity of the StateChanged channel to the
// persistence worker. Sends block when full; events are never dropped on the
// persistence path.
const DefaultEventBuffer = 100

// StateChanged reports a debounced state transition.
type StateChanged struct {
	ID string
	Up bool
}

// Notifier delivers alerts for state transitions. Implementations must not
// block: delivery is fire-and-forget from the engine's point of view.
type Notifier interface {
	Notify(cfg model.AlertConfig, target model.Target, up bool, message string)
}

// Options tune the engine. Zero values select defaults.
type Options struct {
	Tick        time.Duration
	EventBuffer int
	Logger      *zap.Logger
}

// Engine owns the target state map and runs the probe scheduler.
type Engine struct {
	cfgBus   *bus.Config
	stream   *bus.Stream
	states   *xsync.Map[string, *TargetState]
	events   chan StateChanged
	notifier Notifier
	logger   *zap.Logger
	tick     time.Duration
}

// New wires an engine to the config holder, the status stream, and an alert
// notifier. Call Run to start probing and RunPersistence to drain events.
func New(cfgBus *bus.Config, stream *bus.Stream, notifier Notifier, opts Options) *Engine {
	if opts.Tick <= 0 {
		opts.Tick = DefaultTick
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = DefaultEventBuffer
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	e := &Engine{
		cfgBus:   cfgBus,
		stream:   stream,
		states:   xsync.NewMap[string, *TargetState](),
		events:   make(chan StateChanged, opts.EventBuffer),
		notifier: notifier,
		logger:   opts.Logger,
		tick:     opts.Tick,
	}
	// Seed state for the initial targets so a cache restore has somewhere
	// to land before the scheduler starts.
	e.syncTargets(cfgBus.Get().Targets)
	return e
}

// Run executes the scheduler loop until ctx is done. Each iteration probes
// every target in parallel, awaits completion, publishes a status snapshot,
// then sleeps for one tick or wakes early on a config change.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("starting monitoring engine")

	w := e.cfgBus.Watch()
	defer w.Close()

	cfg := e.cfgBus.Get()
	targetsHash := hashTargets(cfg.Targets)
	e.syncTargets(cfg.Targets)
	targets := cfg.Targets

	for {
		cfg = e.cfgBus.Get()
		limit := retentionLimit(cfg.DataRetentionDays, e.tick)

		var g errgroup.Group
		for _, t := range targets {
			g.Go(func() error {
				defer func() {
					if r := recover(); r != nil {
						e.logger.Error("probe panicked",
							zap.String("target", t.Name), zap.Any("panic", r))
					}
				}()
				e.probeOne(ctx, t, cfg.Alert, limit)
				return nil
			})
		}
		_ = g.Wait()

		e.publishStatuses(cfg.Targets)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(e.tick):
		case <-w.C:
			next := e.cfgBus.Get()
			nextHash := hashTargets(next.Targets)
			if nextHash != targetsHash {
				e.logger.Info("configuration changed, reloading monitors")
				targetsHash = nextHash
				e.syncTargets(next.Targets)
			}
			// A state-only or retention/alert update keeps all history;
			// only the local view is refreshed.
			targets = next.Targets
		}
	}
}

// probeOne runs one probe, applies the debouncer, and routes any transition
// to the notifier and the persistence channel.
func (e *Engine) probeOne(ctx context.Context, t model.Target, alertCfg model.AlertConfig, limit int) {
	res := probe.Run(ctx, t)
	if ctx.Err() != nil {
		// Shutdown interrupted the probe; the instant failure it reports
		// says nothing about the target and must not enter the history.
		return
	}

	outcome := "failure"
	if res.Success {
		outcome = "success"
		if res.LatencyMS != nil {
			metrics.ProbeLatency.WithLabelValues(string(t.Protocol)).Observe(*res.LatencyMS / 1000.0)
		}
	}
	metrics.ProbesTotal.WithLabelValues(string(t.Protocol), outcome).Inc()

	st, ok := e.states.Load(t.ID)
	if !ok {
		// Target was removed while the probe was in flight.
		return
	}

	rec := model.ProbeRecord{
		Timestamp: time.Now(),
		LatencyMS: res.LatencyMS,
		Success:   res.Success,
		Message:   res.Message,
	}
	emit, state := st.apply(rec, limit)
	if !emit {
		return
	}

	e.logger.Info("state changed",
		zap.String("target", t.Name),
		zap.String("id", t.ID),
		zap.Bool("up", state))
	metrics.StateTransitionsTotal.WithLabelValues(stateLabel(state)).Inc()

	var msg string
	if res.Message != nil {
		msg = *res.Message
	}
	e.notifier.Notify(alertCfg, t, state, msg)

	select {
	case e.events <- StateChanged{ID: t.ID, Up: state}:
	case <-ctx.Done():
	}
}

func stateLabel(up bool) string {
	if up {
		return "up"
	}
	return "down"
}

// syncTargets reconciles the state map with the target list: evict removed
// ids, insert fresh state for new ids, refresh target metadata on survivors.
func (e *Engine) syncTargets(targets []model.Target) {
	keep := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		keep[t.ID] = struct{}{}
	}
	e.states.Range(func(id string, _ *TargetState) bool {
		if _, ok := keep[id]; !ok {
			e.states.Delete(id)
		}
		return true
	})
	for _, t := range targets {
		if st, ok := e.states.Load(t.ID); ok {
			st.setTarget(t)
			continue
		}
		e.logger.Debug("initializing monitor",
			zap.String("target", t.Name),
			zap.Boolp("last_known_state", t.LastKnownState))
		e.states.Store(t.ID, newTargetState(t))
	}
}

// publishStatuses serializes the sorted status list into the broadcast
// stream for SSE consumers.
func (e *Engine) publishStatuses(targets []model.Target) {
	if e.stream == nil {
		return
	}
	payload, err := json.Marshal(e.statuses(targets))
	if err != nil {
		e.logger.Error("failed to serialize status snapshot", zap.Error(err))
		return
	}
	e.stream.Publish(payload)
}

// Statuses returns every target's status sorted by the current config's
// target order, unknown ids last.
func (e *Engine) Statuses() []model.MonitorStatus {
	return e.statuses(e.cfgBus.Get().Targets)
}

func (e *Engine) statuses(targets []model.Target) []model.MonitorStatus {
	list := make([]model.MonitorStatus, 0, e.states.Size())
	e.states.Range(func(_ string, st *TargetState) bool {
		list = append(list, st.Status())
		return true
	})
	model.SortStatuses(list, targets)
	return list
}

// CurrentStates returns the debounced state per target id. The API layer
// merges these into incoming config replacements.
func (e *Engine) CurrentStates() map[string]bool {
	out := make(map[string]bool, e.states.Size())
	e.states.Range(func(id string, st *TargetState) bool {
		out[id] = st.State()
		return true
	})
	return out
}

// hashTargets digests only the probe-affecting fields of the target list.
// A last_known_state rewrite or a name/retention/alert edit leaves the hash
// unchanged, which is what keeps persistence from resetting probe history.
func hashTargets(targets []model.Target) uint64 {
	h := fnv.New64a()
	for _, t := range targets {
		_, _ = io.WriteString(h, t.ID)
		_, _ = h.Write([]byte{0})
		_, _ = io.WriteString(h, t.Host)
		_, _ = h.Write([]byte{0})
		if t.Port != nil {
			var buf [2]byte
			binary.BigEndian.PutUint16(buf[:], *t.Port)
			_, _ = h.Write([]byte{1})
			_, _ = h.Write(buf[:])
		} else {
			_, _ = h.Write([]byte{0})
		}
		_, _ = io.WriteString(h, string(t.Protocol))
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}
