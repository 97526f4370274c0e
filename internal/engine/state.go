package engine

import (
	"sync"
	"time"

	"github.com/netwatch-io/netwatch/internal/model"
)

// debounceWindow is the number of consecutive contradicting probes required
// to flip an established state.
const debounceWindow = 3

// minRetention is the floor on records kept per target, protecting against a
// zero or tiny retention setting.
const minRetention = 60

// retentionLimit converts the configured retention in days to a record count
// at one probe per tick. Sub-second ticks are valid; a non-positive tick
// falls back to the default.
func retentionLimit(days uint64, tick time.Duration) int {
	if tick <= 0 {
		tick = DefaultTick
	}
	limit := days * 86400 * uint64(time.Second) / uint64(tick)
	if limit < minRetention {
		return minRetention
	}
	return int(limit)
}

// TargetState is the mutable per-target state. All access goes through
// methods holding the internal lock; the scheduler, the persistence worker,
// and snapshot readers share instances through the engine's concurrent map.
type TargetState struct {
	mu           sync.Mutex
	target       model.Target
	records      []model.ProbeRecord // newest-first
	currentState bool
}

// newTargetState seeds the provisional state from the persisted
// last_known_state, defaulting to down. The first probe establishes ground
// truth either way.
func newTargetState(t model.Target) *TargetState {
	s := &TargetState{target: t.Clone()}
	if t.LastKnownState != nil {
		s.currentState = *t.LastKnownState
	}
	return s
}

// Status returns a deep copy safe for serialization without further locking.
func (s *TargetState) Status() model.MonitorStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := make([]model.ProbeRecord, len(s.records))
	for i, r := range s.records {
		records[i] = cloneRecord(r)
	}
	return model.MonitorStatus{
		Target:       s.target.Clone(),
		Records:      records,
		CurrentState: s.currentState,
	}
}

func cloneRecord(r model.ProbeRecord) model.ProbeRecord {
	out := r
	if r.LatencyMS != nil {
		v := *r.LatencyMS
		out.LatencyMS = &v
	}
	if r.Message != nil {
		m := *r.Message
		out.Message = &m
	}
	return out
}

// State returns the current debounced state.
func (s *TargetState) State() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentState
}

// setTarget refreshes the target metadata on reload, keeping history.
func (s *TargetState) setTarget(t model.Target) {
	s.mu.Lock()
	s.target = t.Clone()
	s.mu.Unlock()
}

// setLastKnownState records the persisted state on the in-memory target.
// Called by the persistence worker.
func (s *TargetState) setLastKnownState(up bool) {
	s.mu.Lock()
	v := up
	s.target.LastKnownState = &v
	s.mu.Unlock()
}

// restore loads cached records and state from a previous run.
func (s *TargetState) restore(records []model.ProbeRecord, currentState bool) {
	s.mu.Lock()
	s.records = records
	s.currentState = currentState
	s.mu.Unlock()
}

// apply pushes a fresh probe record and runs the debouncer inside the
// critical section. It returns whether a StateChanged event must be emitted
// and the debounced state after the decision.
func (s *TargetState) apply(rec model.ProbeRecord, limit int) (emit bool, state bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	firstRecord := len(s.records) == 0

	s.records = append([]model.ProbeRecord{rec}, s.records...)
	if len(s.records) > limit {
		s.records = s.records[:limit]
	}

	switch {
	case firstRecord:
		// Establish ground truth. Emit only when there was no persisted
		// state to confirm, or the probe contradicts it.
		if s.target.LastKnownState == nil || s.currentState != rec.Success {
			s.currentState = rec.Success
			return true, s.currentState
		}
	case len(s.records) >= debounceWindow:
		for _, r := range s.records[:debounceWindow] {
			if r.Success == s.currentState {
				return false, s.currentState
			}
		}
		s.currentState = !s.currentState
		return true, s.currentState
	default:
		// Warm-up: not enough history for the full window, a single
		// contradiction flips immediately.
		if s.currentState != rec.Success {
			s.currentState = rec.Success
			return true, s.currentState
		}
	}
	return false, s.currentState
}
