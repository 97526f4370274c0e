// Package engine implements the monitoring core: the per-target rolling
// state, the probe scheduler, the debounce state machine, the persistence
// worker, and the shutdown cache.
//
// # Overview
//
// The engine keeps one TargetState per configured target in a concurrent map
// with per-entry locking. Every 10 seconds the scheduler snapshots the
// current config, probes all targets in parallel, and waits for either the
// next tick or a config-change notification from the snapshot bus. Each probe
// completion pushes a record and runs the debouncer inside the target's
// critical section; debounced transitions are emitted as StateChanged events.
//
// # Debounce rules
//
// In order:
//
//  1. First probe since process start for a target: adopt the probe outcome
//     unconditionally, and emit an event iff the target had no persisted
//     state or the outcome contradicts it. This establishes ground truth
//     without a spurious flap from the provisional "down" default.
//  2. Steady state: with at least 3 records, flip only when the newest 3 all
//     contradict the current state.
//  3. Warm-up: with fewer than 3 records, a single contradicting result
//     flips immediately, so a wrong initial state does not linger while
//     history accumulates.
//
// # Reload protocol
//
// On a config-change notification the scheduler hashes only the
// probe-affecting target fields (id, host, port, protocol). A changed hash
// synchronizes the state map: removed ids are evicted, new ids inserted,
// surviving entries get their target metadata refreshed and keep their
// history. An unchanged hash means the publish was a last_known_state
// rewrite from the persistence worker or a retention/alert edit, and no
// state is touched. This check is what keeps the engine from forgetting its
// own rolling data every time it persists a transition.
//
// # Event paths
//
// StateChanged events flow to the persistence worker over a buffered channel
// with backpressure (never dropped) and to the alert dispatcher as
// fire-and-forget deliveries. After every tick the engine publishes the
// serialized sorted status list to the broadcast stream for SSE consumers.
package engine
