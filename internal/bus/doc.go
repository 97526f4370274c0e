// Package bus provides the in-process coordination primitives between the
// monitoring engine, the persistence worker, and the HTTP layer.
//
// # Config holder
//
// Config is a single-slot latest-value holder for the application
// configuration. Writers replace the whole value; readers obtain an
// independent deep copy; any number of watchers can await changes. Change
// notifications are coalesced: a watcher that misses several publishes wakes
// once and reads the latest value, exactly the semantics the scheduler's
// reload protocol requires.
//
// # Status stream
//
// Stream fans out serialized status snapshots to any number of subscribers
// (the SSE handlers). Delivery is best-effort per subscriber: a slow consumer
// has its oldest pending payload dropped and is flagged as lagged so the HTTP
// layer can tell it. Publishing never blocks.
package bus
