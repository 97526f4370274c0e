// Package config owns the on-disk configuration file.
//
// # Overview
//
// A Store wraps one JSON config path. Load reads and validates the file,
// creating it with defaults on first run. Save writes atomically: the new
// content goes to a sibling "<path>.tmp" file which is then renamed over the
// destination, so readers never observe a partial config. The rename is the
// only disk mutual-exclusion primitive in the system.
//
// # Defaults
//
// A missing data_retention_days falls back to 3 days; an explicit zero is
// preserved (the engine clamps the effective retention separately). A target
// without a protocol defaults to TCP. Webhooks without an id are assigned a
// generated UUID on load.
//
// # Watching
//
// Watch observes the config file with fsnotify and invokes a callback with
// the freshly loaded config after external edits. Because atomic saves
// replace the file by rename, the watch is registered on the parent
// directory and filtered by name. The engine's reload protocol hashes only
// probe-affecting fields, so watch events caused by the daemon's own saves
// are harmless.
package config
