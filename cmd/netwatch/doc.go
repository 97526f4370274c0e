// Command netwatch runs the network-reachability monitoring service.
//
// Usage:
//
//	netwatch [-d <dir>] [-c <path>] [--listen 0.0.0.0:3000]
//
// Flags:
//
//	-d, --dir      change working directory before any file I/O
//	-c, --config   config file path (default config.json)
//	    --listen   HTTP bind address (default 0.0.0.0:3000)
//
// The NETWATCH_LOG environment variable selects the log level
// (debug, info, warn, error; default info).
//
// Behavior:
//
// Loads (or creates) the config, restores probe history from cache.json when
// present, then runs the probe scheduler, the persistence worker, the config
// file watcher, and the HTTP API until SIGINT/SIGTERM. Shutdown terminates
// SSE streams, stops the scheduler, and flushes the in-memory history back
// to cache.json.
//
// Exit codes: 0 on clean shutdown, 1 on unrecoverable startup error (working
// directory change failed, config unreadable or unparseable).
package main
