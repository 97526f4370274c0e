// Package api exposes the HTTP surface consumed by the web UI.
//
// # Endpoints
//
//   - GET  /api/config: the current AppConfig snapshot.
//   - POST /api/config: full config replacement. Live debounced states are
//     merged in as last_known_state before saving, preferring engine state
//     over whatever the client sent; unknown targets keep their prior
//     persisted state.
//   - GET  /api/status: the sorted MonitorStatus list.
//   - GET  /api/events: SSE stream. The first event is "init" with the full
//     sorted status list; subsequent "update" events carry broadcast
//     snapshots; a lagged subscriber receives an "error" event with body
//     "stream lagged". Keep-alive comments are emitted periodically.
//   - GET  /metrics: Prometheus metrics.
//
// # Server
//
// NewServer wires handlers onto a chi router. Start() runs ListenAndServe in
// a goroutine; Stop() performs graceful shutdown. The server's write timeout
// is deliberately zero because SSE responses are long-lived; per-request
// bounds come from the read/header timeouts and the shutdown signal.
package api
