// Package probe contains the active network probes run by the monitoring
// engine.
//
// # Overview
//
// Each protocol has one driver with the uniform shape
//
//	func(ctx context.Context, t model.Target) Result
//
// selected through a dispatch table keyed by the target's Protocol. Drivers
// accept a context, enforce a global deadline (3 s, except HTTP which allows
// 10 s to cover TLS handshakes), measure latency from just before dispatch to
// completion, and return explicit failure text instead of errors: a probe
// outcome is data, not an exception.
//
// # Drivers
//
//   - TCP: connect to host:port (port defaults to 80). Success is a completed
//     handshake; failure text is the OS error or "Timeout".
//   - ICMP: one echo with an 8-byte zero payload via pro-bing. Hostnames are
//     resolved first. Raw-socket permission problems surface as per-probe
//     failures, never a crash.
//   - DNS: host must be an IP literal; an ad-hoc UDP exchange against
//     (host, port|53) queries a fixed well-known name. Success is a non-empty
//     answer; the message carries the comma-joined answer addresses.
//   - HTTP/HTTPS: GET scheme://host[:port] (host used verbatim when it
//     already contains "://") with a fixed User-Agent, invalid certificates
//     accepted, gzip disabled. Success is any 2xx.
//
// # State
//
// Drivers are stateless aside from a process-wide pooled HTTP client. All
// drivers are safe for concurrent use.
package probe
