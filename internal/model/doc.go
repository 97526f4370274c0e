// Package model defines the data types shared across the monitoring engine.
//
// # Overview
//
// The model package is pure data: targets and their probe protocols, rolling
// probe records, per-target monitor status, and the application configuration
// including webhook alerting. The same shapes serve as the JSON wire format
// for the config file, the shutdown cache, and the HTTP API, so optional
// fields are pointers and serialize as null when absent.
//
// # Ownership
//
// Values of these types are passed by copy between components. AppConfig is
// published whole into the snapshot bus; components that mutate a config must
// operate on a Clone so that readers of the previous snapshot are never
// affected.
package model
