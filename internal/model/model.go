package model

import (
	"sort"
	"time"
)

// Protocol selects the probe driver for a target. Values are uppercase on the
// wire to match the config file format.
type Protocol string

const (
	ProtocolTCP   Protocol = "TCP"
	ProtocolICMP  Protocol = "ICMP"
	ProtocolDNS   Protocol = "DNS"
	ProtocolHTTP  Protocol = "HTTP"
	ProtocolHTTPS Protocol = "HTTPS"
)

// Valid reports whether p is one of the known protocols.
func (p Protocol) Valid() bool {
	switch p {
	case ProtocolTCP, ProtocolICMP, ProtocolDNS, ProtocolHTTP, ProtocolHTTPS:
		return true
	}
	return false
}

// Target is one monitored endpoint. A target is immutable while observed;
// edits arrive only through a full config replacement.
type Target struct {
	// ID is a stable opaque identifier, unique within a config.
	ID string `json:"id"`
	// Host is an IP literal or DNS name. For the DNS protocol it must be an
	// IP literal: it is the resolver to query, not a name to resolve.
	Host string `json:"host"`
	// Port meaning depends on the protocol: TCP connect port (default 80),
	// DNS resolver port (default 53), HTTP(S) URL port override. ICMP
	// ignores it.
	Port *uint16 `json:"port"`
	// Name is the human-readable label shown in the UI and in alerts.
	Name string `json:"name"`
	// Protocol selects the probe driver.
	Protocol Protocol `json:"protocol"`
	// LastKnownState is the debounced state persisted by the engine. It is
	// consumed once at startup to seed the in-memory state, and rewritten by
	// the persistence worker on every transition.
	LastKnownState *bool `json:"last_known_state"`
}

// PortOr returns the target's port, or def when unset.
func (t Target) PortOr(def uint16) uint16 {
	if t.Port != nil {
		return *t.Port
	}
	return def
}

// Clone returns a deep copy of the target.
func (t Target) Clone() Target {
	out := t
	if t.Port != nil {
		p := *t.Port
		out.Port = &p
	}
	if t.LastKnownState != nil {
		s := *t.LastKnownState
		out.LastKnownState = &s
	}
	return out
}

// ProbeRecord is one probe outcome. LatencyMS is present iff the probe
// succeeded. Message carries the resolved address list for DNS probes, the
// HTTP status string, or the error text on failure.
type ProbeRecord struct {
	Timestamp time.Time `json:"timestamp"`
	LatencyMS *float64  `json:"latency_ms"`
	Success   bool      `json:"success"`
	Message   *string   `json:"message"`
}

// MonitorStatus is the per-target view consumed by the UI layer and written
// to the shutdown cache. Records are ordered newest-first.
type MonitorStatus struct {
	Target       Target        `json:"target"`
	Records      []ProbeRecord `json:"records"`
	CurrentState bool          `json:"current_state"`
}

// WebhookConfig is one alert sink.
type WebhookConfig struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
	// Template, when set, is rendered by literal marker substitution and
	// posted as the payload. When nil a default JSON payload is sent.
	Template *string `json:"template"`
	Enabled  bool    `json:"enabled"`
}

// Clone returns a deep copy of the webhook config.
func (w WebhookConfig) Clone() WebhookConfig {
	out := w
	if w.Template != nil {
		t := *w.Template
		out.Template = &t
	}
	return out
}

// AlertConfig holds the webhook alerting settings.
type AlertConfig struct {
	Enabled  bool            `json:"enabled"`
	Webhooks []WebhookConfig `json:"webhooks"`
}

// Clone returns a deep copy of the alert config.
func (a AlertConfig) Clone() AlertConfig {
	out := AlertConfig{Enabled: a.Enabled}
	if a.Webhooks != nil {
		out.Webhooks = make([]WebhookConfig, len(a.Webhooks))
		for i, w := range a.Webhooks {
			out.Webhooks[i] = w.Clone()
		}
	}
	return out
}

// DefaultRetentionDays is applied when the config file omits
// data_retention_days entirely. An explicit zero is kept as zero; the engine
// clamps the effective record retention to a floor instead.
const DefaultRetentionDays = 3

// AppConfig is the authoritative configuration. Target order is
// UI-significant and must be preserved by all readers.
type AppConfig struct {
	Targets           []Target    `json:"targets"`
	Alert             AlertConfig `json:"alert"`
	DataRetentionDays uint64      `json:"data_retention_days"`
}

// Clone returns a deep copy of the config. Publishers into the snapshot bus
// must clone before mutating so earlier readers keep a consistent view.
func (c AppConfig) Clone() AppConfig {
	out := AppConfig{
		Alert:             c.Alert.Clone(),
		DataRetentionDays: c.DataRetentionDays,
	}
	if c.Targets != nil {
		out.Targets = make([]Target, len(c.Targets))
		for i, t := range c.Targets {
			out.Targets[i] = t.Clone()
		}
	}
	return out
}

// Target returns a pointer to the target with the given id, or nil.
func (c *AppConfig) Target(id string) *Target {
	for i := range c.Targets {
		if c.Targets[i].ID == id {
			return &c.Targets[i]
		}
	}
	return nil
}

// SortStatuses orders statuses by the position of their target in the config
// target list. Targets not present in the config sort last, keeping the UI
// layout stable while a reload is in flight.
func SortStatuses(statuses []MonitorStatus, targets []Target) {
	order := make(map[string]int, len(targets))
	for i, t := range targets {
		order[t.ID] = i
	}
	idx := func(id string) int {
		if i, ok := order[id]; ok {
			return i
		}
		return int(^uint(0) >> 1)
	}
	sort.SliceStable(statuses, func(a, b int) bool {
		return idx(statuses[a].Target.ID) < idx(statuses[b].Target.ID)
	})
}
