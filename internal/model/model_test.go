package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uint16p(v uint16) *uint16 { return &v }
func boolp(v bool) *bool       { return &v }

func TestProtocolValid(t *testing.T) {
	for _, p := range []Protocol{ProtocolTCP, ProtocolICMP, ProtocolDNS, ProtocolHTTP, ProtocolHTTPS} {
		assert.True(t, p.Valid(), string(p))
	}
	assert.False(t, Protocol("").Valid())
	assert.False(t, Protocol("tcp").Valid())
	assert.False(t, Protocol("UDP").Valid())
}

func TestTargetPortOr(t *testing.T) {
	assert.Equal(t, uint16(80), Target{}.PortOr(80))
	assert.Equal(t, uint16(9090), Target{Port: uint16p(9090)}.PortOr(80))
}

func TestAppConfigCloneIsDeep(t *testing.T) {
	cfg := AppConfig{
		Targets: []Target{{
			ID:             "a",
			Host:           "example.com",
			Port:           uint16p(443),
			Name:           "a",
			Protocol:       ProtocolHTTPS,
			LastKnownState: boolp(true),
		}},
		Alert: AlertConfig{
			Enabled: true,
			Webhooks: []WebhookConfig{{
				ID: "w1", Name: "hook", URL: "http://example.com",
				Template: strp(`{"t":"{{TARGET}}"}`), Enabled: true,
			}},
		},
		DataRetentionDays: 7,
	}

	clone := cfg.Clone()
	*clone.Targets[0].Port = 8443
	*clone.Targets[0].LastKnownState = false
	*clone.Alert.Webhooks[0].Template = "changed"
	clone.Targets[0].Name = "renamed"

	assert.Equal(t, uint16(443), *cfg.Targets[0].Port)
	assert.True(t, *cfg.Targets[0].LastKnownState)
	assert.Equal(t, `{"t":"{{TARGET}}"}`, *cfg.Alert.Webhooks[0].Template)
	assert.Equal(t, "a", cfg.Targets[0].Name)
}

func strp(s string) *string { return &s }

func TestAppConfigJSONRoundTrip(t *testing.T) {
	cfg := AppConfig{
		Targets: []Target{
			{ID: "1", Host: "8.8.8.8", Port: uint16p(53), Name: "dns", Protocol: ProtocolTCP, LastKnownState: boolp(false)},
			{ID: "2", Host: "1.1.1.1", Name: "ping", Protocol: ProtocolICMP},
		},
		Alert:             AlertConfig{Enabled: true, Webhooks: []WebhookConfig{{ID: "w", Name: "n", URL: "u", Enabled: false}}},
		DataRetentionDays: 3,
	}

	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	var got AppConfig
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, cfg, got)
}

func TestTargetJSONShape(t *testing.T) {
	data, err := json.Marshal(Target{ID: "x", Host: "h", Name: "n", Protocol: ProtocolDNS})
	require.NoError(t, err)
	// Optional fields serialize as explicit nulls; protocol stays uppercase.
	assert.JSONEq(t, `{"id":"x","host":"h","port":null,"name":"n","protocol":"DNS","last_known_state":null}`, string(data))
}

func TestSortStatusesFollowsConfigOrder(t *testing.T) {
	targets := []Target{{ID: "z"}, {ID: "a"}}
	statuses := []MonitorStatus{
		{Target: Target{ID: "a"}},
		{Target: Target{ID: "orphan"}},
		{Target: Target{ID: "z"}},
	}

	SortStatuses(statuses, targets)

	require.Len(t, statuses, 3)
	assert.Equal(t, "z", statuses[0].Target.ID)
	assert.Equal(t, "a", statuses[1].Target.ID)
	assert.Equal(t, "orphan", statuses[2].Target.ID)
}

func TestAppConfigTargetLookup(t *testing.T) {
	cfg := AppConfig{Targets: []Target{{ID: "a"}, {ID: "b"}}}
	require.NotNil(t, cfg.Target("b"))
	assert.Nil(t, cfg.Target("missing"))

	// The pointer aliases the slice element so callers can mutate in place.
	cfg.Target("a").Name = "renamed"
	assert.Equal(t, "renamed", cfg.Targets[0].Name)
}
