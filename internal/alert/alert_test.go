package alert

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netwatch-io/netwatch/internal/model"
)

func strp(s string) *string { return &s }

var sampleTarget = model.Target{
	ID:       "t1",
	Host:     "db.internal",
	Name:     "Database",
	Protocol: model.ProtocolTCP,
}

func TestRenderPayloadSubstitutesMarkers(t *testing.T) {
	tmpl := strp(`{"name":"{{TARGET}}","host":"{{HOST}}","status":"{{STATUS}}","at":"{{TIME}}","why":"{{MESSAGE}}"}`)

	payload := RenderPayload(tmpl, sampleTarget, StatusDown, "2026-08-24 12:00:00", "connection refused")

	var got map[string]string
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, "Database", got["name"])
	assert.Equal(t, "db.internal", got["host"])
	assert.Equal(t, StatusDown, got["status"])
	assert.Equal(t, "2026-08-24 12:00:00", got["at"])
	assert.Equal(t, "connection refused", got["why"])
}

func TestRenderPayloadWrapsInvalidJSON(t *testing.T) {
	tmpl := strp("not valid json {{STATUS}}")

	payload := RenderPayload(tmpl, sampleTarget, StatusDown, "2026-08-24 12:00:00", "")

	assert.JSONEq(t, `{"text":"not valid json 🔴 DOWN"}`, string(payload))
}

func TestRenderPayloadDefaultBody(t *testing.T) {
	payload := RenderPayload(nil, sampleTarget, StatusUp, "2026-08-24 12:00:00", "Status: 200 OK")

	var got map[string]string
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, map[string]string{
		"target":    "Database",
		"host":      "db.internal",
		"status":    StatusUp,
		"timestamp": "2026-08-24 12:00:00",
		"message":   "Status: 200 OK",
	}, got)
}

func TestRenderPayloadSubstitutionBeforeValidation(t *testing.T) {
	// A template that is only valid JSON once the marker is replaced.
	tmpl := strp(`{"up":{{MESSAGE}}}`)
	payload := RenderPayload(tmpl, sampleTarget, StatusUp, "t", "true")
	assert.JSONEq(t, `{"up":true}`, string(payload))
}

// webhookSink records POSTed bodies.
type webhookSink struct {
	mu     sync.Mutex
	bodies []string
}

func (s *webhookSink) handler(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.bodies = append(s.bodies, string(body))
		s.mu.Unlock()
		w.WriteHeader(status)
	}
}

func (s *webhookSink) wait(t *testing.T, n int) []string {
	t.Helper()
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.bodies) >= n
	}, 5*time.Second, 10*time.Millisecond, "webhook never delivered")
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.bodies...)
}

func TestNotifyPostsToEnabledWebhooks(t *testing.T) {
	var sink webhookSink
	srv := httptest.NewServer(sink.handler(http.StatusOK))
	defer srv.Close()

	cfg := model.AlertConfig{
		Enabled: true,
		Webhooks: []model.WebhookConfig{
			{ID: "on", Name: "on", URL: srv.URL, Enabled: true},
			{ID: "off", Name: "off", URL: srv.URL, Enabled: false},
			{ID: "nourl", Name: "nourl", URL: "", Enabled: true},
		},
	}

	NewDispatcher(nil).Notify(cfg, sampleTarget, false, "Timeout")

	bodies := sink.wait(t, 1)
	require.Len(t, bodies, 1, "disabled and url-less webhooks must not post")

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(bodies[0]), &got))
	assert.Equal(t, StatusDown, got["status"])
	assert.Equal(t, "Timeout", got["message"])
}

func TestNotifyDisabledGloballyDoesNothing(t *testing.T) {
	var sink webhookSink
	srv := httptest.NewServer(sink.handler(http.StatusOK))
	defer srv.Close()

	cfg := model.AlertConfig{
		Enabled:  false,
		Webhooks: []model.WebhookConfig{{ID: "w", URL: srv.URL, Enabled: true}},
	}

	NewDispatcher(nil).Notify(cfg, sampleTarget, true, "")

	time.Sleep(100 * time.Millisecond)
	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Empty(t, sink.bodies)
}

func TestNotifyFansOutToAllWebhooks(t *testing.T) {
	var sink webhookSink
	srv := httptest.NewServer(sink.handler(http.StatusOK))
	defer srv.Close()

	tmpl := strp(`{"text":"{{TARGET}} is {{STATUS}}"}`)
	cfg := model.AlertConfig{
		Enabled: true,
		Webhooks: []model.WebhookConfig{
			{ID: "a", URL: srv.URL, Enabled: true},
			{ID: "b", URL: srv.URL, Template: tmpl, Enabled: true},
		},
	}

	NewDispatcher(nil).Notify(cfg, sampleTarget, true, "")

	bodies := sink.wait(t, 2)
	assert.Contains(t, bodies, `{"text":"Database is `+StatusUp+`"}`)
}

func TestDeliverToleratesRejection(t *testing.T) {
	var sink webhookSink
	srv := httptest.NewServer(sink.handler(http.StatusInternalServerError))
	defer srv.Close()

	// Must not panic or retry; the sink still sees exactly one attempt.
	d := NewDispatcher(nil)
	d.deliver(srv.URL, []byte(`{}`))
	sink.wait(t, 1)

	time.Sleep(50 * time.Millisecond)
	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Len(t, sink.bodies, 1)
}
