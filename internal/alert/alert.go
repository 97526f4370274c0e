// Package alert delivers webhook notifications for state transitions.
//
// Deliveries are fire-and-forget: one goroutine per webhook, no retries, no
// ordering guarantee across webhooks, and failures only logged. The engine
// must never block on alerting.
package alert

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/netwatch-io/netwatch/internal/metrics"
	"github.com/netwatch-io/netwatch/internal/model"
)

// Status markers substituted into templates and default payloads.
const (
	StatusUp   = "🟢 UP"
	StatusDown = "🔴 DOWN"
)

// timeLayout is the local wall-clock format of the {{TIME}} marker.
const timeLayout = "2006-01-02 15:04:05"

// Dispatcher posts webhook payloads. Safe for concurrent use.
type Dispatcher struct {
	client *http.Client
	logger *zap.Logger
}

// NewDispatcher returns a dispatcher with a pooled HTTP client.
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

// Notify renders and posts one payload per enabled webhook. It returns
// immediately; deliveries run in their own goroutines.
func (d *Dispatcher) Notify(cfg model.AlertConfig, target model.Target, up bool, message string) {
	if !cfg.Enabled {
		return
	}
	status := StatusDown
	if up {
		status = StatusUp
	}
	timestamp := time.Now().Format(timeLayout)

	for _, wh := range cfg.Webhooks {
		if !wh.Enabled || wh.URL == "" {
			continue
		}
		payload := RenderPayload(wh.Template, target, status, timestamp, message)
		go d.deliver(wh.URL, payload)
	}
}

// RenderPayload produces the JSON body for one webhook.
//
// With a template, the markers {{TARGET}}, {{HOST}}, {{STATUS}}, {{TIME}}
// and {{MESSAGE}} are substituted literally and the result must parse as
// JSON; otherwise it is wrapped as {"text": <raw string>}. Without a
// template a default object is sent.
func RenderPayload(template *string, target model.Target, status, timestamp, message string) []byte {
	if template != nil {
		body := *template
		body = strings.ReplaceAll(body, "{{TARGET}}", target.Name)
		body = strings.ReplaceAll(body, "{{HOST}}", target.Host)
		body = strings.ReplaceAll(body, "{{STATUS}}", status)
		body = strings.ReplaceAll(body, "{{TIME}}", timestamp)
		body = strings.ReplaceAll(body, "{{MESSAGE}}", message)
		if json.Valid([]byte(body)) {
			return []byte(body)
		}
		fallback, _ := json.Marshal(map[string]string{"text": body})
		return fallback
	}
	payload, _ := json.Marshal(map[string]string{
		"target":    target.Name,
		"host":      target.Host,
		"status":    status,
		"timestamp": timestamp,
		"message":   message,
	})
	return payload
}

// deliver posts one payload. Non-2xx responses are logged with their body
// and never retried.
func (d *Dispatcher) deliver(url string, payload []byte) {
	d.logger.Debug("sending webhook", zap.String("url", url))
	resp, err := d.client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		metrics.WebhookDeliveriesTotal.WithLabelValues("error").Inc()
		d.logger.Error("failed to send webhook", zap.String("url", url), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		metrics.WebhookDeliveriesTotal.WithLabelValues("rejected").Inc()
		d.logger.Error("webhook rejected",
			zap.String("url", url),
			zap.String("status", resp.Status),
			zap.ByteString("body", body))
		return
	}
	metrics.WebhookDeliveriesTotal.WithLabelValues("ok").Inc()
	d.logger.Debug("webhook sent", zap.String("url", url))
}
