package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/netwatch-io/netwatch/internal/config"
)

// updateResult is the POST /api/config response body.
type updateResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// handleGetConfig returns the current config snapshot.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cfgBus.Get())
}

// handleUpdateConfig replaces the config. The live debounced state of every
// known target is merged in as last_known_state before saving: the client's
// view of states is stale by definition, while the engine's is current. A
// target the engine does not know yet keeps whatever the prior config
// persisted for it.
func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, updateResult{Error: err.Error()})
		return
	}
	cfg, err := config.Decode(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, updateResult{Error: err.Error()})
		return
	}

	live := s.engine.CurrentStates()
	prior := s.cfgBus.Get()
	for i := range cfg.Targets {
		t := &cfg.Targets[i]
		if state, ok := live[t.ID]; ok {
			v := state
			t.LastKnownState = &v
			continue
		}
		if t.LastKnownState == nil {
			if old := prior.Target(t.ID); old != nil {
				t.LastKnownState = old.LastKnownState
			}
		}
	}

	if err := s.store.Save(cfg); err != nil {
		s.logger.Error("failed to save config", zap.Error(err))
		writeJSON(w, http.StatusOK, updateResult{Error: err.Error()})
		return
	}
	s.cfgBus.Publish(cfg)
	writeJSON(w, http.StatusOK, updateResult{Success: true})
}

// handleStatus returns the sorted status list.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Statuses())
}

// handleEvents serves the SSE stream: one synthesized "init" snapshot, then
// broadcast "update" events until the client goes away or the process shuts
// down.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	init, err := json.Marshal(s.engine.Statuses())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := writeEvent(w, "init", init); err != nil {
		return
	}
	flusher.Flush()

	sub := s.stream.Subscribe()
	defer sub.Close()

	keepAlive := time.NewTicker(s.opts.KeepAliveInterval)
	defer keepAlive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.shutdown:
			return
		case payload := <-sub.C:
			if sub.TakeLagged() {
				if err := writeEvent(w, "error", []byte("stream lagged")); err != nil {
					return
				}
			}
			if err := writeEvent(w, "update", payload); err != nil {
				return
			}
			flusher.Flush()
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w io.Writer, event string, data []byte) error {
	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
