package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/stash/pkg/domain"
	"github.com/oapi-codegen/runtime"
)

// StreamManager handles active SSE connections
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- domain.NamespaceEvent]struct{} // SessionID -> Set of Channels
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- domain.NamespaceEvent]struct{}),
		logger:      logger,
	}
}

func (sm *StreamManager) Subscribe(sessionID string) (chan domain.NamespaceEvent, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan domain.NamespaceEvent, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- domain.NamespaceEvent]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

func (sm *StreamManager) Broadcast(sessionID string, event domain.NamespaceEvent) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- event:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: Client buffer full, dropping event", "session_id", sessionID)
		}
	}
}

// SubscribeEvents handles the GET /events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	var sessionID string
	if err := runtime.BindQueryParameter("form", true, true, "session_id", r.URL.Query(), &sessionID); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, err)
		return
	}
	var filter string
	if err := runtime.BindQueryParameter("form", true, false, "namespaces", r.URL.Query(), &filter); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, err)
		return
	}
	var watchList []string
	for _, ns := range strings.Split(filter, ",") {
		if ns = strings.TrimSpace(ns); ns != "" {
			watchList = append(watchList, ns)
		}
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.logger.Info("SSE: Subscribing to session events", "session_id", sessionID)
	ch, cancel := s.streams.Subscribe(sessionID)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "session_id", sessionID)
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if len(watchList) > 0 && !slices.Contains(watchList, event.Namespace) {
				continue
			}
			payload, err := json.Marshal(event)
			if err != nil {
				s.logger.Error("SSE: Failed to encode event", "err", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
