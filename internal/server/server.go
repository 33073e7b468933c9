/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package server exposes the local status HTTP endpoint: health, playback
// state, recent logs, and metrics. It is meant for operators on the
// device or the local network, not for the public internet.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/friendsincode/munin_kiosk/internal/events"
	"github.com/friendsincode/munin_kiosk/internal/logbuffer"
	"github.com/friendsincode/munin_kiosk/internal/player"
	"github.com/friendsincode/munin_kiosk/internal/telemetry"
	"github.com/friendsincode/munin_kiosk/internal/version"
)

// Server serves the kiosk status API.
type Server struct {
	controller *player.Controller
	logs       *logbuffer.Buffer
	bus        *events.Bus
	logger     zerolog.Logger
	router     chi.Router
}

// New creates the status server.
func New(controller *player.Controller, logs *logbuffer.Buffer, bus *events.Bus, logger zerolog.Logger) *Server {
	s := &Server{
		controller: controller,
		logs:       logs,
		bus:        bus,
		logger:     logger.With().Str("component", "status_server").Logger(),
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Get("/healthz", s.handleHealth)
		r.Get("/api/status", s.handleStatus)
		r.Get("/api/logs", s.handleLogs)
		r.Method(http.MethodGet, "/metrics", telemetry.Handler())
	})

	// The event stream stays open past the request timeout.
	router.Get("/api/events", s.handleEvents)

	s.router = router
	return s
}

// HTTPServer wraps the router for the given bind address. No write timeout:
// /api/events holds its connection open.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: 10 * time.Second,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	payload := struct {
		Version string        `json:"version"`
		Player  player.Status `json:"player"`
	}{
		Version: version.Version,
		Player:  s.controller.Status(),
	}
	writeJSON(w, payload)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	limit := 200
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	entries := s.logs.Query(logbuffer.QueryParams{
		Level:     r.URL.Query().Get("level"),
		Component: r.URL.Query().Get("component"),
		Limit:     limit,
	})
	writeJSON(w, entries)
}

// handleEvents streams bus events as server-sent events until the client
// disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	flusher.Flush()

	type busEvent struct {
		Type    events.EventType `json:"type"`
		Payload events.Payload   `json:"payload"`
	}

	eventTypes := []events.EventType{
		events.EventNowPlaying,
		events.EventPlaylistUpdate,
		events.EventSyncHealth,
		events.EventRenderFailure,
	}

	merged := make(chan busEvent, 16)
	for _, et := range eventTypes {
		sub := s.bus.Subscribe(et)
		defer s.bus.Unsubscribe(et, sub)
		go func(et events.EventType, sub events.Subscriber) {
			for payload := range sub {
				select {
				case merged <- busEvent{Type: et, Payload: payload}:
				case <-r.Context().Done():
					return
				}
			}
		}(et, sub)
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-merged:
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
