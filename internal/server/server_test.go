/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/munin_kiosk/internal/events"
	"github.com/friendsincode/munin_kiosk/internal/logbuffer"
	"github.com/friendsincode/munin_kiosk/internal/media"
	"github.com/friendsincode/munin_kiosk/internal/player"
	"github.com/friendsincode/munin_kiosk/internal/playlist"
	"github.com/friendsincode/munin_kiosk/internal/store"
	"github.com/friendsincode/munin_kiosk/internal/version"
)

func newTestServer(t *testing.T) (*Server, *logbuffer.Buffer, *events.Bus) {
	t.Helper()

	logger := zerolog.Nop()
	mem := store.NewMemory()
	mediaDir := t.TempDir()
	bus := events.NewBus()

	controller := player.New(
		mem,
		media.NewDownloader(mem, mediaDir, logger),
		media.NewSweeper(mem, mediaDir, "kiosk", logger),
		playlist.NewResolver(logger),
		nil,
		bus,
		player.Options{
			MediaDir:      mediaDir,
			RemoteBaseDir: "kiosk",
			ManifestPath:  filepath.Join(t.TempDir(), "playlist.json"),
		},
		logger,
	)

	logs := logbuffer.New(50)
	return New(controller, logs, bus, logger), logs, bus
}

func TestHealthz(t *testing.T) {
	s, _, _ := newTestServer(t)
	ts := httptest.NewServer(s.router)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestStatusEndpoint(t *testing.T) {
	s, _, _ := newTestServer(t)
	ts := httptest.NewServer(s.router)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var payload struct {
		Version string        `json:"version"`
		Player  player.Status `json:"player"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if payload.Version != version.Version {
		t.Errorf("version = %q, want %q", payload.Version, version.Version)
	}
	if payload.Player.State != player.StateIdle {
		t.Errorf("state = %q, want idle before Run", payload.Player.State)
	}
}

func TestLogsEndpointFilters(t *testing.T) {
	s, logs, _ := newTestServer(t)
	logs.Add(logbuffer.LogEntry{Level: "info", Component: "controller", Message: "a"})
	logs.Add(logbuffer.LogEntry{Level: "error", Component: "downloader", Message: "b"})
	logs.Add(logbuffer.LogEntry{Level: "error", Component: "downloader", Message: "c"})

	ts := httptest.NewServer(s.router)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/logs?level=error&component=downloader&limit=1")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var entries []logbuffer.LogEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode logs: %v", err)
	}
	if len(entries) != 1 || entries[0].Message != "c" {
		t.Fatalf("entries = %+v, want the newest error only", entries)
	}
}

func TestEventsStream(t *testing.T) {
	s, _, bus := newTestServer(t)
	ts := httptest.NewServer(s.router)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("Content-Type = %q", got)
	}

	// Give the handler a moment to register its subscriptions.
	time.Sleep(50 * time.Millisecond)
	bus.Publish(events.EventNowPlaying, events.Payload{"path": "/media/a.mp4", "kind": "video"})

	scanner := bufio.NewScanner(resp.Body)
	var data string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			data = strings.TrimPrefix(line, "data: ")
			break
		}
	}
	if data == "" {
		t.Fatalf("no event received: %v", scanner.Err())
	}

	var ev struct {
		Type    events.EventType `json:"type"`
		Payload events.Payload   `json:"payload"`
	}
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		t.Fatalf("decode event %q: %v", data, err)
	}
	if ev.Type != events.EventNowPlaying || ev.Payload["path"] != "/media/a.mp4" {
		t.Fatalf("event = %+v", ev)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, _, _ := newTestServer(t)
	ts := httptest.NewServer(s.router)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}
