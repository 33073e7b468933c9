/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package telemetry exposes Prometheus collectors for the kiosk loop.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	DownloadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "munin_downloads_total",
		Help: "Completed, integrity-verified media downloads.",
	})

	DownloadFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "munin_download_failures_total",
		Help: "Failed download attempts, including integrity mismatches.",
	})

	IntegrityFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "munin_integrity_failures_total",
		Help: "Downloads whose byte size did not match remote metadata.",
	})

	PlaylistSwaps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "munin_playlist_swaps_total",
		Help: "Atomic playlist replacements after a sync cycle.",
	})

	RendererRestarts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "munin_renderer_restarts_total",
		Help: "Renderer processes restarted after an unexpected exit.",
	})

	SyncFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "munin_sync_failures_total",
		Help: "Remote check cycles that ended in an error.",
	})

	PlaylistLength = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "munin_playlist_length",
		Help: "Number of items in the active playlist.",
	})
)

// Handler exposes the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
