/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package renderer owns the fullscreen rendering subprocess. The playback
// controller holds at most one Handle at a time and never touches OS
// process primitives directly.
package renderer

import (
	"context"
	"time"
)

// State tracks a renderer process through its lifecycle.
type State string

const (
	StateRunning State = "running"
	StateStopped State = "stopped"
	StateFailed  State = "failed"
)

// Handle is an owned, live rendering process.
type Handle interface {
	// Alive reports whether the process is still running.
	Alive() bool
	// StartedAt is when the process launched; image dwell is measured
	// from this instant.
	StartedAt() time.Time
	// Stop terminates the process: graceful signal, bounded wait, then
	// force kill. Stopping an already-dead process is a no-op.
	Stop() error
}

// Renderer launches fullscreen playback processes.
type Renderer interface {
	// StartVideo renders a video fullscreen, natively looped and muted.
	StartVideo(ctx context.Context, path string) (Handle, error)
	// StartImage renders an image fullscreen. A zero dwell means
	// indefinite display.
	StartImage(ctx context.Context, path string, dwell time.Duration) (Handle, error)
}
