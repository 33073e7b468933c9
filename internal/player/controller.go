/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package player drives playback: one cooperative loop interleaving
// renderer liveness polling, timed remote checks, and the
// download/resolve/sweep path that swaps playlists without interrupting
// whatever is currently on screen.
package player

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/munin_kiosk/internal/events"
	"github.com/friendsincode/munin_kiosk/internal/media"
	"github.com/friendsincode/munin_kiosk/internal/playlist"
	"github.com/friendsincode/munin_kiosk/internal/renderer"
	"github.com/friendsincode/munin_kiosk/internal/store"
	"github.com/friendsincode/munin_kiosk/internal/telemetry"
)

// State is the controller's playback state.
type State string

const (
	StateIdle          State = "idle"
	StatePlaying       State = "playing"
	StateTransitioning State = "transitioning"
)

// Options configures the controller.
type Options struct {
	MediaDir      string
	RemoteBaseDir string
	ManifestPath  string
	CheckInterval time.Duration
	PollTick      time.Duration
}

// Status is a read-only snapshot for the status server.
type Status struct {
	State       State     `json:"state"`
	CurrentPath string    `json:"current_path,omitempty"`
	CurrentKind string    `json:"current_kind,omitempty"`
	Cursor      int       `json:"cursor"`
	PlaylistLen int       `json:"playlist_len"`
	LastSync    time.Time `json:"last_sync,omitzero"`
	LastSyncErr string    `json:"last_sync_error,omitempty"`
	NextCheck   time.Time `json:"next_check,omitzero"`
}

// Controller owns the active playlist, the cursor, and the single
// renderer handle. All of them are touched only from the Run goroutine;
// the status snapshot is the one piece shared with other goroutines.
type Controller struct {
	store    store.ObjectStore
	dl       *media.Downloader
	sweeper  *media.Sweeper
	resolver *playlist.Resolver
	rend     renderer.Renderer
	bus      *events.Bus
	logger   zerolog.Logger
	opts     Options

	now func() time.Time

	// Run-goroutine state.
	current    *playlist.Playlist
	cursor     int
	handle     renderer.Handle
	dwellUntil time.Time
	nextCheck  time.Time
	// exhausted is set after a start pass fails on every item, so the
	// per-tick retries stop repeating the same warnings.
	exhausted bool

	mu     sync.RWMutex
	status Status
}

// New creates a playback controller.
func New(st store.ObjectStore, dl *media.Downloader, sw *media.Sweeper, res *playlist.Resolver, rend renderer.Renderer, bus *events.Bus, opts Options, logger zerolog.Logger) *Controller {
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = 300 * time.Second
	}
	if opts.PollTick <= 0 {
		opts.PollTick = time.Second
	}
	return &Controller{
		store:    st,
		dl:       dl,
		sweeper:  sw,
		resolver: res,
		rend:     rend,
		bus:      bus,
		logger:   logger.With().Str("component", "controller").Logger(),
		opts:     opts,
		now:      time.Now,
		current:  &playlist.Playlist{},
		status:   Status{State: StateIdle},
	}
}

// Status returns the latest snapshot.
func (c *Controller) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// Run executes the playback loop until context cancellation. On exit the
// renderer is stopped so no subprocess outlives the controller.
func (c *Controller) Run(ctx context.Context) error {
	c.logger.Info().
		Dur("check_interval", c.opts.CheckInterval).
		Str("media_dir", c.opts.MediaDir).
		Msg("playback controller started")

	c.bootstrap()
	c.nextCheck = c.now().Add(c.opts.CheckInterval)

	ticker := time.NewTicker(c.opts.PollTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.stopRenderer()
			c.setState(StateIdle)
			c.logger.Info().Msg("playback controller stopped")
			return ctx.Err()
		case <-ticker.C:
			c.step(ctx)
		}
	}
}

// bootstrap builds the initial playlist from whatever survived locally:
// the persisted manifest, if one was fetched before, matched against the
// media directory contents.
func (c *Controller) bootstrap() {
	items, err := media.ListLocal(c.opts.MediaDir)
	if err != nil {
		c.logger.Error().Err(err).Msg("list local media")
		return
	}

	manifest, err := playlist.LoadManifest(c.opts.ManifestPath)
	if err != nil {
		c.logger.Warn().Err(err).Msg("persisted manifest unreadable, using default order")
		manifest = nil
	}

	c.current = c.resolver.Resolve(manifest, items)
	telemetry.PlaylistLength.Set(float64(c.current.Len()))
	c.logger.Info().Int("items", c.current.Len()).Msg("initial playlist built")
}

// step is one loop tick: fire a remote check when its deadline passes,
// then reconcile the renderer against the current playlist.
func (c *Controller) step(ctx context.Context) {
	if !c.now().Before(c.nextCheck) {
		c.nextCheck = c.now().Add(c.opts.CheckInterval)
		c.runSync(ctx)
	}
	c.poll(ctx)
	c.publishStatus()
}

// poll enforces playback invariants for the active playlist.
func (c *Controller) poll(ctx context.Context) {
	if c.current.Empty() {
		if c.handle != nil {
			c.stopRenderer()
		}
		c.setState(StateIdle)
		return
	}

	if c.handle == nil {
		c.startCurrent(ctx)
		return
	}

	item := c.current.Item(c.cursor)
	switch item.Kind {
	case playlist.KindVideo:
		// Native loop means no action while alive. An early exit is a
		// render failure; advance so the loop is not stuck on one item.
		if !c.handle.Alive() {
			c.logger.Warn().Str("path", item.LocalPath).Msg("video process exited unexpectedly")
			telemetry.RendererRestarts.Inc()
			c.bus.Publish(events.EventRenderFailure, events.Payload{"path": item.LocalPath})
			c.handle = nil
			c.advance()
			c.startCurrent(ctx)
		}
	case playlist.KindImage:
		if c.current.Len() == 1 {
			// Single image renders indefinitely; restart it if the
			// process dies.
			if !c.handle.Alive() {
				telemetry.RendererRestarts.Inc()
				c.handle = nil
				c.startCurrent(ctx)
			}
			return
		}
		// Dwell elapsed: advance regardless of process liveness.
		if !c.now().Before(c.dwellUntil) {
			c.stopRenderer()
			c.advance()
			c.startCurrent(ctx)
		}
	}
}

// startCurrent launches the renderer for the item under the cursor.
// Items whose file disappeared and items that fail to launch are skipped
// with a log line so one bad item cannot wedge the loop. After a pass
// where every item failed, later passes stay silent until one succeeds
// or the playlist is replaced; the retry itself keeps running so a
// transient launch failure recovers on a later tick.
func (c *Controller) startCurrent(ctx context.Context) {
	for tries := 0; tries < c.current.Len(); tries++ {
		item := c.current.Item(c.cursor)

		if _, err := os.Stat(item.LocalPath); err != nil {
			if !c.exhausted {
				c.logger.Warn().Str("path", item.LocalPath).Msg("playlist item missing on disk, skipping")
			}
			c.advance()
			continue
		}

		handle, err := c.startItem(ctx, item)
		if err != nil {
			if !c.exhausted {
				c.logger.Error().Err(err).Str("path", item.LocalPath).Msg("renderer launch failed")
				c.bus.Publish(events.EventRenderFailure, events.Payload{"path": item.LocalPath, "error": err.Error()})
			}
			c.advance()
			continue
		}

		c.handle = handle
		c.exhausted = false
		if item.Kind == playlist.KindImage && c.current.Len() > 1 {
			dwell := item.Dwell
			if dwell <= 0 {
				dwell = playlist.DefaultImageDwell
			}
			c.dwellUntil = handle.StartedAt().Add(dwell)
		}
		c.setState(StatePlaying)
		c.bus.Publish(events.EventNowPlaying, events.Payload{
			"path":  item.LocalPath,
			"kind":  string(item.Kind),
			"index": c.cursor,
		})
		return
	}

	// Every item failed; idle until a retry succeeds or the next sync
	// brings fresh content.
	if !c.exhausted {
		c.logger.Warn().Int("items", c.current.Len()).Msg("no playable items, idling")
	}
	c.exhausted = true
	c.setState(StateIdle)
}

func (c *Controller) startItem(ctx context.Context, item playlist.MediaItem) (renderer.Handle, error) {
	if item.Kind == playlist.KindVideo {
		return c.rend.StartVideo(ctx, item.LocalPath)
	}
	dwell := item.Dwell
	if c.current.Len() == 1 {
		dwell = 0 // indefinite
	}
	return c.rend.StartImage(ctx, item.LocalPath, dwell)
}

func (c *Controller) advance() {
	c.cursor = c.current.Next(c.cursor)
}

// stopRenderer is idempotent: stop the handle if one is live, then drop
// ownership. At no point can a second renderer start before this returns.
func (c *Controller) stopRenderer() {
	if c.handle == nil {
		return
	}
	c.setState(StateTransitioning)
	if err := c.handle.Stop(); err != nil {
		c.logger.Error().Err(err).Msg("renderer stop failed")
	}
	c.handle = nil
}

// swap replaces the active playlist. The old renderer stops strictly
// before the first item of the replacement starts, and the sweep runs
// against the new playlist so the newly active item is never deleted.
func (c *Controller) swap(ctx context.Context, next *playlist.Playlist) {
	c.stopRenderer()

	c.current = next
	c.cursor = 0
	c.dwellUntil = time.Time{}
	c.exhausted = false

	c.sweeper.Sweep(c.current)

	telemetry.PlaylistSwaps.Inc()
	telemetry.PlaylistLength.Set(float64(c.current.Len()))
	c.bus.Publish(events.EventPlaylistUpdate, events.Payload{"items": c.current.Len()})

	if c.current.Empty() {
		c.setState(StateIdle)
		c.logger.Info().Msg("playlist empty, idling")
		return
	}
	c.startCurrent(ctx)
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.status.State = s
	c.mu.Unlock()
}

func (c *Controller) publishStatus() {
	var cur playlist.MediaItem
	if !c.current.Empty() {
		cur = c.current.Item(c.cursor)
	}

	c.mu.Lock()
	c.status.CurrentPath = cur.LocalPath
	c.status.CurrentKind = string(cur.Kind)
	c.status.Cursor = c.cursor
	c.status.PlaylistLen = c.current.Len()
	c.status.NextCheck = c.nextCheck
	c.mu.Unlock()
}
