/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package player

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/friendsincode/munin_kiosk/internal/events"
	"github.com/friendsincode/munin_kiosk/internal/media"
	"github.com/friendsincode/munin_kiosk/internal/playlist"
	"github.com/friendsincode/munin_kiosk/internal/store"
	"github.com/friendsincode/munin_kiosk/internal/telemetry"
)

// runSync performs one remote check. Current playback keeps running for
// its whole duration; only a fully resolved replacement playlist triggers
// a swap.
func (c *Controller) runSync(ctx context.Context) {
	cycle := uuid.NewString()[:8]
	log := c.logger.With().Str("sync", cycle).Logger()
	log.Info().Msg("checking for new media")

	next, updated, err := c.syncOnce(ctx, log)

	c.mu.Lock()
	c.status.LastSync = c.now()
	if err != nil {
		c.status.LastSyncErr = err.Error()
	} else {
		c.status.LastSyncErr = ""
	}
	c.mu.Unlock()

	if err != nil {
		// Keep serving whatever is currently valid.
		telemetry.SyncFailures.Inc()
		log.Error().Err(err).Msg("remote check failed")
		c.bus.Publish(events.EventSyncHealth, events.Payload{"ok": false, "error": err.Error()})
		return
	}

	c.bus.Publish(events.EventSyncHealth, events.Payload{"ok": true, "updated": updated})

	if updated {
		log.Info().Int("items", next.Len()).Msg("replacement playlist ready, swapping")
		c.swap(ctx, next)
	}
}

// syncOnce lists the remote namespace, downloads new content, archives
// consumed keys, and resolves the replacement playlist. It returns
// updated=false when the store held nothing new.
func (c *Controller) syncOnce(ctx context.Context, log zerolog.Logger) (*playlist.Playlist, bool, error) {
	mediaPrefix := c.opts.RemoteBaseDir + "/media/"
	manifestKey := c.opts.RemoteBaseDir + "/playlist.json"

	refs, err := c.store.List(ctx, mediaPrefix)
	if err != nil {
		return nil, false, err
	}

	// Keep only recognized media kinds; the listing already excludes
	// pseudo-directories and empty objects.
	valid := refs[:0]
	for _, ref := range refs {
		if media.IsMedia(ref.Key) {
			valid = append(valid, ref)
		}
	}
	refs = valid

	manifestUpdated := c.fetchManifest(ctx, manifestKey, log)

	var downloaded []playlist.MediaItem
	for _, ref := range refs {
		item, err := c.dl.Download(ctx, ref)
		if err != nil {
			// Candidate dropped; resolve proceeds with the rest.
			log.Warn().Err(err).Str("key", ref.Key).Msg("skipping media object")
			continue
		}
		downloaded = append(downloaded, item)

		if err := c.sweeper.Archive(ctx, ref.Key); err != nil {
			log.Error().Err(err).Str("key", ref.Key).Msg("archive failed, object may be reprocessed")
		}
	}

	if !manifestUpdated && len(downloaded) == 0 {
		log.Debug().Msg("no new content")
		return nil, false, nil
	}

	// A manifest-only update re-resolves against what is already on disk.
	items := downloaded
	if len(items) == 0 {
		items, err = media.ListLocal(c.opts.MediaDir)
		if err != nil {
			return nil, false, err
		}
	}

	manifest, err := playlist.LoadManifest(c.opts.ManifestPath)
	if err != nil {
		log.Warn().Err(err).Msg("manifest unreadable, using default order")
		manifest = nil
	}

	return c.resolver.Resolve(manifest, items), true, nil
}

// fetchManifest downloads and archives the remote playlist manifest if
// one is present. Returns whether a fresh manifest was fetched.
func (c *Controller) fetchManifest(ctx context.Context, manifestKey string, log zerolog.Logger) bool {
	if _, err := c.store.Head(ctx, manifestKey); err != nil {
		if !store.IsNotFound(err) {
			log.Warn().Err(err).Msg("manifest head failed")
		}
		return false
	}

	if err := c.store.Get(ctx, manifestKey, c.opts.ManifestPath); err != nil {
		log.Error().Err(err).Msg("manifest download failed")
		return false
	}

	// Validate before archiving so a corrupt upload stays visible in the
	// live prefix for the operator to fix.
	if _, err := playlist.LoadManifest(c.opts.ManifestPath); err != nil {
		log.Error().Err(err).Msg("manifest rejected")
		return false
	}

	if err := c.sweeper.Archive(ctx, manifestKey); err != nil {
		log.Error().Err(err).Msg("manifest archive failed")
	}

	log.Info().Msg("playlist manifest updated")
	return true
}
