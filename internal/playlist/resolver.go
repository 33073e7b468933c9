/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package playlist

import (
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Resolver merges a remote manifest with downloaded media into a playlist.
type Resolver struct {
	logger zerolog.Logger
}

// NewResolver creates a resolver.
func NewResolver(logger zerolog.Logger) *Resolver {
	return &Resolver{logger: logger.With().Str("component", "resolver").Logger()}
}

// Resolve builds the playback sequence.
//
// With a manifest, entries are matched by basename against the downloaded
// items; entries referencing a file that is not present are stale and
// dropped with a log line. Survivors keep manifest order and inherit kind
// and dwell from the manifest, not from the file extension.
//
// Without a manifest, the downloaded items become the playlist in the
// order they were listed, images getting the default dwell.
//
// An empty result is legal and means no active content.
func (r *Resolver) Resolve(manifest Manifest, downloaded []MediaItem) *Playlist {
	if manifest == nil {
		return r.resolveDefault(downloaded)
	}

	byBasename := make(map[string]MediaItem, len(downloaded))
	for _, item := range downloaded {
		byBasename[filepath.Base(item.LocalPath)] = item
	}

	var items []MediaItem
	for _, entry := range manifest {
		base := filepath.Base(entry.Filename)
		match, ok := byBasename[base]
		if !ok {
			r.logger.Warn().Str("filename", entry.Filename).Msg("manifest entry has no local file, dropping")
			continue
		}

		dwell := DefaultImageDwell
		if entry.DwellSeconds != nil {
			dwell = time.Duration(*entry.DwellSeconds) * time.Second
		}

		items = append(items, MediaItem{
			LocalPath: match.LocalPath,
			Kind:      entry.Kind,
			SourceKey: match.SourceKey,
			Order:     len(items),
			Dwell:     dwell,
		})
	}

	return &Playlist{Items: items}
}

func (r *Resolver) resolveDefault(downloaded []MediaItem) *Playlist {
	var items []MediaItem
	for _, item := range downloaded {
		it := item
		it.Order = len(items)
		if it.Kind == KindImage && it.Dwell == 0 {
			it.Dwell = DefaultImageDwell
		}
		items = append(items, it)
	}
	return &Playlist{Items: items}
}
