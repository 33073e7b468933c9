/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package playlist holds the playback sequence model and the resolver that
// reconciles a remote manifest against downloaded local media.
package playlist

import "time"

// Kind classifies a media item by how it is rendered.
type Kind string

const (
	KindVideo Kind = "video"
	KindImage Kind = "image"
)

// DefaultImageDwell is applied to images when no manifest specifies one.
const DefaultImageDwell = 10 * time.Second

// MediaItem is one entry of a playback sequence.
type MediaItem struct {
	// LocalPath must exist on disk for the item to be playable.
	LocalPath string
	Kind      Kind
	// SourceKey is the remote object key the file came from, empty for
	// purely local files.
	SourceKey string
	Order     int
	// Dwell is how long an image stays on screen before the cursor
	// advances. Ignored (indefinite) when the playlist has one item, and
	// meaningless for videos, which loop natively.
	Dwell time.Duration
}

// Playlist is an immutable ordered sequence of media items. The playback
// controller replaces the whole value on content changes; it is never
// mutated in place while active.
type Playlist struct {
	Items []MediaItem
}

// Len returns the number of items.
func (p *Playlist) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Items)
}

// Empty reports whether there is nothing to play.
func (p *Playlist) Empty() bool { return p.Len() == 0 }

// Item returns the item at cursor i. The cursor must be in [0, Len).
func (p *Playlist) Item(i int) MediaItem { return p.Items[i] }

// Next wraps cursor i to the following index modulo length.
func (p *Playlist) Next(i int) int {
	if p.Len() == 0 {
		return 0
	}
	return (i + 1) % p.Len()
}

// References reports whether any item points at localPath.
func (p *Playlist) References(localPath string) bool {
	if p == nil {
		return false
	}
	for _, item := range p.Items {
		if item.LocalPath == localPath {
			return true
		}
	}
	return false
}
