/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package media covers the local side of content flow: inventorying the
// media directory, integrity-checked downloads from the object store, and
// retention sweeps with remote archival.
package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/friendsincode/munin_kiosk/internal/playlist"
)

var (
	videoExtensions = map[string]bool{
		".mp4": true, ".mkv": true, ".avi": true, ".mov": true,
	}
	imageExtensions = map[string]bool{
		".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".bmp": true,
	}
)

// KindFor classifies a filename by extension, case-insensitive. The second
// return is false for unrecognized extensions.
func KindFor(name string) (playlist.Kind, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case videoExtensions[ext]:
		return playlist.KindVideo, true
	case imageExtensions[ext]:
		return playlist.KindImage, true
	default:
		return "", false
	}
}

// IsMedia reports whether name has a recognized media extension.
func IsMedia(name string) bool {
	_, ok := KindFor(name)
	return ok
}

// ListLocal scans one directory level for media files. A missing directory
// is created rather than treated as a failure, and an empty directory
// yields an empty slice.
func ListLocal(dir string) ([]playlist.MediaItem, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read media dir: %w", err)
	}

	var items []playlist.MediaItem
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		kind, ok := KindFor(entry.Name())
		if !ok {
			continue
		}
		items = append(items, playlist.MediaItem{
			LocalPath: filepath.Join(dir, entry.Name()),
			Kind:      kind,
			Order:     len(items),
		})
	}
	return items, nil
}
