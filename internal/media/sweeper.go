/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/munin_kiosk/internal/playlist"
	"github.com/friendsincode/munin_kiosk/internal/store"
)

// Sweeper removes local media no longer referenced by the active playlist
// and archives consumed remote objects under a backup prefix.
type Sweeper struct {
	store    store.ObjectStore
	mediaDir string
	baseDir  string
	logger   zerolog.Logger

	now func() time.Time
}

// NewSweeper creates a sweeper. baseDir is the remote base directory the
// backups prefix hangs off.
func NewSweeper(st store.ObjectStore, mediaDir, baseDir string, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		store:    st,
		mediaDir: mediaDir,
		baseDir:  baseDir,
		logger:   logger.With().Str("component", "sweeper").Logger(),
		now:      time.Now,
	}
}

// Sweep deletes media files in the media directory that active does not
// reference. Deletion failures are logged and skipped.
func (s *Sweeper) Sweep(active *playlist.Playlist) {
	entries, err := os.ReadDir(s.mediaDir)
	if err != nil {
		s.logger.Error().Err(err).Str("dir", s.mediaDir).Msg("sweep: read media dir")
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !IsMedia(entry.Name()) {
			continue
		}
		path := filepath.Join(s.mediaDir, entry.Name())
		if active.References(path) {
			continue
		}
		if err := os.Remove(path); err != nil {
			s.logger.Error().Err(err).Str("path", path).Msg("sweep: delete failed, skipping")
			continue
		}
		s.logger.Info().Str("path", path).Msg("deleted unreferenced media")
	}
}

// Archive moves a consumed remote object to a timestamped key under the
// backups prefix. The copy happens strictly before the delete so a crash
// between the two leaves the object recoverable at one key or the other.
func (s *Sweeper) Archive(ctx context.Context, key string) error {
	backupKey := fmt.Sprintf("%s/backups/%s_%s",
		s.baseDir, s.now().Format("20060102_150405"), filepath.Base(key))

	if err := s.store.Copy(ctx, key, backupKey); err != nil {
		return fmt.Errorf("archive copy %s: %w", key, err)
	}
	if err := s.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("archive delete %s: %w", key, err)
	}

	s.logger.Info().Str("key", key).Str("backup", backupKey).Msg("archived remote object")
	return nil
}
