/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/munin_kiosk/internal/playlist"
	"github.com/friendsincode/munin_kiosk/internal/store"
	"github.com/friendsincode/munin_kiosk/internal/telemetry"
)

// ErrSizeUnavailable means remote metadata could not be read before the
// transfer. It is not retried: without an expected size there is no
// integrity check.
var ErrSizeUnavailable = errors.New("remote object size unavailable")

// ErrIntegrity means a completed transfer did not match the advertised size.
var ErrIntegrity = errors.New("integrity check failed")

// Downloader fetches remote objects into the media directory, verifying
// byte size, with bounded retries and a bounded per-attempt time. On any
// exit path the destination holds zero or one file, never a partial.
type Downloader struct {
	store   store.ObjectStore
	destDir string
	logger  zerolog.Logger

	retries        int
	attemptTimeout time.Duration
	backoff        time.Duration
}

// NewDownloader creates a downloader writing into destDir.
func NewDownloader(st store.ObjectStore, destDir string, logger zerolog.Logger) *Downloader {
	return &Downloader{
		store:          st,
		destDir:        destDir,
		logger:         logger.With().Str("component", "downloader").Logger(),
		retries:        3,
		attemptTimeout: 30 * time.Second,
		backoff:        2 * time.Second,
	}
}

// Download fetches ref into the media directory and returns the resulting
// media item. The download is final only once the local size matches the
// remote head metadata.
func (d *Downloader) Download(ctx context.Context, ref store.ObjectInfo) (playlist.MediaItem, error) {
	kind, ok := KindFor(ref.Key)
	if !ok {
		return playlist.MediaItem{}, fmt.Errorf("download %s: unrecognized media extension", ref.Key)
	}

	dest := collisionFreePath(d.destDir, filepath.Base(ref.Key))

	head, err := d.store.Head(ctx, ref.Key)
	if err != nil {
		// Distinct from a transfer failure, and not worth retrying.
		return playlist.MediaItem{}, fmt.Errorf("%w: %s: %v", ErrSizeUnavailable, ref.Key, err)
	}
	expected := head.Size

	var lastErr error
	for attempt := 1; attempt <= d.retries; attempt++ {
		lastErr = d.attempt(ctx, ref.Key, dest, expected)
		if lastErr == nil {
			d.logger.Info().Str("key", ref.Key).Str("path", dest).Int64("size", expected).Msg("downloaded")
			telemetry.DownloadsTotal.Inc()
			return playlist.MediaItem{LocalPath: dest, Kind: kind, SourceKey: ref.Key}, nil
		}

		telemetry.DownloadFailures.Inc()

		if store.IsNotFound(lastErr) {
			// Object vanished mid-download. Retrying cannot recover it.
			d.logger.Warn().Str("key", ref.Key).Msg("object removed from store during download")
			break
		}

		d.logger.Warn().Err(lastErr).
			Str("key", ref.Key).
			Int("attempt", attempt).
			Int("retries", d.retries).
			Msg("download attempt failed")

		if attempt < d.retries {
			select {
			case <-ctx.Done():
				return playlist.MediaItem{}, ctx.Err()
			case <-time.After(d.backoff):
			}
		}
	}

	return playlist.MediaItem{}, fmt.Errorf("download %s: %w", ref.Key, lastErr)
}

// attempt performs one time-bounded transfer plus integrity check. It
// never leaves a partial file behind.
func (d *Downloader) attempt(ctx context.Context, key, dest string, expected int64) error {
	attemptCtx, cancel := context.WithTimeout(ctx, d.attemptTimeout)
	defer cancel()

	if err := d.store.Get(attemptCtx, key, dest); err != nil {
		os.Remove(dest)
		return err
	}

	info, err := os.Stat(dest)
	if err != nil {
		os.Remove(dest)
		return fmt.Errorf("stat %s: %w", dest, err)
	}
	if info.Size() != expected {
		os.Remove(dest)
		telemetry.IntegrityFailures.Inc()
		return fmt.Errorf("%w: got %d bytes, want %d", ErrIntegrity, info.Size(), expected)
	}

	return nil
}

// collisionFreePath returns base joined to dir, appending an incrementing
// numeric suffix before the extension until the path is free.
func collisionFreePath(dir, base string) string {
	dest := filepath.Join(dir, base)
	if _, err := os.Stat(dest); os.IsNotExist(err) {
		return dest
	}

	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for i := 1; ; i++ {
		dest = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
		if _, err := os.Stat(dest); os.IsNotExist(err) {
			return dest
		}
	}
}
