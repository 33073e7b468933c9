/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/munin_kiosk/internal/playlist"
	"github.com/friendsincode/munin_kiosk/internal/store"
)

func TestSweepDeletesOnlyUnreferencedMedia(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"keep.mp4", "stale.jpg", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	active := &playlist.Playlist{Items: []playlist.MediaItem{
		{LocalPath: filepath.Join(dir, "keep.mp4"), Kind: playlist.KindVideo},
	}}

	sw := NewSweeper(store.NewMemory(), dir, "kiosk", zerolog.Nop())
	sw.Sweep(active)

	if _, err := os.Stat(filepath.Join(dir, "keep.mp4")); err != nil {
		t.Fatal("referenced file was deleted")
	}
	if _, err := os.Stat(filepath.Join(dir, "stale.jpg")); !os.IsNotExist(err) {
		t.Fatal("unreferenced media survived sweep")
	}
	// Non-media files are not the sweeper's business.
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Fatal("non-media file was deleted")
	}
}

func TestArchiveMovesObjectToTimestampedBackup(t *testing.T) {
	mem := store.NewMemory()
	mem.Put("kiosk/media/a.mp4", []byte("content"), time.Now())

	sw := NewSweeper(mem, t.TempDir(), "kiosk", zerolog.Nop())
	sw.now = func() time.Time { return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC) }

	if err := sw.Archive(context.Background(), "kiosk/media/a.mp4"); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	if mem.Has("kiosk/media/a.mp4") {
		t.Fatal("live key still present after archive")
	}
	if !mem.Has("kiosk/backups/20260314_092653_a.mp4") {
		t.Fatalf("backup key missing, stored keys: %v", mem.Keys())
	}
}

// crashStore injects failures into Copy or Delete.
type crashStore struct {
	*store.Memory
	copyErr   error
	deleteErr error
}

func (c *crashStore) Copy(ctx context.Context, srcKey, dstKey string) error {
	if c.copyErr != nil {
		return c.copyErr
	}
	return c.Memory.Copy(ctx, srcKey, dstKey)
}

func (c *crashStore) Delete(ctx context.Context, key string) error {
	if c.deleteErr != nil {
		return c.deleteErr
	}
	return c.Memory.Delete(ctx, key)
}

func TestArchiveCrashScenariosNeverLoseTheObject(t *testing.T) {
	tests := []struct {
		name      string
		copyErr   error
		deleteErr error
	}{
		{name: "copy fails", copyErr: errors.New("copy interrupted")},
		{name: "delete fails after copy", deleteErr: errors.New("delete interrupted")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := store.NewMemory()
			mem.Put("kiosk/media/a.mp4", []byte("content"), time.Now())
			cs := &crashStore{Memory: mem, copyErr: tt.copyErr, deleteErr: tt.deleteErr}

			sw := NewSweeper(cs, t.TempDir(), "kiosk", zerolog.Nop())
			if err := sw.Archive(context.Background(), "kiosk/media/a.mp4"); err == nil {
				t.Fatal("expected archive error")
			}

			// Whatever failed, the object must be recoverable somewhere.
			recoverable := mem.Has("kiosk/media/a.mp4")
			for _, key := range mem.Keys() {
				if strings.HasPrefix(key, "kiosk/backups/") {
					recoverable = true
				}
			}
			if !recoverable {
				t.Fatalf("object lost, stored keys: %v", mem.Keys())
			}

			// A failed copy must leave the live key alone entirely.
			if tt.copyErr != nil && !mem.Has("kiosk/media/a.mp4") {
				t.Fatal("live key deleted despite failed copy")
			}
		})
	}
}
