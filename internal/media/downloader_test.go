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
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/munin_kiosk/internal/store"
)

// scriptedStore serves a single object and can corrupt or fail the first
// N transfers.
type scriptedStore struct {
	key     string
	data    []byte
	headErr error

	corruptFirst int // serve truncated bytes for this many gets
	failFirst    int // fail outright for this many gets
	vanishAfter  int // return NotFound once this many gets have happened
	gets         int
}

func (s *scriptedStore) List(ctx context.Context, prefix string) ([]store.ObjectInfo, error) {
	return []store.ObjectInfo{{Key: s.key, Size: int64(len(s.data)), LastModified: time.Now()}}, nil
}

func (s *scriptedStore) Head(ctx context.Context, key string) (store.ObjectInfo, error) {
	if s.headErr != nil {
		return store.ObjectInfo{}, s.headErr
	}
	return store.ObjectInfo{Key: key, Size: int64(len(s.data))}, nil
}

func (s *scriptedStore) Get(ctx context.Context, key, localPath string) error {
	s.gets++
	if s.vanishAfter > 0 && s.gets > s.vanishAfter {
		return &store.NotFoundError{Key: key}
	}
	if s.gets <= s.failFirst {
		return errors.New("connection reset")
	}
	data := s.data
	if s.gets <= s.failFirst+s.corruptFirst {
		data = data[:len(data)/2]
	}
	return os.WriteFile(localPath, data, 0o644)
}

func (s *scriptedStore) Copy(ctx context.Context, srcKey, dstKey string) error { return nil }
func (s *scriptedStore) Delete(ctx context.Context, key string) error          { return nil }

func newTestDownloader(t *testing.T, st store.ObjectStore) (*Downloader, string) {
	t.Helper()
	dir := t.TempDir()
	d := NewDownloader(st, dir, zerolog.Nop())
	d.backoff = time.Millisecond
	return d, dir
}

func TestDownloadSuccess(t *testing.T) {
	st := &scriptedStore{key: "kiosk/media/a.mp4", data: []byte("video-bytes")}
	d, dir := newTestDownloader(t, st)

	item, err := d.Download(context.Background(), store.ObjectInfo{Key: st.key})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if item.SourceKey != st.key {
		t.Fatalf("source key = %q, want %q", item.SourceKey, st.key)
	}
	info, err := os.Stat(item.LocalPath)
	if err != nil {
		t.Fatalf("downloaded file missing: %v", err)
	}
	if info.Size() != int64(len(st.data)) {
		t.Fatalf("size = %d, want %d", info.Size(), len(st.data))
	}
	if filepath.Dir(item.LocalPath) != dir {
		t.Fatalf("file landed outside media dir: %s", item.LocalPath)
	}
}

func TestDownloadRecoversAfterIntegrityFailures(t *testing.T) {
	// Attempts 1 and 2 are truncated, attempt 3 is whole.
	st := &scriptedStore{key: "kiosk/media/a.mp4", data: []byte("full-content"), corruptFirst: 2}
	d, dir := newTestDownloader(t, st)

	item, err := d.Download(context.Background(), store.ObjectInfo{Key: st.key})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if st.gets != 3 {
		t.Fatalf("gets = %d, want 3", st.gets)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("media dir holds %d files, want exactly 1 (no partials)", len(entries))
	}
	if filepath.Join(dir, entries[0].Name()) != item.LocalPath {
		t.Fatalf("surviving file %q is not the returned item %q", entries[0].Name(), item.LocalPath)
	}
}

func TestDownloadExhaustsRetriesWithoutPartial(t *testing.T) {
	st := &scriptedStore{key: "kiosk/media/a.mp4", data: []byte("full-content"), corruptFirst: 10}
	d, dir := newTestDownloader(t, st)

	_, err := d.Download(context.Background(), store.ObjectInfo{Key: st.key})
	if err == nil {
		t.Fatal("expected failure after exhausting retries")
	}
	if !errors.Is(err, ErrIntegrity) {
		t.Fatalf("error = %v, want integrity failure", err)
	}
	if st.gets != 3 {
		t.Fatalf("gets = %d, want 3", st.gets)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("media dir holds %d files, want 0 after failure", len(entries))
	}
}

func TestDownloadHeadFailureIsImmediate(t *testing.T) {
	st := &scriptedStore{key: "kiosk/media/a.mp4", data: []byte("x"), headErr: errors.New("metadata down")}
	d, _ := newTestDownloader(t, st)

	_, err := d.Download(context.Background(), store.ObjectInfo{Key: st.key})
	if !errors.Is(err, ErrSizeUnavailable) {
		t.Fatalf("error = %v, want ErrSizeUnavailable", err)
	}
	if st.gets != 0 {
		t.Fatalf("gets = %d, want 0 (no transfer without expected size)", st.gets)
	}
}

func TestDownloadAbortsWhenObjectVanishes(t *testing.T) {
	st := &scriptedStore{key: "kiosk/media/a.mp4", data: []byte("full-content"), corruptFirst: 10, vanishAfter: 1}
	d, dir := newTestDownloader(t, st)

	_, err := d.Download(context.Background(), store.ObjectInfo{Key: st.key})
	if err == nil {
		t.Fatal("expected failure")
	}
	// First get is corrupt, second reports the object gone: no third try.
	if st.gets != 2 {
		t.Fatalf("gets = %d, want 2 (not-found aborts retries)", st.gets)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("media dir holds %d files, want 0", len(entries))
	}
}

func TestDownloadRejectsUnknownExtension(t *testing.T) {
	st := &scriptedStore{key: "kiosk/media/notes.txt", data: []byte("x")}
	d, _ := newTestDownloader(t, st)

	if _, err := d.Download(context.Background(), store.ObjectInfo{Key: st.key}); err == nil {
		t.Fatal("expected rejection of unrecognized extension")
	}
}

func TestCollisionFreePath(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.jpg", "a_1.jpg"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got := collisionFreePath(dir, "a.jpg")
	want := filepath.Join(dir, "a_2.jpg")
	if got != want {
		t.Fatalf("collisionFreePath = %q, want %q", got, want)
	}

	if got := collisionFreePath(dir, "fresh.jpg"); got != filepath.Join(dir, "fresh.jpg") {
		t.Fatalf("collisionFreePath for free name = %q", got)
	}
}
