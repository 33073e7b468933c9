/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package firmware implements the maintenance tooling around the kiosk
// binary: timestamped backups and restore of the newest backup. It is
// operator tooling, not part of the playback core.
package firmware

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Manager performs firmware backup and restore under backupDir.
type Manager struct {
	backupDir string
	logger    zerolog.Logger
}

// NewManager creates a firmware manager.
func NewManager(backupDir string, logger zerolog.Logger) *Manager {
	return &Manager{
		backupDir: backupDir,
		logger:    logger.With().Str("component", "firmware").Logger(),
	}
}

// Backup copies each path into the backup directory with a unix-timestamp
// suffix. Individual failures are logged and skipped; the call fails only
// when the backup directory itself cannot be created.
func (m *Manager) Backup(paths ...string) error {
	if err := os.MkdirAll(m.backupDir, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}

	ts := time.Now().Unix()
	for _, src := range paths {
		dest := filepath.Join(m.backupDir, fmt.Sprintf("%s.%d", filepath.Base(src), ts))
		if err := copyFile(src, dest); err != nil {
			m.logger.Error().Err(err).Str("path", src).Msg("backup failed, skipping")
			continue
		}
		m.logger.Info().Str("src", src).Str("dest", dest).Msg("backed up")
	}
	return nil
}

// Restore copies the newest backup of base (e.g. the binary name) back to
// destPath.
func (m *Manager) Restore(base, destPath string) error {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		return fmt.Errorf("read backup dir: %w", err)
	}

	type candidate struct {
		name string
		ts   int64
	}
	var candidates []candidate
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, base+".") {
			continue
		}
		ts, err := strconv.ParseInt(strings.TrimPrefix(name, base+"."), 10, 64)
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{name: name, ts: ts})
	}
	if len(candidates) == 0 {
		return fmt.Errorf("no backups of %s found in %s", base, m.backupDir)
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ts > candidates[j].ts })
	newest := filepath.Join(m.backupDir, candidates[0].name)

	if err := copyFile(newest, destPath); err != nil {
		return fmt.Errorf("restore %s: %w", newest, err)
	}
	m.logger.Info().Str("src", newest).Str("dest", destPath).Msg("restored")
	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	return out.Close()
}
