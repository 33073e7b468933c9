/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package renderer

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

// VLC renders media through a cvlc subprocess.
type VLC struct {
	bin         string
	gracePeriod time.Duration
	logger      zerolog.Logger
}

// NewVLC creates a VLC renderer. bin defaults to "cvlc".
func NewVLC(bin string, logger zerolog.Logger) *VLC {
	if bin == "" {
		bin = "cvlc"
	}
	return &VLC{
		bin:         bin,
		gracePeriod: 5 * time.Second,
		logger:      logger.With().Str("component", "renderer").Logger(),
	}
}

// StartVideo launches fullscreen looped muted video playback.
func (v *VLC) StartVideo(ctx context.Context, path string) (Handle, error) {
	args := []string{"--fullscreen", "--loop", "--no-osd", "--no-audio", path}
	return v.start(ctx, path, args)
}

// StartImage launches fullscreen image display. With a positive dwell the
// player cycles on that duration; the controller still owns advancing.
func (v *VLC) StartImage(ctx context.Context, path string, dwell time.Duration) (Handle, error) {
	var args []string
	if dwell > 0 {
		args = []string{"--fullscreen", "--image-duration", strconv.Itoa(int(dwell.Seconds())), "--loop", "--no-osd", path}
	} else {
		args = []string{"--fullscreen", "--loop", "--no-osd", path}
	}
	return v.start(ctx, path, args)
}

func (v *VLC) start(ctx context.Context, path string, args []string) (Handle, error) {
	cmd := exec.Command(v.bin, args...)
	// Own process group so Stop can take down any children VLC forks.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", v.bin, err)
	}

	h := &vlcHandle{
		cmd:         cmd,
		started:     time.Now(),
		gracePeriod: v.gracePeriod,
		state:       StateRunning,
		done:        make(chan struct{}),
		logger:      v.logger.With().Int("pid", cmd.Process.Pid).Str("path", path).Logger(),
	}

	go func() {
		err := cmd.Wait()
		h.mu.Lock()
		if h.state == StateRunning {
			if err != nil {
				h.state = StateFailed
			} else {
				h.state = StateStopped
			}
		}
		h.mu.Unlock()
		close(h.done)
	}()

	h.logger.Info().Msg("renderer started")
	return h, nil
}

type vlcHandle struct {
	cmd         *exec.Cmd
	started     time.Time
	gracePeriod time.Duration
	done        chan struct{}
	logger      zerolog.Logger

	mu    sync.Mutex
	state State
}

func (h *vlcHandle) Alive() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

func (h *vlcHandle) StartedAt() time.Time { return h.started }

// Stop sends SIGTERM to the process group, waits out the grace period,
// then SIGKILLs the group. Safe to call more than once.
func (h *vlcHandle) Stop() error {
	h.mu.Lock()
	if h.state != StateRunning {
		h.mu.Unlock()
		return nil
	}
	h.mu.Unlock()

	select {
	case <-h.done:
		return nil
	default:
	}

	pgid := -h.cmd.Process.Pid
	if err := syscall.Kill(pgid, syscall.SIGTERM); err != nil {
		h.logger.Warn().Err(err).Msg("terminate signal failed")
	}

	select {
	case <-h.done:
	case <-time.After(h.gracePeriod):
		h.logger.Warn().Msg("graceful stop timed out, killing process group")
		if err := syscall.Kill(pgid, syscall.SIGKILL); err != nil {
			return fmt.Errorf("kill renderer: %w", err)
		}
		<-h.done
	}

	h.logger.Info().Msg("renderer stopped")
	return nil
}
