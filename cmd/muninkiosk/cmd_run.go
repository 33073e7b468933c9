package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/friendsincode/munin_kiosk/internal/config"
	"github.com/friendsincode/munin_kiosk/internal/events"
	"github.com/friendsincode/munin_kiosk/internal/logbuffer"
	"github.com/friendsincode/munin_kiosk/internal/logging"
	"github.com/friendsincode/munin_kiosk/internal/media"
	"github.com/friendsincode/munin_kiosk/internal/player"
	"github.com/friendsincode/munin_kiosk/internal/playlist"
	"github.com/friendsincode/munin_kiosk/internal/renderer"
	"github.com/friendsincode/munin_kiosk/internal/server"
	"github.com/friendsincode/munin_kiosk/internal/store"
	"github.com/friendsincode/munin_kiosk/internal/version"
)

func runRun(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logFile, err := logging.OpenLogFile(cfg.LogFile)
	if err != nil {
		return err
	}
	defer logFile.Close()

	logs := logbuffer.New(2000)
	logger = logging.Setup(cfg.Environment, logFile, logbuffer.NewWriter(logs, nil))

	logger.Info().Str("version", version.Version).Msg("munin kiosk starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.NewS3Store(ctx, store.S3Options{
		Bucket:       cfg.Bucket,
		Region:       cfg.S3Region,
		Endpoint:     cfg.S3Endpoint,
		UsePathStyle: cfg.S3UsePathStyle,
	}, logger)
	if err != nil {
		return fmt.Errorf("initialize object store: %w", err)
	}

	bus := events.NewBus()
	controller := player.New(
		st,
		media.NewDownloader(st, cfg.MediaDir, logger),
		media.NewSweeper(st, cfg.MediaDir, cfg.RemoteBaseDir, logger),
		playlist.NewResolver(logger),
		renderer.NewVLC(cfg.PlayerBin, logger),
		bus,
		player.Options{
			MediaDir:      cfg.MediaDir,
			RemoteBaseDir: cfg.RemoteBaseDir,
			ManifestPath:  cfg.ManifestPath,
			CheckInterval: cfg.CheckInterval(),
		},
		logger,
	)

	if cfg.StatusBind != "" {
		srv := server.New(controller, logs, bus, logger)
		httpServer := srv.HTTPServer(cfg.StatusBind)
		go func() {
			logger.Info().Str("addr", cfg.StatusBind).Msg("status server listening")
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("status server error")
			}
		}()
		defer httpServer.Close()
	}

	if err := controller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info().Msg("munin kiosk stopped")
	return nil
}
