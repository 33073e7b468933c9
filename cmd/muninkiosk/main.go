package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/friendsincode/munin_kiosk/internal/config"
	"github.com/friendsincode/munin_kiosk/internal/logging"
)

var (
	cfgPath string
	cfg     *config.Config
	logger  zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "muninkiosk",
	Short: "Munin Kiosk - unattended signage media player",
	Long: "Munin Kiosk plays local video and image media in a loop, polls an\n" +
		"S3-compatible object store for new media or a playlist manifest, and\n" +
		"rotates local content without interrupting playback.",
	RunE: runRun,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the playback loop",
	Long:  "Start the playback controller, the remote sync loop, and the local status server",
	RunE:  runRun,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file (default ~/.config/munin_kiosk/config.json)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(displayLogsCmd)
	rootCmd.AddCommand(checkForUpdateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration (called by commands that need it).
func loadConfig() error {
	var err error
	cfg, err = config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger = logging.Setup(cfg.Environment)
	return nil
}
