package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/friendsincode/munin_kiosk/internal/config"
	"github.com/friendsincode/munin_kiosk/internal/firmware"
	"github.com/friendsincode/munin_kiosk/internal/version"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactively write the config file",
	RunE:  runSetup,
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Back up the kiosk binary and config",
	RunE:  runBackup,
}

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore the newest firmware backup",
	RunE:  runRestore,
}

var displayLogsCmd = &cobra.Command{
	Use:   "display-logs",
	Short: "Print the kiosk log file",
	RunE:  runDisplayLogs,
}

var checkForUpdateCmd = &cobra.Command{
	Use:   "check-for-update",
	Short: "Check GitHub for a newer firmware release",
	RunE:  runCheckForUpdate,
}

func runSetup(cmd *cobra.Command, args []string) error {
	reader := bufio.NewReader(os.Stdin)
	cfg := &config.Config{}

	cfg.Bucket = prompt(reader, "S3 bucket name")
	cfg.RemoteBaseDir = prompt(reader, "Remote base directory (e.g. kiosks/lobby)")
	if raw := prompt(reader, "Check interval in seconds [300]"); raw != "" {
		interval, err := strconv.Atoi(raw)
		if err != nil || interval <= 0 {
			return fmt.Errorf("invalid check interval %q", raw)
		}
		cfg.CheckIntervalSeconds = interval
	}

	path := cfgPath
	if path == "" {
		path = config.DefaultPath()
	}
	if err := cfg.Save(path); err != nil {
		return err
	}
	fmt.Printf("Config written to %s\n", path)
	return nil
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Printf("%s: ", label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func runBackup(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	binary, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate binary: %w", err)
	}

	mgr := firmware.NewManager(backupDir(), logger)
	path := cfgPath
	if path == "" {
		path = config.DefaultPath()
	}
	return mgr.Backup(binary, path)
}

func runRestore(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	binary, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate binary: %w", err)
	}

	mgr := firmware.NewManager(backupDir(), logger)
	return mgr.Restore(filepath.Base(binary), binary)
}

func backupDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, "firmware_backup")
}

func runDisplayLogs(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	data, err := os.ReadFile(cfg.LogFile)
	if err != nil {
		return fmt.Errorf("read log file: %w", err)
	}
	fmt.Print(string(data))
	return nil
}

func runCheckForUpdate(cmd *cobra.Command, args []string) error {
	repo := ""
	if err := loadConfig(); err == nil {
		repo = cfg.GitHubRepo
	}

	info, err := version.Check(cmd.Context(), repo)
	if err != nil {
		return fmt.Errorf("update check: %w", err)
	}

	fmt.Printf("Current version: %s\n", info.CurrentVersion)
	fmt.Printf("Latest release:  %s\n", info.LatestVersion)
	if info.UpdateAvailable {
		fmt.Printf("Update available: %s\n", info.ReleaseURL)
	} else {
		fmt.Println("Up to date.")
	}
	return nil
}
