/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config covers device-level configuration, read once at startup from the
// JSON config file with MUNIN_* environment overrides.
type Config struct {
	Environment string `json:"environment"`

	// Remote store.
	Bucket         string `json:"bucket_name"`
	RemoteBaseDir  string `json:"s3_dir"`
	S3Region       string `json:"s3_region"`
	S3Endpoint     string `json:"s3_endpoint"` // S3-compatible services (MinIO, Spaces, etc.)
	S3UsePathStyle bool   `json:"s3_use_path_style"`

	// Sync cadence, seconds.
	CheckIntervalSeconds int `json:"check_interval"`

	// Local paths.
	MediaDir     string `json:"media_dir"`
	ManifestPath string `json:"manifest_path"`
	LogFile      string `json:"log_file"`

	// Renderer.
	PlayerBin string `json:"player_bin"`

	// Local status server bind address; "off" disables it.
	StatusBind string `json:"status_bind"`

	// Firmware self-update.
	GitHubRepo string `json:"github_repo"`
}

// DefaultPath returns the per-user config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".config", "munin_kiosk", "config.json")
}

// Load reads the config file at path (DefaultPath when empty), applies
// environment overrides and defaults, and validates the result. A missing
// or invalid file is fatal: the kiosk cannot guess its bucket.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s (run \"muninkiosk setup\"?): %w", path, err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if cfg.Bucket == "" {
		return nil, fmt.Errorf("config: bucket_name is required")
	}
	if cfg.RemoteBaseDir == "" {
		return nil, fmt.Errorf("config: s3_dir is required")
	}
	if cfg.CheckIntervalSeconds <= 0 {
		return nil, fmt.Errorf("config: check_interval must be positive, got %d", cfg.CheckIntervalSeconds)
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Environment = getEnv("MUNIN_ENV", c.Environment)
	c.Bucket = getEnv("MUNIN_BUCKET", c.Bucket)
	c.RemoteBaseDir = getEnv("MUNIN_REMOTE_BASE_DIR", c.RemoteBaseDir)
	c.S3Region = getEnvAny([]string{"MUNIN_S3_REGION", "AWS_REGION"}, c.S3Region)
	c.S3Endpoint = getEnvAny([]string{"MUNIN_S3_ENDPOINT", "S3_ENDPOINT"}, c.S3Endpoint)
	c.S3UsePathStyle = getEnvBool("MUNIN_S3_USE_PATH_STYLE", c.S3UsePathStyle)
	c.CheckIntervalSeconds = getEnvInt("MUNIN_CHECK_INTERVAL", c.CheckIntervalSeconds)
	c.MediaDir = getEnv("MUNIN_MEDIA_DIR", c.MediaDir)
	c.ManifestPath = getEnv("MUNIN_MANIFEST_PATH", c.ManifestPath)
	c.LogFile = getEnv("MUNIN_LOG_FILE", c.LogFile)
	c.PlayerBin = getEnv("MUNIN_PLAYER_BIN", c.PlayerBin)
	c.StatusBind = getEnv("MUNIN_STATUS_BIND", c.StatusBind)
	c.GitHubRepo = getEnv("MUNIN_GITHUB_REPO", c.GitHubRepo)
}

func (c *Config) applyDefaults() {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	if c.Environment == "" {
		c.Environment = "production"
	}
	if c.CheckIntervalSeconds == 0 {
		c.CheckIntervalSeconds = 300
	}
	if c.MediaDir == "" {
		c.MediaDir = filepath.Join(home, "media")
	}
	if c.ManifestPath == "" {
		c.ManifestPath = filepath.Join(home, "playlist.json")
	}
	if c.LogFile == "" {
		c.LogFile = filepath.Join(home, "munin_kiosk.log")
	}
	if c.PlayerBin == "" {
		c.PlayerBin = "cvlc"
	}
	if c.StatusBind == "" {
		c.StatusBind = "127.0.0.1:8090"
	}
	// The "off" sentinel survives defaulting and env overrides; the run
	// command skips the server on an empty bind.
	if strings.EqualFold(c.StatusBind, "off") {
		c.StatusBind = ""
	}
	c.RemoteBaseDir = strings.TrimSuffix(c.RemoteBaseDir, "/")
}

// CheckInterval returns the sync cadence as a duration.
func (c *Config) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalSeconds) * time.Second
}

// Save writes the config as indented JSON, creating parent directories.
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvAny returns the first non-empty environment variable value from keys, or def if none set.
func getEnvAny(keys []string, def string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return def
}
