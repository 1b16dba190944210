package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Paths contains directory and bind address configuration.
type Paths struct {
	StorageDir string `toml:"storage_dir"`
	StateDir   string `toml:"state_dir"`
	LogDir     string `toml:"log_dir"`
	APIBind    string `toml:"api_bind"`
	APIToken   string `toml:"api_token"`
}

// Manager controls the download scheduler.
type Manager struct {
	// PollIntervalMS is both the tick period and the cooldown after an attempt.
	PollIntervalMS int `toml:"poll_interval_ms"`
	MaxAttempts    int `toml:"max_attempts"`
	BatchSize      int `toml:"batch_size"`
}

// Fetcher contains settings for the download pipeline.
type Fetcher struct {
	YTDLPBinary          string `toml:"ytdlp_binary"`
	FFmpegBinary         string `toml:"ffmpeg_binary"`
	FFprobeBinary        string `toml:"ffprobe_binary"`
	PreferredCodec       string `toml:"preferred_codec"`
	URLTemplate          string `toml:"url_template"`
	ProbeTimeoutSeconds  int    `toml:"probe_timeout_seconds"`
	StreamTimeoutSeconds int    `toml:"stream_timeout_seconds"`
}

// Notifications contains configuration for ntfy push notifications and the
// optional Redis event mirror.
type Notifications struct {
	NtfyTopic         string `toml:"ntfy_topic"`
	RequestTimeout    int    `toml:"request_timeout"`
	DownloadCompleted bool   `toml:"download_completed"`
	DownloadFailed    bool   `toml:"download_failed"`
	EntrySkipped      bool   `toml:"entry_skipped"`
	RedisAddr         string `toml:"redis_addr"`
	RedisPassword     string `toml:"redis_password"`
	RedisDB           int    `toml:"redis_db"`
	RedisList         string `toml:"redis_list"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for yt4kids.
//
// Configuration sections by subsystem:
//   - Paths: storage tree, daemon state, logs, and API bind address
//   - Manager: poll interval, retry budget, and query batch size
//   - Fetcher: external binaries and download timeouts
//   - Notifications: ntfy topic, event toggles, and Redis mirror
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Manager       Manager       `toml:"manager"`
	Fetcher       Fetcher       `toml:"fetcher"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir, c.Paths.StorageDir, c.TmpDir()} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// PollInterval returns the manager tick period and post-attempt cooldown.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Manager.PollIntervalMS) * time.Millisecond
}

// ProbeTimeout bounds metadata extraction for a single video.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Fetcher.ProbeTimeoutSeconds) * time.Second
}

// StreamTimeout bounds a single stream download.
func (c *Config) StreamTimeout() time.Duration {
	return time.Duration(c.Fetcher.StreamTimeoutSeconds) * time.Second
}

// TmpDir is where partial downloads live until they are placed.
func (c *Config) TmpDir() string {
	if strings.TrimSpace(c.Paths.StorageDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.StorageDir, "tmp")
}

// QueueDBPath returns the SQLite database location.
func (c *Config) QueueDBPath() string {
	return filepath.Join(c.Paths.StateDir, "queue.db")
}

// SocketPath returns the daemon IPC socket location.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.StateDir, "yt4kids.sock")
}

// LockPath returns the single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "yt4kids.lock")
}

// PIDPath returns the daemon pid file location.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.StateDir, "yt4kids.pid")
}

// VideoURL renders the watch URL handed to yt-dlp for a video id.
func (c *Config) VideoURL(videoID string) string {
	template := strings.TrimSpace(c.Fetcher.URLTemplate)
	if template == "" {
		template = defaultURLTemplate
	}
	if !strings.Contains(template, "%s") {
		return template + videoID
	}
	return fmt.Sprintf(template, videoID)
}
