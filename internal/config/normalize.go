package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// applyEnvOverrides lets the legacy environment variables replace file and
// built-in values for the poll interval, retry limit and storage directory.
func (c *Config) applyEnvOverrides() error {
	if value, ok := os.LookupEnv("YT_DOWNLOAD_INTERVAL"); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("YT_DOWNLOAD_INTERVAL: %w", err)
		}
		c.Manager.PollIntervalMS = parsed
	}
	if value, ok := os.LookupEnv("YT_DOWNLOAD_RETRIES"); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("YT_DOWNLOAD_RETRIES: %w", err)
		}
		c.Manager.MaxAttempts = parsed
	}
	if value, ok := os.LookupEnv("YK_STORAGE_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.StorageDir = strings.TrimSpace(value)
	}
	return nil
}

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeManager()
	c.normalizeFetcher()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StorageDir) == "" {
		c.Paths.StorageDir = defaultStorageDir
	}
	if c.Paths.StorageDir, err = ExpandPath(c.Paths.StorageDir); err != nil {
		return fmt.Errorf("paths.storage_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = ExpandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("YT4KIDS_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeManager() {
	if c.Manager.BatchSize <= 0 {
		c.Manager.BatchSize = defaultBatchSize
	}
}

func (c *Config) normalizeFetcher() {
	c.Fetcher.YTDLPBinary = strings.TrimSpace(c.Fetcher.YTDLPBinary)
	if c.Fetcher.YTDLPBinary == "" {
		c.Fetcher.YTDLPBinary = defaultYTDLPBinary
	}
	c.Fetcher.FFmpegBinary = strings.TrimSpace(c.Fetcher.FFmpegBinary)
	if c.Fetcher.FFmpegBinary == "" {
		c.Fetcher.FFmpegBinary = defaultFFmpegBinary
	}
	c.Fetcher.FFprobeBinary = strings.TrimSpace(c.Fetcher.FFprobeBinary)
	if c.Fetcher.FFprobeBinary == "" {
		c.Fetcher.FFprobeBinary = defaultFFprobeBinary
	}
	c.Fetcher.PreferredCodec = strings.ToLower(strings.TrimSpace(c.Fetcher.PreferredCodec))
	if c.Fetcher.PreferredCodec == "" {
		c.Fetcher.PreferredCodec = defaultPreferredCodec
	}
	c.Fetcher.URLTemplate = strings.TrimSpace(c.Fetcher.URLTemplate)
	if c.Fetcher.URLTemplate == "" {
		c.Fetcher.URLTemplate = defaultURLTemplate
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("YT4KIDS_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	c.Notifications.RedisAddr = strings.TrimSpace(c.Notifications.RedisAddr)
	if c.Notifications.RedisAddr == "" {
		if value, ok := os.LookupEnv("YT4KIDS_REDIS_ADDR"); ok {
			c.Notifications.RedisAddr = strings.TrimSpace(value)
		}
	}
	c.Notifications.RedisList = strings.TrimSpace(c.Notifications.RedisList)
	if c.Notifications.RedisList == "" {
		c.Notifications.RedisList = DefaultRedisList
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
