package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateManager(); err != nil {
		return err
	}
	if err := c.validateFetcher(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.StorageDir) == "" {
		return errors.New("paths.storage_dir must be set (or set YK_STORAGE_DIR)")
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	return nil
}

func (c *Config) validateManager() error {
	if c.Manager.PollIntervalMS <= 0 {
		return errors.New("manager.poll_interval_ms must be positive (or set YT_DOWNLOAD_INTERVAL)")
	}
	if c.Manager.MaxAttempts <= 0 {
		return errors.New("manager.max_attempts must be positive (or set YT_DOWNLOAD_RETRIES)")
	}
	return nil
}

func (c *Config) validateFetcher() error {
	if err := ensurePositiveMap(map[string]int{
		"fetcher.probe_timeout_seconds":  c.Fetcher.ProbeTimeoutSeconds,
		"fetcher.stream_timeout_seconds": c.Fetcher.StreamTimeoutSeconds,
	}); err != nil {
		return err
	}
	if !slices.Contains(Codecs, c.Fetcher.PreferredCodec) {
		return fmt.Errorf("fetcher.preferred_codec %q is not one of %s", c.Fetcher.PreferredCodec, strings.Join(Codecs, ", "))
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	if c.Notifications.RedisDB < 0 {
		return errors.New("notifications.redis_db must be >= 0")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
