// Package config loads, normalizes, and validates yt4kids configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the legacy environment variables
// YT_DOWNLOAD_INTERVAL, YT_DOWNLOAD_RETRIES, and YK_STORAGE_DIR. The Config
// type centralizes every knob the daemon and CLI need so the storage tree,
// manager cadence, and external binaries are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
