package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitAndValidate(t *testing.T) {
	cfg, configPath := newCLIConfig(t)
	socket := filepath.Join(cfg.Paths.StateDir, "absent.sock")

	out, _, err := runCLI(t, []string{"config", "validate"}, socket, configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Config path: "+configPath)
	requireContains(t, out, "poll_interval")
	requireContains(t, out, "1m0s")
	requireContains(t, out, "Configuration valid")
	if strings.Contains(out, "defaults used") {
		t.Fatalf("config file exists, output claims defaults: %q", out)
	}

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, socket, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, socket, ""); err == nil {
		t.Fatal("expected error when config already exists")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, socket, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigShowRedactsSecrets(t *testing.T) {
	cfg, configPath := newCLIConfig(t)
	cfg.Paths.APIToken = "s3cret-token"
	writeTestConfig(t, configPath, cfg)
	socket := filepath.Join(cfg.Paths.StateDir, "absent.sock")

	out, _, err := runCLI(t, []string{"config", "show"}, socket, configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "# source: "+configPath)
	requireContains(t, out, "[manager]")
	requireContains(t, out, "poll_interval_ms = 60000")
	if strings.Contains(out, "s3cret-token") {
		t.Fatalf("token leaked: %q", out)
	}

	out, _, err = runCLI(t, []string{"config", "show", "--show-secrets"}, socket, configPath)
	if err != nil {
		t.Fatalf("config show --show-secrets: %v", err)
	}
	requireContains(t, out, "s3cret-token")
}
