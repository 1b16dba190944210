package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gbarton/yt4kids/internal/config"
)

// ConfigOption adjusts a config built by NewConfig.
type ConfigOption func(testing.TB, *config.Config)

// NewConfig returns the default config rooted in a fresh temp directory:
// storage/, state/ and logs/ under it, the API on an ephemeral loopback port
// and a 50ms poll interval.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StorageDir = filepath.Join(base, "storage")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Manager.PollIntervalMS = 50

	for _, opt := range opts {
		opt(t, &cfg)
	}
	return &cfg
}

// BaseDir returns the temp directory NewConfig rooted cfg in.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StorageDir)
}

// WithPollInterval sets the tick period, which is also the post-attempt cooldown.
func WithPollInterval(ms int) ConfigOption {
	return func(_ testing.TB, cfg *config.Config) { cfg.Manager.PollIntervalMS = ms }
}

func WithMaxAttempts(n int) ConfigOption {
	return func(_ testing.TB, cfg *config.Config) { cfg.Manager.MaxAttempts = n }
}

// WithStubbedBinaries puts no-op executables named after names (yt-dlp,
// ffmpeg and ffprobe when empty) first on PATH for the rest of the test.
// The stubs answer --version so dependency probes see them as installed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(t testing.TB, cfg *config.Config) {
		t.Helper()
		if len(names) == 0 {
			names = []string{"yt-dlp", "ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(BaseDir(cfg), "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			t.Fatalf("mkdir bin dir: %v", err)
		}
		for _, name := range names {
			script := "#!/bin/sh\n[ \"$1\" = \"--version\" ] && echo \"" + name + " stub\"\nexit 0\n"
			if err := os.WriteFile(filepath.Join(binDir, name), []byte(script), 0o755); err != nil {
				t.Fatalf("write stub %s: %v", name, err)
			}
		}
		t.Setenv("PATH", strings.Join([]string{binDir, os.Getenv("PATH")}, string(os.PathListSeparator)))
	}
}
