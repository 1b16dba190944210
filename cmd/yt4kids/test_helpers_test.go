package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/gbarton/yt4kids/internal/config"
	"github.com/gbarton/yt4kids/internal/daemon"
	"github.com/gbarton/yt4kids/internal/ipc"
	"github.com/gbarton/yt4kids/internal/logging"
	"github.com/gbarton/yt4kids/internal/queue"
	"github.com/gbarton/yt4kids/internal/testsupport"
	"github.com/gbarton/yt4kids/internal/workflow"
)

type stubFetcher struct{}

func (stubFetcher) Fetch(_ context.Context, videoID, authorID string) (*queue.FileRecord, error) {
	return &queue.FileRecord{
		ID:            videoID,
		AuthorID:      authorID,
		Filename:      videoID,
		FileExtension: "mp4",
		ContentLength: 2048,
		Kind:          queue.FileKindVideo,
	}, nil
}

type cliTestEnv struct {
	cfg        *config.Config
	store      *queue.Store
	daemon     *daemon.Daemon
	hub        *logging.StreamHub
	socketPath string
	configPath string
}

// newCLIConfig writes a config for an isolated temp tree and returns it with its path.
func newCLIConfig(t *testing.T) (*config.Config, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries(), testsupport.WithPollInterval(60000))
	cfg.Paths.APIBind = "127.0.0.1:1"
	cfg.Notifications.NtfyTopic = ""
	cfg.Notifications.RedisAddr = ""
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	t.Setenv("HOME", filepath.Join(testsupport.BaseDir(cfg), "home"))

	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)
	return cfg, configPath
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	cfg, configPath := newCLIConfig(t)

	store := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()
	hub := logging.NewStreamHub(64)
	mgr := workflow.NewManager(cfg, store, stubFetcher{}, logger)
	d, err := daemon.New(cfg, store, logger, mgr, daemon.WithLogStream(hub))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	socketPath := filepath.Join(cfg.Paths.StateDir, "cli.sock")
	srv, err := ipc.NewServer(ctx, socketPath, d, logger)
	if err != nil {
		cancel()
		_ = d.Close()
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping CLI test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	t.Cleanup(func() {
		cancel()
		srv.Close()
		_ = d.Close()
	})

	return &cliTestEnv{
		cfg:        cfg,
		store:      store,
		daemon:     d,
		hub:        hub,
		socketPath: socketPath,
		configPath: configPath,
	}
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
