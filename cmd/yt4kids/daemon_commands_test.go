package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gbarton/yt4kids/internal/api"
	"github.com/gbarton/yt4kids/internal/daemonctl"
	"github.com/gbarton/yt4kids/internal/testsupport"
)

func TestStatusCommandRendersSections(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.MustEnqueue(t, env.store, "vid-1", "chan-a", "Dino Songs")

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, section := range []string{"System Status", "Dependencies", "Paths", "Queue Status"} {
		requireContains(t, out, "== "+section+" ==")
	}
	requireContains(t, out, "Pending")
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected plain output for non-terminal writer: %q", out)
	}
}

func TestStatusCommandJSONWithoutDaemon(t *testing.T) {
	cfg, configPath := newCLIConfig(t)
	socket := filepath.Join(cfg.Paths.StateDir, "absent.sock")

	out, _, err := runCLI(t, []string{"status", "--json"}, socket, configPath)
	if err != nil {
		t.Fatalf("status --json: %v", err)
	}
	var snapshot daemonctl.StatusSnapshot
	if err := json.Unmarshal([]byte(out), &snapshot); err != nil {
		t.Fatalf("decode snapshot: %v\n%s", err, out)
	}
	if snapshot.Reachable || snapshot.Running {
		t.Fatalf("expected unreachable daemon, got %+v", snapshot)
	}
	if len(snapshot.Paths) == 0 {
		t.Fatal("expected path checks in snapshot")
	}
}

func TestStopWithoutDaemon(t *testing.T) {
	cfg, configPath := newCLIConfig(t)
	socket := filepath.Join(cfg.Paths.StateDir, "absent.sock")

	out, _, err := runCLI(t, []string{"stop"}, socket, configPath)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	requireContains(t, out, "Daemon is not running")
}

func TestTestNotifyWithoutChannels(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"test-notify"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "notifications not configured")
}

func TestDependencyLinesFlagMissing(t *testing.T) {
	lines := dependencyLines([]api.DependencyStatus{
		{Name: "yt-dlp", Command: "yt-dlp", Available: true},
		{Name: "ffprobe", Command: "ffprobe", Optional: true, Detail: "not on PATH"},
	}, api.DependencySummary{Severity: "warn", Detail: "1 optional missing"}, false)

	var buf bytes.Buffer
	for _, line := range lines {
		buf.WriteString(line + "\n")
	}
	out := buf.String()
	requireContains(t, out, "[WARN] 1 optional missing")
	requireContains(t, out, "[OK] Ready (command: yt-dlp)")
	requireContains(t, out, "[WARN] not on PATH")
	requireContains(t, out, "Missing dependencies:")
}

func TestTestNotifyWithoutDaemonOrChannels(t *testing.T) {
	cfg, configPath := newCLIConfig(t)
	socket := filepath.Join(cfg.Paths.StateDir, "absent.sock")

	out, _, err := runCLI(t, []string{"test-notify"}, socket, configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Daemon not reachable")
	requireContains(t, out, "notifications not configured")
}

func TestReportStart(t *testing.T) {
	cases := []struct {
		result  daemonctl.StartResult
		restart bool
		want    string
	}{
		{daemonctl.StartResult{State: daemonctl.StartStateStarted}, false, "Daemon started"},
		{daemonctl.StartResult{State: daemonctl.StartStateAlreadyRunning}, false, "Daemon already running"},
		{daemonctl.StartResult{State: daemonctl.StartStateAlreadyRunning}, true, "Daemon restarted"},
		{daemonctl.StartResult{State: daemonctl.StartStateRequested}, true, "Start request sent"},
		{daemonctl.StartResult{State: daemonctl.StartStateRequested, Message: "lock held"}, false, "lock held"},
	}
	for _, tc := range cases {
		var buf bytes.Buffer
		reportStart(&buf, tc.result, tc.restart)
		if got := strings.TrimSpace(buf.String()); got != tc.want {
			t.Errorf("reportStart(%+v, %v) = %q, want %q", tc.result, tc.restart, got, tc.want)
		}
	}
}

func TestRootCommandVersionAndGroups(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("--version: %v", err)
	}
	if !strings.Contains(out.String(), version) {
		t.Fatalf("expected version %q in %q", version, out.String())
	}

	groups := map[string]string{}
	for _, sub := range cmd.Commands() {
		groups[sub.Name()] = sub.GroupID
	}
	for name, want := range map[string]string{"start": groupDaemon, "logs": groupDaemon, "queue": groupQueue, "config": ""} {
		if got := groups[name]; got != want {
			t.Fatalf("command %s group = %q, want %q", name, got, want)
		}
	}
}

func TestDaemonCommandRejectsUnknownLogFormat(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"daemon", "--log-format", "xml"})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "--log-format") {
		t.Fatalf("expected log format error, got %v", err)
	}
}
