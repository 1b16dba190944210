package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCleanupOldLogsRemovesExpiredMatches(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "yt4kids-old.log")
	fresh := filepath.Join(dir, "yt4kids-new.log")
	current := filepath.Join(dir, "yt4kids-current.log")
	other := filepath.Join(dir, "notes.txt")
	for _, path := range []string{old, fresh, current, other} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	past := time.Now().AddDate(0, 0, -10)
	for _, path := range []string{old, current, other} {
		if err := os.Chtimes(path, past, past); err != nil {
			t.Fatalf("chtimes %s: %v", path, err)
		}
	}

	CleanupOldLogs(NewNop(), 3, RetentionTarget{Dir: dir, Pattern: "yt4kids-*.log", Exclude: []string{current}})

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected %s removed, stat err=%v", old, err)
	}
	for _, path := range []string{fresh, current, other} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s kept: %v", path, err)
		}
	}
}

func TestCleanupOldLogsDisabled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "yt4kids-old.log")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	past := time.Now().AddDate(0, 0, -100)
	_ = os.Chtimes(path, past, past)

	CleanupOldLogs(nil, 0, RetentionTarget{Dir: dir})

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file kept when retention disabled: %v", err)
	}
}

func TestCleanupOldLogsKeepsNewestMatches(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().AddDate(0, 0, -30)
	paths := make([]string, 4)
	for i := range paths {
		paths[i] = filepath.Join(dir, "yt4kids-"+string(rune('a'+i))+".log")
		if err := os.WriteFile(paths[i], []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		stamp := base.Add(time.Duration(i) * time.Hour)
		if err := os.Chtimes(paths[i], stamp, stamp); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}
	pointer := filepath.Join(dir, "yt4kids-pointer.log")
	if err := os.Symlink(paths[3], pointer); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	report := CleanupOldLogs(NewNop(), 7, RetentionTarget{Dir: dir, Pattern: "yt4kids-*.log", KeepNewest: 2})
	if report.Removed != 2 || report.Failed != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	for i, path := range paths {
		_, err := os.Stat(path)
		if i < 2 && !os.IsNotExist(err) {
			t.Fatalf("expected %s pruned, stat err=%v", path, err)
		}
		if i >= 2 && err != nil {
			t.Fatalf("expected %s kept: %v", path, err)
		}
	}
	if _, err := os.Lstat(pointer); err != nil {
		t.Fatalf("symlink should be left alone: %v", err)
	}
}
