package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/gbarton/yt4kids/internal/config"
	"github.com/gbarton/yt4kids/internal/queue"
)

// WriteFile creates path with size bytes of filler, creating parent
// directories. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x42}, int(size)), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteStoredVideo places a fake finished download in the storage tree at
// <storage_dir>/VIDEO_FILE/<authorID>/<name>.<ext> and returns its path.
func WriteStoredVideo(t testing.TB, cfg *config.Config, authorID, name, ext string, size int64) string {
	t.Helper()

	path := filepath.Join(cfg.Paths.StorageDir, queue.FileKindVideo, authorID, name+"."+ext)
	WriteFile(t, path, size)
	return path
}
