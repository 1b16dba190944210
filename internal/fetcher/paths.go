package fetcher

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gbarton/yt4kids/internal/queue"
	"github.com/gbarton/yt4kids/internal/textutil"
)

// tmpPath returns a fresh random file path under dir, with ext appended when set.
func tmpPath(dir, ext string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create tmp dir: %w", err)
	}
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("random tmp name: %w", err)
	}
	name := hex.EncodeToString(buf)
	if ext = strings.TrimPrefix(strings.TrimSpace(ext), "."); ext != "" {
		name += "." + ext
	}
	return filepath.Join(dir, name), nil
}

// VideoStoragePath is the final location of a downloaded video.
func VideoStoragePath(storageDir, authorID, title, ext string) string {
	return filepath.Join(
		storageDir,
		queue.FileKindVideo,
		textutil.FileSafe(authorID),
		textutil.FileSafe(title)+"."+ext,
	)
}

func removeQuietly(paths ...string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		_ = os.Remove(path)
		_ = os.Remove(path + ".part")
	}
}
