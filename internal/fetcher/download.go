package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/lrstanley/go-ytdlp"

	"github.com/gbarton/yt4kids/internal/logging"
)

// StreamDownloader writes a single format of a video to dest.
type StreamDownloader interface {
	Download(ctx context.Context, videoURL string, format Format, dest string) error
}

// YTDLPDownloader downloads one format at a time through go-ytdlp.
type YTDLPDownloader struct {
	Binary string
	Logger *slog.Logger
}

// Download fetches format into dest, logging progress every 10% (or every
// 50 MiB when the size is unknown).
func (d YTDLPDownloader) Download(ctx context.Context, videoURL string, format Format, dest string) error {
	logger := logging.WithContext(ctx, d.Logger)
	sampler := logging.NewProgressSampler(10, 0)
	expected := format.Size()

	cmd := ytdlp.New().
		ForceOverwrites().
		NoPlaylist().
		NoPart().
		Format(format.ID).
		Output(dest)
	if bin := strings.TrimSpace(d.Binary); bin != "" {
		cmd = cmd.SetExecutable(bin)
	}
	cmd.ProgressFunc(500*time.Millisecond, func(update ytdlp.ProgressUpdate) {
		total := int64(update.TotalBytes)
		if total <= 0 {
			total = expected
		}
		downloaded := int64(update.DownloadedBytes)
		percent, ok := sampler.Observe(format.ID, downloaded, total)
		if !ok {
			return
		}
		logger.Info("download progress",
			logging.String("format", format.ID),
			logging.Float64("percent", percent),
			logging.String("downloaded", humanize.IBytes(uint64(downloaded))),
			logging.Int64("downloaded_bytes", downloaded),
			logging.Int64("total_bytes", total),
		)
	})

	if result, err := cmd.Run(ctx, videoURL); err != nil {
		removeQuietly(dest)
		if result != nil && strings.TrimSpace(result.Stderr) != "" {
			return fmt.Errorf("yt-dlp download %s: %w: %s", format.ID, err, strings.TrimSpace(result.Stderr))
		}
		return fmt.Errorf("yt-dlp download %s: %w", format.ID, err)
	}

	info, err := os.Stat(dest)
	if err != nil {
		return fmt.Errorf("yt-dlp download %s: output missing: %w", format.ID, err)
	}
	logger.Info("download finished",
		logging.String("format", format.ID),
		logging.Int64("bytes_on_disk", info.Size()),
		logging.Int64("expected_bytes", expected),
	)
	return nil
}
