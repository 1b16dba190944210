package fetcher

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/gbarton/yt4kids/internal/media/ffprobe"
)

// Muxer combines a video-only and an audio-only file without re-encoding.
type Muxer interface {
	Mux(ctx context.Context, video, audio, dest string, profile Profile) error
}

// FFmpegMuxer shells out to ffmpeg.
type FFmpegMuxer struct {
	Binary string
}

// Mux runs ffmpeg with stream copy and the profile's container arguments.
func (m FFmpegMuxer) Mux(ctx context.Context, video, audio, dest string, profile Profile) error {
	binary := strings.TrimSpace(m.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	cmd := exec.CommandContext(ctx, binary, muxArgs(video, audio, dest, profile)...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		removeQuietly(dest)
		return fmt.Errorf("ffmpeg mux: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

func muxArgs(video, audio, dest string, profile Profile) []string {
	args := []string{
		"-loglevel", "8", "-hide_banner",
		"-i", video, "-i", audio,
		"-map", "0:v", "-map", "1:a",
	}
	args = append(args, profile.MuxArgs...)
	return append(args, dest)
}

// Inspector reports the streams in a media file.
type Inspector interface {
	Inspect(ctx context.Context, path string) (ffprobe.Result, error)
}

// FFprobeInspector delegates to ffprobe.Inspect.
type FFprobeInspector struct {
	Binary string
}

// Inspect runs ffprobe against path.
func (i FFprobeInspector) Inspect(ctx context.Context, path string) (ffprobe.Result, error) {
	return ffprobe.Inspect(ctx, i.Binary, path)
}
