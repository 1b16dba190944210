package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lrstanley/go-ytdlp"
)

// VideoInfo is the subset of the yt-dlp info JSON the pipeline needs.
type VideoInfo struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Uploader  string   `json:"uploader"`
	ChannelID string   `json:"channel_id"`
	IsLive    bool     `json:"is_live"`
	Formats   []Format `json:"formats"`
}

// Prober retrieves video metadata.
type Prober interface {
	Probe(ctx context.Context, videoURL string) (*VideoInfo, error)
}

// YTDLPProber runs `yt-dlp -J` through go-ytdlp.
type YTDLPProber struct {
	Binary string
}

// Probe dumps the single-video JSON for videoURL and decodes it.
func (p YTDLPProber) Probe(ctx context.Context, videoURL string) (*VideoInfo, error) {
	cmd := ytdlp.New().
		DumpSingleJSON().
		NoPlaylist().
		NoWarnings()
	if bin := strings.TrimSpace(p.Binary); bin != "" {
		cmd = cmd.SetExecutable(bin)
	}

	result, err := cmd.Run(ctx, videoURL)
	if err != nil {
		detail := ""
		if result != nil {
			detail = strings.TrimSpace(result.Stderr)
		}
		if detail != "" {
			return nil, fmt.Errorf("yt-dlp probe: %w: %s", err, detail)
		}
		return nil, fmt.Errorf("yt-dlp probe: %w", err)
	}
	return decodeInfo([]byte(result.Stdout))
}

func decodeInfo(data []byte) (*VideoInfo, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}
	var info VideoInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("decode yt-dlp json: %w", err)
	}
	return &info, nil
}

// checkInfo applies the probe acceptance rules in order.
func checkInfo(info *VideoInfo, videoID string) error {
	if info == nil || strings.TrimSpace(info.ID) == "" {
		return ErrCantConnect
	}
	if info.IsLive {
		return ErrLiveVideo
	}
	// yt-dlp returns a stub under another id when the video is gone.
	if info.ID != videoID {
		return ErrCantConnect
	}
	if strings.TrimSpace(info.Title) == "" || (strings.TrimSpace(info.Uploader) == "" && strings.TrimSpace(info.ChannelID) == "") {
		return ErrMissingMetadata
	}
	return nil
}
