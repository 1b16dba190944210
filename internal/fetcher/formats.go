package fetcher

import (
	"fmt"
	"slices"
	"strings"
)

// Profile maps a preferred codec onto yt-dlp codec prefixes, the output
// container, and the ffmpeg arguments used when muxing.
type Profile struct {
	Name       string
	VideoCodec []string
	AudioCodec string
	Extension  string
	MuxArgs    []string
}

var profiles = map[string]Profile{
	"h264": {
		Name:       "h264",
		VideoCodec: []string{"avc1"},
		AudioCodec: "mp4a",
		Extension:  "mp4",
		MuxArgs:    []string{"-c:v", "copy", "-c:a", "copy", "-movflags", "faststart+frag_keyframe+empty_moov"},
	},
	"av1": {
		Name:       "av1",
		VideoCodec: []string{"av01"},
		AudioCodec: "mp4a",
		Extension:  "mp4",
		MuxArgs:    []string{"-c:v", "copy", "-c:a", "copy", "-movflags", "faststart+frag_keyframe+empty_moov"},
	},
	"vp9": {
		Name:       "vp9",
		VideoCodec: []string{"vp9", "vp09"},
		AudioCodec: "opus",
		Extension:  "webm",
		MuxArgs:    []string{"-c:v", "copy", "-c:a", "copy"},
	},
}

// ProfileFor returns the codec profile by name, defaulting to h264.
func ProfileFor(name string) Profile {
	if p, ok := profiles[strings.ToLower(strings.TrimSpace(name))]; ok {
		return p
	}
	return profiles["h264"]
}

// Format is one entry of the yt-dlp formats list.
type Format struct {
	ID             string  `json:"format_id"`
	Ext            string  `json:"ext"`
	VCodec         string  `json:"vcodec"`
	ACodec         string  `json:"acodec"`
	TBR            float64 `json:"tbr"`
	FileSize       float64 `json:"filesize"`
	FileSizeApprox float64 `json:"filesize_approx"`
	Height         float64 `json:"height"`
}

// HasVideo reports whether the format carries a video stream.
func (f Format) HasVideo() bool { return hasCodec(f.VCodec) }

// HasAudio reports whether the format carries an audio stream.
func (f Format) HasAudio() bool { return hasCodec(f.ACodec) }

// Size returns the exact size when known, else the approximate size.
func (f Format) Size() int64 {
	if f.FileSize > 0 {
		return int64(f.FileSize)
	}
	return int64(f.FileSizeApprox)
}

func hasCodec(codec string) bool {
	codec = strings.TrimSpace(codec)
	return codec != "" && codec != "none"
}

func (f Format) String() string {
	return fmt.Sprintf("%s (%s/%s %.0fp %.0fk)", f.ID, f.VCodec, f.ACodec, f.Height, f.TBR)
}

// Selection is the negotiated download plan for a video.
type Selection struct {
	Profile Profile
	Video   Format
	// Audio is nil when Video already carries audio.
	Audio *Format
}

// SelectFormats picks the highest bitrate video for the preferred profile and,
// when that format is video-only, the highest bitrate audio-only format.
// vp9 falls back to h264 when no format matches.
func SelectFormats(formats []Format, preferred string) (Selection, error) {
	profile := ProfileFor(preferred)
	candidates := filterByProfile(formats, profile)
	if len(candidates) == 0 && profile.Name == "vp9" {
		profile = profiles["h264"]
		candidates = filterByProfile(formats, profile)
	}

	videoIdx := slices.IndexFunc(candidates, func(f Format) bool {
		return f.HasVideo() && matchesVideo(f, profile) && f.Size() > 0 && f.Height > 0
	})
	if videoIdx < 0 {
		return Selection{Profile: profile}, ErrNoVideoFormat
	}
	sel := Selection{Profile: profile, Video: candidates[videoIdx]}
	if sel.Video.HasAudio() {
		return sel, nil
	}

	audioIdx := slices.IndexFunc(candidates, func(f Format) bool {
		return f.HasAudio() && !f.HasVideo() && f.Size() > 0
	})
	if audioIdx < 0 {
		return sel, ErrNoAudioFormat
	}
	audio := candidates[audioIdx]
	sel.Audio = &audio
	return sel, nil
}

func filterByProfile(formats []Format, profile Profile) []Format {
	out := make([]Format, 0, len(formats))
	for _, f := range formats {
		if matchesVideo(f, profile) || strings.HasPrefix(f.ACodec, profile.AudioCodec) {
			out = append(out, f)
		}
	}
	slices.SortStableFunc(out, func(a, b Format) int {
		switch {
		case a.TBR > b.TBR:
			return -1
		case a.TBR < b.TBR:
			return 1
		default:
			return 0
		}
	})
	return out
}

func matchesVideo(f Format, profile Profile) bool {
	for _, prefix := range profile.VideoCodec {
		if strings.HasPrefix(f.VCodec, prefix) {
			return true
		}
	}
	return false
}
