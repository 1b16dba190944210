package fetcher

import (
	"errors"
	"testing"
)

func sampleFormats() []Format {
	return []Format{
		{ID: "140", Ext: "m4a", VCodec: "none", ACodec: "mp4a.40.2", TBR: 129, FileSize: 3_000_000},
		{ID: "251", Ext: "webm", VCodec: "none", ACodec: "opus", TBR: 140, FileSize: 3_200_000},
		{ID: "137", Ext: "mp4", VCodec: "avc1.640028", ACodec: "none", TBR: 4400, FileSize: 90_000_000, Height: 1080},
		{ID: "136", Ext: "mp4", VCodec: "avc1.4d401f", ACodec: "none", TBR: 2300, FileSize: 45_000_000, Height: 720},
		{ID: "399", Ext: "mp4", VCodec: "av01.0.08M.08", ACodec: "none", TBR: 2900, FileSizeApprox: 60_000_000, Height: 1080},
		{ID: "18", Ext: "mp4", VCodec: "avc1.42001E", ACodec: "mp4a.40.2", TBR: 600, FileSize: 12_000_000, Height: 360},
	}
}

func TestSelectFormatsPicksHighestBitrateVideoAndAudio(t *testing.T) {
	sel, err := SelectFormats(sampleFormats(), "h264")
	if err != nil {
		t.Fatalf("SelectFormats: %v", err)
	}
	if sel.Video.ID != "137" {
		t.Fatalf("expected format 137, got %s", sel.Video.ID)
	}
	if sel.Audio == nil || sel.Audio.ID != "140" {
		t.Fatalf("expected audio 140, got %#v", sel.Audio)
	}
	if sel.Profile.Extension != "mp4" {
		t.Fatalf("unexpected extension %q", sel.Profile.Extension)
	}
}

func TestSelectFormatsAV1UsesApproximateSize(t *testing.T) {
	sel, err := SelectFormats(sampleFormats(), "av1")
	if err != nil {
		t.Fatalf("SelectFormats: %v", err)
	}
	if sel.Video.ID != "399" || sel.Video.Size() != 60_000_000 {
		t.Fatalf("unexpected av1 selection %#v", sel.Video)
	}
}

func TestSelectFormatsCombinedFormatNeedsNoAudio(t *testing.T) {
	formats := []Format{
		{ID: "18", VCodec: "avc1.42001E", ACodec: "mp4a.40.2", TBR: 600, FileSize: 12_000_000, Height: 360},
	}
	sel, err := SelectFormats(formats, "h264")
	if err != nil {
		t.Fatalf("SelectFormats: %v", err)
	}
	if sel.Audio != nil {
		t.Fatalf("expected no separate audio, got %#v", sel.Audio)
	}
}

func TestSelectFormatsVP9FallsBackToH264(t *testing.T) {
	formats := []Format{
		{ID: "137", VCodec: "avc1.640028", ACodec: "none", TBR: 4400, FileSize: 90_000_000, Height: 1080},
		{ID: "140", VCodec: "none", ACodec: "mp4a.40.2", TBR: 129, FileSize: 3_000_000},
	}
	sel, err := SelectFormats(formats, "vp9")
	if err != nil {
		t.Fatalf("SelectFormats: %v", err)
	}
	if sel.Profile.Name != "h264" || sel.Profile.Extension != "mp4" {
		t.Fatalf("expected h264 fallback, got %#v", sel.Profile)
	}
}

func TestSelectFormatsVP9MatchesVP09Prefix(t *testing.T) {
	formats := []Format{
		{ID: "248", VCodec: "vp09.00.40.08", ACodec: "none", TBR: 2600, FileSize: 50_000_000, Height: 1080},
		{ID: "251", VCodec: "none", ACodec: "opus", TBR: 140, FileSize: 3_200_000},
	}
	sel, err := SelectFormats(formats, "vp9")
	if err != nil {
		t.Fatalf("SelectFormats: %v", err)
	}
	if sel.Profile.Extension != "webm" || sel.Audio == nil || sel.Audio.ID != "251" {
		t.Fatalf("unexpected vp9 selection %#v", sel)
	}
}

func TestSelectFormatsErrors(t *testing.T) {
	tests := []struct {
		name    string
		formats []Format
		want    error
	}{
		{"empty", nil, ErrNoVideoFormat},
		{"video without size", []Format{{ID: "1", VCodec: "avc1", ACodec: "none", Height: 720}}, ErrNoVideoFormat},
		{"video without height", []Format{{ID: "1", VCodec: "avc1", ACodec: "none", FileSize: 10}}, ErrNoVideoFormat},
		{"no audio", []Format{{ID: "1", VCodec: "avc1", ACodec: "none", FileSize: 10, Height: 720}}, ErrNoAudioFormat},
		{"audio without size", []Format{
			{ID: "1", VCodec: "avc1", ACodec: "none", FileSize: 10, Height: 720},
			{ID: "2", VCodec: "none", ACodec: "mp4a"},
		}, ErrNoAudioFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := SelectFormats(tt.formats, "h264"); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestProfileForDefaultsToH264(t *testing.T) {
	if got := ProfileFor("hevc"); got.Name != "h264" {
		t.Fatalf("expected h264 default, got %q", got.Name)
	}
	if got := ProfileFor(" VP9 "); got.Name != "vp9" {
		t.Fatalf("expected vp9, got %q", got.Name)
	}
}
