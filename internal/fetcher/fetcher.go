package fetcher

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/gbarton/yt4kids/internal/config"
	"github.com/gbarton/yt4kids/internal/fileutil"
	"github.com/gbarton/yt4kids/internal/logging"
	"github.com/gbarton/yt4kids/internal/queue"
	"github.com/gbarton/yt4kids/internal/services"
)

// Fetch stage names, used for the stage log field and error wrapping.
const (
	StageProbe    = "probe"
	StageSelect   = "select"
	StageDownload = "download"
	StageMux      = "mux"
	StageVerify   = "verify"
	StagePlace    = "place"
)

// FileSaver persists the record of a placed file.
type FileSaver interface {
	SaveFile(ctx context.Context, record queue.FileRecord) error
}

// Pipeline downloads videos into the storage tree.
type Pipeline struct {
	cfg        *config.Config
	saver      FileSaver
	logger     *slog.Logger
	prober     Prober
	downloader StreamDownloader
	muxer      Muxer
	inspector  Inspector
	now        func() time.Time
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithProber replaces the yt-dlp metadata probe.
func WithProber(p Prober) Option { return func(pl *Pipeline) { pl.prober = p } }

// WithDownloader replaces the yt-dlp stream downloader.
func WithDownloader(d StreamDownloader) Option { return func(pl *Pipeline) { pl.downloader = d } }

// WithMuxer replaces the ffmpeg muxer.
func WithMuxer(m Muxer) Option { return func(pl *Pipeline) { pl.muxer = m } }

// WithInspector replaces the ffprobe verifier. A nil inspector skips verification.
func WithInspector(i Inspector) Option { return func(pl *Pipeline) { pl.inspector = i } }

// WithClock overrides the record timestamp source.
func WithClock(now func() time.Time) Option { return func(pl *Pipeline) { pl.now = now } }

// New builds a pipeline wired to the configured binaries.
func New(cfg *config.Config, saver FileSaver, logger *slog.Logger, opts ...Option) *Pipeline {
	logger = logging.NewComponentLogger(logger, "fetcher")
	p := &Pipeline{
		cfg:        cfg,
		saver:      saver,
		logger:     logger,
		prober:     YTDLPProber{Binary: cfg.Fetcher.YTDLPBinary},
		downloader: YTDLPDownloader{Binary: cfg.Fetcher.YTDLPBinary, Logger: logger},
		muxer:      FFmpegMuxer{Binary: cfg.Fetcher.FFmpegBinary},
		inspector:  FFprobeInspector{Binary: cfg.Fetcher.FFprobeBinary},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Fetch downloads videoID for authorID and returns the saved file record.
func (p *Pipeline) Fetch(ctx context.Context, videoID, authorID string) (*queue.FileRecord, error) {
	ctx = services.WithItemID(ctx, videoID)
	videoURL := p.cfg.VideoURL(videoID)

	info, err := p.probe(ctx, videoURL, videoID)
	if err != nil {
		return nil, err
	}
	logger := logging.WithContext(ctx, p.logger)
	logger.Info("video info retrieved",
		logging.String("title", info.Title),
		logging.Int("format_count", len(info.Formats)),
	)

	sel, err := SelectFormats(info.Formats, p.cfg.Fetcher.PreferredCodec)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, StageSelect, "negotiate formats", p.cfg.Fetcher.PreferredCodec, err)
	}
	logger.Info("formats selected",
		logging.String("profile", sel.Profile.Name),
		logging.String("video_format", sel.Video.String()),
		logging.Bool("separate_audio", sel.Audio != nil),
	)

	tmpFile, err := p.downloadStreams(ctx, videoURL, sel)
	if err != nil {
		return nil, err
	}

	size, err := p.verify(ctx, tmpFile)
	if err != nil {
		removeQuietly(tmpFile)
		return nil, err
	}

	if authorID == "" {
		authorID = firstNonEmpty(info.ChannelID, info.Uploader)
	}
	finalPath := VideoStoragePath(p.cfg.Paths.StorageDir, authorID, info.Title, sel.Profile.Extension)
	if err := fileutil.MoveFile(tmpFile, finalPath); err != nil {
		removeQuietly(tmpFile)
		return nil, services.Wrap(services.ErrTransient, StagePlace, "move file", finalPath, err)
	}
	logger.Info("file moved",
		logging.String("from", tmpFile),
		logging.String("to", finalPath),
		logging.Int64("content_length", size),
	)

	record := queue.FileRecord{
		ID:            videoID,
		AuthorID:      authorID,
		Filename:      finalPath,
		FileExtension: sel.Profile.Extension,
		ContentLength: size,
		Kind:          queue.FileKindVideo,
		CreatedAt:     p.now().UTC(),
	}
	if p.saver != nil {
		if err := p.saver.SaveFile(ctx, record); err != nil {
			return nil, services.Wrap(services.ErrTransient, StagePlace, "save file record", videoID, err)
		}
	}
	return &record, nil
}

func (p *Pipeline) probe(ctx context.Context, videoURL, videoID string) (*VideoInfo, error) {
	ctx = services.WithStage(ctx, StageProbe)
	logging.WithContext(ctx, p.logger).Info("retrieving video info", logging.String("url", videoURL))

	info, err := Cancellable(ctx, p.cfg.ProbeTimeout(), func(c context.Context) (*VideoInfo, error) {
		return p.prober.Probe(c, videoURL)
	})
	if err != nil {
		if errors.Is(err, ErrSoftTimeout) {
			return nil, services.Wrap(services.ErrTimeout, StageProbe, "yt-dlp probe", videoID, errors.Join(ErrUnavailable, err))
		}
		return nil, services.Wrap(services.ErrExternalTool, StageProbe, "yt-dlp probe", videoID, errors.Join(ErrUnavailable, err))
	}
	if err := checkInfo(info, videoID); err != nil {
		return nil, services.Wrap(services.ErrValidation, StageProbe, "check info", videoID, err)
	}
	return info, nil
}

// downloadStreams returns the path of a single tmp file holding video and audio.
func (p *Pipeline) downloadStreams(ctx context.Context, videoURL string, sel Selection) (string, error) {
	tmpDir := p.cfg.TmpDir()
	videoTmp, err := tmpPath(tmpDir, "")
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, StageDownload, "tmp path", "", err)
	}
	if err := p.downloadOne(ctx, videoURL, sel.Video, videoTmp); err != nil {
		return "", err
	}
	if sel.Audio == nil {
		return videoTmp, nil
	}

	audioTmp, err := tmpPath(tmpDir, "")
	if err != nil {
		removeQuietly(videoTmp)
		return "", services.Wrap(services.ErrConfiguration, StageDownload, "tmp path", "", err)
	}
	if err := p.downloadOne(ctx, videoURL, *sel.Audio, audioTmp); err != nil {
		removeQuietly(videoTmp)
		return "", err
	}
	defer removeQuietly(videoTmp, audioTmp)

	combined, err := tmpPath(tmpDir, sel.Profile.Extension)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, StageMux, "tmp path", "", err)
	}
	muxCtx := services.WithStage(ctx, StageMux)
	logging.WithContext(muxCtx, p.logger).Info("merging video and audio",
		logging.String("profile", sel.Profile.Name),
		logging.String("output", combined),
	)
	if err := p.muxer.Mux(muxCtx, videoTmp, audioTmp, combined, sel.Profile); err != nil {
		removeQuietly(combined)
		return "", services.Wrap(services.ErrExternalTool, StageMux, "ffmpeg", combined, err)
	}
	return combined, nil
}

func (p *Pipeline) downloadOne(ctx context.Context, videoURL string, format Format, dest string) error {
	ctx = services.WithStage(ctx, StageDownload)
	logging.WithContext(ctx, p.logger).Info("downloading stream",
		logging.String("format", format.String()),
		logging.Int64("content_length", format.Size()),
	)
	_, err := Cancellable(ctx, p.cfg.StreamTimeout(), func(c context.Context) (struct{}, error) {
		return struct{}{}, p.downloader.Download(c, videoURL, format, dest)
	})
	if err == nil {
		return nil
	}
	removeQuietly(dest)
	if errors.Is(err, ErrSoftTimeout) {
		return services.Wrap(services.ErrTimeout, StageDownload, "stream", format.ID, err)
	}
	return services.Wrap(services.ErrExternalTool, StageDownload, "stream", format.ID, err)
}

// verify checks the file holds a video stream and returns its size on disk.
func (p *Pipeline) verify(ctx context.Context, path string) (int64, error) {
	ctx = services.WithStage(ctx, StageVerify)
	stat, err := os.Stat(path)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, StageVerify, "stat", path, err)
	}
	if p.inspector == nil {
		return stat.Size(), nil
	}
	result, err := p.inspector.Inspect(ctx, path)
	if errors.Is(err, exec.ErrNotFound) {
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "ffprobe unavailable; skipping verification", "verify_skipped",
			logging.String(logging.FieldImpact, "muxed output is not checked for a video stream"),
			logging.String(logging.FieldErrorHint, "install ffprobe or set fetcher.ffprobe_binary"),
		)
		return stat.Size(), nil
	}
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, StageVerify, "ffprobe", path, err)
	}
	if err := result.Validate(); err != nil {
		return 0, services.Wrap(services.ErrValidation, StageVerify, "ffprobe", path, err)
	}
	if result.AudioStreamCount() == 0 {
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "downloaded video has no audio stream", "verify_no_audio",
			logging.String("path", path),
			logging.String(logging.FieldImpact, "video will play silently"),
			logging.String(logging.FieldErrorHint, "re-enqueue the video or pick a different fetcher.preferred_codec"),
		)
	}
	p.logger.Debug("download verified",
		logging.String("path", path),
		logging.Duration("duration", result.Duration()),
		logging.Int64("size_bytes", stat.Size()),
	)
	return stat.Size(), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
