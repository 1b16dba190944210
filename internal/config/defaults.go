package config

// DefaultRedisList is the list key used when notifications.redis_list is empty.
const DefaultRedisList = "yt4kids:events"

const (
	defaultConfigFile           = "~/.config/yt4kids/config.toml"
	defaultStorageDir           = "~/.local/share/yt4kids/storage"
	defaultStateDir             = "~/.local/share/yt4kids"
	defaultLogDir               = "~/.local/share/yt4kids/logs"
	defaultAPIBind              = "127.0.0.1:7488"
	defaultPollIntervalMS       = 300000
	defaultMaxAttempts          = 10
	defaultBatchSize            = 20
	defaultYTDLPBinary          = "yt-dlp"
	defaultFFmpegBinary         = "ffmpeg"
	defaultFFprobeBinary        = "ffprobe"
	defaultPreferredCodec       = "h264"
	defaultURLTemplate          = "https://www.youtube.com/watch?v=%s"
	defaultProbeTimeoutSeconds  = 60
	defaultStreamTimeoutSeconds = 600
	defaultNotifyRequestTimeout = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogRetentionDays     = 30
)

// Codecs lists the accepted values for fetcher.preferred_codec.
var Codecs = []string{"h264", "av1", "vp9"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StorageDir: defaultStorageDir,
			StateDir:   defaultStateDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		Manager: Manager{
			PollIntervalMS: defaultPollIntervalMS,
			MaxAttempts:    defaultMaxAttempts,
			BatchSize:      defaultBatchSize,
		},
		Fetcher: Fetcher{
			YTDLPBinary:          defaultYTDLPBinary,
			FFmpegBinary:         defaultFFmpegBinary,
			FFprobeBinary:        defaultFFprobeBinary,
			PreferredCodec:       defaultPreferredCodec,
			URLTemplate:          defaultURLTemplate,
			ProbeTimeoutSeconds:  defaultProbeTimeoutSeconds,
			StreamTimeoutSeconds: defaultStreamTimeoutSeconds,
		},
		Notifications: Notifications{
			RequestTimeout:    defaultNotifyRequestTimeout,
			DownloadCompleted: true,
			DownloadFailed:    false,
			EntrySkipped:      true,
			RedisList:         DefaultRedisList,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
