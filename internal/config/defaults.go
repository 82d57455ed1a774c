package config

const (
	defaultCacheDir           = "~/.local/share/vapord/cache"
	defaultLogDir             = "~/.local/share/vapord/logs"
	defaultTelegramBaseURL    = "https://api.telegram.org"
	defaultPollTimeout        = 30
	defaultRequestTimeout     = 60
	defaultWorkers            = 2
	defaultQueueDepth         = 16
	defaultMinQueryLength     = 5
	defaultMaxDurationSeconds = 420
	defaultCallTimeoutSeconds = 300
	defaultQuotaBytes         = 500_000_000
	defaultYtDlpBinary        = "yt-dlp"
	defaultFFmpegBinary       = "ffmpeg"
	defaultSoxBinary          = "sox"
	defaultChorusBinary       = "chorus-finder"
	defaultLogFormat          = "auto"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir: defaultCacheDir,
			LogDir:   defaultLogDir,
		},
		Telegram: Telegram{
			BaseURL:        defaultTelegramBaseURL,
			PollTimeout:    defaultPollTimeout,
			RequestTimeout: defaultRequestTimeout,
		},
		Pipeline: Pipeline{
			Workers:            defaultWorkers,
			QueueDepth:         defaultQueueDepth,
			MinQueryLength:     defaultMinQueryLength,
			MaxDurationSeconds: defaultMaxDurationSeconds,
			CallTimeoutSeconds: defaultCallTimeoutSeconds,
		},
		Cache: Cache{
			QuotaBytes: defaultQuotaBytes,
		},
		Tools: Tools{
			YtDlp:        defaultYtDlpBinary,
			FFmpeg:       defaultFFmpegBinary,
			Sox:          defaultSoxBinary,
			ChorusFinder: defaultChorusBinary,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
