package config

const (
	defaultStateDir               = "~/.local/share/reelfeed/state"
	defaultLogDir                 = "~/.local/share/reelfeed/logs"
	defaultRequestTimeout         = 15
	defaultPlaybackRetryAttempts  = 3
	defaultPlaybackRetryDelayMS   = 500
	defaultPlayerCommand          = "mpv"
	defaultAutoAdvanceDelayMS     = 1000
	defaultViewportHeight         = 844
	defaultSwipeThresholdPX       = 50
	defaultScrollSettleMS         = 150
	defaultCoinPack               = "standard"
	defaultSolanaConfirmPollMS    = 2000
	defaultSolanaConfirmTimeoutMS = 90000
	defaultTelemetryBatchSize     = 25
	defaultTelemetryFlushInterval = 30
	defaultTelemetryMaxQueued     = 1000
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		API: API{
			RequestTimeout:        defaultRequestTimeout,
			PlaybackRetryAttempts: defaultPlaybackRetryAttempts,
			PlaybackRetryDelayMS:  defaultPlaybackRetryDelayMS,
		},
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Player: Player{
			Command:            defaultPlayerCommand,
			Args:               []string{"--fs"},
			AutoAdvanceDelayMS: defaultAutoAdvanceDelayMS,
		},
		Feed: Feed{
			ViewportHeight:   defaultViewportHeight,
			SwipeThresholdPX: defaultSwipeThresholdPX,
			ScrollSettleMS:   defaultScrollSettleMS,
		},
		Payments: Payments{
			DefaultPack:            defaultCoinPack,
			SolanaConfirmPollMS:    defaultSolanaConfirmPollMS,
			SolanaConfirmTimeoutMS: defaultSolanaConfirmTimeoutMS,
		},
		Telemetry: Telemetry{
			Enabled:       true,
			BatchSize:     defaultTelemetryBatchSize,
			FlushInterval: defaultTelemetryFlushInterval,
			MaxQueued:     defaultTelemetryMaxQueued,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
