package config

const (
	defaultConfigPath                = "~/.config/subgen/config.toml"
	defaultEngineCommand             = "subgen-worker"
	defaultProbeTimeoutSeconds       = 30
	defaultLoadTimeoutSeconds        = 600
	defaultDecodeStartTimeoutSeconds = 900
	defaultShutdownGraceSeconds      = 10
	defaultBeamSize                  = 5
	defaultVADMinSilenceMs           = 500
	defaultVADThreshold              = 0.5
	defaultInitialPrompt             = "이 영상은 한국어 게임 방송 및 스트리밍 콘텐츠입니다."
	defaultFFprobeBinary             = "ffprobe"
	defaultLogFormat                 = "console"
	defaultLogLevel                  = "info"
	defaultHistoryPathFallback       = "~/.local/share/subgen/history.db"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Engine: Engine{
			Command:                   defaultEngineCommand,
			ProbeTimeoutSeconds:       defaultProbeTimeoutSeconds,
			LoadTimeoutSeconds:        defaultLoadTimeoutSeconds,
			DecodeStartTimeoutSeconds: defaultDecodeStartTimeoutSeconds,
			ShutdownGraceSeconds:      defaultShutdownGraceSeconds,
		},
		Decode: Decode{
			BeamSize:                defaultBeamSize,
			VADFilter:               true,
			VADMinSilenceMs:         defaultVADMinSilenceMs,
			VADThreshold:            defaultVADThreshold,
			WordTimestamps:          true,
			InitialPrompt:           defaultInitialPrompt,
			ConditionOnPreviousText: true,
		},
		Paths: Paths{
			FFprobeBinary: defaultFFprobeBinary,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath(),
		},
	}
}
