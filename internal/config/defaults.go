package config

const (
	defaultDataDir        = "~/.local/share/tooltally/data"
	defaultLogDir         = "~/.local/share/tooltally/logs"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultFuzzyThreshold = 0.82
	defaultFuzzyMargin    = 0.05
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Resolver: Resolver{
			FuzzyThreshold: defaultFuzzyThreshold,
			FuzzyMargin:    defaultFuzzyMargin,
			RecordAliases:  true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
