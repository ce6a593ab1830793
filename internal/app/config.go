package app

import (
	"io"
)

// Config holds the command-line settings the application is started with.
type Config struct {
	// ConfigPath is the gateway configuration file.
	ConfigPath string
	// EnvFiles are dotenv files loaded before the configuration is read.
	EnvFiles []string
	// Debug forces debug logging regardless of logging.level.
	Debug bool
	// LogOutput receives log output; nil means stderr.
	LogOutput io.Writer
}

// NewConfig creates an application configuration.
func NewConfig(configPath string, envFiles []string, debug bool) *Config {
	return &Config{
		ConfigPath: configPath,
		EnvFiles:   envFiles,
		Debug:      debug,
	}
}
