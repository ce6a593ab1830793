package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"bffgate/pkg/logging"
)

const (
	// DefaultConfigFile is read when no --config flag is given.
	DefaultConfigFile = "bffgate.yaml"

	// FormatYAML and FormatJSONC name the supported configuration formats.
	FormatYAML  = "yaml"
	FormatJSONC = "jsonc"
)

// LoadOptions controls LoadConfig.
type LoadOptions struct {
	// EnvFiles are dotenv files loaded before ${VAR} expansion. Variables
	// already present in the environment win.
	EnvFiles []string
	// SkipValidation returns the defaulted configuration without checking it.
	SkipValidation bool
}

// LoadConfig reads the configuration file at path, expands environment
// references, applies defaults and validates the result.
func LoadConfig(path string, opts LoadOptions) (GatewayConfig, error) {
	for _, envFile := range opts.EnvFiles {
		if err := godotenv.Load(envFile); err != nil {
			return GatewayConfig{}, newConfigurationError(envFile, "env", err,
				"Check that the dotenv file exists and uses KEY=value lines")
		}
		logging.Debug("ConfigLoader", "Loaded environment from %s", envFile)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return GatewayConfig{}, newConfigurationError(path, "io", err,
				fmt.Sprintf("Create %s or pass --config", DefaultConfigFile))
		}
		return GatewayConfig{}, newConfigurationError(path, "io", err)
	}

	cfg, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return GatewayConfig{}, newConfigurationError(path, "parse", err)
	}

	ApplyDefaults(&cfg)

	if !opts.SkipValidation {
		if err := Validate(cfg); err != nil {
			return GatewayConfig{}, newConfigurationError(path, "validation", err)
		}
	}

	logging.Info("ConfigLoader", "Loaded configuration from %s", path)
	return cfg, nil
}

// FormatFromPath picks the format from the file extension; anything other
// than .json or .jsonc is read as YAML.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return FormatJSONC
	default:
		return FormatYAML
	}
}

// Parse expands ${VAR} references in data and decodes it. Unknown fields
// are rejected.
func Parse(data []byte, format string) (GatewayConfig, error) {
	expanded := []byte(os.ExpandEnv(string(data)))

	var cfg GatewayConfig
	switch format {
	case FormatJSONC:
		decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(expanded)))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return GatewayConfig{}, fmt.Errorf("parsing JSON configuration: %w", err)
		}
	case FormatYAML:
		decoder := yaml.NewDecoder(bytes.NewReader(expanded))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return GatewayConfig{}, fmt.Errorf("parsing YAML configuration: %w", err)
		}
	default:
		return GatewayConfig{}, fmt.Errorf("unsupported configuration format %q", format)
	}
	return cfg, nil
}
