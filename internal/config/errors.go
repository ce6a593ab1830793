package config

import (
	"fmt"
	"strings"
)

// ConfigurationError represents a structured error that occurs during configuration loading
type ConfigurationError struct {
	FilePath    string   `json:"filePath"`    // Full path to the file that caused the error
	ErrorType   string   `json:"errorType"`   // Type of error (io, parse, env, validation)
	Message     string   `json:"message"`     // Human-readable error message
	Suggestions []string `json:"suggestions"` // Actionable suggestions to fix the error
	Err         error    `json:"-"`
}

// Error implements the error interface
func (ce *ConfigurationError) Error() string {
	if ce.FilePath == "" {
		return fmt.Sprintf("%s error: %s", ce.ErrorType, ce.Message)
	}
	return fmt.Sprintf("%s error in %s: %s", ce.ErrorType, ce.FilePath, ce.Message)
}

// Unwrap returns the underlying error.
func (ce *ConfigurationError) Unwrap() error {
	return ce.Err
}

// DetailedError returns a detailed error message with all context
func (ce *ConfigurationError) DetailedError() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Configuration Error (%s)", ce.ErrorType))
	if ce.FilePath != "" {
		parts = append(parts, fmt.Sprintf("  File: %s", ce.FilePath))
	}
	parts = append(parts, fmt.Sprintf("  Error: %s", ce.Message))

	if len(ce.Suggestions) > 0 {
		parts = append(parts, "  Suggestions:")
		for _, suggestion := range ce.Suggestions {
			parts = append(parts, fmt.Sprintf("    - %s", suggestion))
		}
	}

	return strings.Join(parts, "\n")
}

// newConfigurationError wraps err with the file and error type.
func newConfigurationError(filePath, errorType string, err error, suggestions ...string) *ConfigurationError {
	return &ConfigurationError{
		FilePath:    filePath,
		ErrorType:   errorType,
		Message:     err.Error(),
		Suggestions: suggestions,
		Err:         err,
	}
}
