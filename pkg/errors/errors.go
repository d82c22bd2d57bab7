// Package errors defines the sentinel errors shared across kman and small
// helpers for adding context while keeping errors.Is comparisons working.
package errors

import "fmt"

// Common error types.
var (
	// Config errors.
	ErrEmptyConfigPath   = fmt.Errorf("config file path cannot be empty")
	ErrInvalidConfigPath = fmt.Errorf("invalid config file path")
	ErrConfigParse       = fmt.Errorf("failed to parse config")
	ErrConfigValidation  = fmt.Errorf("invalid configuration")
	ErrConfigEncode      = fmt.Errorf("failed to encode config")
	ErrConfigDirectory   = fmt.Errorf("failed to create config directory")
	ErrConfigFileCreate  = fmt.Errorf("failed to create config file")
	ErrConfigMarshal     = fmt.Errorf("failed to marshal config to YAML")
	ErrUnknownConfigKey  = fmt.Errorf("unknown configuration key")
	ErrInvalidLogLevel   = fmt.Errorf("invalid log level")
	ErrInvalidOutput     = fmt.Errorf("invalid output format")
	ErrInvalidPath       = fmt.Errorf("invalid path")

	// ErrHTTPTimeoutNegative is returned when http_timeout is set to a negative value.
	ErrHTTPTimeoutNegative = fmt.Errorf("http_timeout cannot be negative")
	// ErrMaxConcurrentInvalid is returned when max_concurrent_syncs is less than 1.
	ErrMaxConcurrentInvalid = fmt.Errorf("max_concurrent_syncs must be at least 1")

	// Package database configuration errors.
	ErrPacmanConf      = fmt.Errorf("failed to read pacman configuration")
	ErrRepositoryNoURL = fmt.Errorf("repository has no usable server")

	// Catalog errors.
	ErrEmptyCatalog   = fmt.Errorf("no kernels found, please refresh the package database (pacman -Syy)")
	ErrKernelNotFound = fmt.Errorf("kernel not found in catalog")

	// Transaction errors.
	ErrTransaction       = fmt.Errorf("transaction failed")
	ErrResync            = fmt.Errorf("failed to re-open package database")
	ErrCycleInProgress   = fmt.Errorf("a transaction cycle is already running")
	ErrSessionClosed     = fmt.Errorf("session is closed")
	ErrExternalHelper    = fmt.Errorf("external package helper is not available")
	ErrCommandFailed     = fmt.Errorf("command exited with a non-zero status")
	ErrNoCommand         = fmt.Errorf("no command given")
	ErrInsufficientPrivs = fmt.Errorf("insufficient privileges")

	// Download errors.
	ErrDownloadFailed = fmt.Errorf("download failed")

	// Hook errors.
	ErrHookTypeEmpty = fmt.Errorf("hook type cannot be empty")
	ErrHookExecution = fmt.Errorf("error executing hook")
	ErrHookScript    = fmt.Errorf("hook script error")
	ErrHookLoad      = fmt.Errorf("failed to load hook")
	ErrHookAborted   = fmt.Errorf("transaction aborted by hook")
)

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// ErrInvalidLogLevelWithDetails is a helper to create a wrapped error with the invalid level and valid options.
func ErrInvalidLogLevelWithDetails(level string) error {
	return fmt.Errorf("%w: '%s', must be one of: debug, info, warn, error", ErrInvalidLogLevel, level)
}

// ErrInvalidOutputWithDetails is a helper to create a wrapped error with the invalid format and valid options.
func ErrInvalidOutputWithDetails(format string) error {
	return fmt.Errorf("%w: '%s', must be one of: text, json", ErrInvalidOutput, format)
}

// ErrKernelNotFoundWithRaw creates an error for a raw identifier missing from the catalog.
func ErrKernelNotFoundWithRaw(raw string) error {
	return fmt.Errorf("%w: %s", ErrKernelNotFound, raw)
}
