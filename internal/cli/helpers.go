package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/gookit/color"

	"github.com/cperrin88/kman/internal/logger"
	"github.com/cperrin88/kman/pkg/config"
	pkgerrors "github.com/cperrin88/kman/pkg/errors"
	"github.com/cperrin88/kman/pkg/session"
)

// These variables will be set by the main package
var (
	ConfigPath *string
	Verbose    *bool
	NoColor    *bool
	RootDir    *string
	DBPath     *string
)

// loadConfig loads the configuration and applies the global flags on top.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if RootDir != nil && *RootDir != "" {
		cfg.Settings.RootDir = *RootDir
	}
	if DBPath != nil && *DBPath != "" {
		cfg.Settings.DBPath = *DBPath
	}
	if NoColor != nil && *NoColor {
		cfg.Settings.NoColor = true
	}
	if Verbose != nil && *Verbose {
		cfg.Settings.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger.InitLogger(cfg.Settings.LogLevel, logger.OutputFormat(cfg.Settings.OutputFormat))
	color.Enable = !cfg.Settings.NoColor && isTerminal()
	return cfg, nil
}

func getConfigPath() string {
	if ConfigPath != nil && *ConfigPath != "" {
		return *ConfigPath
	}

	defaultPath, err := config.GetDefaultConfigPath()
	if err != nil {
		// If we can't get the default path, use an empty string which will cause a more descriptive error later
		// when the config file is actually being read/written
		logger.Warn("Failed to get default config path, using empty path", logger.Fields{"error": err})
		return ""
	}
	return defaultPath
}

// openSession loads the configuration and opens a session reporting to the terminal.
func openSession(ctx context.Context) (*config.Config, *session.Session, *terminalSink, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	sink := newTerminalSink()
	s, err := session.Open(ctx, cfg, sink, session.Options{})
	if err != nil && !errors.Is(err, pkgerrors.ErrEmptyCatalog) {
		return nil, nil, nil, fmt.Errorf("failed to open package database: %w", err)
	}
	if err != nil {
		sink.Warn(err.Error())
	}
	return cfg, s, sink, nil
}
