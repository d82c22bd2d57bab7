// Package config provides configuration management for kman.
// It handles loading, validating and saving the YAML settings file that
// tells kman where the pacman root and databases live, which external tools
// to call for privilege escalation and AUR access, and how to log.
package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cperrin88/kman/pkg/errors"
	"github.com/cperrin88/kman/pkg/fsutil"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	// General settings
	Settings Settings `yaml:"settings"`
}

// Settings represents general application settings.
type Settings struct {
	// Package database locations
	RootDir     string `yaml:"root_dir"`
	DBPath      string `yaml:"db_path"`
	PacmanConf  string `yaml:"pacman_conf"`
	StagingRepo string `yaml:"staging_repo"`

	// Local state
	CacheDir string `yaml:"cache_dir,omitempty"`
	HooksDir string `yaml:"hooks_dir,omitempty"`

	// External tools
	AURHelper  string `yaml:"aur_helper"`
	Escalation string `yaml:"escalation"`
	Terminal   string `yaml:"terminal,omitempty"`

	// Network settings
	HTTPTimeout   time.Duration `yaml:"http_timeout"`
	MaxConcurrent int           `yaml:"max_concurrent_syncs"`

	// Output settings
	OutputFormat string `yaml:"output_format"` // text, json
	LogLevel     string `yaml:"log_level"`     // debug, info, warn, error
	NoColor      bool   `yaml:"no_color"`
}

// Default configuration values.
const (
	DefaultRootDir     = "/"
	DefaultDBPath      = "/var/lib/pacman/"
	DefaultPacmanConf  = "/etc/pacman.conf"
	DefaultStagingRepo = "cachyos-staging"
	DefaultAURHelper   = "paru"
	DefaultEscalation  = "pkexec"

	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultMaxConcurrent is the default number of databases synced in parallel.
	DefaultMaxConcurrent = 4

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	cacheDir, err := fsutil.GetCacheDir()
	if err != nil {
		cacheDir = filepath.Join(os.TempDir(), fsutil.AppName)
	}
	hooksDir, err := fsutil.GetHooksDir()
	if err != nil {
		hooksDir = ""
	}

	return &Config{
		Settings: Settings{
			RootDir:       DefaultRootDir,
			DBPath:        DefaultDBPath,
			PacmanConf:    DefaultPacmanConf,
			StagingRepo:   DefaultStagingRepo,
			CacheDir:      cacheDir,
			HooksDir:      hooksDir,
			AURHelper:     DefaultAURHelper,
			Escalation:    DefaultEscalation,
			HTTPTimeout:   DefaultHTTPTimeout,
			MaxConcurrent: DefaultMaxConcurrent,
			OutputFormat:  "text",
			LogLevel:      "info",
		},
	}
}

// LoadConfig loads configuration from a file. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrConfigValidation, err.Error())
	}

	return &config, nil
}

// SaveConfig saves configuration to a file, replacing it atomically.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	if err := os.MkdirAll(filepath.Dir(absPath), fsutil.DirModeDefault); err != nil {
		return errors.Wrap(errors.ErrConfigDirectory, err.Error())
	}

	var sb strings.Builder
	encoder := yaml.NewEncoder(&sb)
	encoder.SetIndent(YAMLIndent)
	if err := encoder.Encode(c); err != nil {
		return errors.Wrap(errors.ErrConfigEncode, err.Error())
	}
	_ = encoder.Close()

	if err := fsutil.WriteFileAtomic(absPath, []byte(sb.String()), fsutil.FileModeDefault); err != nil {
		return errors.Wrap(errors.ErrConfigFileCreate, err.Error())
	}

	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrConfigMarshal, err.Error())
	}
	return data, nil
}

// Validate checks if the configuration is valid. All problems are reported at once.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}

	var result *multierror.Error
	s := c.Settings

	if s.HTTPTimeout < 0 {
		result = multierror.Append(result, errors.ErrHTTPTimeoutNegative)
	}
	if s.MaxConcurrent < 1 {
		result = multierror.Append(result, errors.ErrMaxConcurrentInvalid)
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[s.OutputFormat] {
		result = multierror.Append(result, errors.ErrInvalidOutputWithDetails(s.OutputFormat))
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(s.LogLevel)] {
		result = multierror.Append(result, errors.ErrInvalidLogLevelWithDetails(s.LogLevel))
	}
	for key, p := range map[string]string{"root_dir": s.RootDir, "db_path": s.DBPath, "pacman_conf": s.PacmanConf} {
		if p != "" && !filepath.IsAbs(p) {
			result = multierror.Append(result, errors.Wrapf(errors.ErrInvalidPath, "%s must be absolute, got %q", key, p))
		}
	}

	return result.ErrorOrNil()
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := fsutil.GetConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get user config directory")
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

// PacmanConfPath returns the pacman.conf location, resolved against the root
// when the configured path is left at its default.
func (c *Config) PacmanConfPath() string {
	if c.Settings.PacmanConf != DefaultPacmanConf || c.Settings.RootDir == DefaultRootDir {
		return c.Settings.PacmanConf
	}
	return filepath.Join(c.Settings.RootDir, "etc", "pacman.conf")
}

// applyDefaults fills in missing values with defaults.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Settings.RootDir == "" {
		c.Settings.RootDir = defaults.Settings.RootDir
	}
	if c.Settings.DBPath == "" {
		c.Settings.DBPath = defaults.Settings.DBPath
	}
	if c.Settings.PacmanConf == "" {
		c.Settings.PacmanConf = defaults.Settings.PacmanConf
	}
	if c.Settings.StagingRepo == "" {
		c.Settings.StagingRepo = defaults.Settings.StagingRepo
	}
	if c.Settings.CacheDir == "" {
		c.Settings.CacheDir = defaults.Settings.CacheDir
	}
	if c.Settings.HooksDir == "" {
		c.Settings.HooksDir = defaults.Settings.HooksDir
	}
	if c.Settings.AURHelper == "" {
		c.Settings.AURHelper = defaults.Settings.AURHelper
	}
	if c.Settings.Escalation == "" {
		c.Settings.Escalation = defaults.Settings.Escalation
	}
	if c.Settings.HTTPTimeout == 0 {
		c.Settings.HTTPTimeout = defaults.Settings.HTTPTimeout
	}
	if c.Settings.MaxConcurrent == 0 {
		c.Settings.MaxConcurrent = defaults.Settings.MaxConcurrent
	}
	if c.Settings.OutputFormat == "" {
		c.Settings.OutputFormat = defaults.Settings.OutputFormat
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.Settings.LogLevel
	}
}
