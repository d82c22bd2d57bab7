package config

import (
	"sort"
	"strconv"
	"time"

	"github.com/cperrin88/kman/pkg/errors"
)

type settingKey struct {
	get func(s *Settings) string
	set func(s *Settings, value string) error
}

func stringKey(field func(s *Settings) *string) settingKey {
	return settingKey{
		get: func(s *Settings) string { return *field(s) },
		set: func(s *Settings, value string) error {
			*field(s) = value
			return nil
		},
	}
}

var settingKeys = map[string]settingKey{
	"root_dir":      stringKey(func(s *Settings) *string { return &s.RootDir }),
	"db_path":       stringKey(func(s *Settings) *string { return &s.DBPath }),
	"pacman_conf":   stringKey(func(s *Settings) *string { return &s.PacmanConf }),
	"staging_repo":  stringKey(func(s *Settings) *string { return &s.StagingRepo }),
	"cache_dir":     stringKey(func(s *Settings) *string { return &s.CacheDir }),
	"hooks_dir":     stringKey(func(s *Settings) *string { return &s.HooksDir }),
	"aur_helper":    stringKey(func(s *Settings) *string { return &s.AURHelper }),
	"escalation":    stringKey(func(s *Settings) *string { return &s.Escalation }),
	"terminal":      stringKey(func(s *Settings) *string { return &s.Terminal }),
	"log_level":     stringKey(func(s *Settings) *string { return &s.LogLevel }),
	"output_format": stringKey(func(s *Settings) *string { return &s.OutputFormat }),
	"http_timeout": {
		get: func(s *Settings) string { return s.HTTPTimeout.String() },
		set: func(s *Settings, value string) error {
			d, err := time.ParseDuration(value)
			if err != nil {
				return errors.Wrapf(errors.ErrConfigValidation, "invalid duration for http_timeout: %s", value)
			}
			s.HTTPTimeout = d
			return nil
		},
	},
	"max_concurrent_syncs": {
		get: func(s *Settings) string { return strconv.Itoa(s.MaxConcurrent) },
		set: func(s *Settings, value string) error {
			n, err := strconv.Atoi(value)
			if err != nil {
				return errors.Wrapf(errors.ErrConfigValidation, "invalid integer for max_concurrent_syncs: %s", value)
			}
			s.MaxConcurrent = n
			return nil
		},
	},
	"no_color": {
		get: func(s *Settings) string { return strconv.FormatBool(s.NoColor) },
		set: func(s *Settings, value string) error {
			b, err := strconv.ParseBool(value)
			if err != nil {
				return errors.Wrapf(errors.ErrConfigValidation, "invalid boolean value for no_color: %s", value)
			}
			s.NoColor = b
			return nil
		},
	},
}

// SetValue sets a configuration value by its YAML key and re-validates the result.
func (c *Config) SetValue(key, value string) error {
	k, ok := settingKeys[key]
	if !ok {
		return errors.Wrap(errors.ErrUnknownConfigKey, key)
	}

	updated := c.Settings
	if err := k.set(&updated, value); err != nil {
		return err
	}
	if err := (&Config{Settings: updated}).Validate(); err != nil {
		return err
	}
	c.Settings = updated
	return nil
}

// GetValue returns a configuration value by its YAML key.
func (c *Config) GetValue(key string) (string, error) {
	k, ok := settingKeys[key]
	if !ok {
		return "", errors.Wrap(errors.ErrUnknownConfigKey, key)
	}
	return k.get(&c.Settings), nil
}

// Keys returns every supported key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(settingKeys))
	for k := range settingKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ToMap is useful for displaying the configuration.
func (c *Config) ToMap() map[string]string {
	result := make(map[string]string, len(settingKeys))
	for key, k := range settingKeys {
		result[key] = k.get(&c.Settings)
	}
	return result
}
