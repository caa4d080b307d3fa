package sounds

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/viper"
)

// LoadConfig resolves the effective engine configuration: defaults,
// then the Viper config file, then PETPORTRAIT_SOUNDS_* environment
// overrides on top.
func LoadConfig() (Config, error) {
	cfg, err := LoadConfigFromViper()
	if err != nil {
		return cfg, err
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadConfigFromViper loads engine configuration from Viper, layering
// file values over the defaults. Most callers want LoadConfig, which
// also applies environment overrides.
func LoadConfigFromViper() (Config, error) {
	cfg := DefaultConfig()

	if viper.IsSet("sounds.project_url") {
		cfg.ProjectURL = viper.GetString("sounds.project_url")
	}
	if viper.IsSet("sounds.api_key") {
		cfg.APIKey = viper.GetString("sounds.api_key")
	}
	if viper.IsSet("sounds.cache_ttl") {
		cfg.CacheTTL = viper.GetDuration("sounds.cache_ttl")
	}
	if viper.IsSet("sounds.data_dir") {
		cfg.DataDir = viper.GetString("sounds.data_dir")
	}
	if viper.IsSet("sounds.volume") {
		cfg.Volume = viper.GetFloat64("sounds.volume")
	}
	if viper.IsSet("sounds.sample_rate") {
		cfg.SampleRate = viper.GetInt("sounds.sample_rate")
	}
	if viper.IsSet("sounds.download_timeout") {
		cfg.DownloadTimeout = viper.GetDuration("sounds.download_timeout")
	}
	if viper.IsSet("sounds.bundle_dir") {
		cfg.BundleDir = viper.GetString("sounds.bundle_dir")
	}
	if viper.IsSet("sounds.default_collection_name") {
		cfg.DefaultCollectionName = viper.GetString("sounds.default_collection_name")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
