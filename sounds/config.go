package sounds

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config contains all sound engine configuration options.
type Config struct {
	// Remote backend settings
	ProjectURL string `yaml:"project_url" env:"PETPORTRAIT_SOUNDS_PROJECT_URL"`
	APIKey     string `yaml:"api_key" env:"PETPORTRAIT_SOUNDS_API_KEY"`

	// Cache settings
	CacheTTL time.Duration `yaml:"cache_ttl" env:"PETPORTRAIT_SOUNDS_CACHE_TTL"`

	// Local storage settings
	DataDir string `yaml:"data_dir" env:"PETPORTRAIT_SOUNDS_DATA_DIR"`

	// Playback settings
	Volume           float64       `yaml:"volume" env:"PETPORTRAIT_SOUNDS_VOLUME"`
	SampleRate       int           `yaml:"sample_rate" env:"PETPORTRAIT_SOUNDS_SAMPLE_RATE"`
	DownloadTimeout  time.Duration `yaml:"download_timeout" env:"PETPORTRAIT_SOUNDS_DOWNLOAD_TIMEOUT"`
	BundleDir        string        `yaml:"bundle_dir" env:"PETPORTRAIT_SOUNDS_BUNDLE_DIR"`

	// Bootstrap settings
	DefaultCollectionName string `yaml:"default_collection_name" env:"PETPORTRAIT_SOUNDS_DEFAULT_COLLECTION_NAME"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		CacheTTL:              5 * time.Minute,
		Volume:                1.0,
		SampleRate:            44100,
		DownloadTimeout:       15 * time.Second,
		DefaultCollectionName: "My Sounds",
	}
}

// LoadConfigFromEnv returns the default configuration overridden by
// environment variables.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache_ttl must be positive, got %s", c.CacheTTL)
	}
	if c.Volume < 0 || c.Volume > 1 {
		return fmt.Errorf("volume must be in [0, 1], got %f", c.Volume)
	}
	if c.SampleRate != 44100 && c.SampleRate != 48000 {
		return fmt.Errorf("sample_rate must be 44100 or 48000, got %d", c.SampleRate)
	}
	if c.DownloadTimeout <= 0 {
		return fmt.Errorf("download_timeout must be positive, got %s", c.DownloadTimeout)
	}
	return nil
}
