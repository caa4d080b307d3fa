package sounds

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadConfigFromEnvOverridesDefaults(t *testing.T) {
	t.Setenv("PETPORTRAIT_SOUNDS_SAMPLE_RATE", "48000")
	t.Setenv("PETPORTRAIT_SOUNDS_DOWNLOAD_TIMEOUT", "30s")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv failed: %v", err)
	}
	if cfg.SampleRate != 48000 {
		t.Errorf("SampleRate = %d, want 48000", cfg.SampleRate)
	}
	if cfg.DownloadTimeout != 30*time.Second {
		t.Errorf("DownloadTimeout = %s, want 30s", cfg.DownloadTimeout)
	}
	// Untouched fields keep their defaults.
	if cfg.Volume != 1.0 {
		t.Errorf("Volume = %f, want the 1.0 default", cfg.Volume)
	}
	if cfg.DefaultCollectionName != "My Sounds" {
		t.Errorf("DefaultCollectionName = %q, want the default", cfg.DefaultCollectionName)
	}
}

func TestLoadConfigEnvBeatsFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("sounds.volume", 0.5)
	viper.Set("sounds.cache_ttl", "10m")
	t.Setenv("PETPORTRAIT_SOUNDS_VOLUME", "0.25")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Volume != 0.25 {
		t.Errorf("Volume = %f, want the 0.25 environment override", cfg.Volume)
	}
	// File values without an environment override survive.
	if cfg.CacheTTL != 10*time.Minute {
		t.Errorf("CacheTTL = %s, want the 10m file value", cfg.CacheTTL)
	}
	// Fields set nowhere keep their defaults.
	if cfg.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want the 44100 default", cfg.SampleRate)
	}
}

func TestLoadConfigRejectsInvalidEnvValues(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("PETPORTRAIT_SOUNDS_VOLUME", "2.0")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("LoadConfig accepted an out-of-range volume")
	}
}
