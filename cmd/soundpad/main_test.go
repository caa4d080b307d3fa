package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestSaveVolumeCreatesMissingConfigFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	viper.AddConfigPath(dir)
	viper.SetConfigName("soundpad")
	viper.SetConfigType("yaml")

	// No config file exists yet; saving must create one instead of
	// failing.
	if err := saveVolume(0.3); err != nil {
		t.Fatalf("saveVolume without a config file failed: %v", err)
	}

	path := filepath.Join(dir, "soundpad.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file was not created: %v", err)
	}

	viper.Reset()
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		t.Fatalf("could not read back config: %v", err)
	}
	if got := viper.GetFloat64("sounds.volume"); got != 0.3 {
		t.Errorf("stored volume = %f, want 0.3", got)
	}
}

func TestSaveVolumeUpdatesExistingConfigFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "soundpad.yaml")
	if err := os.WriteFile(path, []byte("sounds:\n  volume: 1.0\n"), 0o644); err != nil {
		t.Fatalf("could not seed config file: %v", err)
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		t.Fatalf("could not read seeded config: %v", err)
	}

	if err := saveVolume(0.7); err != nil {
		t.Fatalf("saveVolume failed: %v", err)
	}

	viper.Reset()
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		t.Fatalf("could not read back config: %v", err)
	}
	if got := viper.GetFloat64("sounds.volume"); got != 0.7 {
		t.Errorf("stored volume = %f, want 0.7", got)
	}
}
