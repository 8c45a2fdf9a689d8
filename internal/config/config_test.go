package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if errs := cfg.Validate(); len(errs) > 0 {
		t.Errorf("default config should validate cleanly, got: %v", ValidationErrors(errs))
	}
}

func TestLoadUsesDefaults(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	SetDefaults()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Discussion.MaxRounds != 3 {
		t.Errorf("Discussion.MaxRounds = %d, want 3", cfg.Discussion.MaxRounds)
	}
	if cfg.Discussion.ConsensusThreshold != 0.75 {
		t.Errorf("Discussion.ConsensusThreshold = %v, want 0.75", cfg.Discussion.ConsensusThreshold)
	}
	if cfg.Gateway.RetryAttempts != 3 {
		t.Errorf("Gateway.RetryAttempts = %d, want 3", cfg.Gateway.RetryAttempts)
	}
	if cfg.Circuit.FailureThreshold != 5 {
		t.Errorf("Circuit.FailureThreshold = %d, want 5", cfg.Circuit.FailureThreshold)
	}
	if got := cfg.Quota["script"].Limit; got != 200 {
		t.Errorf("Quota[script].Limit = %d, want 200", got)
	}
	if len(cfg.Fallback.Producers) != 3 {
		t.Errorf("Fallback.Producers = %v, want the full default chain", cfg.Fallback.Producers)
	}
}

func TestLoadOverrides(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	SetDefaults()
	viper.Set("discussion.max_rounds", 5)
	viper.Set("quota.video.limit", 7)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Discussion.MaxRounds != 5 {
		t.Errorf("Discussion.MaxRounds = %d, want 5", cfg.Discussion.MaxRounds)
	}
	if cfg.Quota["video"].Limit != 7 {
		t.Errorf("Quota[video].Limit = %d, want 7", cfg.Quota["video"].Limit)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	SetDefaults()
	viper.Set("discussion.consensus_threshold", 1.5)

	if _, err := Load(); err == nil {
		t.Error("expected validation failure for out-of-range threshold")
	}
}

func TestDurationAccessors(t *testing.T) {
	cfg := Default()

	if got := cfg.Discussion.PerRoundTimeout(); got != 30*time.Second {
		t.Errorf("PerRoundTimeout() = %v, want 30s", got)
	}
	if got := cfg.Gateway.BackoffBase(); got != time.Second {
		t.Errorf("BackoffBase() = %v, want 1s", got)
	}
	if got := cfg.Circuit.RecoveryTimeout(); got != 30*time.Second {
		t.Errorf("RecoveryTimeout() = %v, want 30s", got)
	}
	if got := cfg.Quota["script"].Window(); got != time.Hour {
		t.Errorf("Quota[script].Window() = %v, want 1h", got)
	}
}

func TestConfigDirRespectsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")
	if got := ConfigDir(); got != "/tmp/xdg-test/parley" {
		t.Errorf("ConfigDir() = %q, want /tmp/xdg-test/parley", got)
	}
}
