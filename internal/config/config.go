package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete Parley configuration
type Config struct {
	Discussion DiscussionConfig       `mapstructure:"discussion"`
	Gateway    GatewayConfig          `mapstructure:"gateway"`
	Circuit    CircuitConfig          `mapstructure:"circuit"`
	Quota      map[string]QuotaConfig `mapstructure:"quota"`
	Fallback   FallbackConfig         `mapstructure:"fallback"`
	Roles      RolesConfig            `mapstructure:"roles"`
	Report     ReportConfig           `mapstructure:"report"`
	Simulator  SimulatorConfig        `mapstructure:"simulator"`
	Logging    LoggingConfig          `mapstructure:"logging"`
}

// DiscussionConfig bounds consensus discussions
type DiscussionConfig struct {
	// MaxRounds is the round bound for each discussion (default: 3)
	MaxRounds int `mapstructure:"max_rounds"`
	// ConsensusThreshold is the agree fraction at which a discussion
	// terminates with success, in [0,1] (default: 0.75)
	ConsensusThreshold float64 `mapstructure:"consensus_threshold"`
	// PerRoundTimeoutSeconds converts participants still running at the round
	// deadline into abstentions (default: 30, 0 = no per-round deadline)
	PerRoundTimeoutSeconds int `mapstructure:"per_round_timeout_seconds"`
	// MinParticipants is the minimum number of roles required to start (default: 2)
	MinParticipants int `mapstructure:"min_participants"`
	// OuterTimeoutSeconds bounds the whole discussion (default: 0 = unbounded)
	OuterTimeoutSeconds int `mapstructure:"outer_timeout_seconds"`
}

// PerRoundTimeout returns the per-round deadline as a time.Duration
func (c *DiscussionConfig) PerRoundTimeout() time.Duration {
	return time.Duration(c.PerRoundTimeoutSeconds) * time.Second
}

// OuterTimeout returns the whole-discussion deadline as a time.Duration (0 means disabled)
func (c *DiscussionConfig) OuterTimeout() time.Duration {
	return time.Duration(c.OuterTimeoutSeconds) * time.Second
}

// GatewayConfig controls retry behavior for external service calls
type GatewayConfig struct {
	// RetryAttempts is the maximum number of invocation attempts per call (default: 3)
	RetryAttempts int `mapstructure:"retry_attempts"`
	// BackoffBaseMs is the nominal delay before the first retry in milliseconds (default: 1000)
	BackoffBaseMs int `mapstructure:"backoff_base_ms"`
	// BackoffMultiplier scales the delay between successive retries (default: 2.0)
	BackoffMultiplier float64 `mapstructure:"backoff_multiplier"`
	// CallTimeoutSeconds bounds each individual attempt (default: 30)
	CallTimeoutSeconds int `mapstructure:"call_timeout_seconds"`
}

// BackoffBase returns the base retry delay as a time.Duration
func (c *GatewayConfig) BackoffBase() time.Duration {
	return time.Duration(c.BackoffBaseMs) * time.Millisecond
}

// CallTimeout returns the per-attempt timeout as a time.Duration (0 means disabled)
func (c *GatewayConfig) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutSeconds) * time.Second
}

// CircuitConfig controls the per-service circuit breakers
type CircuitConfig struct {
	// FailureThreshold is the number of consecutive failures that opens a
	// breaker (default: 5)
	FailureThreshold int `mapstructure:"failure_threshold"`
	// RecoveryTimeoutSeconds is how long a breaker stays open before
	// admitting a half-open probe (default: 30)
	RecoveryTimeoutSeconds int `mapstructure:"recovery_timeout_seconds"`
}

// RecoveryTimeout returns the breaker recovery timeout as a time.Duration
func (c *CircuitConfig) RecoveryTimeout() time.Duration {
	return time.Duration(c.RecoveryTimeoutSeconds) * time.Second
}

// QuotaConfig is the per-service-class consumption limit
type QuotaConfig struct {
	// Limit is the maximum units consumable per window (0 = unlimited)
	Limit int64 `mapstructure:"limit"`
	// WindowMinutes is the fixed accounting window length (default: 60)
	WindowMinutes int `mapstructure:"window_minutes"`
}

// Window returns the accounting window as a time.Duration
func (c QuotaConfig) Window() time.Duration {
	return time.Duration(c.WindowMinutes) * time.Minute
}

// FallbackConfig controls the degraded producer chain
type FallbackConfig struct {
	// Producers is the ordered producer list. Valid entries: "enhanced-sim",
	// "basic-sim", "placeholder". The placeholder is always appended if missing
	// so the chain stays total.
	Producers []string `mapstructure:"producers"`
}

// RolesConfig controls role loading
type RolesConfig struct {
	// Dir is a directory of YAML role definitions loaded in addition to the
	// builtin roles. Empty or missing directories are skipped.
	Dir string `mapstructure:"dir"`
}

// ReportConfig controls discussion report output
type ReportConfig struct {
	// Dir is the directory reports are written to.
	// If empty, defaults to "reports" under the config directory.
	// Supports ~ for home directory expansion.
	Dir string `mapstructure:"dir"`
	// TruncateContentAt bounds message content length in rendered reports (default: 200)
	TruncateContentAt int `mapstructure:"truncate_content_at"`
}

// ResolveDir returns the resolved report directory path
func (c *ReportConfig) ResolveDir() string {
	if c.Dir == "" {
		return filepath.Join(ConfigDir(), "reports")
	}
	path := c.Dir
	if len(path) >= 2 && path[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return path
}

// SimulatorConfig controls the simulated service invoker
type SimulatorConfig struct {
	// Seed makes simulated responses reproducible (default: 0 = time-seeded)
	Seed int64 `mapstructure:"seed"`
	// AgreeBias is the probability a simulated script response agrees, in [0,1] (default: 0.7)
	AgreeBias float64 `mapstructure:"agree_bias"`
	// TransientRate is the probability of an injected transient failure per call, in [0,1)
	TransientRate float64 `mapstructure:"transient_rate"`
	// LatencyMs is the simulated per-call latency in milliseconds (default: 0)
	LatencyMs int `mapstructure:"latency_ms"`
}

// Latency returns the simulated latency as a time.Duration
func (c *SimulatorConfig) Latency() time.Duration {
	return time.Duration(c.LatencyMs) * time.Millisecond
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether file logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of backup log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
}

// ValidProducers returns the recognized fallback producer names
func ValidProducers() []string {
	return []string{"enhanced-sim", "basic-sim", "placeholder"}
}

// IsValidProducer checks if the given producer name is recognized
func IsValidProducer(name string) bool {
	for _, valid := range ValidProducers() {
		if name == valid {
			return true
		}
	}
	return false
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Discussion: DiscussionConfig{
			MaxRounds:              3,
			ConsensusThreshold:     0.75,
			PerRoundTimeoutSeconds: 30,
			MinParticipants:        2,
			OuterTimeoutSeconds:    0, // No outer deadline by default
		},
		Gateway: GatewayConfig{
			RetryAttempts:      3,
			BackoffBaseMs:      1000,
			BackoffMultiplier:  2.0,
			CallTimeoutSeconds: 30,
		},
		Circuit: CircuitConfig{
			FailureThreshold:       5,
			RecoveryTimeoutSeconds: 30,
		},
		Quota: map[string]QuotaConfig{
			"script": {Limit: 200, WindowMinutes: 60},
			"video":  {Limit: 20, WindowMinutes: 60},
			"speech": {Limit: 50, WindowMinutes: 60},
			"image":  {Limit: 100, WindowMinutes: 60},
		},
		Fallback: FallbackConfig{
			Producers: []string{"enhanced-sim", "basic-sim", "placeholder"},
		},
		Roles: RolesConfig{
			Dir: "", // Empty means builtin roles only
		},
		Report: ReportConfig{
			Dir:               "", // Empty means <config dir>/reports
			TruncateContentAt: 200,
		},
		Simulator: SimulatorConfig{
			Seed:          0, // Time-seeded by default
			AgreeBias:     0.7,
			TransientRate: 0,
			LatencyMs:     0,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Discussion defaults
	viper.SetDefault("discussion.max_rounds", defaults.Discussion.MaxRounds)
	viper.SetDefault("discussion.consensus_threshold", defaults.Discussion.ConsensusThreshold)
	viper.SetDefault("discussion.per_round_timeout_seconds", defaults.Discussion.PerRoundTimeoutSeconds)
	viper.SetDefault("discussion.min_participants", defaults.Discussion.MinParticipants)
	viper.SetDefault("discussion.outer_timeout_seconds", defaults.Discussion.OuterTimeoutSeconds)

	// Gateway defaults
	viper.SetDefault("gateway.retry_attempts", defaults.Gateway.RetryAttempts)
	viper.SetDefault("gateway.backoff_base_ms", defaults.Gateway.BackoffBaseMs)
	viper.SetDefault("gateway.backoff_multiplier", defaults.Gateway.BackoffMultiplier)
	viper.SetDefault("gateway.call_timeout_seconds", defaults.Gateway.CallTimeoutSeconds)

	// Circuit defaults
	viper.SetDefault("circuit.failure_threshold", defaults.Circuit.FailureThreshold)
	viper.SetDefault("circuit.recovery_timeout_seconds", defaults.Circuit.RecoveryTimeoutSeconds)

	// Quota defaults
	for class, q := range defaults.Quota {
		viper.SetDefault("quota."+class+".limit", q.Limit)
		viper.SetDefault("quota."+class+".window_minutes", q.WindowMinutes)
	}

	// Fallback defaults
	viper.SetDefault("fallback.producers", defaults.Fallback.Producers)

	// Roles defaults
	viper.SetDefault("roles.dir", defaults.Roles.Dir)

	// Report defaults
	viper.SetDefault("report.dir", defaults.Report.Dir)
	viper.SetDefault("report.truncate_content_at", defaults.Report.TruncateContentAt)

	// Simulator defaults
	viper.SetDefault("simulator.seed", defaults.Simulator.Seed)
	viper.SetDefault("simulator.agree_bias", defaults.Simulator.AgreeBias)
	viper.SetDefault("simulator.transient_rate", defaults.Simulator.TransientRate)
	viper.SetDefault("simulator.latency_ms", defaults.Simulator.LatencyMs)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "parley")
	}
	// Fall back to ~/.config/parley
	home, err := os.UserHomeDir()
	if err != nil {
		return ".parley"
	}
	return filepath.Join(home, ".config", "parley")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
