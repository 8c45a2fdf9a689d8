package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/finchly/parley/internal/breaker"
	"github.com/finchly/parley/internal/config"
	"github.com/finchly/parley/internal/fallback"
	"github.com/finchly/parley/internal/gateway"
	"github.com/finchly/parley/internal/logging"
	"github.com/finchly/parley/internal/quota"
	"github.com/finchly/parley/internal/roles"
)

// buildLogger creates the process logger from config. File logging writes
// under the config directory; disabled logging discards everything.
func buildLogger(cfg *config.Config) (*logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NewNop(), nil
	}
	logPath := filepath.Join(config.ConfigDir(), "logs", "parley.log")
	return logging.New(logPath, cfg.Logging.Level, logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
}

// buildLedger creates the quota ledger from the per-class limits.
func buildLedger(cfg *config.Config) *quota.Ledger {
	limits := make(map[string]quota.Limit, len(cfg.Quota))
	for class, q := range cfg.Quota {
		limits[class] = quota.Limit{Limit: q.Limit, Window: q.Window()}
	}
	return quota.NewLedger(limits)
}

// buildSimulator creates the simulated invoker standing in for the real
// generative services. Seed resolution: the --seed flag wins, then the
// config value; zero means a fresh time seed per run.
func buildSimulator(cfg *config.Config, seed int64) *gateway.Simulator {
	if seed == 0 {
		seed = cfg.Simulator.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	sim := gateway.NewSimulator(seed).WithAgreeBias(cfg.Simulator.AgreeBias)
	if cfg.Simulator.TransientRate > 0 || cfg.Simulator.LatencyMs > 0 {
		for _, class := range gateway.AllServiceClasses() {
			sim = sim.WithProfile(class, gateway.SimProfile{
				TransientRate: cfg.Simulator.TransientRate,
				Latency:       cfg.Simulator.Latency(),
			})
		}
	}
	return sim
}

// breakerConfig converts the circuit section to breaker settings.
func breakerConfig(cfg *config.Config) breaker.Config {
	return breaker.Config{
		FailureThreshold: cfg.Circuit.FailureThreshold,
		RecoveryTimeout:  cfg.Circuit.RecoveryTimeout(),
	}
}

// gatewayConfig converts the gateway section to gateway settings.
func gatewayConfig(cfg *config.Config) gateway.Config {
	return gateway.Config{
		RetryAttempts:     cfg.Gateway.RetryAttempts,
		BackoffBase:       cfg.Gateway.BackoffBase(),
		BackoffMultiplier: cfg.Gateway.BackoffMultiplier,
		CallTimeout:       cfg.Gateway.CallTimeout(),
	}
}

// buildProducers maps configured producer names to instances, appending the
// terminal placeholder if missing so the chain stays total.
func buildProducers(names []string) []fallback.Producer {
	var producers []fallback.Producer
	sawPlaceholder := false
	for _, name := range names {
		switch name {
		case "enhanced-sim":
			producers = append(producers, fallback.NewEnhancedSim())
		case "basic-sim":
			producers = append(producers, fallback.NewBasicSim())
		case "placeholder":
			producers = append(producers, fallback.NewPlaceholder())
			sawPlaceholder = true
		}
	}
	if !sawPlaceholder {
		producers = append(producers, fallback.NewPlaceholder())
	}
	return producers
}

// buildRegistry loads the builtin roles plus the configured YAML directory.
func buildRegistry(cfg *config.Config) (*roles.Registry, error) {
	registry := roles.NewRegistry()
	if err := registry.LoadDir(cfg.Roles.Dir); err != nil {
		return nil, fmt.Errorf("loading roles from %s: %w", cfg.Roles.Dir, err)
	}
	return registry, nil
}
