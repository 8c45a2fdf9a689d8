package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/finchly/parley/internal/config"
	"github.com/finchly/parley/internal/gateway"
	"github.com/finchly/parley/internal/logging"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show gateway quota and circuit configuration",
	Long: `Display the effective resilience configuration: per-service quota limits
and windows, circuit breaker states and retry settings, as a new run of
the gateway would see them.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	gw := gateway.New(buildSimulator(cfg, 0), buildLedger(cfg), breakerConfig(cfg), gatewayConfig(cfg), nil, logging.NewNop())
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Gateway: %d attempts, %s base backoff x%.1f, %s per call\n\n",
		cfg.Gateway.RetryAttempts, cfg.Gateway.BackoffBase(), cfg.Gateway.BackoffMultiplier, cfg.Gateway.CallTimeout())

	classes := make([]string, 0, len(cfg.Quota))
	for class := range cfg.Quota {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	for _, class := range classes {
		usage := gw.Usage(gateway.ServiceClass(class))
		limit := "unlimited"
		if usage.Limit > 0 {
			limit = fmt.Sprintf("%d per %s", usage.Limit, usage.Window)
		}
		br := gw.Breaker(gateway.ServiceClass(class))
		fmt.Fprintf(out, "%-8s quota %d/%s, circuit %s\n", class, usage.Used, limit, br.State())
	}

	fmt.Fprintf(out, "\nCircuit: opens after %d consecutive failures, probes after %s\n",
		cfg.Circuit.FailureThreshold, cfg.Circuit.RecoveryTimeout())
	return nil
}
