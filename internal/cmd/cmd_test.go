package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/finchly/parley/internal/config"
	"github.com/finchly/parley/internal/gateway"
)

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{"run": false, "roles": false, "status": false, "report": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestRunRequiresSubject(t *testing.T) {
	if runCmd.Flags().Lookup("subject") == nil {
		t.Fatal("run command missing --subject flag")
	}
	annotations := runCmd.Flags().Lookup("subject").Annotations
	if _, required := annotations[cobra.BashCompOneRequiredFlag]; !required {
		t.Error("--subject should be marked required")
	}
}

func TestBuildProducersMapsNames(t *testing.T) {
	producers := buildProducers([]string{"enhanced-sim", "basic-sim", "placeholder"})
	if len(producers) != 3 {
		t.Fatalf("got %d producers, want 3", len(producers))
	}
	names := []string{"enhanced-sim", "basic-sim", "placeholder"}
	for i, p := range producers {
		if p.Name() != names[i] {
			t.Errorf("producer %d = %q, want %q", i, p.Name(), names[i])
		}
	}
}

func TestBuildProducersAppendsPlaceholder(t *testing.T) {
	producers := buildProducers([]string{"enhanced-sim"})
	if len(producers) != 2 {
		t.Fatalf("got %d producers, want enhanced-sim plus appended placeholder", len(producers))
	}
	if producers[len(producers)-1].Name() != "placeholder" {
		t.Error("chain must terminate in the placeholder")
	}
}

func TestBuildLedgerUsesConfiguredLimits(t *testing.T) {
	cfg := config.Default()
	cfg.Quota["script"] = config.QuotaConfig{Limit: 2, WindowMinutes: 1}

	ledger := buildLedger(cfg)
	if !ledger.TryReserve("script", 2) {
		t.Fatal("reservation within the limit should succeed")
	}
	if ledger.TryReserve("script", 1) {
		t.Error("reservation beyond the limit should fail")
	}

	usage := ledger.Usage("script")
	if usage.Window != time.Minute {
		t.Errorf("window = %v, want 1m", usage.Window)
	}
}

func TestGatewayConfigConversion(t *testing.T) {
	cfg := config.Default()
	cfg.Gateway.BackoffBaseMs = 250

	gc := gatewayConfig(cfg)
	if gc.BackoffBase != 250*time.Millisecond {
		t.Errorf("BackoffBase = %v, want 250ms", gc.BackoffBase)
	}
	if gc.RetryAttempts != cfg.Gateway.RetryAttempts {
		t.Errorf("RetryAttempts = %d, want %d", gc.RetryAttempts, cfg.Gateway.RetryAttempts)
	}
}

func TestBuildSimulatorZeroSeedVariesPerRun(t *testing.T) {
	cfg := config.Default()
	if cfg.Simulator.Seed != 0 {
		t.Fatalf("default seed = %d, want 0", cfg.Simulator.Seed)
	}

	a := buildSimulator(cfg, 0)
	time.Sleep(time.Millisecond)
	b := buildSimulator(cfg, 0)

	// A single response can collide across seeds; a run of them cannot.
	var ra, rb string
	for i := 0; i < 5; i++ {
		out, _ := a.Invoke(context.Background(), gateway.ServiceScript, "same prompt")
		ra += out
		out, _ = b.Invoke(context.Background(), gateway.ServiceScript, "same prompt")
		rb += out
	}
	if ra == rb {
		t.Error("zero seed should time-seed each run, not replay a fixed sequence")
	}
}

func TestBuildSimulatorSeedOverride(t *testing.T) {
	cfg := config.Default()
	cfg.Simulator.Seed = 7

	a := buildSimulator(cfg, 0)
	b := buildSimulator(cfg, 0)
	ra, _ := a.Invoke(context.Background(), gateway.ServiceScript, "same prompt")
	rb, _ := b.Invoke(context.Background(), gateway.ServiceScript, "same prompt")
	if ra != rb {
		t.Error("same seed should produce identical responses")
	}
}
