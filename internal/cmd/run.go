package cmd

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/finchly/parley/internal/config"
	"github.com/finchly/parley/internal/discussion"
	"github.com/finchly/parley/internal/event"
	"github.com/finchly/parley/internal/fallback"
	"github.com/finchly/parley/internal/gateway"
	"github.com/finchly/parley/internal/report"
)

var (
	runSubject     string
	runConstraints string
	runRolePattern string
	runRounds      int
	runThreshold   float64
	runWriteReport bool
	runMetricsAddr string
	runSeed        int64
	runVerbose     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a consensus discussion",
	Long: `Run a bounded multi-round discussion among the selected roles until they
reach consensus on the subject or the round limit is hit. Service calls go
through the resilient gateway; failed calls degrade through the fallback
chain, so a discussion always completes.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runSubject, "subject", "s", "", "topic under discussion (required)")
	runCmd.Flags().StringVar(&runConstraints, "constraints", "", "constraints the proposal must respect")
	runCmd.Flags().StringVarP(&runRolePattern, "roles", "r", "", "glob selecting roles by name or specialty (default: all)")
	runCmd.Flags().IntVar(&runRounds, "rounds", 0, "override discussion.max_rounds")
	runCmd.Flags().Float64Var(&runThreshold, "threshold", -1, "override discussion.consensus_threshold")
	runCmd.Flags().BoolVar(&runWriteReport, "report", false, "write a markdown report to the report directory")
	runCmd.Flags().StringVar(&runMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "override simulator.seed for reproducible runs")
	runCmd.Flags().BoolVar(&runVerbose, "verbose", false, "print resilience events as they happen")
	_ = runCmd.MarkFlagRequired("subject")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := buildLogger(cfg)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = log.Close() }()

	bus := event.NewBus()
	if runVerbose {
		observeEvents(bus, cmd)
	}
	if runMetricsAddr != "" {
		serveMetrics(runMetricsAddr)
	}

	registry, err := buildRegistry(cfg)
	if err != nil {
		return err
	}
	selected, err := registry.Match(runRolePattern)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		return fmt.Errorf("no roles match %q; run 'parley roles' to list them", runRolePattern)
	}

	gw := gateway.New(buildSimulator(cfg, runSeed), buildLedger(cfg), breakerConfig(cfg), gatewayConfig(cfg), bus, log)
	chain := fallback.NewChain(gw, bus, log, buildProducers(cfg.Fallback.Producers)...)
	engine := discussion.NewEngine(chain, bus, log)

	engCfg := discussion.Config{
		MaxRounds:          cfg.Discussion.MaxRounds,
		ConsensusThreshold: cfg.Discussion.ConsensusThreshold,
		PerRoundTimeout:    cfg.Discussion.PerRoundTimeout(),
		MinParticipants:    cfg.Discussion.MinParticipants,
		OuterTimeout:       cfg.Discussion.OuterTimeout(),
	}
	if runRounds > 0 {
		engCfg.MaxRounds = runRounds
	}
	if runThreshold >= 0 {
		engCfg.ConsensusThreshold = runThreshold
	}

	topic := discussion.NewTopic(runSubject, runConstraints)
	disc, err := engine.RunDiscussion(cmd.Context(), topic, selected, engCfg)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), report.RenderTerminal(disc, 100))

	if runWriteReport {
		emitter := report.NewEmitter(cfg.Report.ResolveDir(), cfg.Report.TruncateContentAt)
		path, err := emitter.Write(disc)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nreport written to %s\n", path)
	}

	if !disc.Success {
		if best, ok := disc.BestRound(); ok {
			fmt.Fprintf(cmd.OutOrStdout(), "\nno consensus; best round was %d at %.0f%%\n", best.Number, best.Score*100)
		}
	}
	return nil
}

// observeEvents mirrors notable resilience events to the terminal.
func observeEvents(bus *event.Bus, cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	bus.Subscribe("service.retried", func(e event.Event) {
		ev := e.(event.ServiceCallRetriedEvent)
		fmt.Fprintf(out, "· retrying %s call (attempt %d, backing off %s)\n", ev.Service, ev.Attempt, ev.Backoff)
	})
	bus.Subscribe("circuit.state_changed", func(e event.Event) {
		ev := e.(event.CircuitStateChangedEvent)
		fmt.Fprintf(out, "· circuit for %s: %s -> %s\n", ev.Service, ev.From, ev.To)
	})
	bus.Subscribe("quota.exhausted", func(e event.Event) {
		ev := e.(event.QuotaExhaustedEvent)
		fmt.Fprintf(out, "· quota exhausted for %s (%d/%d)\n", ev.Service, ev.Used, ev.Limit)
	})
	bus.Subscribe("fallback.used", func(e event.Event) {
		ev := e.(event.FallbackUsedEvent)
		fmt.Fprintf(out, "· degraded result for %s from %s\n", ev.Service, ev.Producer)
	})
}

// serveMetrics exposes the Prometheus registry for the lifetime of the run.
func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		// The listener dies with the process; errors here only matter for
		// diagnostics and the run itself must not fail on them.
		_ = http.ListenAndServe(addr, mux)
	}()
}
