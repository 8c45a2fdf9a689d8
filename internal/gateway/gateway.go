// Package gateway provides the single entry point for invoking external
// generative services. Every call is composed with quota accounting, a
// per-service circuit breaker, and timed retry with exponential backoff,
// so participants never talk to an upstream service directly.
//
// The gateway recovers transient failures locally via retry. It never
// recovers quota, policy or permanent failures, and it never invokes
// fallback producers; degraded resolution is the fallback package's
// concern.
package gateway

import (
	"context"
	"math/rand"
	"time"

	"github.com/finchly/parley/internal/breaker"
	"github.com/finchly/parley/internal/errors"
	"github.com/finchly/parley/internal/event"
	"github.com/finchly/parley/internal/logging"
	"github.com/finchly/parley/internal/metrics"
	"github.com/finchly/parley/internal/quota"
)

// Config holds retry and timeout settings for the gateway.
type Config struct {
	// RetryAttempts is the maximum number of invocation attempts per call.
	RetryAttempts int
	// BackoffBase is the delay before the first retry.
	BackoffBase time.Duration
	// BackoffMultiplier scales the delay between successive retries.
	BackoffMultiplier float64
	// CallTimeout bounds each individual attempt. Zero means no per-attempt
	// bound beyond the caller's context.
	CallTimeout time.Duration
}

// DefaultConfig returns gateway defaults.
func DefaultConfig() Config {
	return Config{
		RetryAttempts:     3,
		BackoffBase:       time.Second,
		BackoffMultiplier: 2.0,
		CallTimeout:       30 * time.Second,
	}
}

// Gateway composes the quota ledger, per-service circuit breakers and the
// retry loop in front of an Invoker. It is safe for concurrent use; the
// ledger and breakers carry all shared state.
type Gateway struct {
	config   Config
	invoker  Invoker
	ledger   *quota.Ledger
	breakers map[ServiceClass]*breaker.Breaker
	bus      *event.Bus
	log      *logging.Logger

	// sleep is injectable so tests can skip real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Gateway. One breaker per service class is constructed from
// breakerCfg; state transitions are published on the bus. The bus may be
// nil, the logger must not be.
func New(invoker Invoker, ledger *quota.Ledger, breakerCfg breaker.Config, config Config, bus *event.Bus, log *logging.Logger) *Gateway {
	if config.RetryAttempts < 1 {
		config.RetryAttempts = 1
	}
	if config.BackoffMultiplier < 1 {
		config.BackoffMultiplier = 2.0
	}

	g := &Gateway{
		config:   config,
		invoker:  invoker,
		ledger:   ledger,
		breakers: make(map[ServiceClass]*breaker.Breaker, len(AllServiceClasses())),
		bus:      bus,
		log:      log,
		sleep:    sleepContext,
	}

	for _, class := range AllServiceClasses() {
		class := class
		br := breaker.New(breakerCfg)
		br.OnStateChange = func(from, to breaker.State) {
			metrics.BreakerState.WithLabelValues(string(class)).Set(metrics.BreakerStateValue(string(to)))
			g.log.WithService(string(class)).Warn("circuit breaker state changed",
				"from", string(from), "to", string(to))
			if g.bus != nil {
				g.bus.Publish(event.NewCircuitStateChangedEvent(string(class), string(from), string(to)))
			}
		}
		g.breakers[class] = br
	}

	return g
}

// Breaker returns the breaker guarding the given service class.
func (g *Gateway) Breaker(class ServiceClass) *breaker.Breaker {
	return g.breakers[class]
}

// Usage returns the quota view for the given service class.
func (g *Gateway) Usage(class ServiceClass) quota.Usage {
	return g.ledger.Usage(string(class))
}

// Call submits a request to the given service class.
//
// Sequence: circuit breaker fast-fail, quota reservation, then a bounded
// retry loop with exponential backoff and jitter. Transient failures are
// retried; quota, policy and permanent failures abort immediately. On
// success the breaker resets and the quota reservation is kept; on failure
// the breaker records the failure and the reservation is released.
func (g *Gateway) Call(ctx context.Context, class ServiceClass, req Request) Result {
	log := g.log.WithService(string(class))
	br := g.breakers[class]

	if err := br.Allow(); err != nil {
		log.Debug("call rejected by open circuit")
		return g.fail(class, Result{
			Err:   errors.NewServiceError(errors.ClassTransient, "circuit open", err).WithService(string(class)),
			Class: errors.ClassTransient,
		})
	}

	cost := req.Cost()
	if !g.ledger.TryReserve(string(class), cost) {
		// The call is abandoned before invocation; give back any half-open
		// probe slot Allow handed us, or the breaker never leaves half-open.
		br.CancelProbe()
		usage := g.ledger.Usage(string(class))
		log.Warn("quota exhausted", "used", usage.Used, "limit", usage.Limit)
		if g.bus != nil {
			g.bus.Publish(event.NewQuotaExhaustedEvent(string(class), usage.Used, usage.Limit))
		}
		return g.fail(class, Result{
			Err:   errors.NewServiceError(errors.ClassQuotaExceeded, "quota exhausted", errors.ErrQuotaExhausted).WithService(string(class)),
			Class: errors.ClassQuotaExceeded,
		})
	}
	metrics.QuotaUsed.WithLabelValues(string(class)).Set(float64(g.ledger.Usage(string(class)).Used))

	var attempts []Attempt
	var lastErr error
	var lastClass errors.Class

	for attempt := 1; attempt <= g.config.RetryAttempts; attempt++ {
		metrics.AttemptsTotal.WithLabelValues(string(class)).Inc()
		start := time.Now()
		payload, err := g.invoke(ctx, class, req.Payload)
		elapsed := time.Since(start)

		if err == nil {
			attempts = append(attempts, Attempt{Number: attempt, Duration: elapsed})
			br.RecordSuccess()
			metrics.CallsTotal.WithLabelValues(string(class), "success").Inc()
			log.Debug("call succeeded", "attempt", attempt, "duration_ms", elapsed.Milliseconds())
			return Result{Payload: payload, Attempts: attempts}
		}

		lastErr = err
		lastClass = errors.Classify(err)
		attempts = append(attempts, Attempt{
			Number:   attempt,
			Duration: elapsed,
			Err:      err.Error(),
			Class:    lastClass,
		})

		if !lastClass.Retryable() || attempt == g.config.RetryAttempts {
			break
		}

		delay := g.backoff(attempt)
		log.Debug("retrying after transient failure",
			"attempt", attempt, "backoff_ms", delay.Milliseconds(), "error", err.Error())
		metrics.RetriesTotal.WithLabelValues(string(class)).Inc()
		if g.bus != nil {
			g.bus.Publish(event.NewServiceCallRetriedEvent(string(class), attempt, delay, err.Error()))
		}
		if err := g.sleep(ctx, delay); err != nil {
			lastErr = err
			lastClass = errors.ClassTransient
			break
		}
	}

	br.RecordFailure()
	g.ledger.Release(string(class), cost)
	metrics.QuotaUsed.WithLabelValues(string(class)).Set(float64(g.ledger.Usage(string(class)).Used))

	svcErr := errors.NewServiceError(lastClass, "call failed", lastErr).
		WithService(string(class)).
		WithAttempt(len(attempts))
	log.Warn("call failed", "class", lastClass.String(), "attempts", len(attempts), "error", lastErr.Error())

	return g.fail(class, Result{Err: svcErr, Class: lastClass, Attempts: attempts})
}

// invoke runs a single attempt, applying the per-attempt timeout.
func (g *Gateway) invoke(ctx context.Context, class ServiceClass, payload string) (string, error) {
	if g.config.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.CallTimeout)
		defer cancel()
	}
	return g.invoker.Invoke(ctx, class, payload)
}

// backoff computes the jittered delay before retrying after the given
// attempt. Jitter spreads concurrent retries across half the nominal delay.
func (g *Gateway) backoff(attempt int) time.Duration {
	delay := float64(g.config.BackoffBase)
	for i := 1; i < attempt; i++ {
		delay *= g.config.BackoffMultiplier
	}
	half := delay / 2
	return time.Duration(half + rand.Float64()*half)
}

// fail publishes the failure event and records metrics before returning.
func (g *Gateway) fail(class ServiceClass, res Result) Result {
	metrics.CallsTotal.WithLabelValues(string(class), res.Class.String()).Inc()
	if g.bus != nil {
		g.bus.Publish(event.NewServiceCallFailedEvent(string(class), res.Class.String(), len(res.Attempts), res.Err.Error()))
	}
	return res
}

// sleepContext waits for d or until the context is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
