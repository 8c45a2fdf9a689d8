// Package fallback provides the ordered resolution chain that guarantees a
// non-failing result for every service request.
//
// The chain tries the gateway first and then each degraded producer in
// order: enhanced simulation, basic simulation, static placeholder. The
// terminal placeholder cannot fail by construction, so Resolve always
// yields a payload. The chain is deliberately the gateway's caller, not
// part of it: retry policy and degraded production stay decoupled.
package fallback

import (
	"context"
	"time"

	"github.com/finchly/parley/internal/event"
	"github.com/finchly/parley/internal/gateway"
	"github.com/finchly/parley/internal/logging"
	"github.com/finchly/parley/internal/metrics"
)

// Producer supplies degraded output for a service class when the gateway
// has failed.
type Producer interface {
	// Name identifies the producer in attempt records and events.
	Name() string
	// Produce returns a payload for the request.
	Produce(ctx context.Context, class gateway.ServiceClass, req gateway.Request) (string, error)
}

// AttemptRecord captures one resolution attempt for observability.
type AttemptRecord struct {
	Producer  string
	Duration  time.Duration
	Err       string
	Succeeded bool
}

// Outcome is the final resolution result. Degraded is true when any
// producer other than the gateway supplied the payload.
type Outcome struct {
	Payload  string
	Producer string
	Degraded bool
	Attempts []AttemptRecord
	// Err is non-nil only if every producer failed, which a correctly
	// configured chain (ending in the placeholder) rules out.
	Err error
}

// Chain resolves requests through the gateway and an ordered list of
// degraded producers.
type Chain struct {
	gw        *gateway.Gateway
	producers []Producer
	bus       *event.Bus
	log       *logging.Logger
}

// NewChain creates a resolution chain. The bus may be nil, the logger must
// not be. Producers are tried in the order given.
func NewChain(gw *gateway.Gateway, bus *event.Bus, log *logging.Logger, producers ...Producer) *Chain {
	return &Chain{
		gw:        gw,
		producers: producers,
		bus:       bus,
		log:       log,
	}
}

// NewDefaultChain creates a chain with the standard producer order:
// enhanced simulation, basic simulation, static placeholder.
func NewDefaultChain(gw *gateway.Gateway, bus *event.Bus, log *logging.Logger) *Chain {
	return NewChain(gw, bus, log,
		NewEnhancedSim(),
		NewBasicSim(),
		NewPlaceholder(),
	)
}

// Resolve tries the gateway and then each producer in order, returning the
// first success. Every attempt is recorded in the outcome.
func (c *Chain) Resolve(ctx context.Context, class gateway.ServiceClass, req gateway.Request) Outcome {
	log := c.log.WithService(string(class))
	var attempts []AttemptRecord

	start := time.Now()
	res := c.gw.Call(ctx, class, req)
	if res.Succeeded() {
		attempts = append(attempts, AttemptRecord{
			Producer:  "gateway",
			Duration:  time.Since(start),
			Succeeded: true,
		})
		return Outcome{Payload: res.Payload, Producer: "gateway", Attempts: attempts}
	}
	attempts = append(attempts, AttemptRecord{
		Producer: "gateway",
		Duration: time.Since(start),
		Err:      res.Err.Error(),
	})
	log.Info("gateway failed, trying fallback producers", "class", res.Class.String())

	var lastErr error = res.Err
	for _, p := range c.producers {
		start := time.Now()
		payload, err := p.Produce(ctx, class, req)
		if err != nil {
			attempts = append(attempts, AttemptRecord{
				Producer: p.Name(),
				Duration: time.Since(start),
				Err:      err.Error(),
			})
			lastErr = err
			log.Warn("fallback producer failed", "producer", p.Name(), "error", err.Error())
			continue
		}

		attempts = append(attempts, AttemptRecord{
			Producer:  p.Name(),
			Duration:  time.Since(start),
			Succeeded: true,
		})
		metrics.FallbacksTotal.WithLabelValues(string(class), p.Name()).Inc()
		if c.bus != nil {
			c.bus.Publish(event.NewFallbackUsedEvent(string(class), p.Name(), len(attempts)))
		}
		log.Info("fallback produced result", "producer", p.Name())
		return Outcome{Payload: payload, Producer: p.Name(), Degraded: true, Attempts: attempts}
	}

	// Reachable only with a misconfigured chain missing the placeholder.
	return Outcome{Attempts: attempts, Err: lastErr}
}
