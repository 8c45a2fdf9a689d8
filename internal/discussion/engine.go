// Package discussion implements the bounded multi-round consensus engine.
//
// A discussion runs up to maxRounds rounds. Each round broadcasts a
// read-only snapshot of the conversation so far, fans participants out
// concurrently, joins them at a round barrier, scores the round and
// terminates when the score meets the configured threshold. Participant
// failures never fail the discussion; they are absorbed as abstentions.
// Retry lives entirely in the gateway below the fallback chain, never here.
package discussion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/finchly/parley/internal/errors"
	"github.com/finchly/parley/internal/event"
	"github.com/finchly/parley/internal/logging"
	"github.com/finchly/parley/internal/metrics"
	"github.com/finchly/parley/internal/roles"
)

// Default engine configuration values.
const (
	DefaultMaxRounds          = 3
	DefaultConsensusThreshold = 0.75
	DefaultPerRoundTimeout    = 30 * time.Second
	DefaultMinParticipants    = 2
)

// Config bounds a discussion run.
type Config struct {
	// MaxRounds is the round bound. Values below 1 fall back to the default.
	MaxRounds int
	// ConsensusThreshold is the score, in [0,1], at which the discussion
	// terminates early with success.
	ConsensusThreshold float64
	// PerRoundTimeout converts participants still running at the round
	// deadline into abstentions. Zero disables the per-round deadline.
	PerRoundTimeout time.Duration
	// MinParticipants is the minimum number of roles required to start.
	MinParticipants int
	// OuterTimeout optionally bounds the whole discussion. Zero means no
	// outer deadline beyond the caller's context.
	OuterTimeout time.Duration
}

// DefaultConfig returns the standard discussion configuration.
func DefaultConfig() Config {
	return Config{
		MaxRounds:          DefaultMaxRounds,
		ConsensusThreshold: DefaultConsensusThreshold,
		PerRoundTimeout:    DefaultPerRoundTimeout,
		MinParticipants:    DefaultMinParticipants,
	}
}

// withDefaults fills zero values without touching explicit settings.
func (c Config) withDefaults() Config {
	if c.MaxRounds < 1 {
		c.MaxRounds = DefaultMaxRounds
	}
	if c.ConsensusThreshold < 0 {
		c.ConsensusThreshold = 0
	}
	if c.ConsensusThreshold > 1 {
		c.ConsensusThreshold = 1
	}
	return c
}

// Engine runs consensus discussions. It is stateless between runs and safe
// for concurrent use.
type Engine struct {
	resolver Resolver
	bus      *event.Bus
	log      *logging.Logger
}

// NewEngine creates a discussion engine. The bus may be nil, the logger
// must not be.
func NewEngine(resolver Resolver, bus *event.Bus, log *logging.Logger) *Engine {
	return &Engine{resolver: resolver, bus: bus, log: log}
}

// RunDiscussion runs a bounded consensus discussion among the given roles.
// It returns an error only for precondition violations: no roles, or fewer
// roles than the configured minimum. Every other failure mode, including
// every participant failing every round, still yields a Discussion.
func (e *Engine) RunDiscussion(ctx context.Context, topic Topic, participants []roles.Role, cfg Config) (*Discussion, error) {
	cfg = cfg.withDefaults()

	if len(participants) == 0 {
		return nil, errors.NewDiscussionError("cannot start", errors.ErrNoParticipants).WithTopic(topic.ID)
	}
	if len(participants) < cfg.MinParticipants {
		return nil, errors.NewDiscussionError(
			fmt.Sprintf("got %d participants, need at least %d", len(participants), cfg.MinParticipants),
			errors.ErrTooFewParticipants,
		).WithTopic(topic.ID)
	}

	if cfg.OuterTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.OuterTimeout)
		defer cancel()
	}

	disc := &Discussion{
		ID:        uuid.NewString(),
		Topic:     topic,
		StartedAt: time.Now(),
	}
	speakers := make([]*participant, 0, len(participants))
	for _, role := range participants {
		disc.Participants = append(disc.Participants, role.Name)
		speakers = append(speakers, newParticipant(role, e.resolver))
	}

	log := e.log.WithDiscussion(disc.ID)
	log.Info("discussion started",
		"subject", topic.Subject,
		"participants", len(speakers),
		"max_rounds", cfg.MaxRounds,
		"threshold", cfg.ConsensusThreshold)
	e.publish(event.NewDiscussionStartedEvent(disc.ID, topic.Subject, disc.Participants, cfg.MaxRounds))

	for r := 1; r <= cfg.MaxRounds; r++ {
		round := e.runRound(ctx, topic, speakers, r, historyOf(disc.Rounds), cfg.PerRoundTimeout)
		disc.Rounds = append(disc.Rounds, round)

		agreed, _, abstained := round.Counts()
		metrics.RoundsTotal.Inc()
		metrics.ConsensusScore.Set(round.Score)
		log.WithRound(r).Info("round closed",
			"score", round.Score,
			"agreed", agreed,
			"abstained", abstained)
		e.publish(event.NewRoundClosedEvent(disc.ID, r, round.Score, agreed, abstained))

		if round.Score >= cfg.ConsensusThreshold {
			e.publish(event.NewConsensusReachedEvent(disc.ID, r, round.Score))
			break
		}
		if ctx.Err() != nil && r < cfg.MaxRounds {
			disc.Truncated = true
			log.Warn("discussion truncated by deadline", "rounds_completed", r)
			break
		}
	}

	final := disc.Rounds[len(disc.Rounds)-1]
	disc.FinalScore = final.Score
	if disc.Truncated {
		// A deadline-truncated run reports the best round seen so far
		// instead of whatever partial round the deadline landed on.
		if best, ok := disc.BestRound(); ok {
			disc.FinalScore = best.Score
		}
	}
	disc.Success = disc.FinalScore >= cfg.ConsensusThreshold
	disc.Duration = time.Since(disc.StartedAt)

	log.Info("discussion finished",
		"success", disc.Success,
		"final_score", disc.FinalScore,
		"rounds", len(disc.Rounds),
		"duration", disc.Duration.String())
	e.publish(event.NewDiscussionFinishedEvent(disc.ID, disc.Success, disc.FinalScore, len(disc.Rounds), disc.Duration))

	return disc, nil
}

// runRound fans the participants out concurrently and joins them at the
// round barrier. Participants still running at the deadline become
// abstentions with empty content; their results, if they arrive later, are
// discarded because the round has already closed.
func (e *Engine) runRound(ctx context.Context, topic Topic, speakers []*participant, number int, history string, timeout time.Duration) Round {
	roundCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		roundCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	// Buffered so stragglers finishing after the barrier never block.
	results := make(chan Message, len(speakers))
	for _, sp := range speakers {
		go func(sp *participant) {
			results <- sp.speak(roundCtx, topic, number, history)
		}(sp)
	}

	return closeRound(roundCtx, number, speakers, results)
}

// closeRound joins the fanned-out participants at the round barrier. When
// the deadline fires it drains results already buffered, so a participant
// that finished in time is never recorded as an abstention just because
// select picked the Done branch first.
func closeRound(roundCtx context.Context, number int, speakers []*participant, results <-chan Message) Round {
	round := Round{Number: number}
	answered := make(map[string]bool, len(speakers))
	record := func(msg Message) {
		round.Messages = append(round.Messages, msg)
		answered[msg.Participant] = true
	}

collect:
	for i := 0; i < len(speakers); i++ {
		select {
		case msg := <-results:
			record(msg)
		case <-roundCtx.Done():
			for len(answered) < len(speakers) {
				select {
				case msg := <-results:
					record(msg)
				default:
					break collect
				}
			}
			break collect
		}
	}

	now := time.Now()
	for _, sp := range speakers {
		if answered[sp.role.Name] {
			continue
		}
		round.Messages = append(round.Messages, Message{
			Participant: sp.role.Name,
			Round:       number,
			Stance:      StanceAbstain,
			Timestamp:   now,
		})
	}

	round.Score = scoreRound(round.Messages)
	return round
}

// historyOf renders the closed rounds as the read-only context snapshot
// broadcast to every participant at the start of the next round.
func historyOf(rounds []Round) string {
	if len(rounds) == 0 {
		return "(no prior rounds)"
	}
	var sb strings.Builder
	for _, r := range rounds {
		for _, m := range r.Messages {
			fmt.Fprintf(&sb, "[round %d] %s (%s): %s\n", r.Number, m.Participant, m.Stance, m.Content)
		}
	}
	return sb.String()
}

func (e *Engine) publish(ev event.Event) {
	if e.bus != nil {
		e.bus.Publish(ev)
	}
}
