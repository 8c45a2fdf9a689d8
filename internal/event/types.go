package event

import "time"

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "round.closed", "circuit.opened")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

// newBaseEvent creates a baseEvent with the current time.
func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Discussion Lifecycle Events
// -----------------------------------------------------------------------------

// DiscussionStartedEvent is emitted when the engine begins a discussion.
type DiscussionStartedEvent struct {
	baseEvent
	DiscussionID string   // Unique identifier for the discussion
	TopicSubject string   // Human-readable topic subject
	Participants []string // Role names taking part
	MaxRounds    int      // Configured round bound
}

// NewDiscussionStartedEvent creates a DiscussionStartedEvent.
func NewDiscussionStartedEvent(discussionID, subject string, participants []string, maxRounds int) DiscussionStartedEvent {
	return DiscussionStartedEvent{
		baseEvent:    newBaseEvent("discussion.started"),
		DiscussionID: discussionID,
		TopicSubject: subject,
		Participants: participants,
		MaxRounds:    maxRounds,
	}
}

// RoundClosedEvent is emitted after a round is closed and scored. The round
// is immutable by the time this event is published.
type RoundClosedEvent struct {
	baseEvent
	DiscussionID string  // Discussion the round belongs to
	Round        int     // 1-based round number
	Score        float64 // Consensus score for the round
	Agreed       int     // Count of agree stances
	Abstained    int     // Count of abstain stances
}

// NewRoundClosedEvent creates a RoundClosedEvent.
func NewRoundClosedEvent(discussionID string, round int, score float64, agreed, abstained int) RoundClosedEvent {
	return RoundClosedEvent{
		baseEvent:    newBaseEvent("round.closed"),
		DiscussionID: discussionID,
		Round:        round,
		Score:        score,
		Agreed:       agreed,
		Abstained:    abstained,
	}
}

// ConsensusReachedEvent is emitted when a round's score meets the threshold.
type ConsensusReachedEvent struct {
	baseEvent
	DiscussionID string  // Discussion that converged
	Round        int     // Round in which consensus was reached
	Score        float64 // Winning score
}

// NewConsensusReachedEvent creates a ConsensusReachedEvent.
func NewConsensusReachedEvent(discussionID string, round int, score float64) ConsensusReachedEvent {
	return ConsensusReachedEvent{
		baseEvent:    newBaseEvent("consensus.reached"),
		DiscussionID: discussionID,
		Round:        round,
		Score:        score,
	}
}

// DiscussionFinishedEvent is emitted when a discussion completes, whether or
// not consensus was reached.
type DiscussionFinishedEvent struct {
	baseEvent
	DiscussionID string        // Discussion that finished
	Success      bool          // Whether the final score met the threshold
	FinalScore   float64       // Score of the final round
	Rounds       int           // Number of rounds run
	Duration     time.Duration // Total wall-clock duration
}

// NewDiscussionFinishedEvent creates a DiscussionFinishedEvent.
func NewDiscussionFinishedEvent(discussionID string, success bool, finalScore float64, rounds int, duration time.Duration) DiscussionFinishedEvent {
	return DiscussionFinishedEvent{
		baseEvent:    newBaseEvent("discussion.finished"),
		DiscussionID: discussionID,
		Success:      success,
		FinalScore:   finalScore,
		Rounds:       rounds,
		Duration:     duration,
	}
}

// -----------------------------------------------------------------------------
// Service Resilience Events
// -----------------------------------------------------------------------------

// ServiceCallRetriedEvent is emitted before the gateway retries a transient
// failure.
type ServiceCallRetriedEvent struct {
	baseEvent
	Service string        // Service class being called
	Attempt int           // Attempt number that just failed
	Backoff time.Duration // Delay before the next attempt
	Error   string        // Failure message from the attempt
}

// NewServiceCallRetriedEvent creates a ServiceCallRetriedEvent.
func NewServiceCallRetriedEvent(service string, attempt int, backoff time.Duration, err string) ServiceCallRetriedEvent {
	return ServiceCallRetriedEvent{
		baseEvent: newBaseEvent("service.retried"),
		Service:   service,
		Attempt:   attempt,
		Backoff:   backoff,
		Error:     err,
	}
}

// ServiceCallFailedEvent is emitted when the gateway gives up on a call.
type ServiceCallFailedEvent struct {
	baseEvent
	Service  string // Service class that failed
	Class    string // Failure classification
	Attempts int    // Attempts made before giving up
	Error    string // Final failure message
}

// NewServiceCallFailedEvent creates a ServiceCallFailedEvent.
func NewServiceCallFailedEvent(service, class string, attempts int, err string) ServiceCallFailedEvent {
	return ServiceCallFailedEvent{
		baseEvent: newBaseEvent("service.failed"),
		Service:   service,
		Class:     class,
		Attempts:  attempts,
		Error:     err,
	}
}

// CircuitStateChangedEvent is emitted when a breaker transitions.
type CircuitStateChangedEvent struct {
	baseEvent
	Service string // Service class the breaker guards
	From    string // Previous state
	To      string // New state
}

// NewCircuitStateChangedEvent creates a CircuitStateChangedEvent.
func NewCircuitStateChangedEvent(service, from, to string) CircuitStateChangedEvent {
	return CircuitStateChangedEvent{
		baseEvent: newBaseEvent("circuit.state_changed"),
		Service:   service,
		From:      from,
		To:        to,
	}
}

// QuotaExhaustedEvent is emitted when the ledger rejects a reservation.
type QuotaExhaustedEvent struct {
	baseEvent
	Service string // Service class whose quota is exhausted
	Used    int64  // Units consumed in the current window
	Limit   int64  // Configured limit
}

// NewQuotaExhaustedEvent creates a QuotaExhaustedEvent.
func NewQuotaExhaustedEvent(service string, used, limit int64) QuotaExhaustedEvent {
	return QuotaExhaustedEvent{
		baseEvent: newBaseEvent("quota.exhausted"),
		Service:   service,
		Used:      used,
		Limit:     limit,
	}
}

// FallbackUsedEvent is emitted when the resolution chain produces a result
// from a degraded producer instead of the gateway.
type FallbackUsedEvent struct {
	baseEvent
	Service  string // Service class being resolved
	Producer string // Producer that supplied the result
	Attempts int    // Producers tried before this one, gateway included
}

// NewFallbackUsedEvent creates a FallbackUsedEvent.
func NewFallbackUsedEvent(service, producer string, attempts int) FallbackUsedEvent {
	return FallbackUsedEvent{
		baseEvent: newBaseEvent("fallback.used"),
		Service:   service,
		Producer:  producer,
		Attempts:  attempts,
	}
}
