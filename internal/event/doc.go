// Package event provides a pub-sub event bus for decoupled observation of
// discussions and service calls in Parley.
//
// The engine and gateway publish events rather than invoking observers
// directly, so reporting, logging and metrics can attach without the core
// components knowing about them. Publishing happens only outside locked
// sections; in particular, the discussion engine publishes RoundClosedEvent
// strictly after the round is closed and immutable.
//
// # Main Types
//
//   - [Event]: Interface all events implement, providing EventType() and Timestamp()
//   - [Bus]: Synchronous pub-sub dispatcher, safe for concurrent use
//   - [Handler]: Function type for event handlers (func(Event))
//
// # Event Categories
//
// Discussion lifecycle:
//   - [DiscussionStartedEvent], [RoundClosedEvent], [ConsensusReachedEvent],
//     [DiscussionFinishedEvent]
//
// Service resilience:
//   - [ServiceCallRetriedEvent], [ServiceCallFailedEvent],
//     [CircuitStateChangedEvent], [QuotaExhaustedEvent], [FallbackUsedEvent]
//
// # Thread Safety
//
// The [Bus] is safe for concurrent use. Handlers run synchronously in the
// publisher's goroutine; a panicking handler is recovered and logged so it
// cannot block delivery to the remaining handlers.
package event
