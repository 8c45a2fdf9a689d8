// Package errors provides centralized error definitions and classification
// for the Parley codebase. It defines the failure taxonomy used by the AI
// service gateway, sentinel errors for the resilience components, and
// classification helpers that turn arbitrary errors into a small decision
// enum.
//
// # Failure Classes
//
// Every failed service call collapses into one of four classes:
//   - ClassTransient: network errors, timeouts, 5xx responses; safe to retry
//   - ClassQuotaExceeded: a configured consumption limit was hit; never retried
//   - ClassPolicyRejected: content-safety rejection; never retried with the same payload
//   - ClassPermanent: everything else; never retried
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewServiceError(errors.ClassTransient, "upstream timeout", cause).
//		WithService("script").
//		WithAttempt(2)
//
// Checking errors:
//
//	if errors.Classify(err) == errors.ClassTransient { ... }
//	if errors.IsRetryable(err) { ... }
//	if errors.Is(err, errors.ErrCircuitOpen) { ... }
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Class partitions service-call failures by how the gateway must react.
type Class string

const (
	// ClassTransient marks failures that may succeed on retry.
	ClassTransient Class = "transient"
	// ClassQuotaExceeded marks failures caused by a consumption limit.
	ClassQuotaExceeded Class = "quota_exceeded"
	// ClassPolicyRejected marks content-safety rejections.
	ClassPolicyRejected Class = "policy_rejected"
	// ClassPermanent marks failures that will not succeed on retry.
	ClassPermanent Class = "permanent"
)

// String returns the wire representation of the class.
func (c Class) String() string { return string(c) }

// Retryable reports whether the gateway may retry a failure of this class.
// Only transient failures are retryable; quota and policy failures are hard
// stops by design.
func (c Class) Retryable() bool { return c == ClassTransient }

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Gateway and resilience sentinel errors
var (
	// ErrCircuitOpen indicates the circuit breaker rejected the call without
	// attempting it.
	ErrCircuitOpen = New("circuit breaker is open")
	// ErrQuotaExhausted indicates the quota ledger rejected the reservation.
	ErrQuotaExhausted = New("service quota exhausted")
	// ErrPolicyRejected indicates the upstream service refused the payload on
	// content-safety grounds.
	ErrPolicyRejected = New("request rejected by content policy")
	// ErrRateLimited indicates the upstream service reported a rate limit.
	ErrRateLimited = New("rate limited by upstream service")
)

// Discussion sentinel errors
var (
	// ErrNoParticipants indicates a discussion was started with no roles.
	ErrNoParticipants = New("no participants supplied")
	// ErrTooFewParticipants indicates fewer roles than the configured minimum.
	ErrTooFewParticipants = New("fewer participants than required minimum")
	// ErrRoundTimeout indicates a participant did not answer within the round
	// deadline.
	ErrRoundTimeout = New("round deadline exceeded")
)

// -----------------------------------------------------------------------------
// ServiceError
// -----------------------------------------------------------------------------

// ServiceError represents a classified failure of an external service call.
//
// Example:
//
//	err := errors.NewServiceError(errors.ClassTransient, "connection reset", cause)
//	err = err.WithService("video").WithAttempt(3)
//	fmt.Println(err) // "service error [service=video, attempt=3, class=transient]: connection reset: ..."
type ServiceError struct {
	Class   Class
	Service string
	Attempt int
	message string
	cause   error
}

// NewServiceError creates a new ServiceError with the given class.
func NewServiceError(class Class, message string, cause error) *ServiceError {
	return &ServiceError{
		Class:   class,
		message: message,
		cause:   cause,
	}
}

// WithService adds the service class name to the error context.
func (e *ServiceError) WithService(service string) *ServiceError {
	e.Service = service
	return e
}

// WithAttempt records which attempt produced the error.
func (e *ServiceError) WithAttempt(attempt int) *ServiceError {
	e.Attempt = attempt
	return e
}

// Error returns the formatted error message.
func (e *ServiceError) Error() string {
	var parts []string
	if e.Service != "" {
		parts = append(parts, fmt.Sprintf("service=%s", e.Service))
	}
	if e.Attempt > 0 {
		parts = append(parts, fmt.Sprintf("attempt=%d", e.Attempt))
	}
	parts = append(parts, fmt.Sprintf("class=%s", e.Class))

	prefix := fmt.Sprintf("service error [%s]", strings.Join(parts, ", "))
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error { return e.cause }

// Is matches any *ServiceError, or defers to the cause.
func (e *ServiceError) Is(target error) bool {
	if _, ok := target.(*ServiceError); ok {
		return true
	}
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// -----------------------------------------------------------------------------
// DiscussionError
// -----------------------------------------------------------------------------

// DiscussionError represents a precondition violation when starting a
// discussion. Runtime participant failures never surface as errors; they are
// absorbed as abstaining votes.
type DiscussionError struct {
	TopicID string
	message string
	cause   error
}

// NewDiscussionError creates a new DiscussionError.
func NewDiscussionError(message string, cause error) *DiscussionError {
	return &DiscussionError{message: message, cause: cause}
}

// WithTopic adds the topic ID to the error context.
func (e *DiscussionError) WithTopic(id string) *DiscussionError {
	e.TopicID = id
	return e
}

// Error returns the formatted error message.
func (e *DiscussionError) Error() string {
	prefix := "discussion error"
	if e.TopicID != "" {
		prefix = fmt.Sprintf("discussion error [topic=%s]", e.TopicID)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Unwrap returns the underlying error.
func (e *DiscussionError) Unwrap() error { return e.cause }

// Is matches any *DiscussionError, or defers to the cause.
func (e *DiscussionError) Is(target error) bool {
	if _, ok := target.(*DiscussionError); ok {
		return true
	}
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// -----------------------------------------------------------------------------
// Classification
// -----------------------------------------------------------------------------

// Classify maps an arbitrary error onto the failure taxonomy. The mapping is
// a pure decision function so retryability stays independent of control flow:
//   - nil never reaches here in practice but maps to permanent defensively
//   - a ServiceError keeps its own class
//   - rate-limit and quota sentinels map to quota_exceeded
//   - content-safety sentinels map to policy_rejected
//   - context deadline/cancellation, net errors and timeouts map to transient
//   - everything else maps to permanent
func Classify(err error) Class {
	if err == nil {
		return ClassPermanent
	}

	var svcErr *ServiceError
	if As(err, &svcErr) {
		return svcErr.Class
	}

	switch {
	case Is(err, ErrRateLimited), Is(err, ErrQuotaExhausted):
		return ClassQuotaExceeded
	case Is(err, ErrPolicyRejected):
		return ClassPolicyRejected
	case Is(err, ErrCircuitOpen):
		return ClassTransient
	case Is(err, context.DeadlineExceeded), Is(err, context.Canceled):
		return ClassTransient
	}

	var netErr net.Error
	if As(err, &netErr) {
		return ClassTransient
	}

	return ClassPermanent
}

// IsRetryable reports whether the gateway may retry the operation that
// produced err.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return Classify(err).Retryable()
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
