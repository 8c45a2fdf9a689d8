package errors

import (
	"context"
	"fmt"
	"net"
	"strings"
	"testing"
)

func TestClassRetryable(t *testing.T) {
	tests := []struct {
		class Class
		want  bool
	}{
		{ClassTransient, true},
		{ClassQuotaExceeded, false},
		{ClassPolicyRejected, false},
		{ClassPermanent, false},
	}

	for _, tt := range tests {
		t.Run(tt.class.String(), func(t *testing.T) {
			if got := tt.class.Retryable(); got != tt.want {
				t.Errorf("Retryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestServiceErrorMessage(t *testing.T) {
	err := NewServiceError(ClassTransient, "connection reset", New("read: ECONNRESET")).
		WithService("video").
		WithAttempt(3)

	msg := err.Error()
	for _, want := range []string{"service=video", "attempt=3", "class=transient", "connection reset"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}

func TestServiceErrorUnwrap(t *testing.T) {
	cause := New("boom")
	err := NewServiceError(ClassPermanent, "call failed", cause)

	if !Is(err, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}

	var svcErr *ServiceError
	wrapped := fmt.Errorf("outer: %w", err)
	if !As(wrapped, &svcErr) {
		t.Fatal("expected errors.As to find ServiceError through wrapping")
	}
	if svcErr.Class != ClassPermanent {
		t.Errorf("Class = %v, want %v", svcErr.Class, ClassPermanent)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Class
	}{
		{"nil", nil, ClassPermanent},
		{"service error keeps class", NewServiceError(ClassPolicyRejected, "refused", nil), ClassPolicyRejected},
		{"wrapped service error", fmt.Errorf("call: %w", NewServiceError(ClassQuotaExceeded, "limit", nil)), ClassQuotaExceeded},
		{"rate limited", fmt.Errorf("invoke: %w", ErrRateLimited), ClassQuotaExceeded},
		{"quota exhausted", ErrQuotaExhausted, ClassQuotaExceeded},
		{"policy rejected", fmt.Errorf("invoke: %w", ErrPolicyRejected), ClassPolicyRejected},
		{"circuit open", ErrCircuitOpen, ClassTransient},
		{"deadline", context.DeadlineExceeded, ClassTransient},
		{"canceled", context.Canceled, ClassTransient},
		{"net timeout", &net.DNSError{IsTimeout: true}, ClassTransient},
		{"unknown", New("something else"), ClassPermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(nil) {
		t.Error("nil should not be retryable")
	}
	if !IsRetryable(context.DeadlineExceeded) {
		t.Error("deadline exceeded should be retryable")
	}
	if IsRetryable(ErrPolicyRejected) {
		t.Error("policy rejection should never be retryable")
	}
}

func TestDiscussionError(t *testing.T) {
	err := NewDiscussionError("cannot start", ErrNoParticipants).WithTopic("t-1")

	if !Is(err, ErrNoParticipants) {
		t.Error("expected errors.Is to match the sentinel cause")
	}
	if !strings.Contains(err.Error(), "topic=t-1") {
		t.Errorf("Error() = %q, missing topic context", err.Error())
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) should return nil")
	}

	base := New("base")
	wrapped := Wrapf(base, "while calling %s", "script")
	if !Is(wrapped, base) {
		t.Error("expected wrapped error to match base")
	}
	if !strings.Contains(wrapped.Error(), "while calling script") {
		t.Errorf("Error() = %q, missing context", wrapped.Error())
	}
}
