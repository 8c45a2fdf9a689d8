package gateway

import (
	"context"
	"time"

	"github.com/finchly/parley/internal/errors"
)

// ServiceClass identifies a class of external generative service.
type ServiceClass string

const (
	ServiceScript ServiceClass = "script"
	ServiceVideo  ServiceClass = "video"
	ServiceSpeech ServiceClass = "speech"
	ServiceImage  ServiceClass = "image"
)

// AllServiceClasses returns every known service class.
func AllServiceClasses() []ServiceClass {
	return []ServiceClass{ServiceScript, ServiceVideo, ServiceSpeech, ServiceImage}
}

// Request is the unit of work submitted to the gateway.
type Request struct {
	// Payload is the opaque request body forwarded to the invoker.
	Payload string
	// Units is the quota cost of the call. Zero is treated as one unit.
	Units int64
}

// Cost returns the quota cost of the request.
func (r Request) Cost() int64 {
	if r.Units <= 0 {
		return 1
	}
	return r.Units
}

// Attempt records the outcome of one invocation attempt.
type Attempt struct {
	Number   int
	Duration time.Duration
	Err      string
	Class    errors.Class // empty on success
}

// Result carries either a success payload or a classified failure, along
// with the per-attempt record.
type Result struct {
	Payload  string
	Err      error
	Class    errors.Class // empty on success
	Attempts []Attempt
}

// Succeeded reports whether the call produced a payload.
func (r Result) Succeeded() bool { return r.Err == nil }

// Invoker is the consumed contract to the real generative services, which
// are out of scope. Implementations return the response payload or an error
// the gateway classifies via errors.Classify.
type Invoker interface {
	Invoke(ctx context.Context, class ServiceClass, payload string) (string, error)
}

// InvokerFunc adapts a function to the Invoker interface.
type InvokerFunc func(ctx context.Context, class ServiceClass, payload string) (string, error)

// Invoke calls f.
func (f InvokerFunc) Invoke(ctx context.Context, class ServiceClass, payload string) (string, error) {
	return f(ctx, class, payload)
}
