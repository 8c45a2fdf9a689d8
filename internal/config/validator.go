package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "discussion.max_rounds")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateDiscussion()...)
	errors = append(errors, c.validateGateway()...)
	errors = append(errors, c.validateCircuit()...)
	errors = append(errors, c.validateQuota()...)
	errors = append(errors, c.validateFallback()...)
	errors = append(errors, c.validateReport()...)
	errors = append(errors, c.validateSimulator()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validateDiscussion validates the DiscussionConfig
func (c *Config) validateDiscussion() []ValidationError {
	var errors []ValidationError

	if c.Discussion.MaxRounds < 1 {
		errors = append(errors, ValidationError{
			Field:   "discussion.max_rounds",
			Value:   c.Discussion.MaxRounds,
			Message: "must be at least 1",
		})
	}

	if c.Discussion.ConsensusThreshold < 0 || c.Discussion.ConsensusThreshold > 1 {
		errors = append(errors, ValidationError{
			Field:   "discussion.consensus_threshold",
			Value:   c.Discussion.ConsensusThreshold,
			Message: "must be in [0, 1]",
		})
	}

	if c.Discussion.PerRoundTimeoutSeconds < 0 {
		errors = append(errors, ValidationError{
			Field:   "discussion.per_round_timeout_seconds",
			Value:   c.Discussion.PerRoundTimeoutSeconds,
			Message: "must be non-negative",
		})
	}

	if c.Discussion.MinParticipants < 1 {
		errors = append(errors, ValidationError{
			Field:   "discussion.min_participants",
			Value:   c.Discussion.MinParticipants,
			Message: "must be at least 1",
		})
	}

	if c.Discussion.OuterTimeoutSeconds < 0 {
		errors = append(errors, ValidationError{
			Field:   "discussion.outer_timeout_seconds",
			Value:   c.Discussion.OuterTimeoutSeconds,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateGateway validates the GatewayConfig
func (c *Config) validateGateway() []ValidationError {
	var errors []ValidationError

	if c.Gateway.RetryAttempts < 1 {
		errors = append(errors, ValidationError{
			Field:   "gateway.retry_attempts",
			Value:   c.Gateway.RetryAttempts,
			Message: "must be at least 1",
		})
	}

	if c.Gateway.BackoffBaseMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "gateway.backoff_base_ms",
			Value:   c.Gateway.BackoffBaseMs,
			Message: "must be non-negative",
		})
	}

	if c.Gateway.BackoffMultiplier < 1 {
		errors = append(errors, ValidationError{
			Field:   "gateway.backoff_multiplier",
			Value:   c.Gateway.BackoffMultiplier,
			Message: "must be at least 1",
		})
	}

	if c.Gateway.CallTimeoutSeconds < 0 {
		errors = append(errors, ValidationError{
			Field:   "gateway.call_timeout_seconds",
			Value:   c.Gateway.CallTimeoutSeconds,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateCircuit validates the CircuitConfig
func (c *Config) validateCircuit() []ValidationError {
	var errors []ValidationError

	if c.Circuit.FailureThreshold < 1 {
		errors = append(errors, ValidationError{
			Field:   "circuit.failure_threshold",
			Value:   c.Circuit.FailureThreshold,
			Message: "must be at least 1",
		})
	}

	if c.Circuit.RecoveryTimeoutSeconds < 1 {
		errors = append(errors, ValidationError{
			Field:   "circuit.recovery_timeout_seconds",
			Value:   c.Circuit.RecoveryTimeoutSeconds,
			Message: "must be at least 1",
		})
	}

	return errors
}

// validateQuota validates the per-service quota limits
func (c *Config) validateQuota() []ValidationError {
	var errors []ValidationError

	for class, q := range c.Quota {
		if q.Limit < 0 {
			errors = append(errors, ValidationError{
				Field:   "quota." + class + ".limit",
				Value:   q.Limit,
				Message: "must be non-negative (0 = unlimited)",
			})
		}
		if q.WindowMinutes < 1 {
			errors = append(errors, ValidationError{
				Field:   "quota." + class + ".window_minutes",
				Value:   q.WindowMinutes,
				Message: "must be at least 1",
			})
		}
	}

	return errors
}

// validateFallback validates the FallbackConfig
func (c *Config) validateFallback() []ValidationError {
	var errors []ValidationError

	for _, p := range c.Fallback.Producers {
		if !IsValidProducer(p) {
			errors = append(errors, ValidationError{
				Field:   "fallback.producers",
				Value:   p,
				Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidProducers(), ", ")),
			})
		}
	}

	return errors
}

// validateReport validates the ReportConfig
func (c *Config) validateReport() []ValidationError {
	var errors []ValidationError

	if c.Report.TruncateContentAt < 0 {
		errors = append(errors, ValidationError{
			Field:   "report.truncate_content_at",
			Value:   c.Report.TruncateContentAt,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateSimulator validates the SimulatorConfig
func (c *Config) validateSimulator() []ValidationError {
	var errors []ValidationError

	if c.Simulator.AgreeBias < 0 || c.Simulator.AgreeBias > 1 {
		errors = append(errors, ValidationError{
			Field:   "simulator.agree_bias",
			Value:   c.Simulator.AgreeBias,
			Message: "must be in [0, 1]",
		})
	}

	if c.Simulator.TransientRate < 0 || c.Simulator.TransientRate >= 1 {
		errors = append(errors, ValidationError{
			Field:   "simulator.transient_rate",
			Value:   c.Simulator.TransientRate,
			Message: "must be in [0, 1)",
		})
	}

	if c.Simulator.LatencyMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "simulator.latency_ms",
			Value:   c.Simulator.LatencyMs,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" {
		valid := false
		for _, level := range ValidLogLevels() {
			if strings.EqualFold(c.Logging.Level, level) {
				valid = true
				break
			}
		}
		if !valid {
			errors = append(errors, ValidationError{
				Field:   "logging.level",
				Value:   c.Logging.Level,
				Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
			})
		}
	}

	if c.Logging.MaxSizeMB < 1 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be at least 1",
		})
	}

	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}
