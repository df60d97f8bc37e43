package landgem

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every *ValidationError via errors.Is.
	ErrValidation = errors.New("validation failed")

	// ErrConfiguration matches every *ConfigurationError via errors.Is.
	ErrConfiguration = errors.New("incomplete configuration")
)

// ValidationError reports a malformed or out-of-domain input detected before
// any computation starts.
type ValidationError struct {
	// Field names the offending input (e.g. "decay_rate", "waste_history[3].mass").
	Field string

	// Value is the rejected value, if any.
	Value any

	// Reason describes the violated constraint.
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ConfigurationError reports a structurally valid but semantically incomplete
// configuration, such as requesting NMOC without a concentration.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration %s: %s", e.Field, e.Reason)
}

// Is reports whether target is ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

func invalid(field string, value any, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

func misconfigured(field, reason string) error {
	return &ConfigurationError{Field: field, Reason: reason}
}
