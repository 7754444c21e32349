package sim

import (
	"errors"
	"fmt"
)

// ConfigurationError reports invalid wiring of networks, states, queues or
// events. It is fatal: the caller has built an impossible simulation and
// retrying cannot help.
type ConfigurationError struct {
	Msg string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string { return "configuration error: " + e.Msg }

// NewConfigurationError builds a ConfigurationError from a format string.
func NewConfigurationError(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// IsConfigurationError reports whether err is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// KnowledgeError reports a violated knowledge contract: a must-exist read
// that found nothing, or a write that would silently overwrite.
type KnowledgeError struct {
	Msg string
}

// Error implements the error interface.
func (e *KnowledgeError) Error() string { return "knowledge error: " + e.Msg }

// NewKnowledgeError builds a KnowledgeError from a format string.
func NewKnowledgeError(format string, args ...any) *KnowledgeError {
	return &KnowledgeError{Msg: fmt.Sprintf(format, args...)}
}

// IsKnowledgeError reports whether err is or wraps a KnowledgeError.
func IsKnowledgeError(err error) bool {
	var ke *KnowledgeError
	return errors.As(err, &ke)
}

// SimulationError reports misuse of the kernel at run time, such as
// succeeding an already succeeded event or interrupting a task that is not
// suspended.
type SimulationError struct {
	Msg string
}

// Error implements the error interface.
func (e *SimulationError) Error() string { return "simulation error: " + e.Msg }

// NewSimulationError builds a SimulationError from a format string.
func NewSimulationError(format string, args ...any) *SimulationError {
	return &SimulationError{Msg: fmt.Sprintf(format, args...)}
}

// IsSimulationError reports whether err is or wraps a SimulationError.
func IsSimulationError(err error) bool {
	var se *SimulationError
	return errors.As(err, &se)
}
