package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrMalformedGrid indicates bathymetry that fails shape or consistency checks.
	ErrMalformedGrid = errors.New("dynamo: malformed bathymetry grid")

	// ErrEmptyDomain indicates a mesh with no interior sea cell.
	ErrEmptyDomain = errors.New("dynamo: no simulatable cells in domain")

	// ErrInvalidConfiguration indicates a run configuration rejected before stepping.
	ErrInvalidConfiguration = errors.New("dynamo: invalid run configuration")

	// ErrNumericalInstability indicates the state diverged during stepping.
	ErrNumericalInstability = errors.New("dynamo: simulation unstable (state diverged)")

	// ErrAborted indicates the run was interrupted between steps.
	ErrAborted = errors.New("dynamo: simulation canceled by context")

	// ErrDimensionMismatch indicates a state sized for a different mesh.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and mesh")
)

type MalformedGridError struct {
	Reason string
}

func (e *MalformedGridError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMalformedGrid, e.Reason)
}

func (e *MalformedGridError) Unwrap() error {
	return ErrMalformedGrid
}

func Malformedf(format string, args ...any) error {
	return &MalformedGridError{Reason: fmt.Sprintf(format, args...)}
}

type EmptyDomainError struct {
	Reason string
}

func (e *EmptyDomainError) Error() string {
	return fmt.Sprintf("%s: %s", ErrEmptyDomain, e.Reason)
}

func (e *EmptyDomainError) Unwrap() error {
	return ErrEmptyDomain
}

// InvalidConfigurationError names the offending setting.
type InvalidConfigurationError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidConfiguration, e.Field, e.Reason)
}

func (e *InvalidConfigurationError) Unwrap() error {
	return ErrInvalidConfiguration
}

func Invalidf(field, format string, args ...any) error {
	return &InvalidConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// NumericalInstabilityError reports the first offending value found in a
// candidate state. LastStableStep is the last committed step.
type NumericalInstabilityError struct {
	LastStableStep int
	Time           float64
	Field          string
	Cell           int
	Value          float64
}

func (e *NumericalInstabilityError) Error() string {
	return fmt.Sprintf("%s: %s[%d] = %g after step %d (t=%.1fs)",
		ErrNumericalInstability, e.Field, e.Cell, e.Value, e.LastStableStep, e.Time)
}

func (e *NumericalInstabilityError) Unwrap() error {
	return ErrNumericalInstability
}
