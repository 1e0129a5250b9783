package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for model construction and simulation.
var (
	// ErrBuild is the root of every construction failure.
	ErrBuild = errors.New("dynamo: build failed")

	// ErrDuplicateVar indicates two joint members claim the same state variable.
	ErrDuplicateVar = errors.New("dynamo: duplicate state variable")

	// ErrReservedName indicates an argument name collides with a reserved keyword.
	ErrReservedName = errors.New("dynamo: name collides with reserved keyword")

	// ErrMalformedTableau indicates inconsistent Butcher tableau dimensions.
	ErrMalformedTableau = errors.New("dynamo: malformed tableau")

	// ErrBadCoefficient indicates a coefficient that cannot be resolved.
	ErrBadCoefficient = errors.New("dynamo: unsupported coefficient")

	// ErrUnknownMethod indicates a method name with no registered scheme.
	ErrUnknownMethod = errors.New("dynamo: unknown integration method")

	// ErrShape indicates a size, dimensionality or length mismatch.
	ErrShape = errors.New("dynamo: shape mismatch")

	// ErrInvalidState indicates a state vector with NaN or Inf values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")
)

// BuildError wraps a construction failure with the operation and the
// offending name.
type BuildError struct {
	Op      string
	Name    string
	Wrapped error
}

func (e *BuildError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Wrapped)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.Name, e.Wrapped)
}

func (e *BuildError) Unwrap() []error {
	return []error{e.Wrapped, ErrBuild}
}

// Buildf returns a *BuildError wrapping sentinel with a formatted detail.
func Buildf(op, name string, sentinel error, format string, args ...any) error {
	detail := fmt.Sprintf(format, args...)
	return &BuildError{Op: op, Name: name, Wrapped: fmt.Errorf("%w: %s", sentinel, detail)}
}

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
