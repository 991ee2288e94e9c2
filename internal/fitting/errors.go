// Package fitting orchestrates the prosthetic fitting workflow: landmark
// alignment, socket conformance with a live clearance offset, the scale
// tracker, and the session lifecycle tying them to a scene.
package fitting

import (
	"errors"
	"fmt"
)

// Failure classes. Every error this package returns wraps exactly one of
// these, so callers classify with errors.Is and surface the message as-is.
var (
	// ErrMissingPrecondition marks a named object, landmark, or material
	// that the current step requires but the scene does not provide. The
	// pipeline aborts before mutating anything irreversible.
	ErrMissingPrecondition = errors.New("missing precondition")

	// ErrDegenerateGeometry marks geometry the step cannot work with, such
	// as a non-manifold socket region.
	ErrDegenerateGeometry = errors.New("degenerate geometry")

	// ErrInvalidMode marks an operation invoked outside the state that
	// permits it, for example adjusting the offset after finalizing.
	ErrInvalidMode = errors.New("invalid mode")
)

func missingf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMissingPrecondition, fmt.Sprintf(format, args...))
}

func degeneratef(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrDegenerateGeometry, fmt.Sprintf(format, args...))
}

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidMode, fmt.Sprintf(format, args...))
}
