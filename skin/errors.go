package skin

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNoSkinCluster is returned when an export target carries no skin binding.
var ErrNoSkinCluster = errors.New("no skin cluster bound")

// MalformedInputError reports a host binding that violates the capture preconditions.
type MalformedInputError struct {
	Vertex int // -1 when not vertex related
	Reason string
}

func (e *MalformedInputError) Error() string {
	if e.Vertex < 0 {
		return fmt.Sprintf("malformed binding: %s", e.Reason)
	}
	return fmt.Sprintf("malformed binding: vertex %d: %s", e.Vertex, e.Reason)
}

// CorruptFileError is a structural or invariant violation found while decoding.
type CorruptFileError struct {
	Line   int
	Reason string
}

func (e *CorruptFileError) Error() string {
	if e.Line <= 0 {
		return fmt.Sprintf("corrupt weights file: %s", e.Reason)
	}
	return fmt.Sprintf("corrupt weights file: line %d: %s", e.Line, e.Reason)
}

func Corruptf(line int, format string, a ...interface{}) error {
	return &CorruptFileError{Line: line, Reason: fmt.Sprintf(format, a...)}
}

// HostBindError wraps a failure of the host while applying weights.
type HostBindError struct {
	Mesh string
	Err  error
}

func (e *HostBindError) Error() string {
	return fmt.Sprintf("host failed to bind %q: %v", e.Mesh, e.Err)
}

func (e *HostBindError) Unwrap() error {
	return e.Err
}
