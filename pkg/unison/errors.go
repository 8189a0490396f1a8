package unison

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure modes of the pool.
var (
	// ErrMissingInstance means an engine instance could not be created.
	ErrMissingInstance = errors.New("missing engine instance")

	// ErrParameterNotFound means a fan-out target lacks the parameter.
	ErrParameterNotFound = errors.New("parameter not found")

	// ErrPoolNotReady means the pool has not been configured successfully.
	ErrPoolNotReady = errors.New("pool not configured")

	// ErrLayoutNotSupported rejects bus layouts other than mono or stereo out.
	ErrLayoutNotSupported = errors.New("bus layout not supported")
)

// InstanceError ties a failure to one instance of the pool.
type InstanceError struct {
	Index int
	Op    string // "create", "configure", "prepare", "set state", ...
	Err   error
}

func (e *InstanceError) Error() string {
	return fmt.Sprintf("instance %d: %s: %v", e.Index, e.Op, e.Err)
}

func (e *InstanceError) Unwrap() error {
	return e.Err
}

func instanceErr(index int, op string, err error) error {
	return &InstanceError{Index: index, Op: op, Err: err}
}
