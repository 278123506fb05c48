package catalog

import (
	"errors"
	"fmt"
)

// Sentinel errors. Match with errors.Is.
var (
	// ErrConfiguration means no credentialed store is configured. It is
	// reported before any network call.
	ErrConfiguration = errors.New("github token not configured")

	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("invalid update request")

	// ErrNotFound means the document has no record with the requested name.
	ErrNotFound = errors.New("project not found")

	// ErrUpstreamRead and ErrUpstreamWrite match *UpstreamError by phase.
	ErrUpstreamRead  = errors.New("upstream read failed")
	ErrUpstreamWrite = errors.New("upstream write failed")

	// ErrConflict matches a write rejected because the document changed
	// after it was read.
	ErrConflict = errors.New("document changed since it was read")
)

// ValidationError rejects a request before any I/O. Message is safe to show
// to the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is makes every ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Phases of an update that talk to the store.
const (
	OpRead  = "read"
	OpWrite = "write"
)

// UpstreamError is a failed store call during an update.
type UpstreamError struct {
	// Op is OpRead or OpWrite.
	Op string

	// StatusCode is the upstream HTTP status, or 0 when none arrived.
	StatusCode int

	// Message is the upstream explanation when one was given.
	Message string

	// Conflict is set when the store rejected the write because the
	// version marker was stale.
	Conflict bool

	Err error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Op == OpRead:
		return fmt.Sprintf("failed to fetch project document: %s", e.Message)
	case e.Conflict:
		return fmt.Sprintf("project document changed since it was read: %s", e.Message)
	case e.Message != "":
		return e.Message
	default:
		return "failed to update file"
	}
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Is matches ErrUpstreamRead or ErrUpstreamWrite by phase, and ErrConflict
// for conflicting writes.
func (e *UpstreamError) Is(target error) bool {
	switch target {
	case ErrUpstreamRead:
		return e.Op == OpRead
	case ErrUpstreamWrite:
		return e.Op == OpWrite
	case ErrConflict:
		return e.Conflict
	}
	return false
}

// newUpstreamError classifies a store error. Stores may expose Status,
// Reason and Conflict methods; any they lack are left zero.
func newUpstreamError(op string, err error) *UpstreamError {
	ue := &UpstreamError{Op: op, Message: err.Error(), Err: err}

	var status interface{ Status() int }
	if errors.As(err, &status) {
		ue.StatusCode = status.Status()
	}
	var reason interface{ Reason() string }
	if errors.As(err, &reason) && reason.Reason() != "" {
		ue.Message = reason.Reason()
	}
	var conflict interface{ Conflict() bool }
	if op == OpWrite && errors.As(err, &conflict) {
		ue.Conflict = conflict.Conflict()
	}
	return ue
}
