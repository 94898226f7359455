package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyStarted is returned when StartSession is called on an
	// engine that already owns a session.
	ErrAlreadyStarted = errors.New("session already started")

	// ErrNotStarted is returned by actions invoked before StartSession.
	ErrNotStarted = errors.New("session not started")

	// ErrNotInCompletion is returned by CompleteSession outside the
	// completion phase.
	ErrNotInCompletion = errors.New("session is not in the completion phase")
)

// SetupError wraps a session-creation failure. It is the only failure
// class surfaced to the caller: if the store cannot create the durable
// record the session never starts and no local state is created.
type SetupError struct {
	Err error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("session setup failed: %v", e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

// IsSetupError reports whether err is (or wraps) a SetupError.
func IsSetupError(err error) bool {
	var se *SetupError
	return errors.As(err, &se)
}
