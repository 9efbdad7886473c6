package syncclient

import (
	"errors"
	"fmt"
)

var (
	// ErrTickInProgress is returned by Loop.Tick when another tick has not finished yet.
	ErrTickInProgress = errors.New("sync tick already in progress")
	// ErrEmptyText is returned by the Mutator for blank comments or tasks.
	ErrEmptyText = errors.New("text must not be blank")
)

// TransportError covers network failures, timeouts, unexpected statuses and undecodable bodies.
// The sync loop treats it as transient.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ValidationError is returned when the server rejects an ingestion payload.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return "invalid payload: " + e.Message
}
