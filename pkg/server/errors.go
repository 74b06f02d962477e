package server

import (
	"errors"
	"fmt"
)

// Sentinel errors for common session and server error conditions.
var (
	// ErrSessionClosed is returned when an operation is attempted on a closed session.
	ErrSessionClosed = errors.New("server: session closed")

	// ErrSessionNotFound is returned when a session ID does not exist.
	ErrSessionNotFound = errors.New("server: session not found")

	// ErrDispatchQueueFull is returned when the session's event loop is saturated.
	ErrDispatchQueueFull = errors.New("server: dispatch queue full")

	// ErrMaxSessionsReached is returned when the maximum number of sessions is reached.
	ErrMaxSessionsReached = errors.New("server: max sessions reached")

	// ErrPageNotFound is returned when no page is registered under a name.
	ErrPageNotFound = errors.New("server: page not found")

	// ErrNotInitialized is returned for input operations before the page is built.
	ErrNotInitialized = errors.New("server: session not initialized")

	// ErrNoSnapshotStore is returned when snapshots are requested but no store is configured.
	ErrNoSnapshotStore = errors.New("server: no snapshot store")
)

// SessionError wraps an error with session context for debugging.
type SessionError struct {
	SessionID string
	Op        string // Operation that failed
	Err       error  // Underlying error
}

// Error returns the error message with session context.
func (e *SessionError) Error() string {
	if e.SessionID == "" {
		return fmt.Sprintf("server: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("server: session %s: %s: %v", e.SessionID, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *SessionError) Unwrap() error {
	return e.Err
}

// NewSessionError creates a new SessionError.
func NewSessionError(sessionID, op string, err error) *SessionError {
	return &SessionError{SessionID: sessionID, Op: op, Err: err}
}

// HandlerError wraps a panic recovered from an InputHandler or a dispatched
// function.
type HandlerError struct {
	SessionID string
	Input     string
	Panic     any
	Stack     []byte
}

// Error returns the error message.
func (e *HandlerError) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("server: session %s: panic: %v", e.SessionID, e.Panic)
	}
	return fmt.Sprintf("server: session %s: input %s: panic: %v", e.SessionID, e.Input, e.Panic)
}
