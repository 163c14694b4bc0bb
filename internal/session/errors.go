package session

import "errors"

// Domain-specific errors for session management.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalidTarget is returned when the broker host is empty or the port is out of range.
	ErrInvalidTarget = errors.New("session: invalid connection target")

	// ErrInvalidIdentity is returned when the client identity is empty.
	ErrInvalidIdentity = errors.New("session: client identity cannot be empty")

	// ErrNoSubscriptions is returned when a session is built without any topic filter.
	ErrNoSubscriptions = errors.New("session: at least one topic filter is required")

	// ErrInvalidFilter is returned for an empty topic filter or a QoS outside 0..2.
	ErrInvalidFilter = errors.New("session: invalid topic filter")

	// ErrNilEngine is returned when no protocol engine is supplied.
	ErrNilEngine = errors.New("session: engine cannot be nil")

	// ErrFirstConnect is returned when the initial handshake or subscribe fails.
	// It is fatal: there is no prior session to recover.
	ErrFirstConnect = errors.New("session: initial connection failed")

	// ErrInvalidState is returned when an operation is not allowed in the current state.
	ErrInvalidState = errors.New("session: operation not allowed in current state")
)
