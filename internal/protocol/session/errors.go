package session

import (
	"errors"
)

var (
	ErrAlreadyConnected       = errors.New("session: already connected")
	ErrNotConnected           = errors.New("session: not connected")
	ErrDisconnected           = errors.New("session: disconnected")
	ErrSessionClosed          = errors.New("session: closed")
	ErrMalformedHandshake     = errors.New("session: malformed handshake payload")
	ErrLivenessFailure        = errors.New("session: heartbeat not acknowledged")
	ErrReconnectExhausted     = errors.New("session: reconnect attempts exhausted")
	ErrSessionInvalidated     = errors.New("session: session invalidated by gateway")
	ErrHandshakeResolvedTwice = errors.New("session: handshake completion signalled twice")
	ErrGuildIDRequired        = errors.New("session: guild id required")
)

// EndpointResolutionError reports a failed gateway lookup. Connect does not
// retry it.
type EndpointResolutionError struct {
	Err error
}

func (e *EndpointResolutionError) Error() string {
	return "session: endpoint resolution failed: " + e.Err.Error()
}

func (e *EndpointResolutionError) Unwrap() error {
	return e.Err
}
