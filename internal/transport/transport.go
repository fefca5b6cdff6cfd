package transport

import (
	"context"
	"errors"
	"fmt"
)

// Close codes the session uses when it closes a connection itself.
const (
	StatusNormalClosure   = 1000
	StatusGoingAway       = 1001
	StatusAbnormalClosure = 1006
	// StatusReconnect keeps the remote session resumable; 1000 and 1001
	// invalidate it on the gateway side.
	StatusReconnect = 4000
)

var (
	ErrClosed = errors.New("transport: connection closed")
)

// Conn is one live connection. Read blocks until a text frame arrives or
// the connection closes, in which case it returns a *CloseError.
type Conn interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Close(code int, reason string) error
}

// Dialer opens connections. Each call returns an independent Conn.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// CloseError reports how a connection ended. Clean is true when a close
// frame was exchanged.
type CloseError struct {
	Code   int
	Reason string
	Clean  bool
	Err    error
}

func (e *CloseError) Error() string {
	state := "uncleanly"
	if e.Clean {
		state = "cleanly"
	}
	if e.Reason == "" {
		return fmt.Sprintf("transport: closed %s code=%d", state, e.Code)
	}
	return fmt.Sprintf("transport: closed %s code=%d reason=%q", state, e.Code, e.Reason)
}

func (e *CloseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrClosed
}

// AsCloseError classifies any Read error. Errors that are not already a
// CloseError are reported as an unclean abnormal closure.
func AsCloseError(err error) *CloseError {
	if err == nil {
		return nil
	}
	var ce *CloseError
	if errors.As(err, &ce) {
		return ce
	}
	return &CloseError{Code: StatusAbnormalClosure, Reason: "", Clean: false, Err: err}
}
