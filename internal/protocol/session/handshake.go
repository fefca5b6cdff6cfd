package session

import (
	"sync/atomic"
)

// handshakeSignal carries the outcome of one Connect call. It is written
// exactly once.
type handshakeSignal struct {
	resolved atomic.Bool
	done     chan error
}

func newHandshakeSignal() *handshakeSignal {
	return &handshakeSignal{done: make(chan error, 1)}
}

// resolve records the outcome. A second call returns
// ErrHandshakeResolvedTwice and leaves the first outcome in place.
func (h *handshakeSignal) resolve(err error) error {
	if !h.resolved.CompareAndSwap(false, true) {
		return ErrHandshakeResolvedTwice
	}
	h.done <- err
	return nil
}

func (h *handshakeSignal) Done() <-chan error {
	return h.done
}
