package events

import (
	"encoding/json"

	"github.com/danmuck/gatewayctl/internal/logging"
)

// TypedListener decodes the payload into T before calling fn. Payloads that
// do not decode are logged and skipped.
type TypedListener[T any] struct {
	fn func(T)
}

func Typed[T any](fn func(T)) *TypedListener[T] {
	return &TypedListener[T]{fn: fn}
}

func (l *TypedListener[T]) HandleEvent(name string, payload json.RawMessage) {
	var v T
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &v); err != nil {
			logging.Warnf("events.TypedListener decode event=%s err=%v", name, err)
			return
		}
	}
	l.fn(v)
}
