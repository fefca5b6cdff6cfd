package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type inboundEnvelope struct {
	Op   *Opcode         `json:"op"`
	Data json.RawMessage `json:"d"`
	Seq  *int64          `json:"s"`
	Type *string         `json:"t"`
}

// Decode parses one inbound text frame. Any non-conforming input wraps
// ErrMalformedEnvelope; the caller drops that frame and keeps the session.
func Decode(raw []byte) (Envelope, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Envelope{}, fmt.Errorf("%w: not a json object", ErrMalformedEnvelope)
	}
	var in inboundEnvelope
	if err := json.Unmarshal(trimmed, &in); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if in.Op == nil {
		return Envelope{}, fmt.Errorf("%w: %w", ErrMalformedEnvelope, ErrMissingOpcode)
	}
	env := Envelope{
		Op:       *in.Op,
		Data:     in.Data,
		Sequence: in.Seq,
	}
	if in.Type != nil {
		env.Event = *in.Type
	}
	if env.Op == OpDispatch && env.Event == "" {
		return Envelope{}, fmt.Errorf("%w: %w", ErrMalformedEnvelope, ErrMissingEventName)
	}
	if bytes.Equal(env.Data, []byte("null")) {
		env.Data = nil
	}
	return env, nil
}
