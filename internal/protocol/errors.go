package protocol

import "errors"

var (
	ErrMalformedEnvelope = errors.New("protocol: malformed envelope")
	ErrMissingOpcode     = errors.New("protocol: missing opcode")
	ErrMissingEventName  = errors.New("protocol: dispatch missing event name")
)
