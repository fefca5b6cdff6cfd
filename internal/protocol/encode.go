package protocol

import (
	"encoding/json"
	"fmt"
)

type outboundEnvelope struct {
	Op   Opcode `json:"op"`
	Data any    `json:"d"`
}

// Encode serializes one outbound command envelope. Outbound envelopes never
// carry s or t.
func Encode(op Opcode, data any) ([]byte, error) {
	payload, err := json.Marshal(outboundEnvelope{Op: op, Data: data})
	if err != nil {
		return nil, fmt.Errorf("protocol: encode %s: %w", op, err)
	}
	return payload, nil
}
