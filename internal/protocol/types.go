package protocol

import (
	"encoding/json"
	"strconv"
)

// Opcode identifies the envelope class on the wire.
type Opcode int

const (
	OpDispatch                Opcode = 0
	OpHeartbeat               Opcode = 1
	OpIdentify                Opcode = 2
	OpPresenceUpdate          Opcode = 3
	OpVoiceStateUpdate        Opcode = 4
	OpResume                  Opcode = 6
	OpReconnect               Opcode = 7
	OpRequestGuildMembers     Opcode = 8
	OpInvalidSession          Opcode = 9
	OpHello                   Opcode = 10
	OpHeartbeatAck            Opcode = 11
	OpRequestSoundboardSounds Opcode = 31
)

var opcodeNames = map[Opcode]string{
	OpDispatch:                "dispatch",
	OpHeartbeat:               "heartbeat",
	OpIdentify:                "identify",
	OpPresenceUpdate:          "presence_update",
	OpVoiceStateUpdate:        "voice_state_update",
	OpResume:                  "resume",
	OpReconnect:               "reconnect",
	OpRequestGuildMembers:     "request_guild_members",
	OpInvalidSession:          "invalid_session",
	OpHello:                   "hello",
	OpHeartbeatAck:            "heartbeat_ack",
	OpRequestSoundboardSounds: "request_soundboard_sounds",
}

func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}
	return "op(" + strconv.Itoa(int(o)) + ")"
}

// IsControl reports whether o is handled by the session rather than fanned out.
func (o Opcode) IsControl() bool {
	return o > OpDispatch
}

// Envelope is the wire-level unit: {op, d, s, t}.
type Envelope struct {
	Op       Opcode
	Data     json.RawMessage
	Sequence *int64
	Event    string
}

// HasSequence reports whether the envelope carried an s field.
func (e Envelope) HasSequence() bool {
	return e.Sequence != nil
}
