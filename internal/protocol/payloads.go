package protocol

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// MaxHeartbeatIntervalMS is the largest interval that fits a time.Duration.
const MaxHeartbeatIntervalMS = math.MaxInt64 / int64(time.Millisecond)

const (
	EventReady   = "READY"
	EventResumed = "RESUMED"
)

// Hello is the first server envelope on every transport.
type Hello struct {
	HeartbeatIntervalMS int64 `json:"heartbeat_interval"`
}

// IdentifyProperties describes the connecting client.
type IdentifyProperties struct {
	OS      string `json:"os"`
	Browser string `json:"browser"`
	Device  string `json:"device"`
}

// Identify starts a new session.
type Identify struct {
	Token      string             `json:"token"`
	Properties IdentifyProperties `json:"properties"`
	Intents    int                `json:"intents"`
}

// Resume restores a previously identified session on a new transport.
type Resume struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
	Seq       *int64 `json:"seq"`
}

// Ready carries the session identity. Everything other than SessionID and
// ResumeGatewayURL is opaque to the session.
type Ready struct {
	Version          int               `json:"v"`
	User             json.RawMessage   `json:"user,omitempty"`
	Guilds           []json.RawMessage `json:"guilds,omitempty"`
	SessionID        string            `json:"session_id"`
	ResumeGatewayURL string            `json:"resume_gateway_url"`
	Shard            []int             `json:"shard,omitempty"`
	Application      json.RawMessage   `json:"application,omitempty"`
}

// VoiceStateUpdate joins, moves or leaves a voice channel. A nil ChannelID
// leaves.
type VoiceStateUpdate struct {
	GuildID   string  `json:"guild_id"`
	ChannelID *string `json:"channel_id"`
	SelfMute  bool    `json:"self_mute"`
	SelfDeaf  bool    `json:"self_deaf"`
}

func DecodeHello(data json.RawMessage) (Hello, error) {
	var h Hello
	if len(data) == 0 {
		return Hello{}, fmt.Errorf("%w: empty hello", ErrMalformedEnvelope)
	}
	if err := json.Unmarshal(data, &h); err != nil {
		return Hello{}, fmt.Errorf("%w: hello: %v", ErrMalformedEnvelope, err)
	}
	if h.HeartbeatIntervalMS <= 0 {
		return Hello{}, fmt.Errorf("%w: hello missing heartbeat_interval", ErrMalformedEnvelope)
	}
	if h.HeartbeatIntervalMS > MaxHeartbeatIntervalMS {
		return Hello{}, fmt.Errorf("%w: hello heartbeat_interval %d out of range", ErrMalformedEnvelope, h.HeartbeatIntervalMS)
	}
	return h, nil
}

func DecodeReady(data json.RawMessage) (Ready, error) {
	var r Ready
	if len(data) == 0 {
		return Ready{}, fmt.Errorf("%w: empty ready", ErrMalformedEnvelope)
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return Ready{}, fmt.Errorf("%w: ready: %v", ErrMalformedEnvelope, err)
	}
	if strings.TrimSpace(r.SessionID) == "" {
		return Ready{}, fmt.Errorf("%w: ready missing session_id", ErrMalformedEnvelope)
	}
	if strings.TrimSpace(r.ResumeGatewayURL) == "" {
		return Ready{}, fmt.Errorf("%w: ready missing resume_gateway_url", ErrMalformedEnvelope)
	}
	return r, nil
}

// DecodeInvalidSession reports whether the server marked the session resumable.
func DecodeInvalidSession(data json.RawMessage) bool {
	var resumable bool
	if len(data) == 0 {
		return false
	}
	if err := json.Unmarshal(data, &resumable); err != nil {
		return false
	}
	return resumable
}
