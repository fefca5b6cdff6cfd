package session

// State is the session lifecycle position.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateAwaitingHello
	StateHandshaking
	StateActive
	StateClosing
	StateReconnecting
)

var stateNames = [...]string{
	StateIdle:          "idle",
	StateConnecting:    "connecting",
	StateAwaitingHello: "awaiting_hello",
	StateHandshaking:   "handshaking",
	StateActive:        "active",
	StateClosing:       "closing",
	StateReconnecting:  "reconnecting",
}

func (s State) String() string {
	if int(s) >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

func allStateNames() []string {
	return stateNames[:]
}

// HandshakeMode selects what is sent in response to Hello.
type HandshakeMode int

const (
	// FirstHandshake sends Identify.
	FirstHandshake HandshakeMode = iota
	// ResumeHandshake sends Resume with the persisted identity. Once entered
	// it is never left.
	ResumeHandshake
)

func (m HandshakeMode) String() string {
	switch m {
	case FirstHandshake:
		return "identify"
	case ResumeHandshake:
		return "resume"
	default:
		return "unknown"
	}
}

// Identity is learned from READY and reused across reconnects.
type Identity struct {
	SessionID        string
	ResumeGatewayURL string
}

func (i Identity) Known() bool {
	return i.SessionID != ""
}
