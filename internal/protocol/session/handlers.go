package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/danmuck/gatewayctl/internal/logging"
	"github.com/danmuck/gatewayctl/internal/observability"
	"github.com/danmuck/gatewayctl/internal/protocol"
	"github.com/danmuck/gatewayctl/internal/transport"
)

func (s *Session) onFrame(ev frameEvent) {
	if ev.gen != s.gen {
		return
	}
	env, err := protocol.Decode(ev.data)
	if err != nil {
		observability.RecordMalformedEnvelope()
		logging.Warnf("session.Session.onFrame conn_id=%s dropped err=%v", s.connID, err)
		return
	}
	s.route(env)
}

func (s *Session) route(env protocol.Envelope) {
	if env.Op == protocol.OpDispatch {
		s.onDispatch(env)
		return
	}
	switch env.Op {
	case protocol.OpHeartbeat:
		s.sendHeartbeat()
	case protocol.OpHello:
		s.onHello(env.Data)
	case protocol.OpHeartbeatAck:
		s.onHeartbeatAck()
	case protocol.OpReconnect:
		logging.Infof("session.Session.route conn_id=%s server requested reconnect", s.connID)
		s.reconnect(reasonServerRequested)
	case protocol.OpInvalidSession:
		s.onInvalidSession(env.Data)
	default:
		logging.Debugf("session.Session.route conn_id=%s ignoring op=%s", s.connID, env.Op)
	}
}

func (s *Session) onDispatch(env protocol.Envelope) {
	if env.HasSequence() {
		seq := *env.Sequence
		s.seq = &seq
		s.publish()
	}
	switch env.Event {
	case protocol.EventReady:
		if !s.onReady(env.Data) {
			return
		}
	case protocol.EventResumed:
		s.onResumed()
	}
	observability.RecordDispatch(env.Event)
	n := s.registry.Dispatch(env.Event, env.Data)
	logging.Tracef("session.Session.onDispatch event=%s listeners=%d", env.Event, n)
}

func (s *Session) onHello(data json.RawMessage) {
	hello, err := protocol.DecodeHello(data)
	if err != nil {
		s.handshakeFault(err)
		return
	}
	s.startHeartbeat(time.Duration(hello.HeartbeatIntervalMS) * time.Millisecond)
	s.setState(StateHandshaking)
	s.sendHandshake()
}

func (s *Session) sendHandshake() {
	var err error
	if s.mode == ResumeHandshake && s.identity.Known() {
		logging.Infof("session.Session.handshake conn_id=%s resuming session_id=%s", s.connID, s.identity.SessionID)
		err = s.send(context.Background(), protocol.OpResume, protocol.Resume{
			Token:     s.cfg.Token,
			SessionID: s.identity.SessionID,
			Seq:       s.seq,
		})
	} else {
		logging.Infof("session.Session.handshake conn_id=%s identifying intents=%d", s.connID, s.cfg.Intents)
		err = s.send(context.Background(), protocol.OpIdentify, protocol.Identify{
			Token:      s.cfg.Token,
			Properties: s.cfg.Properties,
			Intents:    s.cfg.Intents,
		})
	}
	if err != nil {
		logging.Warnf("session.Session.handshake conn_id=%s err=%v", s.connID, err)
	}
}

func (s *Session) onReady(data json.RawMessage) bool {
	ready, err := protocol.DecodeReady(data)
	if err != nil {
		s.handshakeFault(err)
		return false
	}
	s.identity = Identity{
		SessionID:        ready.SessionID,
		ResumeGatewayURL: ready.ResumeGatewayURL,
	}
	s.mode = ResumeHandshake
	s.publish()
	logging.Infof("session.Session.handshake conn_id=%s identified session_id=%s resume_url=%q",
		s.connID, ready.SessionID, ready.ResumeGatewayURL)
	s.handshakeComplete(FirstHandshake)
	return true
}

func (s *Session) onResumed() {
	logging.Infof("session.Session.handshake conn_id=%s resumed session_id=%s", s.connID, s.identity.SessionID)
	s.handshakeComplete(ResumeHandshake)
}

func (s *Session) handshakeComplete(mode HandshakeMode) {
	s.setState(StateActive)
	s.attempts = 0
	observability.RecordHandshake(mode.String())
	s.settlePending(nil)
}

// handshakeFault fails a waiting Connect; otherwise the transport is
// replaced.
func (s *Session) handshakeFault(cause error) {
	err := fmt.Errorf("%w: %w", ErrMalformedHandshake, cause)
	if s.pending == nil {
		logging.Warnf("session.Session.handshake conn_id=%s err=%v", s.connID, err)
		s.reconnect(reasonMalformedHandshake)
		return
	}
	logging.Errorf("session.Session.handshake conn_id=%s err=%v", s.connID, err)
	s.cancelTimers()
	s.teardown(transport.StatusNormalClosure, "malformed handshake")
	s.settlePending(err)
	s.toIdle(err)
}

func (s *Session) onInvalidSession(data json.RawMessage) {
	if protocol.DecodeInvalidSession(data) {
		logging.Warnf("session.Session.route conn_id=%s invalid session, resumable", s.connID)
		s.reconnect(reasonInvalidSession)
		return
	}
	logging.Errorf("session.Session.route conn_id=%s err=%v", s.connID, ErrSessionInvalidated)
	s.cancelTimers()
	s.teardown(transport.StatusNormalClosure, "session invalidated")
	s.settlePending(ErrSessionInvalidated)
	s.toIdle(ErrSessionInvalidated)
}
