package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/danmuck/gatewayctl/internal/endpoint"
	"github.com/danmuck/gatewayctl/internal/logging"
	"github.com/danmuck/gatewayctl/internal/observability"
	"github.com/danmuck/gatewayctl/internal/protocol"
	"github.com/danmuck/gatewayctl/internal/transport"
)

const (
	reasonTransportClosed    = "transport_closed"
	reasonLivenessFailure    = "liveness_failure"
	reasonServerRequested    = "server_requested"
	reasonInvalidSession     = "invalid_session"
	reasonDialFailed         = "dial_failed"
	reasonMalformedHandshake = "malformed_handshake"
)

// open dials base off the loop and reports back with a dialResultEvent.
func (s *Session) open(base string) {
	s.dialSeq++
	id := s.dialSeq
	version, encoding, timeout := s.cfg.Version, s.cfg.Encoding, s.cfg.ConnectTimeout
	go func() {
		target, err := endpoint.TransportURL(base, version, encoding)
		if err != nil {
			s.post(dialResultEvent{id: id, url: base, err: err})
			return
		}
		logging.Infof("session.Session.open url=%q", target)
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		conn, err := s.dialer.Dial(ctx, target)
		if !s.post(dialResultEvent{id: id, url: target, conn: conn, err: err}) && conn != nil {
			_ = conn.Close(transport.StatusGoingAway, "session closed")
		}
	}()
}

func (s *Session) onDialResult(ev dialResultEvent) {
	if ev.id != s.dialSeq {
		if ev.conn != nil {
			go ev.conn.Close(transport.StatusNormalClosure, "dial abandoned")
		}
		return
	}
	if ev.err != nil {
		logging.Warnf("session.Session.open url=%q err=%v", ev.url, ev.err)
		if s.attempts == 0 && s.pending != nil {
			err := fmt.Errorf("session: open transport: %w", ev.err)
			s.settlePending(err)
			s.toIdle(err)
			return
		}
		s.reconnect(reasonDialFailed)
		return
	}
	s.install(ev.conn, ev.url)
}

// install makes conn the live transport. Any previous transport must
// already be torn down.
func (s *Session) install(conn transport.Conn, url string) {
	s.gen++
	gen := s.gen
	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()
	s.connID = uuid.NewString()
	s.setState(StateAwaitingHello)
	logging.Infof("session.Session.install conn_id=%s url=%q mode=%s", s.connID, url, s.mode)
	go s.readLoop(gen, conn)
}

// readLoop uses a background context; cancelling a websocket read closes
// the connection, so teardown goes through Close instead.
func (s *Session) readLoop(gen uint64, conn transport.Conn) {
	for {
		data, err := conn.Read(context.Background())
		if err != nil {
			s.post(closedEvent{gen: gen, err: transport.AsCloseError(err)})
			return
		}
		if !s.post(frameEvent{gen: gen, data: data}) {
			return
		}
	}
}

// teardown stops the heartbeat and closes the live transport. Late frames
// and the close notification from it are dropped by generation.
func (s *Session) teardown(code int, reason string) {
	s.stopHeartbeat()
	s.connMu.Lock()
	conn := s.conn
	s.conn = nil
	s.connMu.Unlock()
	if conn == nil {
		return
	}
	s.gen++
	logging.Infof("session.Session.teardown conn_id=%s code=%d reason=%q", s.connID, code, reason)
	go func() {
		if err := conn.Close(code, reason); err != nil {
			logging.Debugf("session.Session.teardown close err=%v", err)
		}
	}()
}

func (s *Session) onClosed(ev closedEvent) {
	if ev.gen != s.gen {
		return
	}
	s.stopHeartbeat()
	s.connMu.Lock()
	s.conn = nil
	s.connMu.Unlock()
	s.gen++

	ce := ev.err
	observability.RecordTransportClose(ce.Clean, ce.Code)
	if !ce.Clean {
		logging.Warnf("session.Session socket closed uncleanly conn_id=%s code=%d reason=%q", s.connID, ce.Code, ce.Reason)
		s.reconnect(reasonTransportClosed)
		return
	}
	logging.Infof("session.Session socket closed cleanly conn_id=%s code=%d reason=%q", s.connID, ce.Code, ce.Reason)
	s.settlePending(ce)
	s.toIdle(ce)
}

// reconnect replaces the transport and resumes when an identity is known.
func (s *Session) reconnect(reason string) {
	s.teardown(transport.StatusReconnect, reason)
	s.attempts++
	observability.RecordReconnect(reason)
	if limit := s.cfg.MaxReconnectAttempts; limit > 0 && s.attempts > limit {
		err := fmt.Errorf("%w: %d attempts, last reason %s", ErrReconnectExhausted, limit, reason)
		logging.Errorf("session.Session.reconnect err=%v", err)
		s.settlePending(err)
		s.toIdle(err)
		return
	}
	s.setState(StateReconnecting)
	target := s.reconnectTarget()
	delay := ReconnectDelay(s.cfg.Backoff, s.attempts, s.rng)
	logging.Warnf("session.Session.reconnect reason=%s attempt=%d delay=%s mode=%s url=%q",
		reason, s.attempts, delay, s.mode, target)
	if delay <= 0 {
		s.open(target)
		return
	}
	s.retrySeq++
	id := s.retrySeq
	s.retryTimer = time.AfterFunc(delay, func() {
		s.post(retryEvent{id: id})
	})
}

func (s *Session) onRetry(id uint64) {
	if id != s.retrySeq || s.state != StateReconnecting {
		return
	}
	s.retryTimer = nil
	s.open(s.reconnectTarget())
}

func (s *Session) reconnectTarget() string {
	if s.identity.ResumeGatewayURL != "" {
		return s.identity.ResumeGatewayURL
	}
	return s.gatewayURL
}

// cancelTimers invalidates any scheduled retry and in-flight dial.
func (s *Session) cancelTimers() {
	s.retrySeq++
	if s.retryTimer != nil {
		s.retryTimer.Stop()
		s.retryTimer = nil
	}
	s.dialSeq++
}

// send encodes and writes one envelope on the live transport. It is safe
// off the loop goroutine.
func (s *Session) send(ctx context.Context, op protocol.Opcode, data any) error {
	payload, err := protocol.Encode(op, data)
	if err != nil {
		return err
	}
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn == nil {
		return ErrNotConnected
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.WriteTimeout)
	defer cancel()
	if err := s.conn.Write(ctx, payload); err != nil {
		return fmt.Errorf("session: write %s: %w", op, err)
	}
	logging.Tracef("session.Session.send op=%s bytes=%d", op, len(payload))
	return nil
}
