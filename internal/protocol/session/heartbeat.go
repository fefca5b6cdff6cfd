package session

import (
	"context"
	"time"

	"github.com/danmuck/gatewayctl/internal/logging"
	"github.com/danmuck/gatewayctl/internal/observability"
	"github.com/danmuck/gatewayctl/internal/protocol"
)

// heartbeat is loop-owned. epoch is bumped on every stop so timer events
// from a previous schedule are ignored.
type heartbeat struct {
	interval     time.Duration
	acknowledged bool
	epoch        uint64
	first        *time.Timer
	ticker       *time.Ticker
	stop         chan struct{}
}

func (s *Session) startHeartbeat(interval time.Duration) {
	s.stopHeartbeat()
	s.hb.interval = interval
	s.hb.acknowledged = false
	epoch := s.hb.epoch
	delay := FirstHeartbeatDelay(interval, s.rng)
	s.hb.first = time.AfterFunc(delay, func() {
		s.post(firstBeatEvent{epoch: epoch})
	})
	logging.Infof("session.Session.heartbeat conn_id=%s interval=%s first_in=%s", s.connID, interval, delay)
}

func (s *Session) stopHeartbeat() {
	s.hb.epoch++
	if s.hb.first != nil {
		s.hb.first.Stop()
		s.hb.first = nil
	}
	if s.hb.ticker != nil {
		s.hb.ticker.Stop()
		s.hb.ticker = nil
	}
	if s.hb.stop != nil {
		close(s.hb.stop)
		s.hb.stop = nil
	}
}

func (s *Session) onFirstBeat(epoch uint64) {
	if epoch != s.hb.epoch {
		return
	}
	s.hb.first = nil
	s.sendHeartbeat()
	if s.hb.interval <= 0 {
		logging.Errorf("session.Session.heartbeat conn_id=%s invalid interval=%s", s.connID, s.hb.interval)
		return
	}

	ticker := time.NewTicker(s.hb.interval)
	stop := make(chan struct{})
	s.hb.ticker, s.hb.stop = ticker, stop
	go func() {
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				select {
				case s.inbox <- tickEvent{epoch: epoch}:
				case <-stop:
					return
				case <-s.quit:
					return
				}
			}
		}
	}()
}

func (s *Session) onTick(epoch uint64) {
	if epoch != s.hb.epoch {
		return
	}
	if !s.hb.acknowledged {
		logging.Warnf("session.Session.heartbeat conn_id=%s err=%v", s.connID, ErrLivenessFailure)
		s.reconnect(reasonLivenessFailure)
		return
	}
	s.sendHeartbeat()
}

// sendHeartbeat writes op 1 carrying the last sequence, or null before the
// first dispatch. A failed write still counts as an unacknowledged beat.
func (s *Session) sendHeartbeat() {
	s.hb.acknowledged = false
	if err := s.send(context.Background(), protocol.OpHeartbeat, s.seq); err != nil {
		logging.Warnf("session.Session.heartbeat conn_id=%s err=%v", s.connID, err)
		return
	}
	observability.RecordHeartbeatSent()
	logging.Tracef("session.Session.heartbeat conn_id=%s sent", s.connID)
}

func (s *Session) onHeartbeatAck() {
	s.hb.acknowledged = true
	observability.RecordHeartbeatAck()
	logging.Tracef("session.Session.heartbeat conn_id=%s ack", s.connID)
}
