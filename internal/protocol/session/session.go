package session

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/danmuck/gatewayctl/internal/events"
	"github.com/danmuck/gatewayctl/internal/logging"
	"github.com/danmuck/gatewayctl/internal/observability"
	"github.com/danmuck/gatewayctl/internal/transport"
)

var (
	ErrResolverRequired = errors.New("session: endpoint resolver required")
	ErrDialerRequired   = errors.New("session: transport dialer required")
)

// Resolver looks up the initial gateway URL.
type Resolver interface {
	Resolve(ctx context.Context) (string, error)
}

type Option func(*Session)

// WithRand sets the random source for heartbeat jitter and backoff.
func WithRand(rng *rand.Rand) Option {
	return func(s *Session) {
		s.rng = rng
	}
}

// WithRegistry shares an existing listener registry.
func WithRegistry(r *events.Registry) Option {
	return func(s *Session) {
		s.registry = r
	}
}

// Session is one logical gateway session. All protocol state is owned by a
// single loop goroutine; transport reads, timers and API calls reach it as
// events on inbox.
type Session struct {
	cfg      Config
	resolver Resolver
	dialer   transport.Dialer
	registry *events.Registry
	rng      *rand.Rand

	inbox     chan any
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	// connMu guards conn for writers outside the loop (voice commands).
	connMu sync.Mutex
	conn   transport.Conn

	viewMu  sync.RWMutex
	view    view
	idle    chan struct{}
	lastErr error

	// Loop-owned from here on.
	state      State
	mode       HandshakeMode
	identity   Identity
	seq        *int64
	gatewayURL string
	gen        uint64
	connID     string
	dialSeq    uint64
	retrySeq   uint64
	retryTimer *time.Timer
	attempts   int
	hb         heartbeat
	pending    *handshakeSignal
}

type view struct {
	state    State
	mode     HandshakeMode
	identity Identity
	seq      *int64
}

type callEvent struct {
	fn func()
}

type dialResultEvent struct {
	id   uint64
	url  string
	conn transport.Conn
	err  error
}

type frameEvent struct {
	gen  uint64
	data []byte
}

type closedEvent struct {
	gen uint64
	err *transport.CloseError
}

type firstBeatEvent struct {
	epoch uint64
}

type tickEvent struct {
	epoch uint64
}

type retryEvent struct {
	id uint64
}

// New builds a session and starts its loop. Call Close to stop it.
func New(cfg Config, resolver Resolver, dialer transport.Dialer, opts ...Option) (*Session, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if resolver == nil {
		return nil, ErrResolverRequired
	}
	if dialer == nil {
		return nil, ErrDialerRequired
	}
	idle := make(chan struct{})
	close(idle)
	s := &Session{
		cfg:      cfg,
		resolver: resolver,
		dialer:   dialer,
		inbox:    make(chan any, 64),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		idle:     idle,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = events.NewRegistry()
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	observability.SetSessionState(StateIdle.String(), allStateNames())
	go s.run()
	return s, nil
}

// Connect resolves the gateway, opens the transport and returns once READY
// or RESUMED arrives. The session imposes no handshake timeout; ctx bounds
// the caller's wait and cancelling it abandons the attempt. Connect must not
// be called from a listener.
func (s *Session) Connect(ctx context.Context) error {
	var sig *handshakeSignal
	var startErr error
	if err := s.call(func() {
		if s.state != StateIdle {
			startErr = ErrAlreadyConnected
			return
		}
		sig = newHandshakeSignal()
		s.pending = sig
		s.setState(StateConnecting)
	}); err != nil {
		return err
	}
	if startErr != nil {
		return startErr
	}

	logging.Infof("session.Session.Connect resolving gateway endpoint")
	url, err := s.resolver.Resolve(ctx)
	if err != nil {
		rerr := &EndpointResolutionError{Err: err}
		logging.Errorf("session.Session.Connect err=%v", rerr)
		s.abandon(sig, rerr)
		return rerr
	}
	if err := s.call(func() {
		if s.pending != sig {
			return
		}
		s.gatewayURL = url
		s.open(url)
	}); err != nil {
		return err
	}

	select {
	case err := <-sig.Done():
		return err
	case <-ctx.Done():
		s.abandon(sig, ctx.Err())
		select {
		case err := <-sig.Done():
			return err
		case <-s.done:
			return ErrSessionClosed
		}
	case <-s.done:
		return ErrSessionClosed
	}
}

// Disconnect closes the transport with a normal closure and stops the
// heartbeat. It does not wait; Wait observes completion.
func (s *Session) Disconnect() {
	ev := callEvent{fn: s.disconnect}
	select {
	case s.inbox <- ev:
	default:
		go s.post(ev)
	}
}

// Wait blocks until the session is idle and returns why it stopped: nil
// after Disconnect, otherwise the terminal error.
func (s *Session) Wait(ctx context.Context) error {
	s.viewMu.RLock()
	idle := s.idle
	s.viewMu.RUnlock()
	select {
	case <-idle:
		s.viewMu.RLock()
		defer s.viewMu.RUnlock()
		return s.lastErr
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrSessionClosed
	}
}

// Close disconnects and stops the loop goroutine. It must not be called
// from a listener.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		close(s.quit)
	})
	<-s.done
	return nil
}

func (s *Session) Subscribe(name string, l events.Listener) {
	s.registry.Subscribe(name, l)
}

func (s *Session) Unsubscribe(name string, l events.Listener) {
	s.registry.Unsubscribe(name, l)
}

func (s *Session) Registry() *events.Registry {
	return s.registry
}

func (s *Session) State() State {
	s.viewMu.RLock()
	defer s.viewMu.RUnlock()
	return s.view.state
}

func (s *Session) Mode() HandshakeMode {
	s.viewMu.RLock()
	defer s.viewMu.RUnlock()
	return s.view.mode
}

func (s *Session) Identity() Identity {
	s.viewMu.RLock()
	defer s.viewMu.RUnlock()
	return s.view.identity
}

// Sequence returns the last dispatch sequence number seen, if any.
func (s *Session) Sequence() (int64, bool) {
	s.viewMu.RLock()
	defer s.viewMu.RUnlock()
	if s.view.seq == nil {
		return 0, false
	}
	return *s.view.seq, true
}

func (s *Session) run() {
	defer close(s.done)
	for {
		select {
		case <-s.quit:
			s.shutdown()
			return
		case ev := <-s.inbox:
			s.handle(ev)
		}
	}
}

func (s *Session) handle(ev any) {
	switch ev := ev.(type) {
	case callEvent:
		ev.fn()
	case dialResultEvent:
		s.onDialResult(ev)
	case frameEvent:
		s.onFrame(ev)
	case closedEvent:
		s.onClosed(ev)
	case firstBeatEvent:
		s.onFirstBeat(ev.epoch)
	case tickEvent:
		s.onTick(ev.epoch)
	case retryEvent:
		s.onRetry(ev.id)
	}
}

func (s *Session) post(ev any) bool {
	select {
	case s.inbox <- ev:
		return true
	case <-s.quit:
		return false
	}
}

// call runs fn on the loop and waits for it.
func (s *Session) call(fn func()) error {
	done := make(chan struct{})
	if !s.post(callEvent{fn: func() {
		fn()
		close(done)
	}}) {
		return ErrSessionClosed
	}
	select {
	case <-done:
		return nil
	case <-s.done:
		return ErrSessionClosed
	}
}

func (s *Session) abandon(sig *handshakeSignal, err error) {
	_ = s.call(func() {
		if s.pending != sig {
			return
		}
		s.settlePending(err)
		s.cancelTimers()
		s.teardown(transport.StatusNormalClosure, "connect abandoned")
		s.toIdle(err)
	})
}

func (s *Session) disconnect() {
	if s.state == StateIdle {
		return
	}
	logging.Infof("session.Session.Disconnect conn_id=%s", s.connID)
	s.setState(StateClosing)
	s.cancelTimers()
	s.teardown(transport.StatusNormalClosure, "client disconnect")
	s.settlePending(ErrDisconnected)
	s.toIdle(nil)
}

func (s *Session) shutdown() {
	s.cancelTimers()
	s.teardown(transport.StatusNormalClosure, "session closed")
	s.settlePending(ErrSessionClosed)
	s.toIdle(ErrSessionClosed)
}

func (s *Session) settlePending(err error) {
	if s.pending == nil {
		return
	}
	if rerr := s.pending.resolve(err); rerr != nil {
		logging.Errorf("session.Session.settlePending err=%v", rerr)
	}
	s.pending = nil
}

func (s *Session) setState(next State) {
	if s.state == next {
		return
	}
	prev := s.state
	s.state = next
	s.viewMu.Lock()
	s.view.state = next
	switch {
	case next == StateIdle:
		close(s.idle)
	case prev == StateIdle:
		s.idle = make(chan struct{})
		s.lastErr = nil
	}
	s.viewMu.Unlock()
	observability.SetSessionState(next.String(), allStateNames())
	logging.Debugf("session.Session.setState %s -> %s", prev, next)
}

func (s *Session) toIdle(err error) {
	s.attempts = 0
	s.viewMu.Lock()
	s.lastErr = err
	s.viewMu.Unlock()
	s.setState(StateIdle)
}

func (s *Session) publish() {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()
	s.view.mode = s.mode
	s.view.identity = s.identity
	if s.seq == nil {
		s.view.seq = nil
		return
	}
	v := *s.seq
	s.view.seq = &v
}
