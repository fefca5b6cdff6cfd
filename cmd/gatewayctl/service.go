package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danmuck/gatewayctl/internal/config"
	"github.com/danmuck/gatewayctl/internal/events"
	"github.com/danmuck/gatewayctl/internal/logging"
	"github.com/danmuck/gatewayctl/internal/observability"
	"github.com/danmuck/gatewayctl/internal/protocol"
	"github.com/danmuck/gatewayctl/internal/protocol/session"
	"github.com/danmuck/gatewayctl/internal/transport"
)

const shutdownTimeout = 5 * time.Second

var defaultEvents = []string{
	protocol.EventReady,
	protocol.EventResumed,
	"GUILD_CREATE",
	"MESSAGE_CREATE",
	"VOICE_STATE_UPDATE",
}

type service struct {
	cfg     config.Config
	session *session.Session
}

func newService(cfg config.Config) (*service, error) {
	dialer, err := transport.NewWebSocketDialer(cfg.Transport)
	if err != nil {
		return nil, err
	}
	sess, err := session.New(cfg.Session, cfg.Resolver(), dialer)
	if err != nil {
		return nil, err
	}
	svc := &service{cfg: cfg, session: sess}
	svc.subscribe()
	return svc, nil
}

func (s *service) subscribe() {
	names := s.cfg.Events
	if len(names) == 0 {
		names = defaultEvents
	}
	logDispatch := events.NewListener(func(name string, payload json.RawMessage) {
		logging.Infof("gatewayctl dispatch event=%s bytes=%d", name, len(payload))
	})
	for _, name := range names {
		s.session.Subscribe(name, logDispatch)
	}
	if s.cfg.Voice.GuildID != "" {
		s.session.Subscribe(protocol.EventReady, events.Typed(func(protocol.Ready) {
			s.joinVoice()
		}))
	}
}

func (s *service) joinVoice() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Session.WriteTimeout)
	defer cancel()
	if err := s.session.JoinVoiceChannel(ctx, s.cfg.Voice.GuildID, s.cfg.Voice.ChannelID); err != nil {
		logging.Warnf("gatewayctl voice guild_id=%s err=%v", s.cfg.Voice.GuildID, err)
	}
}

// Run connects and blocks until a signal or a terminal session error.
func (s *service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer s.session.Close()

	metricsErr := make(chan error, 1)
	if s.cfg.MetricsAddr != "" {
		srv := s.metricsServer()
		go func() {
			if err := serveMetrics(ctx, srv); err != nil {
				metricsErr <- err
			}
		}()
	}

	if err := s.session.Connect(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	logging.Infof("gatewayctl connected session_id=%s", s.session.Identity().SessionID)

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- s.session.Wait(context.Background())
	}()
	select {
	case <-ctx.Done():
		logging.Infof("gatewayctl shutting down")
		if s.cfg.Voice.GuildID != "" {
			leaveCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			_ = s.session.LeaveVoiceChannel(leaveCtx, s.cfg.Voice.GuildID)
			cancel()
		}
		s.session.Disconnect()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.session.Wait(shutdownCtx)
	case err := <-waitErr:
		return err
	case err := <-metricsErr:
		return err
	}
}

func (s *service) metricsServer() *http.Server {
	observability.RegisterMetrics()
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{
		Addr:              s.cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func serveMetrics(ctx context.Context, srv *http.Server) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	logging.Infof("gatewayctl metrics listening addr=%q", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
