package main

import (
	"testing"

	"github.com/danmuck/gatewayctl/internal/config"
	"github.com/danmuck/gatewayctl/internal/protocol"
	"github.com/danmuck/gatewayctl/internal/testutil/testlog"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Session.Token = "token"
	cfg.GatewayURL = "wss://gateway.test"
	return cfg
}

func TestNewServiceSubscribesDefaultEvents(t *testing.T) {
	testlog.Start(t)
	svc, err := newService(testConfig())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	defer svc.session.Close()
	reg := svc.session.Registry()
	for _, name := range defaultEvents {
		if got := reg.Count(name); got != 1 {
			t.Fatalf("event %s listeners=%d", name, got)
		}
	}
}

func TestNewServiceVoiceJoinsOnReady(t *testing.T) {
	testlog.Start(t)
	cfg := testConfig()
	cfg.Events = []string{"MESSAGE_CREATE"}
	cfg.Voice = config.VoiceConfig{GuildID: "g1", ChannelID: "c1"}
	svc, err := newService(cfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	defer svc.session.Close()
	reg := svc.session.Registry()
	if got := reg.Count(protocol.EventReady); got != 1 {
		t.Fatalf("ready listeners=%d", got)
	}
	if got := reg.Count("MESSAGE_CREATE"); got != 1 {
		t.Fatalf("message listeners=%d", got)
	}
}

func TestExampleConfigLoads(t *testing.T) {
	testlog.Start(t)
	t.Setenv(config.EnvToken, "token")
	cfg, err := config.Load("ex.config.toml")
	if err != nil {
		t.Fatalf("load example config: %v", err)
	}
	if cfg.Session.MaxReconnectAttempts != 10 || len(cfg.Events) != 3 {
		t.Fatalf("unexpected example config: %+v", cfg)
	}
	svc, err := newService(cfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	_ = svc.session.Close()
}
