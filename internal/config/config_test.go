package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/gatewayctl/internal/endpoint"
	"github.com/danmuck/gatewayctl/internal/protocol/session"
	"github.com/danmuck/gatewayctl/internal/testutil/testlog"
	"github.com/danmuck/gatewayctl/internal/transport"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFileOverlaysDefaults(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, `
token = "file-token"
intents = 33281
events = ["ready", " message_create ", "READY", ""]
max_reconnect_attempts = 5
write_timeout = "3s"

[properties]
browser = "probe"

[backoff]
initial = "1s"
max = "8s"

[transport]
security_mode = "Production"

[voice]
guild_id = "g1"
channel_id = "c1"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Session.Token != "file-token" || cfg.Session.Intents != 33281 {
		t.Fatalf("unexpected identity: %+v", cfg.Session)
	}
	if len(cfg.Events) != 2 || cfg.Events[0] != "READY" || cfg.Events[1] != "MESSAGE_CREATE" {
		t.Fatalf("unexpected events: %v", cfg.Events)
	}
	if cfg.Session.MaxReconnectAttempts != 5 {
		t.Fatalf("unexpected max reconnect: %d", cfg.Session.MaxReconnectAttempts)
	}
	if cfg.Session.WriteTimeout != 3*time.Second || cfg.Session.ConnectTimeout != 10*time.Second {
		t.Fatalf("unexpected timeouts: write=%v connect=%v", cfg.Session.WriteTimeout, cfg.Session.ConnectTimeout)
	}
	if cfg.Session.Properties.Browser != "probe" || cfg.Session.Properties.OS != "linux" {
		t.Fatalf("unexpected properties: %+v", cfg.Session.Properties)
	}
	if cfg.Session.Backoff.InitialDelay != time.Second || cfg.Session.Backoff.MaxDelay != 8*time.Second {
		t.Fatalf("unexpected backoff: %+v", cfg.Session.Backoff)
	}
	if cfg.Session.Backoff.Multiplier != 2.0 {
		t.Fatalf("default multiplier lost: %v", cfg.Session.Backoff.Multiplier)
	}
	if cfg.Transport.SecurityMode != transport.SecurityModeProduction {
		t.Fatalf("unexpected security mode: %q", cfg.Transport.SecurityMode)
	}
	if cfg.Voice.GuildID != "g1" || cfg.Voice.ChannelID != "c1" {
		t.Fatalf("unexpected voice: %+v", cfg.Voice)
	}
	if cfg.APIBase != endpoint.DefaultAPIBase {
		t.Fatalf("unexpected api base: %q", cfg.APIBase)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	testlog.Start(t)
	t.Setenv(EnvToken, "env-token")
	t.Setenv(EnvIntents, "1")
	t.Setenv(EnvGatewayURL, "wss://gateway.example")
	t.Setenv(EnvEvents, "ready;guild_create")
	path := writeConfig(t, `
token = "file-token"
intents = 513
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Session.Token != "env-token" || cfg.Session.Intents != 1 {
		t.Fatalf("env not applied: %+v", cfg.Session)
	}
	if len(cfg.Events) != 2 || cfg.Events[1] != "GUILD_CREATE" {
		t.Fatalf("unexpected events: %v", cfg.Events)
	}
	static, ok := cfg.Resolver().(endpoint.Static)
	if !ok || string(static) != "wss://gateway.example" {
		t.Fatalf("expected static resolver, got %#v", cfg.Resolver())
	}
}

func TestLoadWithoutFileUsesEnvironment(t *testing.T) {
	testlog.Start(t)
	t.Setenv(EnvToken, "env-only")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Session.Token != "env-only" {
		t.Fatalf("unexpected token: %q", cfg.Session.Token)
	}
	if _, ok := cfg.Resolver().(*endpoint.Resolver); !ok {
		t.Fatalf("expected http resolver, got %#v", cfg.Resolver())
	}
}

func TestLoadRequiresToken(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, `intents = 1`)
	if _, err := Load(path); !errors.Is(err, session.ErrTokenRequired) {
		t.Fatalf("expected ErrTokenRequired, got %v", err)
	}
}

func TestLoadRejectsBadInput(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"duration":    "token = \"x\"\nconnect_timeout = \"soon\"\n",
		"unknown key": "token = \"x\"\nheartbeat = \"1s\"\n",
		"syntax":      "token = \n",
	}
	for name, content := range cases {
		path := writeConfig(t, content)
		if _, err := Load(path); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestValidateRejectsVoiceWithoutGuild(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, "token = \"x\"\n[voice]\nchannel_id = \"c1\"\n")
	if _, err := Load(path); !errors.Is(err, ErrVoiceGuildRequired) {
		t.Fatalf("expected ErrVoiceGuildRequired, got %v", err)
	}
}

func TestProductionRejectsPlaintextGateway(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, `
token = "x"
gateway_url = "ws://127.0.0.1:8080"

[transport]
security_mode = "production"
`)
	if _, err := Load(path); !errors.Is(err, transport.ErrTLSRequired) {
		t.Fatalf("expected ErrTLSRequired, got %v", err)
	}
}

func TestTemplateRoundTrip(t *testing.T) {
	testlog.Start(t)
	t.Setenv(EnvToken, "template-token")
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := WriteTemplate(path, false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	if err := WriteTemplate(path, false); err == nil {
		t.Fatalf("expected refusal to overwrite")
	}
	if err := WriteTemplate(path, true); err != nil {
		t.Fatalf("overwrite template: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	if cfg.MetricsAddr != "127.0.0.1:9464" || len(cfg.Events) != 4 {
		t.Fatalf("unexpected template config: %+v", cfg)
	}
}

func TestLoadDotEnv(t *testing.T) {
	testlog.Start(t)
	const key = "GATEWAYCTL_TEST_DOTENV"
	if _, ok := os.LookupEnv(key); ok {
		t.Skipf("%s already set", key)
	}
	t.Cleanup(func() {
		_ = os.Unsetenv(key)
	})
	dir := t.TempDir()
	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte(key+"=from-dotenv\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load dotenv: %v", err)
	}
	if got := os.Getenv(key); got != "from-dotenv" {
		t.Fatalf("unexpected value: %q", got)
	}
}
