package transport

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/gatewayctl/internal/testutil/testlog"
)

func TestValidateProductionRejectsInsecureSkip(t *testing.T) {
	testlog.Start(t)
	cfg := DefaultConfig()
	cfg.SecurityMode = "PRODUCTION"
	cfg.TLS.InsecureSkipVerify = true
	if err := cfg.Validate(); !errors.Is(err, ErrTLSInsecureSkipNotAllow) {
		t.Fatalf("expected ErrTLSInsecureSkipNotAllow, got %v", err)
	}
	cfg.SecurityMode = SecurityModeDevelopment
	if err := cfg.Validate(); err != nil {
		t.Fatalf("development should allow insecure skip: %v", err)
	}
}

func TestValidateRequiresCertAndKeyTogether(t *testing.T) {
	testlog.Start(t)
	cfg := DefaultConfig()
	cfg.TLS.CertFile = "/tmp/client.pem"
	if err := cfg.Validate(); !errors.Is(err, ErrTLSKeyFileRequired) {
		t.Fatalf("expected ErrTLSKeyFileRequired, got %v", err)
	}
	cfg.TLS.CertFile = ""
	cfg.TLS.KeyFile = "/tmp/client.key"
	if err := cfg.Validate(); !errors.Is(err, ErrTLSCertFileRequired) {
		t.Fatalf("expected ErrTLSCertFileRequired, got %v", err)
	}
}

func TestValidateRejectsUnknownMode(t *testing.T) {
	testlog.Start(t)
	cfg := DefaultConfig()
	cfg.SecurityMode = "staging"
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidSecurityMode) {
		t.Fatalf("expected ErrInvalidSecurityMode, got %v", err)
	}
}

func TestValidateURLProductionRequiresTLS(t *testing.T) {
	testlog.Start(t)
	cfg := DefaultConfig()
	if err := cfg.ValidateURL("ws://127.0.0.1:9000"); err != nil {
		t.Fatalf("development should allow ws: %v", err)
	}
	cfg.SecurityMode = SecurityModeProduction
	if err := cfg.ValidateURL("ws://127.0.0.1:9000"); !errors.Is(err, ErrTLSRequired) {
		t.Fatalf("expected ErrTLSRequired, got %v", err)
	}
	if err := cfg.ValidateURL("wss://gateway.discord.gg"); err != nil {
		t.Fatalf("wss should pass: %v", err)
	}
}

func TestClientConfigRejectsBadCABundle(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "ca.pem")
	if err := os.WriteFile(path, []byte("not a certificate"), 0o600); err != nil {
		t.Fatalf("write ca: %v", err)
	}
	if _, err := (TLSConfig{CAFile: path}).ClientConfig(); err == nil {
		t.Fatalf("expected parse error")
	}
	cfg, err := (TLSConfig{ServerName: "gateway.local"}).ClientConfig()
	if err != nil {
		t.Fatalf("client config: %v", err)
	}
	if cfg.ServerName != "gateway.local" || cfg.RootCAs != nil {
		t.Fatalf("unexpected tls config: %+v", cfg)
	}
}
