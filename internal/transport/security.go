package transport

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
)

type SecurityMode string

const (
	SecurityModeDevelopment SecurityMode = "development"
	SecurityModeProduction  SecurityMode = "production"
)

const defaultUserAgent = "gatewayctl (https://github.com/danmuck/gatewayctl, 0.1)"

var (
	ErrInvalidSecurityMode     = errors.New("transport: invalid security mode")
	ErrTLSRequired             = errors.New("transport: tls required")
	ErrTLSCertFileRequired     = errors.New("transport: tls cert file required")
	ErrTLSKeyFileRequired      = errors.New("transport: tls key file required")
	ErrTLSInsecureSkipNotAllow = errors.New("transport: insecure skip verify not allowed")
)

// TLSConfig carries optional client TLS material. Public gateways need none
// of it; it exists for private gateways behind a custom CA or mTLS.
type TLSConfig struct {
	CAFile             string
	CertFile           string
	KeyFile            string
	ServerName         string
	InsecureSkipVerify bool
}

// Config defines transport-level settings.
type Config struct {
	SecurityMode SecurityMode
	TLS          TLSConfig
	ReadLimit    int64
	UserAgent    string
}

func DefaultConfig() Config {
	return Config{
		SecurityMode: SecurityModeDevelopment,
		ReadLimit:    DefaultReadLimit,
		UserAgent:    defaultUserAgent,
	}
}

func (c Config) userAgent() string {
	if ua := strings.TrimSpace(c.UserAgent); ua != "" {
		return ua
	}
	return defaultUserAgent
}

func NormalizeSecurityMode(mode SecurityMode) SecurityMode {
	if strings.TrimSpace(string(mode)) == "" {
		return SecurityModeDevelopment
	}
	return SecurityMode(strings.ToLower(strings.TrimSpace(string(mode))))
}

func (t TLSConfig) Enabled() bool {
	return strings.TrimSpace(t.CAFile) != "" ||
		strings.TrimSpace(t.CertFile) != "" ||
		strings.TrimSpace(t.KeyFile) != "" ||
		strings.TrimSpace(t.ServerName) != "" ||
		t.InsecureSkipVerify
}

func (c Config) Validate() error {
	mode := NormalizeSecurityMode(c.SecurityMode)
	switch mode {
	case SecurityModeDevelopment, SecurityModeProduction:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidSecurityMode, c.SecurityMode)
	}
	if mode == SecurityModeProduction && c.TLS.InsecureSkipVerify {
		return ErrTLSInsecureSkipNotAllow
	}
	hasCert := strings.TrimSpace(c.TLS.CertFile) != ""
	hasKey := strings.TrimSpace(c.TLS.KeyFile) != ""
	if hasKey && !hasCert {
		return ErrTLSCertFileRequired
	}
	if hasCert && !hasKey {
		return ErrTLSKeyFileRequired
	}
	return nil
}

// ValidateURL rejects plaintext gateway URLs in production mode.
func (c Config) ValidateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("transport: parse url %q: %w", raw, err)
	}
	if NormalizeSecurityMode(c.SecurityMode) != SecurityModeProduction {
		return nil
	}
	switch u.Scheme {
	case "wss", "https":
		return nil
	default:
		return fmt.Errorf("%w: scheme %q", ErrTLSRequired, u.Scheme)
	}
}

// ClientConfig builds the crypto/tls client config.
func (t TLSConfig) ClientConfig() (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: t.InsecureSkipVerify,
		ServerName:         strings.TrimSpace(t.ServerName),
	}
	if caPath := strings.TrimSpace(t.CAFile); caPath != "" {
		caPEM, err := os.ReadFile(caPath)
		if err != nil {
			return nil, err
		}
		pool := x509.NewCertPool()
		if ok := pool.AppendCertsFromPEM(caPEM); !ok {
			return nil, fmt.Errorf("transport: parse tls ca bundle: %s", caPath)
		}
		cfg.RootCAs = pool
	}
	if strings.TrimSpace(t.CertFile) != "" {
		cert, err := tls.LoadX509KeyPair(t.CertFile, t.KeyFile)
		if err != nil {
			return nil, err
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return cfg, nil
}
