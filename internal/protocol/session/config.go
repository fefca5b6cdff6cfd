package session

import (
	"errors"
	"strings"
	"time"

	"github.com/danmuck/gatewayctl/internal/endpoint"
	"github.com/danmuck/gatewayctl/internal/protocol"
)

var (
	ErrTokenRequired          = errors.New("session: token required")
	ErrInvalidIntents         = errors.New("session: intents must be >= 0")
	ErrInvalidReconnectBudget = errors.New("session: max reconnect attempts must be >= 0")
)

// BackoffConfig defines retry backoff behavior.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// Config defines session identity and reliability settings.
type Config struct {
	Token      string
	Intents    int
	Properties protocol.IdentifyProperties

	Version  int
	Encoding string

	ConnectTimeout time.Duration
	WriteTimeout   time.Duration

	// MaxReconnectAttempts bounds consecutive reconnects without a completed
	// handshake. Zero means unlimited.
	MaxReconnectAttempts int
	Backoff              BackoffConfig
}

// DefaultConfig returns defaults for everything except the token.
func DefaultConfig() Config {
	return Config{
		Properties: protocol.IdentifyProperties{
			OS:      "linux",
			Browser: "gatewayctl",
			Device:  "gatewayctl",
		},
		Version:        endpoint.DefaultVersion,
		Encoding:       endpoint.DefaultEncoding,
		ConnectTimeout: 10 * time.Second,
		WriteTimeout:   10 * time.Second,
		Backoff: BackoffConfig{
			InitialDelay: 250 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     30 * time.Second,
			Jitter:       true,
		},
	}
}

// WithDefaults fills zero-valued fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if strings.TrimSpace(c.Properties.OS) == "" {
		c.Properties.OS = def.Properties.OS
	}
	if strings.TrimSpace(c.Properties.Browser) == "" {
		c.Properties.Browser = def.Properties.Browser
	}
	if strings.TrimSpace(c.Properties.Device) == "" {
		c.Properties.Device = def.Properties.Device
	}
	if c.Version <= 0 {
		c.Version = def.Version
	}
	if strings.TrimSpace(c.Encoding) == "" {
		c.Encoding = def.Encoding
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.Backoff == (BackoffConfig{}) {
		c.Backoff = def.Backoff
	}
	return c
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Token) == "" {
		return ErrTokenRequired
	}
	if c.Intents < 0 {
		return ErrInvalidIntents
	}
	if c.MaxReconnectAttempts < 0 {
		return ErrInvalidReconnectBudget
	}
	return nil
}
