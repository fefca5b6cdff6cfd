package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"github.com/danmuck/gatewayctl/internal/transport"
)

const (
	EnvToken        = "GATEWAYCTL_TOKEN"
	EnvIntents      = "GATEWAYCTL_INTENTS"
	EnvAPIBase      = "GATEWAYCTL_API_BASE"
	EnvGatewayURL   = "GATEWAYCTL_GATEWAY_URL"
	EnvMetricsAddr  = "GATEWAYCTL_METRICS_ADDR"
	EnvSecurityMode = "GATEWAYCTL_SECURITY_MODE"
	EnvEvents       = "GATEWAYCTL_EVENTS"
)

// envOverlay is prefilled from the current config; envdecode only touches
// fields whose variable is set.
type envOverlay struct {
	Token        string   `env:"GATEWAYCTL_TOKEN"`
	Intents      int      `env:"GATEWAYCTL_INTENTS"`
	APIBase      string   `env:"GATEWAYCTL_API_BASE"`
	GatewayURL   string   `env:"GATEWAYCTL_GATEWAY_URL"`
	MetricsAddr  string   `env:"GATEWAYCTL_METRICS_ADDR"`
	SecurityMode string   `env:"GATEWAYCTL_SECURITY_MODE"`
	Events       []string `env:"GATEWAYCTL_EVENTS"`
}

// LoadDotEnv loads environment variables from path. Missing files are
// ignored and variables already set win.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	overlay := envOverlay{
		Token:        cfg.Session.Token,
		Intents:      cfg.Session.Intents,
		APIBase:      cfg.APIBase,
		GatewayURL:   cfg.GatewayURL,
		MetricsAddr:  cfg.MetricsAddr,
		SecurityMode: string(cfg.Transport.SecurityMode),
		Events:       cfg.Events,
	}
	if err := envdecode.Decode(&overlay); err != nil {
		if errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
			return nil
		}
		return fmt.Errorf("config: decode environment: %w", err)
	}
	cfg.Session.Token = strings.TrimSpace(overlay.Token)
	cfg.Session.Intents = overlay.Intents
	cfg.APIBase = strings.TrimSpace(overlay.APIBase)
	cfg.GatewayURL = strings.TrimSpace(overlay.GatewayURL)
	cfg.MetricsAddr = strings.TrimSpace(overlay.MetricsAddr)
	cfg.Transport.SecurityMode = transport.NormalizeSecurityMode(transport.SecurityMode(overlay.SecurityMode))
	cfg.Events = normalizeEvents(overlay.Events)
	return nil
}
