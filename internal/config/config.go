package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/gatewayctl/internal/endpoint"
	"github.com/danmuck/gatewayctl/internal/protocol/session"
	"github.com/danmuck/gatewayctl/internal/transport"
)

var (
	ErrVoiceGuildRequired = errors.New("config: voice.channel_id requires voice.guild_id")
	ErrInvalidAPIBase     = errors.New("config: invalid api_base")
	ErrInvalidEventName   = errors.New("config: event names must be non-empty")
)

// Config is the resolved gatewayctl configuration.
type Config struct {
	Session   session.Config
	Transport transport.Config

	APIBase string
	// GatewayURL skips the HTTP lookup when set.
	GatewayURL  string
	MetricsAddr string
	// Events are the dispatch names logged by the CLI. Empty logs every
	// dispatch the CLI knows about.
	Events []string
	Voice  VoiceConfig
}

// VoiceConfig optionally joins a voice channel once the session is ready.
type VoiceConfig struct {
	GuildID   string
	ChannelID string
}

type fileConfig struct {
	Token                string   `toml:"token"`
	Intents              int      `toml:"intents"`
	APIBase              string   `toml:"api_base"`
	GatewayURL           string   `toml:"gateway_url"`
	MetricsAddr          string   `toml:"metrics_addr"`
	Events               []string `toml:"events"`
	ConnectTimeout       string   `toml:"connect_timeout"`
	WriteTimeout         string   `toml:"write_timeout"`
	MaxReconnectAttempts int      `toml:"max_reconnect_attempts"`

	Properties struct {
		OS      string `toml:"os"`
		Browser string `toml:"browser"`
		Device  string `toml:"device"`
	} `toml:"properties"`

	Backoff struct {
		Initial    string  `toml:"initial"`
		Multiplier float64 `toml:"multiplier"`
		Max        string  `toml:"max"`
		Jitter     bool    `toml:"jitter"`
	} `toml:"backoff"`

	Transport struct {
		SecurityMode string `toml:"security_mode"`
		ReadLimit    int64  `toml:"read_limit"`
		UserAgent    string `toml:"user_agent"`
		TLS          struct {
			CAFile             string `toml:"ca_file"`
			CertFile           string `toml:"cert_file"`
			KeyFile            string `toml:"key_file"`
			ServerName         string `toml:"server_name"`
			InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
		} `toml:"tls"`
	} `toml:"transport"`

	Voice struct {
		GuildID   string `toml:"guild_id"`
		ChannelID string `toml:"channel_id"`
	} `toml:"voice"`
}

func Default() Config {
	return Config{
		Session:   session.DefaultConfig(),
		Transport: transport.DefaultConfig(),
		APIBase:   endpoint.DefaultAPIBase,
	}
}

// Load reads path (optional), overlays the environment and validates.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.Session = cfg.Session.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("config: unknown keys in %s: %v", path, undecoded)
	}

	if meta.IsDefined("token") {
		cfg.Session.Token = strings.TrimSpace(raw.Token)
	}
	if meta.IsDefined("intents") {
		cfg.Session.Intents = raw.Intents
	}
	if meta.IsDefined("api_base") {
		cfg.APIBase = strings.TrimSpace(raw.APIBase)
	}
	if meta.IsDefined("gateway_url") {
		cfg.GatewayURL = strings.TrimSpace(raw.GatewayURL)
	}
	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}
	if meta.IsDefined("events") {
		cfg.Events = normalizeEvents(raw.Events)
	}
	if meta.IsDefined("connect_timeout") {
		d, err := parseDuration("connect_timeout", raw.ConnectTimeout)
		if err != nil {
			return err
		}
		cfg.Session.ConnectTimeout = d
	}
	if meta.IsDefined("write_timeout") {
		d, err := parseDuration("write_timeout", raw.WriteTimeout)
		if err != nil {
			return err
		}
		cfg.Session.WriteTimeout = d
	}
	if meta.IsDefined("max_reconnect_attempts") {
		cfg.Session.MaxReconnectAttempts = raw.MaxReconnectAttempts
	}

	if meta.IsDefined("properties", "os") {
		cfg.Session.Properties.OS = strings.TrimSpace(raw.Properties.OS)
	}
	if meta.IsDefined("properties", "browser") {
		cfg.Session.Properties.Browser = strings.TrimSpace(raw.Properties.Browser)
	}
	if meta.IsDefined("properties", "device") {
		cfg.Session.Properties.Device = strings.TrimSpace(raw.Properties.Device)
	}

	if meta.IsDefined("backoff", "initial") {
		d, err := parseDuration("backoff.initial", raw.Backoff.Initial)
		if err != nil {
			return err
		}
		cfg.Session.Backoff.InitialDelay = d
	}
	if meta.IsDefined("backoff", "multiplier") {
		cfg.Session.Backoff.Multiplier = raw.Backoff.Multiplier
	}
	if meta.IsDefined("backoff", "max") {
		d, err := parseDuration("backoff.max", raw.Backoff.Max)
		if err != nil {
			return err
		}
		cfg.Session.Backoff.MaxDelay = d
	}
	if meta.IsDefined("backoff", "jitter") {
		cfg.Session.Backoff.Jitter = raw.Backoff.Jitter
	}

	if meta.IsDefined("transport", "security_mode") {
		cfg.Transport.SecurityMode = transport.NormalizeSecurityMode(transport.SecurityMode(raw.Transport.SecurityMode))
	}
	if meta.IsDefined("transport", "read_limit") {
		cfg.Transport.ReadLimit = raw.Transport.ReadLimit
	}
	if meta.IsDefined("transport", "user_agent") {
		cfg.Transport.UserAgent = strings.TrimSpace(raw.Transport.UserAgent)
	}
	if meta.IsDefined("transport", "tls", "ca_file") {
		cfg.Transport.TLS.CAFile = strings.TrimSpace(raw.Transport.TLS.CAFile)
	}
	if meta.IsDefined("transport", "tls", "cert_file") {
		cfg.Transport.TLS.CertFile = strings.TrimSpace(raw.Transport.TLS.CertFile)
	}
	if meta.IsDefined("transport", "tls", "key_file") {
		cfg.Transport.TLS.KeyFile = strings.TrimSpace(raw.Transport.TLS.KeyFile)
	}
	if meta.IsDefined("transport", "tls", "server_name") {
		cfg.Transport.TLS.ServerName = strings.TrimSpace(raw.Transport.TLS.ServerName)
	}
	if meta.IsDefined("transport", "tls", "insecure_skip_verify") {
		cfg.Transport.TLS.InsecureSkipVerify = raw.Transport.TLS.InsecureSkipVerify
	}

	if meta.IsDefined("voice", "guild_id") {
		cfg.Voice.GuildID = strings.TrimSpace(raw.Voice.GuildID)
	}
	if meta.IsDefined("voice", "channel_id") {
		cfg.Voice.ChannelID = strings.TrimSpace(raw.Voice.ChannelID)
	}
	return nil
}

func (c Config) Validate() error {
	if err := c.Session.Validate(); err != nil {
		return err
	}
	if err := c.Transport.Validate(); err != nil {
		return err
	}
	if c.GatewayURL != "" {
		if err := c.Transport.ValidateURL(c.GatewayURL); err != nil {
			return err
		}
	} else {
		u, err := url.Parse(c.APIBase)
		if err != nil || u.Host == "" {
			return fmt.Errorf("%w: %q", ErrInvalidAPIBase, c.APIBase)
		}
	}
	for _, name := range c.Events {
		if strings.TrimSpace(name) == "" {
			return ErrInvalidEventName
		}
	}
	if c.Voice.ChannelID != "" && c.Voice.GuildID == "" {
		return ErrVoiceGuildRequired
	}
	return nil
}

// Resolver returns the endpoint lookup for this config.
func (c Config) Resolver() session.Resolver {
	if c.GatewayURL != "" {
		return endpoint.Static(c.GatewayURL)
	}
	r := endpoint.NewResolver(c.APIBase, nil)
	r.UserAgent = c.Transport.UserAgent
	return r
}

func parseDuration(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("config: parse %s: %w", key, err)
	}
	return d, nil
}

// normalizeEvents upper-cases names and drops blanks and duplicates.
func normalizeEvents(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, name := range in {
		v := strings.ToUpper(strings.TrimSpace(name))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
