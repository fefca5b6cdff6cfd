package session

import (
	"math"
	"math/rand"
	"time"
)

// NextBackoffDelay returns the retry delay for attempt N (1-based).
func NextBackoffDelay(cfg BackoffConfig, attempt int, rng *rand.Rand) time.Duration {
	if attempt <= 1 {
		return cfg.InitialDelay
	}
	if cfg.InitialDelay <= 0 {
		return 0
	}
	if cfg.Multiplier < 1.0 {
		cfg.Multiplier = 1.0
	}
	delay := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt-1))
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	if cfg.Jitter {
		f := 0.5
		if rng != nil {
			f = 0.5 + rng.Float64()
		}
		delay = delay * f
	}
	return time.Duration(delay)
}

// ReconnectDelay returns how long to wait before reconnect attempt N.
// The first attempt after a healthy session is immediate; consecutive
// failures back off.
func ReconnectDelay(cfg BackoffConfig, attempt int, rng *rand.Rand) time.Duration {
	if attempt <= 1 {
		return 0
	}
	return NextBackoffDelay(cfg, attempt-1, rng)
}

// FirstHeartbeatDelay draws the initial heartbeat delay uniformly from
// [0, interval).
func FirstHeartbeatDelay(interval time.Duration, rng *rand.Rand) time.Duration {
	if interval <= 0 {
		return 0
	}
	if rng == nil {
		return time.Duration(rand.Int63n(int64(interval)))
	}
	return time.Duration(rng.Int63n(int64(interval)))
}
