package resilience

import "time"

// FromSettings builds a Policy from config values. Non-positive values keep
// the defaults; a negative jitter is treated as zero.
func FromSettings(maxAttempts, initialBackoffMs, maxBackoffMs int, multiplier, jitter float64) Policy {
	p := DefaultPolicy()
	if maxAttempts > 0 {
		p.MaxAttempts = maxAttempts
	}
	if initialBackoffMs > 0 {
		p.InitialBackoff = time.Duration(initialBackoffMs) * time.Millisecond
	}
	if maxBackoffMs > 0 {
		p.MaxBackoff = time.Duration(maxBackoffMs) * time.Millisecond
	}
	if multiplier > 0 {
		p.Multiplier = multiplier
	}
	if jitter > 0 {
		p.JitterFraction = jitter
	}
	return p
}

// BreakerFromSettings builds a BreakerConfig from config values.
func BreakerFromSettings(threshold, cooldownSecs int) BreakerConfig {
	cfg := DefaultBreakerConfig()
	if threshold > 0 {
		cfg.Threshold = threshold
	}
	if cooldownSecs > 0 {
		cfg.Cooldown = time.Duration(cooldownSecs) * time.Second
	}
	return cfg
}
