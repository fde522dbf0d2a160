package config

import "time"

// LoginThrottleConfig controls the token bucket applied to POST /login.
// Credential guessing is the only endpoint worth throttling here; the
// bucket is keyed by client IP.
type LoginThrottleConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string
}

// LoadLoginThrottleConfig reads the throttle settings from environment
// variables, clamping values so that a misconfigured deployment still gets
// a sane bucket.
func LoadLoginThrottleConfig() LoginThrottleConfig {
	def := LoginThrottleConfig{
		Enabled:        envBool("LOGIN_THROTTLE_ENABLED", true),
		Capacity:       envInt("LOGIN_THROTTLE_CAPACITY", 10),
		RefillTokens:   envInt("LOGIN_THROTTLE_REFILL_TOKENS", 1),
		RefillInterval: envDur("LOGIN_THROTTLE_REFILL_INTERVAL", 6*time.Second),
		TTL:            envDur("LOGIN_THROTTLE_TTL", 10*time.Minute),
		Prefix:         envStr("LOGIN_THROTTLE_PREFIX", "lt"),
	}
	if def.Capacity < 1 {
		def.Capacity = 1
	}
	if def.RefillTokens < 1 {
		def.RefillTokens = 1
	}
	if def.RefillInterval <= 0 {
		def.RefillInterval = time.Second
	}
	minTTL := 5 * def.RefillInterval
	if def.TTL < minTTL {
		def.TTL = minTTL
	}
	return def
}
