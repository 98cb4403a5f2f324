package config

import (
	"time"

	"github.com/spf13/viper"
)

// Auth auth config struct
type Auth struct {
	JWT       *JWT
	Whitelist []string
}

// JWT jwt config struct
type JWT struct {
	Secret string
	Issuer string
	Expire time.Duration
}

// getAuth returns the auth config.
func getAuth(v *viper.Viper) *Auth {
	return &Auth{
		JWT: &JWT{
			Secret: v.GetString("auth.jwt.secret"),
			Issuer: v.GetString("auth.jwt.issuer"),
			Expire: getDurationOrDefault(v, "auth.jwt.expire", 2*time.Hour),
		},
		Whitelist: v.GetStringSlice("auth.whitelist"),
	}
}

// Identity identity resolver config struct
type Identity struct {
	ServiceURL string
	ProfileURL string
	Timeout    time.Duration
	CacheTTL   time.Duration
	Breaker    *Breaker
}

// Breaker circuit breaker settings for upstream calls
type Breaker struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
}

func getIdentityConfig(v *viper.Viper) *Identity {
	return &Identity{
		ServiceURL: v.GetString("identity.service_url"),
		ProfileURL: v.GetString("identity.profile_url"),
		Timeout:    getDurationOrDefault(v, "identity.timeout", 3*time.Second),
		CacheTTL:   getDurationOrDefault(v, "identity.cache_ttl", 5*time.Minute),
		Breaker: &Breaker{
			MaxRequests:  getUint32OrDefault(v, "identity.breaker.max_requests", 100),
			Interval:     getDurationOrDefault(v, "identity.breaker.interval", 5*time.Second),
			Timeout:      getDurationOrDefault(v, "identity.breaker.timeout", 3*time.Second),
			MinRequests:  getUint32OrDefault(v, "identity.breaker.min_requests", 3),
			FailureRatio: getFloat64OrDefault(v, "identity.breaker.failure_ratio", 0.6),
		},
	}
}
