package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// lookup returns get(key) when key is set, else fallback.
func lookup[T any](v *viper.Viper, key string, fallback T, get func(string) T) T {
	if v.IsSet(key) {
		return get(key)
	}
	return fallback
}

func getDurationOrDefault(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	return lookup(v, key, fallback, v.GetDuration)
}

func getUint32OrDefault(v *viper.Viper, key string, fallback uint32) uint32 {
	return lookup(v, key, fallback, v.GetUint32)
}

func getIntOrDefault(v *viper.Viper, key string, fallback int) int {
	return lookup(v, key, fallback, v.GetInt)
}

func getFloat64OrDefault(v *viper.Viper, key string, fallback float64) float64 {
	return lookup(v, key, fallback, v.GetFloat64)
}

func getStringOrDefault(v *viper.Viper, key string, fallback string) string {
	return lookup(v, key, fallback, v.GetString)
}

func getBoolOrDefault(v *viper.Viper, key string, fallback bool) bool {
	return lookup(v, key, fallback, v.GetBool)
}

// getStringsOrDefault accepts a list or a comma separated string, as set
// from the environment.
func getStringsOrDefault(v *viper.Viper, key string, fallback []string) []string {
	return lookup(v, key, fallback, func(k string) []string {
		var out []string
		for _, s := range v.GetStringSlice(k) {
			for _, part := range strings.Split(s, ",") {
				if part = strings.TrimSpace(part); part != "" {
					out = append(out, part)
				}
			}
		}
		return out
	})
}
