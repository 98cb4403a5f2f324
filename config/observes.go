package config

import (
	"github.com/spf13/viper"
)

// Sentry config struct
type Sentry struct {
	Endpoint    string
	Environment string
	Release     string
	SampleRate  float64
}

// Tracer config struct for OpenTelemetry
type Tracer struct {
	Endpoint       string
	ServiceName    string
	ServiceVersion string
	Environment    string
	SamplingRate   float64
	Insecure       bool
}

// Observes config struct
type Observes struct {
	Sentry *Sentry
	Tracer *Tracer
}

func getObservesConfig(v *viper.Viper) *Observes {
	return &Observes{
		Sentry: &Sentry{
			Endpoint:    v.GetString("observes.sentry.endpoint"),
			Environment: getStringOrDefault(v, "observes.sentry.environment", v.GetString("run_mode")),
			Release:     v.GetString("observes.sentry.release"),
			SampleRate:  getFloat64OrDefault(v, "observes.sentry.sample_rate", 1.0),
		},
		Tracer: &Tracer{
			Endpoint:       v.GetString("observes.tracer.endpoint"),
			ServiceName:    getStringOrDefault(v, "observes.tracer.service_name", getStringOrDefault(v, "app_name", "collab")),
			ServiceVersion: v.GetString("observes.tracer.service_version"),
			Environment:    getStringOrDefault(v, "observes.tracer.environment", v.GetString("run_mode")),
			SamplingRate:   getFloat64OrDefault(v, "observes.tracer.sampling_rate", 1.0),
			Insecure:       getBoolOrDefault(v, "observes.tracer.insecure", true),
		},
	}
}
