package config

import "github.com/spf13/viper"

// Logger logger config struct
type Logger struct {
	Level           int
	Format          string
	Output          string
	OutputFile      string
	Desensitization *Desensitization
}

// Desensitization holds log field masking settings
type Desensitization struct {
	Enabled               bool
	SensitiveFields       []string
	CustomPatterns        []string
	MaskChar              string
	FixedMaskLength       int
	ExactFieldMatch       bool
	EnableDefaultPatterns bool
}

var defaultSensitiveFields = []string{
	"password", "token", "authorization", "secret", "api_key", "credential",
}

func getLoggerConfig(v *viper.Viper) *Logger {
	return &Logger{
		Level:           getIntOrDefault(v, "logger.level", 4),
		Format:          getStringOrDefault(v, "logger.format", "json"),
		Output:          getStringOrDefault(v, "logger.output", "stdout"),
		OutputFile:      v.GetString("logger.output_file"),
		Desensitization: getDesensitizationConfig(v),
	}
}

func getDesensitizationConfig(v *viper.Viper) *Desensitization {
	d := &Desensitization{
		Enabled:               getBoolOrDefault(v, "logger.desensitization.enabled", true),
		SensitiveFields:       v.GetStringSlice("logger.desensitization.sensitive_fields"),
		CustomPatterns:        v.GetStringSlice("logger.desensitization.custom_patterns"),
		MaskChar:              getStringOrDefault(v, "logger.desensitization.mask_char", "*"),
		FixedMaskLength:       getIntOrDefault(v, "logger.desensitization.fixed_mask_length", 6),
		ExactFieldMatch:       v.GetBool("logger.desensitization.exact_field_match"),
		EnableDefaultPatterns: getBoolOrDefault(v, "logger.desensitization.enable_default_patterns", true),
	}
	if len(d.SensitiveFields) == 0 {
		d.SensitiveFields = defaultSensitiveFields
	}
	return d
}
