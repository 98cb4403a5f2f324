package logger

import (
	"regexp"
	"strings"

	"github.com/ncobase/collab/config"
	"github.com/sirupsen/logrus"
)

// bearer tokens and long opaque keys
var defaultValuePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9\-_.=]+`),
	regexp.MustCompile(`\b[A-Za-z0-9]{32,}\b`),
}

// Desensitizer masks sensitive data in log fields.
type Desensitizer struct {
	config   *config.Desensitization
	patterns []*regexp.Regexp
}

// NewDesensitizer creates a new desensitizer instance
func NewDesensitizer(cfg *config.Desensitization) *Desensitizer {
	d := &Desensitizer{config: cfg}
	for _, p := range cfg.CustomPatterns {
		if re, err := regexp.Compile(p); err == nil {
			d.patterns = append(d.patterns, re)
		}
	}
	if cfg.EnableDefaultPatterns {
		d.patterns = append(d.patterns, defaultValuePatterns...)
	}
	return d
}

// DesensitizeFields returns a copy of fields with sensitive values masked.
func (d *Desensitizer) DesensitizeFields(fields logrus.Fields) logrus.Fields {
	if !d.config.Enabled {
		return fields
	}
	out := make(logrus.Fields, len(fields))
	for k, v := range fields {
		out[k] = d.desensitize(k, v, 0)
	}
	return out
}

func (d *Desensitizer) desensitize(key string, value any, depth int) any {
	if value == nil || depth > 5 {
		return value
	}
	if d.isSensitiveField(key) {
		return d.mask()
	}
	switch v := value.(type) {
	case string:
		return d.desensitizeString(v)
	case map[string]any:
		m := make(map[string]any, len(v))
		for k, item := range v {
			m[k] = d.desensitize(k, item, depth+1)
		}
		return m
	case map[string]string:
		m := make(map[string]string, len(v))
		for k, item := range v {
			if d.isSensitiveField(k) {
				m[k] = d.mask()
			} else {
				m[k] = d.desensitizeString(item)
			}
		}
		return m
	default:
		return value
	}
}

// isSensitiveField checks if field name contains sensitive keywords
func (d *Desensitizer) isSensitiveField(name string) bool {
	if name == "" {
		return false
	}
	lower := strings.ToLower(name)
	for _, f := range d.config.SensitiveFields {
		f = strings.ToLower(f)
		if d.config.ExactFieldMatch {
			if lower == f {
				return true
			}
		} else if strings.Contains(lower, f) {
			return true
		}
	}
	return false
}

func (d *Desensitizer) desensitizeString(s string) string {
	for _, p := range d.patterns {
		s = p.ReplaceAllString(s, d.mask())
	}
	return s
}

func (d *Desensitizer) mask() string {
	return strings.Repeat(d.config.MaskChar, d.config.FixedMaskLength)
}
