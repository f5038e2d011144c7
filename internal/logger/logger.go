package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is the component-tagged logging contract used across the pipeline.
type Logger interface {
	Debug(component, message string, fields map[string]interface{})
	Info(component, message string, fields map[string]interface{})
	Warning(component, message string, fields map[string]interface{})
	Error(component string, err error, fields map[string]interface{})
	// With returns a child logger that stamps fields on every line, such as
	// the run id of one dehaze.
	With(fields map[string]interface{}) Logger
}

// ParseLevel accepts zerolog level names plus "warning". An empty name means
// info.
func ParseLevel(name string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return zerolog.InfoLevel, nil
	case "warning":
		return zerolog.WarnLevel, nil
	default:
		return zerolog.ParseLevel(strings.ToLower(name))
	}
}

// LevelFromEnv reads LOG_LEVEL, then DEBUG=1, falling back to fallback.
func LevelFromEnv(fallback zerolog.Level) zerolog.Level {
	if name := os.Getenv("LOG_LEVEL"); name != "" {
		if level, err := ParseLevel(name); err == nil {
			return level
		}
	}
	if os.Getenv("DEBUG") == "1" {
		return zerolog.DebugLevel
	}
	return fallback
}
