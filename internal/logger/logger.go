package logger

import (
	"strings"

	"github.com/rs/zerolog"
)

// Logger provides structured logging with a component name on every entry
type Logger interface {
	Info(component string, message string, fields map[string]interface{})
	Error(component string, err error, fields map[string]interface{})
	Warning(component string, message string, fields map[string]interface{})
	Debug(component string, message string, fields map[string]interface{})
}

// ParseLevel maps a configuration string onto a zerolog level.
// Unknown values fall back to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

type nopLogger struct{}

// Nop returns a Logger that discards everything
func Nop() Logger {
	return nopLogger{}
}

func (nopLogger) Info(component string, message string, fields map[string]interface{})    {}
func (nopLogger) Error(component string, err error, fields map[string]interface{})        {}
func (nopLogger) Warning(component string, message string, fields map[string]interface{}) {}
func (nopLogger) Debug(component string, message string, fields map[string]interface{})   {}
