package common

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"
)

// InitLogger configures the global zerolog logger. Level comes from the
// LOG_LEVEL env var; "console" pretty-prints for local development, any
// other value keeps JSON output for log shipping.
func InitLogger(format string) {
	level := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(strings.ToLower(os.Getenv("LOG_LEVEL"))); err == nil && parsed != zerolog.NoLevel {
		level = parsed
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	if format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// ServiceLogger provides structured logging for DI services
type ServiceLogger struct {
	svc   container.IInstance
	debug bool
}

// NewServiceLogger creates a new logger for a service
func NewServiceLogger(svc container.IInstance) *ServiceLogger {
	return &ServiceLogger{svc: svc}
}

func (l *ServiceLogger) SetDebugMode(debug bool) {
	l.debug = debug
}

func (l *ServiceLogger) Info(msg string, method string) string {
	if l.debug {
		log.Info().Str("service", l.svc.ID()).Str("method", method).Msg(msg)
	}
	return msg
}

func (l *ServiceLogger) Error(err error, msg string, method string) string {
	log.Error().Str("service", l.svc.ID()).Str("method", method).Err(err).Msg(msg)
	return msg
}
