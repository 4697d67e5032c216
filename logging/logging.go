package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// logger fields
const (
	PACKAGE  = "pkg"
	EVENT    = "event"
	ID       = "id"
	RUN      = "run"
	ACTOR    = "actor"
	STATUS   = "status"
	ATTEMPT  = "attempt"
	USER     = "user"
	LOCATION = "location"
	KEY      = "key"
)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
}

// Init configures the global logger. An unknown level falls back to info.
func Init(level string, pretty bool) {
	var out io.Writer = os.Stdout
	if pretty {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

// NewPackageLogger returns a new logger with pkg={pkg}
func NewPackageLogger(pkg string) zerolog.Logger {
	return log.With().Str(PACKAGE, pkg).Logger()
}
