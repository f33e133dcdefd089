// Package logging configures the global zerolog logger.
package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ParseLevel maps a config level name to a zerolog level. Unknown names
// mean info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	case "OFF", "NONE":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Setup installs a console logger writing to w. verbose forces debug level
// and adds caller info.
func Setup(level string, verbose bool, w io.Writer) {
	lvl := ParseLevel(level)
	if verbose {
		lvl = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(lvl)

	ctx := zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).
		With().Timestamp()
	if verbose {
		ctx = ctx.Caller()
	}
	log.Logger = ctx.Logger()
}
