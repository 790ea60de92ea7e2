// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logger builds the zerolog logger shared by the CLI and the
// generator. Logs go to stderr so stdout stays free for generated source.
package logger

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger writing to w at level. When pretty is true the output
// is human-readable console text, otherwise one JSON object per line.
// An unknown level falls back to info.
func New(level string, pretty bool, w io.Writer) zerolog.Logger {
	var l zerolog.Logger
	if pretty {
		l = zerolog.New(zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	} else {
		l = zerolog.New(w).With().Timestamp().Logger()
	}

	zLevel, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		zLevel = zerolog.InfoLevel
	}
	return l.Level(zLevel)
}

// Nop returns a disabled logger.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
