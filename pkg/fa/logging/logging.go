// Package logging builds the leveled loggers used across fa.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/phuslu/log"
)

var levels = map[string]log.Level{
	"trace": log.TraceLevel,
	"debug": log.DebugLevel,
	"info":  log.InfoLevel,
	"warn":  log.WarnLevel,
	"error": log.ErrorLevel,
}

// ParseLevel maps a config level name to a log level.
func ParseLevel(s string) (log.Level, error) {
	lvl, ok := levels[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return log.InfoLevel, fmt.Errorf("unknown log level %q (want trace, debug, info, warn or error)", s)
	}
	return lvl, nil
}

// New returns a console logger writing to w. Logs go to stderr in the CLI so
// they never mix with rendered reports on stdout.
func New(level string, w io.Writer, color bool) (*log.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return &log.Logger{
		Level: lvl,
		Writer: &log.ConsoleWriter{
			Writer:      w,
			ColorOutput: color,
			QuoteString: true,
		},
	}, nil
}

// Nop discards everything.
func Nop() *log.Logger {
	return &log.Logger{Level: log.ErrorLevel, Writer: &log.IOWriter{Writer: io.Discard}}
}

// OrNop returns l, or a discarding logger when l is nil.
func OrNop(l *log.Logger) *log.Logger {
	if l == nil {
		return Nop()
	}
	return l
}
