// Package logging builds the structured loggers used across the CLI.
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const prefix = "brachisim"

// ParseLevel accepts debug, info, warn and error.
func ParseLevel(s string) (log.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DebugLevel, nil
	case "", "info":
		return log.InfoLevel, nil
	case "warn", "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	default:
		return log.InfoLevel, fmt.Errorf("unknown log level: %s", s)
	}
}

func New(w io.Writer, level string) (*log.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		Prefix:          prefix,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	}), nil
}

// Nop discards everything.
func Nop() *log.Logger {
	return log.New(io.Discard)
}
