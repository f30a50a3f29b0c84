//go:generate go run golang.org/x/tools/cmd/stringer -type=Level -linecomment=true

package log

import (
	"strings"
)

// Level is the verbosity threshold set by the -verbosity flag.
type Level int

const (
	// Debug messages trace individual lines and transactions moving through the filter.
	Debug Level = iota // DEBUG
	// Info messages convey lifecycle events: startup, stream opening, shutdown.
	Info // INFO
	// Warn messages describe non-erroring divergences, such as forced expiry or eviction.
	Warn // WARN
	// Error messages indicate behavior that is not intended and should be corrected.
	Error // ERROR
)

// ParseLevel resolves a -verbosity value such as "debug" or "WARN". An unknown value resolves to
// Error so that a typo never floods stderr.
func ParseLevel(level string) (Level, bool) {
	for _, knownLevel := range []Level{Debug, Info, Warn, Error} {
		if strings.EqualFold(level, knownLevel.String()) {
			return knownLevel, true
		}
	}

	return Error, false
}

// Enables indicates whether the current log level enables logging at another level.
//
// A filter started at Info drops per-line Debug traces but keeps eviction warnings:
//
//	Info.Enables(Debug) == false
//	Info.Enables(Warn)  == true
func (l Level) Enables(other Level) bool {
	return l <= other
}
