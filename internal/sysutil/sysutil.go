// Package sysutil holds process-level helpers shared by the binaries:
// log level parsing, boolean flags from env or query strings, and the build
// version.
package sysutil

import (
	"os"
	"runtime/debug"
	"strings"

	"github.com/rs/zerolog"
)

var levels = map[string]zerolog.Level{
	"debug":   zerolog.DebugLevel,
	"info":    zerolog.InfoLevel,
	"warn":    zerolog.WarnLevel,
	"warning": zerolog.WarnLevel,
	"error":   zerolog.ErrorLevel,
	"fatal":   zerolog.FatalLevel,
	"panic":   zerolog.PanicLevel,
}

// ParseLevel maps a level name (case-insensitive, "warning" accepted) to a
// zerolog level. Empty or unknown names yield info and false.
func ParseLevel(s string) (zerolog.Level, bool) {
	l, ok := levels[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return zerolog.InfoLevel, false
	}
	return l, true
}

// SetLogLevel sets the global zerolog level and returns it.
func SetLogLevel(lvl string) zerolog.Level {
	l, _ := ParseLevel(lvl)
	zerolog.SetGlobalLevel(l)
	return l
}

// ParseBool reads the usual spellings of a boolean. ok is false when v is
// empty or not recognised.
func ParseBool(v string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}

// IsTruthy reports whether v spells true.
func IsTruthy(v string) bool {
	b, ok := ParseBool(v)
	return ok && b
}

// FirstNonEmpty returns the first value that is not blank, unchanged.
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

// Version picks the build version: the linker-provided value, then
// $APP_VERSION, then the main module version recorded by the toolchain,
// then "dev".
func Version(linked string) string {
	var module string
	if bi, ok := readBuildInfo(); ok && bi.Main.Version != "(devel)" {
		module = bi.Main.Version
	}
	return FirstNonEmpty(linked, os.Getenv("APP_VERSION"), module, "dev")
}
