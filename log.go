package spgo

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// NewLogger returns a JSON logger writing to w at level. It is the logger
// used when New is not given one, writing to stderr.
func NewLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// LogNative forwards one line of the native library's own log output.
//
// libspotify prefixes each line with a clock and a one-letter severity
// ("12:00:00.000 I [ap:1752] Connecting"). The letter picks the zerolog
// level; anything unrecognised is logged at debug.
func (b *Bridge) LogNative(line string) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return
	}
	lvl, msg := nativeLevel(line)
	b.nativeLog.WithLevel(lvl).Msg(msg)
}

func nativeLevel(line string) (zerolog.Level, string) {
	fields := strings.SplitN(line, " ", 3)
	if len(fields) < 3 || len(fields[1]) != 1 {
		return zerolog.DebugLevel, line
	}
	var lvl zerolog.Level
	switch fields[1] {
	case "E":
		lvl = zerolog.ErrorLevel
	case "W":
		lvl = zerolog.WarnLevel
	case "I":
		lvl = zerolog.InfoLevel
	case "D":
		lvl = zerolog.DebugLevel
	default:
		return zerolog.DebugLevel, line
	}
	return lvl, fields[2]
}
