package logging

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const appName = "segloom"

// New builds a console logger at the given level. Unknown levels fall back
// to info; debug forces debug.
func New(w io.Writer, level string, debug bool) zerolog.Logger {
	lvl := parseLevel(level)
	if debug {
		lvl = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "02-01-2006 15:04:05.000",
		FormatLevel: func(i interface{}) string {
			return strings.ToUpper(fmt.Sprintf("%-6s", i))
		},
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Str("app", appName).Caller().Logger()
}

// Init replaces the global logger and returns it.
func Init(level string, debug bool) zerolog.Logger {
	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		parts := strings.Split(file, "/")
		return parts[len(parts)-1] + ":" + strconv.Itoa(line)
	}
	log.Logger = New(os.Stderr, level, debug)
	return log.Logger
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}
