package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// pahoLogger adapts slog to paho's package-level Logger interface.
type pahoLogger struct {
	log   *slog.Logger
	level slog.Level
}

func (p pahoLogger) Println(v ...any) {
	p.log.Log(context.Background(), p.level, strings.TrimSpace(fmt.Sprintln(v...)))
}

func (p pahoLogger) Printf(format string, v ...any) {
	p.log.Log(context.Background(), p.level, strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// SetLibraryLogger routes paho's internal ERROR, CRITICAL and WARN output to
// log. When debug is true paho's (very verbose) DEBUG output is routed too.
//
// paho's loggers are process-wide; call this once during startup.
func SetLibraryLogger(log *slog.Logger, debug bool) {
	log = log.With("component", "paho")

	pahomqtt.CRITICAL = pahoLogger{log: log, level: slog.LevelError}
	pahomqtt.ERROR = pahoLogger{log: log, level: slog.LevelError}
	pahomqtt.WARN = pahoLogger{log: log, level: slog.LevelWarn}
	if debug {
		pahomqtt.DEBUG = pahoLogger{log: log, level: slog.LevelDebug}
	}
}
