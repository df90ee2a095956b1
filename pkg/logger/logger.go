package logger

import (
	"os"
	"strings"

	"github.com/labstack/gommon/log"
)

var std = log.New("campusmart")

func init() {
	std.SetOutput(os.Stdout)
	std.SetHeader("${time_rfc3339} ${level}")
	SetLevel(os.Getenv("LOG_LEVEL"))
}

// Default returns the shared logger. It satisfies echo.Logger, so main installs
// it on the echo instance and request logs share the same sink and level.
func Default() *log.Logger {
	return std
}

// SetLevel accepts debug, info, warn, error or off. Unknown values fall back to info.
func SetLevel(level string) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		std.SetLevel(log.DEBUG)
	case "warn", "warning":
		std.SetLevel(log.WARN)
	case "error":
		std.SetLevel(log.ERROR)
	case "off":
		std.SetLevel(log.OFF)
	default:
		std.SetLevel(log.INFO)
	}
}

func Info(format string, v ...interface{}) {
	std.Infof(format, v...)
}

func Error(format string, v ...interface{}) {
	std.Errorf(format, v...)
}

func Debug(format string, v ...interface{}) {
	std.Debugf(format, v...)
}

func Warn(format string, v ...interface{}) {
	std.Warnf(format, v...)
}
