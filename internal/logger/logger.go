package logger

import (
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/fatih/color"
)

// Logger writes leveled, colored lines tagged with a component name.
type Logger struct {
	serviceName string
}

var (
	InfoPrefix    = "[i]"
	SuccessPrefix = "[+]"
	WarnPrefix    = "[!]"
	ErrorPrefix   = "[x]"
	DebugPrefix   = "[d]"
)

func New(serviceName string) *Logger {
	return &Logger{serviceName: serviceName}
}

func (l *Logger) formatMessage(level, prefix, msg string) string {
	_, file, line, _ := runtime.Caller(2)
	timestamp := time.Now().Format("2006-01-02 15:04:05")

	return fmt.Sprintf("%s | %s | %s | %s:%d | %s | %s",
		prefix,
		timestamp,
		level,
		filepath.Base(file),
		line,
		l.serviceName,
		msg,
	)
}

func (l *Logger) Info(msg string, args ...interface{}) {
	color.Cyan("%s", l.formatMessage("INFO", InfoPrefix, fmt.Sprintf(msg, args...)))
}

func (l *Logger) Success(msg string, args ...interface{}) {
	color.Green("%s", l.formatMessage("SUCCESS", SuccessPrefix, fmt.Sprintf(msg, args...)))
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	color.Yellow("%s", l.formatMessage("WARN", WarnPrefix, fmt.Sprintf(msg, args...)))
}

// Error logs err and returns it wrapped with msg so callers can
// `return log.Error("...", err)`.
func (l *Logger) Error(msg string, err error, args ...interface{}) error {
	line := fmt.Sprintf(msg, args...)
	color.Red("%s", l.formatMessage("ERROR", ErrorPrefix, fmt.Sprintf("%s: %v", line, err)))
	return fmt.Errorf("%s: %w", line, err)
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	color.Magenta("%s", l.formatMessage("DEBUG", DebugPrefix, fmt.Sprintf(msg, args...)))
}
