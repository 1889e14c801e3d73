// Package logger provides leveled printf-style logging for the
// dashboard services.
package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Level represents a logging level.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

var (
	minLevel = InfoLevel
	std      = log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)
)

func parseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return DebugLevel
	case "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Init configures the default logger. The "text" format adds caller
// file:line to each entry.
func Init(level string, format string) {
	minLevel = parseLevel(level)
	flags := log.LstdFlags | log.Lmicroseconds
	if strings.ToLower(format) == "text" {
		flags |= log.Lshortfile
	}
	std = log.New(os.Stderr, "", flags)
}

func output(l Level, tag, format string, args ...interface{}) {
	if l < minLevel {
		return
	}
	_ = std.Output(3, fmt.Sprintf(tag+format, args...))
}

func Debug(format string, args ...interface{}) {
	output(DebugLevel, "[DEBUG] ", format, args...)
}

func Info(format string, args ...interface{}) {
	output(InfoLevel, "[INFO] ", format, args...)
}

func Warn(format string, args ...interface{}) {
	output(WarnLevel, "[WARN] ", format, args...)
}

func Error(format string, args ...interface{}) {
	output(ErrorLevel, "[ERROR] ", format, args...)
}

func Fatal(format string, args ...interface{}) {
	output(ErrorLevel, "[FATAL] ", format, args...)
	os.Exit(1)
}
