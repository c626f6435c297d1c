package utils

import (
	"log"
	"os"
)

// Logger is a thin prefix-aware wrapper over the standard logger. Handlers
// and stores receive it by pointer; a nil Logger is safe to call.
type Logger struct {
	std *log.Logger
}

func NewLogger() *Logger {
	return &Logger{std: log.New(os.Stdout, "", log.LstdFlags|log.LUTC)}
}

func (l *Logger) Printf(format string, args ...any) {
	if l == nil || l.std == nil {
		return
	}
	l.std.Printf(format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	if l == nil || l.std == nil {
		return
	}
	l.std.Printf("ERROR "+format, args...)
}

func (l *Logger) Fatalf(format string, args ...any) {
	if l == nil || l.std == nil {
		os.Exit(1)
	}
	l.std.Fatalf(format, args...)
}
