package logger

import (
	"context"
	"io"
	"sync"
)

var (
	defaultFactory *Factory
	defaultMu      sync.RWMutex
)

func init() {
	defaultFactory = NewFactory()
}

// Default returns the default factory
func Default() *Factory {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultFactory
}

// SetDefault replaces the default factory. Loggers created from the old
// one keep using it.
func SetDefault(f *Factory) {
	if f == nil {
		return
	}
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultFactory = f
}

// Package-level convenience functions using the default factory

// Module creates a logger named after the calling file.
func Module() *Logger {
	return Default().module(2)
}

// Instance creates a logger with the given prefix.
func Instance(prefix string) *Logger {
	return Default().Instance(prefix)
}

// Root returns the unnamed logger of the default factory.
func Root() *Logger {
	return Default().Root()
}

// Silence silences or re-enables all loggers of the default factory.
func Silence(silent bool) {
	Default().Silence(silent)
}

// SetEnabled sets the master switch of the default factory.
func SetEnabled(enabled bool) {
	Default().SetEnabled(enabled)
}

// Require sets the minimum level of the default factory.
func Require(level Level) {
	Default().Require(level)
}

// To sets the stream of loggers created afterwards.
func To(w io.Writer) {
	Default().To(w)
}

// Disable turns the named levels off for the default factory.
func Disable(names ...string) error {
	return Default().Disable(names...)
}

// Flush waits for deferred writes of the default factory.
func Flush(ctx context.Context) error {
	return Default().Flush(ctx)
}

// Close stops the default factory's handlers.
func Close() error {
	return Default().Close()
}

// Debug logs through the unnamed logger of the default factory.
func Debug(v any, args ...any) {
	Default().Root().log(DebugLevel, v, args)
}

// Info logs through the unnamed logger of the default factory.
func Info(v any, args ...any) {
	Default().Root().log(InfoLevel, v, args)
}

// Notice logs through the unnamed logger of the default factory.
func Notice(v any, args ...any) {
	Default().Root().log(NoticeLevel, v, args)
}

// Warn logs through the unnamed logger of the default factory.
func Warn(v any, args ...any) {
	Default().Root().log(WarnLevel, v, args)
}

// Error logs through the unnamed logger of the default factory.
func Error(v any, args ...any) {
	Default().Root().log(ErrorLevel, v, args)
}

// Critical logs through the unnamed logger of the default factory.
func Critical(v any, args ...any) {
	Default().Root().log(CriticalLevel, v, args)
}
