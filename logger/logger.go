package logger

import (
	"io"

	"github.com/philipp01105/conlog/core"
	"github.com/philipp01105/conlog/dedup"
	"github.com/philipp01105/conlog/source"
	"github.com/philipp01105/conlog/subject"
)

// Logger writes aligned, level-tagged lines for one prefix. It is safe for
// concurrent use; its settings live under the lock of its Factory.
type Logger struct {
	f      *Factory
	prefix string

	// guarded by f.mu
	stream      io.Writer
	traceSource bool
	synchronous bool
	enabled     bool
	minLevel    core.Level
}

// Debug logs at debug level. A string subject is a format for args; any
// other subject is rendered on its own and args are ignored.
func (l *Logger) Debug(v any, args ...any) {
	l.log(core.DebugLevel, v, args)
}

// Verbose is an alias of Debug.
func (l *Logger) Verbose(v any, args ...any) {
	l.log(core.DebugLevel, v, args)
}

// Info logs at info level.
func (l *Logger) Info(v any, args ...any) {
	l.log(core.InfoLevel, v, args)
}

// Notice logs at notice level.
func (l *Logger) Notice(v any, args ...any) {
	l.log(core.NoticeLevel, v, args)
}

// Warn logs at warn level.
func (l *Logger) Warn(v any, args ...any) {
	l.log(core.WarnLevel, v, args)
}

// Error logs at error level.
func (l *Logger) Error(v any, args ...any) {
	l.log(core.ErrorLevel, v, args)
}

// Err is an alias of Error.
func (l *Logger) Err(v any, args ...any) {
	l.log(core.ErrorLevel, v, args)
}

// Critical logs at critical level.
func (l *Logger) Critical(v any, args ...any) {
	l.log(core.CriticalLevel, v, args)
}

// Crit is an alias of Critical.
func (l *Logger) Crit(v any, args ...any) {
	l.log(core.CriticalLevel, v, args)
}

// Log logs at the given level. Invalid levels are ignored.
func (l *Logger) Log(level core.Level, v any, args ...any) {
	l.log(level, v, args)
}

// LevelFunc returns the level method called name, aliases included.
func (l *Logger) LevelFunc(name string) (func(v any, args ...any), error) {
	level, err := core.ParseLevel(name)
	if err != nil {
		return nil, err
	}
	return func(v any, args ...any) { l.log(level, v, args) }, nil
}

// WithSource toggles a second line with the call site of every message.
func (l *Logger) WithSource(enable bool) *Logger {
	l.f.mu.Lock()
	l.traceSource = enable
	l.f.mu.Unlock()
	return l
}

// To redirects the logger. A nil writer is ignored.
func (l *Logger) To(w io.Writer) *Logger {
	if w == nil {
		return l
	}
	l.f.mu.Lock()
	l.stream = w
	l.f.mu.Unlock()
	return l
}

// Sync selects synchronous writes (true, the default) or writes deferred
// to a background goroutine (false). Use Factory.Flush to wait for them.
func (l *Logger) Sync(enable bool) *Logger {
	l.f.mu.Lock()
	l.synchronous = enable
	l.f.mu.Unlock()
	return l
}

// Enable turns the logger on or off.
func (l *Logger) Enable(enable bool) *Logger {
	l.f.mu.Lock()
	l.enabled = enable
	l.f.mu.Unlock()
	return l
}

// Prefix returns the logger's name, empty for unnamed loggers.
func (l *Logger) Prefix() string {
	return l.prefix
}

// Factory returns the factory that created the logger.
func (l *Logger) Factory() *Factory {
	return l.f
}

// log is called directly by every public level method so the user's frame
// is always source.CallSiteDepth frames above the capture.
func (l *Logger) log(level core.Level, v any, args []any) {
	f := l.f

	f.mu.Lock()
	if !l.allowsLocked(level) {
		f.mu.Unlock()
		return
	}
	trace := l.traceSource
	f.mu.Unlock()

	// Normalizing outside the lock lets String and Error methods log.
	s := f.normalizer.Normalize(v, args...)

	var location string
	if trace && s.Traceable() {
		location = f.locator.Location(source.CallSiteDepth)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if s.Kind == subject.Plain {
		verdict := f.filter.Check(dedup.Key{Level: level, Owner: l, Text: s.Text}, l.delegate(level))
		if !verdict.Allow {
			return
		}
		if verdict.Pending != nil {
			verdict.Pending.Emit()
		}
	} else if pending := f.filter.Break(); pending != nil {
		pending.Emit()
	}

	l.writeLocked(level, s.Text)
	if location != "" {
		l.writeLocked(level, "  "+location)
	}
}

// allowsLocked reports whether l currently writes messages at level.
func (l *Logger) allowsLocked(level core.Level) bool {
	f := l.f
	return l.enabled && f.enabled && level.Valid() && level >= l.minLevel && !f.disabled[level]
}

// delegate returns the function that reports a streak of this logger at
// level. It runs with f.mu held. The summary is dropped when the logger
// no longer writes at level, e.g. after Require or Disable.
func (l *Logger) delegate(level core.Level) dedup.Delegate {
	return func(summary core.Untraceable) {
		if l.allowsLocked(level) {
			l.writeLocked(level, summary.String())
		}
	}
}

// writeLocked formats text and hands its lines to the emitter. Internal
// lines (summaries and locations) come straight here and skip the filter.
func (l *Logger) writeLocked(level core.Level, text string) {
	f := l.f
	e := core.GetEntry()
	e.Level = level
	e.Writer = l.stream
	e.Lines = f.layout.AppendLines(e.Lines[:0], level, l.prefix, text, f.colorizerLocked(level, l.stream))
	// Write errors are counted in the emitter's stats.
	_ = f.emitter.Emit(e, l.synchronous)
}
