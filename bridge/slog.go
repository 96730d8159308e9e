package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/philipp01105/conlog/core"
	"github.com/philipp01105/conlog/logger"
)

// SlogHandler is an adapter that implements slog.Handler on top of a
// Logger. It lets code written against log/slog write conlog lines.
type SlogHandler struct {
	logger *logger.Logger
	level  slog.Leveler
	attrs  string
	group  string
}

// NewSlogHandler creates a slog.Handler writing through l. Records below
// level are discarded; a nil level means slog.LevelInfo.
func NewSlogHandler(l *logger.Logger, level slog.Leveler) *SlogHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &SlogHandler{logger: l, level: level}
}

// Enabled reports whether the handler handles records at the given level.
func (s *SlogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= s.level.Level()
}

// Handle renders the record as "message key=value ..." and logs it.
func (s *SlogHandler) Handle(_ context.Context, record slog.Record) error {
	var b strings.Builder
	b.WriteString(record.Message)
	b.WriteString(s.attrs)
	record.Attrs(func(a slog.Attr) bool {
		appendAttr(&b, s.group, a)
		return true
	})
	s.logger.Log(LevelFromSlog(record.Level), b.String())
	return nil
}

// WithAttrs returns a new SlogHandler with additional attributes.
func (s *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return s
	}
	var b strings.Builder
	b.WriteString(s.attrs)
	for _, a := range attrs {
		appendAttr(&b, s.group, a)
	}
	clone := *s
	clone.attrs = b.String()
	return &clone
}

// WithGroup returns a new SlogHandler qualifying later keys with name.
func (s *SlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return s
	}
	clone := *s
	clone.group = joinKey(s.group, name)
	return &clone
}

// LevelFromSlog maps slog levels onto conlog levels. The steps between
// slog's named levels select notice (info+2) and critical (error+4).
func LevelFromSlog(level slog.Level) core.Level {
	switch {
	case level >= slog.LevelError+4:
		return core.CriticalLevel
	case level >= slog.LevelError:
		return core.ErrorLevel
	case level >= slog.LevelWarn:
		return core.WarnLevel
	case level >= slog.LevelInfo+2:
		return core.NoticeLevel
	case level >= slog.LevelInfo:
		return core.InfoLevel
	default:
		return core.DebugLevel
	}
}

// appendAttr writes a as one or more pairs, flattening groups into
// dot-separated keys.
func appendAttr(b *strings.Builder, group string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		if len(attrs) == 0 {
			return
		}
		// Groups without a key are inlined.
		prefix := group
		if a.Key != "" {
			prefix = joinKey(group, a.Key)
		}
		for _, ga := range attrs {
			appendAttr(b, prefix, ga)
		}
		return
	}

	appendPair(b, joinKey(group, a.Key), slogValue(a.Value))
}

func slogValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	default:
		return v.String()
	}
}

func joinKey(group, key string) string {
	if group == "" {
		return key
	}
	return group + "." + key
}
