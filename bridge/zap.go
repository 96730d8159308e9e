package bridge

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/philipp01105/conlog/core"
	"github.com/philipp01105/conlog/logger"
)

// syncTimeout bounds how long Sync waits for deferred writes.
const syncTimeout = 5 * time.Second

// ZapCore is a zapcore.Core that writes zap entries through a Logger.
// Timestamps and levels come from conlog; zap contributes the logger
// name, the message, fields and stack traces.
type ZapCore struct {
	zapcore.LevelEnabler
	logger *logger.Logger
	enc    zapcore.Encoder
}

// NewZapCore creates a core writing through l for the levels enab allows.
func NewZapCore(l *logger.Logger, enab zapcore.LevelEnabler) *ZapCore {
	return &ZapCore{
		LevelEnabler: enab,
		logger:       l,
		enc:          zapcore.NewConsoleEncoder(zapEncoderConfig()),
	}
}

func zapEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		MessageKey:       "msg",
		NameKey:          "logger",
		StacktraceKey:    "stacktrace",
		LineEnding:       "\n",
		ConsoleSeparator: " ",
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeTime:       zapcore.RFC3339NanoTimeEncoder,
		EncodeName:       zapcore.FullNameEncoder,
	}
}

// With adds structured context to the core.
func (c *ZapCore) With(fields []zapcore.Field) zapcore.Core {
	clone := c.clone()
	for i := range fields {
		fields[i].AddTo(clone.enc)
	}
	return clone
}

// Check adds the core to ce when the entry's level is enabled.
func (c *ZapCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

// Write encodes the entry without time and level and logs it.
func (c *ZapCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	buf, err := c.enc.EncodeEntry(ent, fields)
	if err != nil {
		return err
	}
	text := strings.TrimSuffix(buf.String(), "\n")
	buf.Free()

	c.logger.Log(LevelFromZap(ent.Level), text)
	if ent.Level > zapcore.ErrorLevel {
		// zap may exit or panic right after a fatal entry.
		return c.Sync()
	}
	return nil
}

// Sync waits for lines deferred by a logger with Sync(false).
func (c *ZapCore) Sync() error {
	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()
	return c.logger.Factory().Flush(ctx)
}

func (c *ZapCore) clone() *ZapCore {
	return &ZapCore{
		LevelEnabler: c.LevelEnabler,
		logger:       c.logger,
		enc:          c.enc.Clone(),
	}
}

// LevelFromZap maps zap levels onto conlog levels; DPanic, Panic and
// Fatal become critical.
func LevelFromZap(level zapcore.Level) core.Level {
	switch {
	case level > zapcore.ErrorLevel:
		return core.CriticalLevel
	case level == zapcore.ErrorLevel:
		return core.ErrorLevel
	case level == zapcore.WarnLevel:
		return core.WarnLevel
	case level == zapcore.InfoLevel:
		return core.InfoLevel
	default:
		return core.DebugLevel
	}
}
