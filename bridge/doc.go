// Package bridge feeds other logging front-ends into a conlog Logger.
//
// Each adapter renders a record as "message key=value ..." and passes the
// text to the logger at the closest conlog level, so records from slog,
// zap and zerolog get the same timestamp, level tag, prefix alignment and
// repeat collapsing as direct calls:
//
//	slog.SetDefault(slog.New(bridge.NewSlogHandler(log, slog.LevelDebug)))
//	z := zap.New(bridge.NewZapCore(log, zapcore.InfoLevel))
//	zl := zerolog.New(bridge.NewZerologWriter(log))
//
// Call-site tracing through a bridge reports the adapter's frame; enable
// WithSource on loggers used directly instead.
package bridge
