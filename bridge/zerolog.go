package bridge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/philipp01105/conlog/core"
	"github.com/philipp01105/conlog/logger"
)

// ZerologWriter is a zerolog.LevelWriter that decodes zerolog's JSON
// events and logs them through a Logger.
type ZerologWriter struct {
	logger *logger.Logger
}

var _ zerolog.LevelWriter = (*ZerologWriter)(nil)

// NewZerologWriter creates a writer for zerolog.New.
func NewZerologWriter(l *logger.Logger) *ZerologWriter {
	return &ZerologWriter{logger: l}
}

// Write logs an event whose level is read from the event itself.
func (w *ZerologWriter) Write(p []byte) (int, error) {
	return w.WriteLevel(zerolog.NoLevel, p)
}

// WriteLevel logs one event. The timestamp and level fields are dropped,
// the message comes first and the remaining fields follow sorted by key.
// Input that is not a JSON object is logged as it is.
func (w *ZerologWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	n := len(p)

	var fields map[string]any
	dec := json.NewDecoder(bytes.NewReader(p))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		w.logger.Log(LevelFromZerolog(level), strings.TrimRight(string(p), "\n"))
		return n, nil
	}

	if level == zerolog.NoLevel {
		if name, ok := fields[zerolog.LevelFieldName].(string); ok {
			if parsed, err := zerolog.ParseLevel(name); err == nil {
				level = parsed
			}
		}
	}
	delete(fields, zerolog.LevelFieldName)
	delete(fields, zerolog.TimestampFieldName)

	var b strings.Builder
	if msg, ok := fields[zerolog.MessageFieldName]; ok {
		b.WriteString(fmt.Sprint(msg))
		delete(fields, zerolog.MessageFieldName)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		appendPair(&b, k, zerologValue(fields[k]))
	}

	w.logger.Log(LevelFromZerolog(level), strings.TrimPrefix(b.String(), " "))
	return n, nil
}

func zerologValue(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case nil:
		return "null"
	case map[string]any, []any:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(raw)
	default:
		return fmt.Sprint(v)
	}
}

// LevelFromZerolog maps zerolog levels onto conlog levels. Events without
// a level are logged at info.
func LevelFromZerolog(level zerolog.Level) core.Level {
	switch level {
	case zerolog.TraceLevel, zerolog.DebugLevel:
		return core.DebugLevel
	case zerolog.WarnLevel:
		return core.WarnLevel
	case zerolog.ErrorLevel:
		return core.ErrorLevel
	case zerolog.FatalLevel, zerolog.PanicLevel:
		return core.CriticalLevel
	default:
		return core.InfoLevel
	}
}
