package httplog

import (
	"strings"
)

// LogFunc is a level method such as (*logger.Logger).Info, or one
// returned by Logger.LevelFunc.
type LogFunc func(v any, args ...any)

// Writer forwards each Write as one log call. It lets access loggers and
// other line-oriented producers log through a Logger.
type Writer struct {
	how LogFunc
}

// NewWriter creates a Writer logging through how.
func NewWriter(how LogFunc) *Writer {
	return &Writer{how: how}
}

// Write logs p without its trailing newline. It never fails.
func (w *Writer) Write(p []byte) (int, error) {
	w.how(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}
