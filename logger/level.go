package logger

import (
	"github.com/philipp01105/conlog/core"
)

// Level Re-export type and constants for convenience
type Level = core.Level

const (
	DebugLevel    = core.DebugLevel
	InfoLevel     = core.InfoLevel
	NoticeLevel   = core.NoticeLevel
	WarnLevel     = core.WarnLevel
	ErrorLevel    = core.ErrorLevel
	CriticalLevel = core.CriticalLevel
)

// ParseLevel converts a level name or alias (verbose, err, crit) to a Level.
func ParseLevel(s string) (Level, error) {
	return core.ParseLevel(s)
}
