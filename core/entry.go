package core

import (
	"io"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Level represents the severity level of a log call
type Level int8

const (
	// DebugLevel for detailed debugging information
	DebugLevel Level = iota
	// InfoLevel for general informational messages
	InfoLevel
	// NoticeLevel for normal but significant events
	NoticeLevel
	// WarnLevel for warning messages
	WarnLevel
	// ErrorLevel for error messages
	ErrorLevel
	// CriticalLevel for events that need immediate attention
	CriticalLevel
)

// LevelCount is the number of defined levels.
const LevelCount = int(CriticalLevel) + 1

// ErrInvalidLevel is returned when a level name does not exist.
var ErrInvalidLevel = errors.New("invalid log level")

// levelTags are the bracketed tags rendered in front of every first line.
// The text inside the brackets is always six characters wide.
var levelTags = [LevelCount]string{
	DebugLevel:    "[DEBUG ]",
	InfoLevel:     "[INFO  ]",
	NoticeLevel:   "[NOTICE]",
	WarnLevel:     "[WARN  ]",
	ErrorLevel:    "[ERROR ]",
	CriticalLevel: "[CRITIC]",
}

// String returns the string representation of the level
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case NoticeLevel:
		return "NOTICE"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	case CriticalLevel:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// Valid reports whether l is one of the defined levels.
func (l Level) Valid() bool {
	return l >= DebugLevel && l <= CriticalLevel
}

// Tag returns the fixed-width level tag, e.g. "[INFO  ]".
func (l Level) Tag() string {
	if !l.Valid() {
		return "[?????]"
	}
	return levelTags[l]
}

// AllLevels returns every level from debug to critical.
func AllLevels() []Level {
	return []Level{DebugLevel, InfoLevel, NoticeLevel, WarnLevel, ErrorLevel, CriticalLevel}
}

// ParseLevel converts a level or level method name to a Level.
// The aliases verbose, err and crit are accepted.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "verbose":
		return DebugLevel, nil
	case "info":
		return InfoLevel, nil
	case "notice":
		return NoticeLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error", "err":
		return ErrorLevel, nil
	case "critical", "crit":
		return CriticalLevel, nil
	default:
		return InfoLevel, errors.Wrapf(ErrInvalidLevel, "%q", s)
	}
}

// Entry is one batch of rendered lines produced by a single log call.
// The lines of an entry are always written together and in order.
type Entry struct {
	Level  Level
	Writer io.Writer
	Lines  []string
}

// entryPool is a pool of Entry objects to reduce allocations
var entryPool = sync.Pool{
	New: func() interface{} {
		return &Entry{
			Lines: make([]string, 0, 4),
		}
	},
}

// GetEntry retrieves an Entry from the pool
func GetEntry() *Entry {
	e := entryPool.Get().(*Entry)
	e.Lines = e.Lines[:0]
	return e
}

// PutEntry returns an Entry to the pool
func PutEntry(e *Entry) {
	if e == nil {
		return
	}
	clear(e.Lines)
	e.Lines = e.Lines[:0]
	e.Writer = nil
	entryPool.Put(e)
}
