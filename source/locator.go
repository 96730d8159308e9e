package source

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/philipp01105/conlog/core"
)

// CallSiteDepth is the index of the user's frame counted from the function
// that asks for the call site: that function, the public level method that
// called it, then the user's code.
const CallSiteDepth = 2

// Locator resolves call sites. It caches the lines of every source file it
// has read to find columns.
type Locator struct {
	capturer Capturer

	mu    sync.Mutex
	files map[string][]string
}

// NewLocator creates a Locator. A nil capturer means RuntimeCapturer.
func NewLocator(c Capturer) *Locator {
	if c == nil {
		c = RuntimeCapturer{}
	}
	return &Locator{capturer: c, files: make(map[string][]string)}
}

// Caller returns the frame depth levels above the function calling Caller,
// without a column. It reports false when the stack is too short.
func (l *Locator) Caller(depth int) (core.Frame, bool) {
	frames := l.capturer.Capture(1)
	if depth < 0 || depth >= len(frames) {
		return core.Frame{}, false
	}
	return frames[depth], true
}

// CallSite returns the frame depth levels above the function calling
// CallSite with a shortened function name and a column. The column is
// where the frame below it (the logging method) is named on that line,
// else the first non-blank column, else zero.
func (l *Locator) CallSite(depth int) (core.Frame, bool) {
	frames := l.capturer.Capture(1)
	if depth < 1 || depth >= len(frames) {
		return core.Frame{}, false
	}
	f := frames[depth]
	f.Column = l.column(f.File, f.Line, methodName(frames[depth-1].Function))
	f.Function = ShortFunction(f.Function)
	return f, true
}

// Location renders the call site at depth, or "" when there is none.
func (l *Locator) Location(depth int) string {
	f, ok := l.CallSite(depth + 1)
	if !ok {
		return ""
	}
	return f.String()
}

func (l *Locator) column(file string, line int, method string) int {
	text := l.line(file, line)
	if text == "" {
		return 0
	}
	if method != "" {
		if i := strings.Index(text, "."+method+"("); i >= 0 {
			return i + 2
		}
		if i := strings.Index(text, method+"("); i >= 0 {
			return i + 1
		}
	}
	if i := strings.IndexFunc(text, func(r rune) bool { return r != ' ' && r != '\t' }); i >= 0 {
		return i + 1
	}
	return 0
}

func (l *Locator) line(file string, line int) string {
	l.mu.Lock()
	lines, ok := l.files[file]
	if !ok {
		if data, err := os.ReadFile(file); err == nil {
			lines = strings.Split(string(data), "\n")
		}
		l.files[file] = lines
	}
	l.mu.Unlock()

	if line < 1 || line > len(lines) {
		return ""
	}
	return lines[line-1]
}

// ShortFunction strips the import path and package name from a fully
// qualified function name: "example.com/app/db.(*Pool).Get" becomes
// "(*Pool).Get".
func ShortFunction(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// methodName returns the last element of a function name, "Info" for
// "example.com/conlog/logger.(*Logger).Info".
func methodName(fn string) string {
	if i := strings.LastIndexByte(fn, '.'); i >= 0 {
		return fn[i+1:]
	}
	return fn
}

// ModuleName derives a logger prefix from the file of frame: its base
// name without extension. It returns "" for frames without a file.
func ModuleName(f core.Frame) string {
	if f.File == "" {
		return ""
	}
	base := filepath.Base(f.File)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
