package source

import (
	"bufio"
	"bytes"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/philipp01105/conlog/core"
)

// maxDepth bounds the number of frames captured.
const maxDepth = 32

// Capturer captures the current call stack. Capture(0) starts at the
// function that called Capture.
type Capturer interface {
	Capture(skip int) []core.Frame
}

// RuntimeCapturer captures frames with runtime.Callers.
type RuntimeCapturer struct{}

// Capture implements Capturer.
func (RuntimeCapturer) Capture(skip int) []core.Frame {
	var pcs [maxDepth]uintptr
	// runtime.Callers and Capture itself
	n := runtime.Callers(skip+2, pcs[:])
	if n == 0 {
		return nil
	}

	frames := runtime.CallersFrames(pcs[:n])
	out := make([]core.Frame, 0, n)
	for {
		f, more := frames.Next()
		out = append(out, core.Frame{
			Function: f.Function,
			File:     f.File,
			Line:     f.Line,
		})
		if !more {
			break
		}
	}
	return out
}

// TextCapturer captures frames by parsing debug.Stack output.
type TextCapturer struct{}

// Capture implements Capturer.
func (TextCapturer) Capture(skip int) []core.Frame {
	frames := ParseStack(debug.Stack())
	// debug.Stack and Capture itself
	skip += 2
	if skip >= len(frames) {
		return nil
	}
	return frames[skip:]
}

// ParseStack parses a goroutine trace as printed by debug.Stack or a
// panic. Lines that do not form a function/location pair are ignored.
func ParseStack(stack []byte) []core.Frame {
	var frames []core.Frame
	var fn string
	sc := bufio.NewScanner(bytes.NewReader(stack))
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			fn = ""
		case strings.HasPrefix(line, "goroutine "):
			fn = ""
		case strings.HasPrefix(line, "\t"):
			if fn == "" {
				continue
			}
			file, lineNo, ok := parseLocation(strings.TrimPrefix(line, "\t"))
			if ok {
				frames = append(frames, core.Frame{Function: fn, File: file, Line: lineNo})
			}
			fn = ""
		default:
			fn = parseFunction(line)
		}
	}
	return frames
}

// parseFunction strips the argument list from a trace function line.
// "created by" lines keep only the creating function.
func parseFunction(line string) string {
	line = strings.TrimPrefix(line, "created by ")
	if i := strings.Index(line, " in goroutine "); i >= 0 {
		line = line[:i]
	}
	if strings.HasSuffix(line, ")") {
		if i := strings.LastIndexByte(line, '('); i > 0 {
			line = line[:i]
		}
	}
	return line
}

// parseLocation splits "/path/file.go:42 +0x1d" into file and line.
func parseLocation(s string) (string, int, bool) {
	if i := strings.LastIndex(s, " +0x"); i >= 0 {
		s = s[:i]
	}
	i := strings.LastIndexByte(s, ':')
	if i <= 0 {
		return "", 0, false
	}
	n, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return "", 0, false
	}
	return s[:i], n, true
}
