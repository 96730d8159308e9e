package formatter

import (
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/philipp01105/conlog/core"
)

// BlankTag replaces the level tag on continuation lines.
var BlankTag = strings.Repeat(" ", len(core.InfoLevel.Tag()))

// Context holds the process-wide alignment state: the width of the widest
// prefix registered so far. The width only ever grows.
type Context struct {
	width atomic.Int64
}

// NewContext creates a Context with no registered prefix.
func NewContext() *Context {
	return &Context{}
}

// Register widens the alignment column to fit prefix.
func (c *Context) Register(prefix string) {
	n := int64(utf8.RuneCountInString(prefix))
	for {
		cur := c.width.Load()
		if n <= cur || c.width.CompareAndSwap(cur, n) {
			return
		}
	}
}

// Width returns the widest registered prefix length.
func (c *Context) Width() int {
	return int(c.width.Load())
}

// PrefixBlock returns the aligned prefix column for one line. It is empty
// while no prefix has been registered and this one is empty too; otherwise
// it is "(" + right-aligned prefix + ")" on first lines and a run of blanks
// of the same width on continuation lines or for unprefixed loggers.
func (c *Context) PrefixBlock(prefix string, continuation bool) string {
	width := c.Width()
	if prefix == "" && width == 0 {
		return ""
	}
	if prefix != "" && !continuation {
		return "(" + Pad(prefix, width, ' ') + ")"
	}
	return strings.Repeat(" ", width+2)
}

// RenderLine joins the tag, prefix block and body with single spaces,
// leaving out the prefix block and its separator when it is empty.
func RenderLine(tag, prefixBlock, body string) string {
	if prefixBlock == "" {
		return tag + " " + body
	}
	return tag + " " + prefixBlock + " " + body
}

// Lines splits body on newlines and renders every part. Only the first
// line carries the level tag and the prefix; the others are padded so
// their text starts in the same column. colorize may be nil.
func (c *Context) Lines(level core.Level, prefix, body string, colorize core.Colorizer) []string {
	return c.AppendLines(nil, level, prefix, body, colorize)
}

// AppendLines is like Lines but appends to dst.
func (c *Context) AppendLines(dst []string, level core.Level, prefix, body string, colorize core.Colorizer) []string {
	tag := level.Tag()
	first, cont := c.PrefixBlock(prefix, false), c.PrefixBlock(prefix, true)
	for i := 0; ; i++ {
		part, rest, more := strings.Cut(body, "\n")
		line := RenderLine(tag, first, part)
		if i == 0 {
			tag, first = BlankTag, cont
		}
		if colorize != nil {
			line = colorize(line)
		}
		dst = append(dst, line)
		if !more {
			return dst
		}
		body = rest
	}
}
