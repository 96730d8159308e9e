package core

import (
	"path/filepath"
	"strconv"
)

// Placeholders substituted when a subject cannot be rendered.
const (
	InvalidError     = "<invalid error>"
	MalformedSubject = "<malformed subject>"
)

// Untraceable is text that must not be source traced or used as a
// deduplication key. Error stacks, repeat summaries and call-site lines
// are wrapped in it.
type Untraceable struct {
	text string
}

// NewUntraceable wraps text.
func NewUntraceable(text string) Untraceable {
	return Untraceable{text: text}
}

// String returns the wrapped text.
func (u Untraceable) String() string {
	return u.text
}

// Colorizer maps a rendered line to its colored form.
type Colorizer func(string) string

// Frame describes one entry of a captured call stack. Column is zero
// when it is unknown.
type Frame struct {
	Function string
	File     string
	Line     int
	Column   int
}

// ShortFile returns the base name of the frame's file.
func (f Frame) ShortFile() string {
	return filepath.Base(f.File)
}

// String renders the frame as function@file:line:column.
func (f Frame) String() string {
	fn := f.Function
	if fn == "" {
		fn = "(unnamed)"
	}
	return fn + "@" + f.File + ":" + strconv.Itoa(f.Line) + ":" + strconv.Itoa(f.Column)
}
