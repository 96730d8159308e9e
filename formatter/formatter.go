package formatter

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// Pad right-aligns the string form of value inside length characters,
// filling with fill. Values already at least length wide are returned
// unchanged. A length <= 0 means 2 and a zero fill means '0'.
func Pad(value any, length int, fill rune) string {
	if length <= 0 {
		length = 2
	}
	if fill == 0 {
		fill = '0'
	}
	s := fmt.Sprint(value)
	missing := length - utf8.RuneCountInString(s)
	if missing <= 0 {
		return s
	}
	return strings.Repeat(string(fill), missing) + s
}

// TimestampLayout documents the rendered timestamp shape.
const TimestampLayout = "YYYY-MM-DD HH:mm:ss.mmm"

// FormatTimestamp renders t in local wall-clock time as
// YYYY-MM-DD HH:mm:ss.mmm.
func FormatTimestamp(t time.Time) string {
	return string(AppendTimestamp(make([]byte, 0, len(TimestampLayout)), t))
}

// AppendTimestamp appends the FormatTimestamp rendering of t to dst.
func AppendTimestamp(dst []byte, t time.Time) []byte {
	t = t.Local()
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()
	dst = appendInt(dst, year, 4)
	dst = append(dst, '-')
	dst = appendInt(dst, int(month), 2)
	dst = append(dst, '-')
	dst = appendInt(dst, day, 2)
	dst = append(dst, ' ')
	dst = appendInt(dst, hour, 2)
	dst = append(dst, ':')
	dst = appendInt(dst, minute, 2)
	dst = append(dst, ':')
	dst = appendInt(dst, sec, 2)
	dst = append(dst, '.')
	return appendInt(dst, t.Nanosecond()/int(time.Millisecond), 3)
}

// appendInt appends n zero-padded to width digits.
func appendInt(dst []byte, n, width int) []byte {
	var digits [20]byte
	i := len(digits)
	if n < 0 {
		n = -n
	}
	for n >= 10 {
		i--
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	i--
	digits[i] = byte('0' + n)
	for w := len(digits) - i; w < width; w++ {
		dst = append(dst, '0')
	}
	return append(dst, digits[i:]...)
}

// bufferPool is a pool of bytes.Buffer used to assemble output lines
var bufferPool = &sync.Pool{
	New: func() interface{} {
		b := new(bytes.Buffer)
		b.Grow(256)
		return b
	},
}

// GetBuffer returns an empty pooled buffer.
func GetBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns buf to the pool.
func PutBuffer(buf *bytes.Buffer) {
	if buf.Cap() > 64*1024 { // Don't keep very large buffers
		return
	}
	bufferPool.Put(buf)
}

// AppendLine writes one output line, timestamp + " " + line + "\n", to buf.
func AppendLine(buf *bytes.Buffer, t time.Time, line string) {
	buf.Write(AppendTimestamp(buf.AvailableBuffer(), t))
	buf.WriteByte(' ')
	buf.WriteString(line)
	buf.WriteByte('\n')
}
